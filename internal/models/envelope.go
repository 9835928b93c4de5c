package models

import "encoding/json"

// Envelope is the wrapper every backend response shares.
type Envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message,omitempty"`
	Token    string          `json:"token,omitempty"`
	Products json.RawMessage `json:"products,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Orders   json.RawMessage `json:"orders,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
