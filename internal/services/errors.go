package services

import "fmt"

// RefetchError means a mutation succeeded but reloading the list after it
// failed. Message carries the backend's reply to the mutation.
type RefetchError struct {
	Message string
	Err     error
}

func (e *RefetchError) Error() string {
	return fmt.Sprintf("reload after change: %v", e.Err)
}

func (e *RefetchError) Unwrap() error {
	return e.Err
}
