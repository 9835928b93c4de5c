package backend

import (
	"context"
	"net/http"

	"storefront-admin/internal/models"
)

// Authenticate exchanges admin credentials for a token. A successful
// envelope without a token returns "" and no error.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, pathAdminLogin, models.LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return "", err
	}

	env, err := c.do(OpAuthenticate, req)
	if err != nil {
		return "", err
	}
	return env.Token, nil
}
