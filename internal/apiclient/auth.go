package apiclient

import (
	"context"
	"net/http"
)

// LoginRequest carries the credentials exchanged for a session token.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginResponse is the token pair issued on successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	AnonymousID string `json:"anonymous_id"`
	Username    string `json:"username"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var out LoginResponse
	if err := checkPayload(req); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, req, &out)
	return out, err
}

// Logout invalidates the current session server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil, nil)
}

// RotateKeys asks the server to reissue the caller's API keys.
func (c *Client) RotateKeys(ctx context.Context) (LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/rotate-keys", nil, nil, &out)
	return out, err
}
