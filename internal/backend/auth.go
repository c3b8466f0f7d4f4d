package backend

import (
	"context"
	"net/http"
)

// User is the platform account attached to a session.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	Role        string `json:"role,omitempty"`
}

// AuthResult is the backend's answer to a successful login or refresh.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login exchanges credentials for an auth token.
func (c *Client) Login(ctx context.Context, username, password string) (AuthResult, error) {
	var out AuthResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return AuthResult{}, err
	}
	return out, nil
}

// Refresh validates a persisted token and returns a fresh one with the
// current user. Used for the silent sign-in at startup.
func (c *Client) Refresh(ctx context.Context, token string) (AuthResult, error) {
	var out AuthResult
	body := map[string]string{"token": token}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", body, &out); err != nil {
		return AuthResult{}, err
	}
	return out, nil
}

// Logout invalidates the session server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}
