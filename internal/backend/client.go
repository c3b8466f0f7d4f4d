// Package backend is the typed HTTP client for the external paper-platform
// backend. The backend owns persistence, the parsing pipeline and the
// account store; this client only moves typed requests and responses.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnauthorized is returned when the backend rejects the auth token.
var ErrUnauthorized = errors.New("unauthorized")

// BusinessError is a well-formed backend response carrying a non-success
// business code.
type BusinessError struct {
	Code    int
	Message string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Message)
}

// TokenSource supplies the current auth token. An empty string sends the
// request unauthenticated.
type TokenSource interface {
	Token() string
}

// Client communicates with the platform backend HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewClient creates a backend client. The timeout bounds every call,
// including the long-running parse phases.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetTokenSource wires the session that supplies auth tokens. Must be
// called before authenticated requests; done once during startup.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// envelope is the backend's business wrapper. Every response body is
// unwrapped exactly once: code 0 yields data, anything else is a
// BusinessError. (Historically some endpoints double-wrapped; the contract
// here is a single unwrap and the backend has converged on it.)
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do sends one JSON request and decodes the unwrapped data into out (out
// may be nil for calls with no interesting payload).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	return c.decode(method, path, resp, out)
}

func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	}
}

func (c *Client) decode(method, path string, resp *http.Response, out any) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(snippet))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decode envelope: %w", method, path, err)
	}
	if env.Code != 0 {
		return &BusinessError{Code: env.Code, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", method, path, err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
