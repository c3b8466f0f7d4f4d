// Package session owns the auth lifecycle on top of the backend client:
// silent sign-in at startup, explicit login and logout, and the token the
// client attaches to every request.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/qyliu/paperdeck/internal/backend"
)

// Authenticator is the slice of the backend client the session uses.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (backend.AuthResult, error)
	Refresh(ctx context.Context, token string) (backend.AuthResult, error)
	Logout(ctx context.Context) error
}

// Session tracks the signed-in user and the current auth token. It
// satisfies backend.TokenSource, so the client picks up token changes
// without further wiring.
type Session struct {
	auth  Authenticator
	store TokenStore
	log   *slog.Logger

	mu    sync.RWMutex
	token string
	user  backend.User
}

// New creates a signed-out session.
func New(auth Authenticator, store TokenStore, log *slog.Logger) *Session {
	return &Session{auth: auth, store: store, log: log}
}

// Token implements backend.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SignedIn reports whether a user is currently authenticated.
func (s *Session) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// User returns the signed-in user, or false when signed out.
func (s *Session) User() (backend.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.token != ""
}

// Init attempts the silent sign-in: if a persisted token exists, exchange
// it for a fresh one. A rejected token is cleared and leaves the session
// signed out without error; only infrastructure failures are returned.
func (s *Session) Init(ctx context.Context) error {
	token, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load persisted token: %w", err)
	}
	if token == "" {
		s.log.Info("no persisted token, starting signed out")
		return nil
	}

	res, err := s.auth.Refresh(ctx, token)
	if errors.Is(err, backend.ErrUnauthorized) {
		s.log.Info("persisted token rejected, clearing it")
		return s.store.Clear()
	}
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}

	s.adopt(res)
	s.log.Info("silent sign-in", "user", res.User.Username)
	return nil
}

// Login authenticates with credentials and persists the resulting token.
func (s *Session) Login(ctx context.Context, username, password string) (backend.User, error) {
	res, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return backend.User{}, err
	}
	s.adopt(res)
	s.log.Info("signed in", "user", res.User.Username)
	return res.User, nil
}

// Logout signs out. The server-side invalidation is best-effort; local
// state and the persisted token are always cleared.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.auth.Logout(ctx); err != nil && !errors.Is(err, backend.ErrUnauthorized) {
		s.log.Warn("server-side logout failed", "error", err)
	}

	s.mu.Lock()
	s.token = ""
	s.user = backend.User{}
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clear persisted token: %w", err)
	}
	s.log.Info("signed out")
	return nil
}

func (s *Session) adopt(res backend.AuthResult) {
	s.mu.Lock()
	s.token = res.Token
	s.user = res.User
	s.mu.Unlock()

	if err := s.store.Save(res.Token); err != nil {
		s.log.Warn("persist token failed", "error", err)
	}
}
