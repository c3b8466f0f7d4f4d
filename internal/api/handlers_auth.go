package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/qyliu/paperdeck/internal/backend"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.Username == "" || body.Password == "" {
		jsonError(w, "username and password are required", http.StatusBadRequest)
		return
	}

	user, err := s.session.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		var bizErr *backend.BusinessError
		if errors.As(err, &bizErr) {
			jsonError(w, bizErr.Message, http.StatusUnauthorized)
			return
		}
		s.log.Error("login failed", "error", err)
		jsonError(w, "login temporarily unavailable", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Logout(r.Context()); err != nil {
		s.log.Error("logout failed", "error", err)
		jsonError(w, "logout failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.session.User()
	if !ok {
		jsonError(w, "not signed in", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
