// Package api is the HTTP surface of the reading service: auth, document
// views and edits, the parse lifecycle, uploads and notes.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/qyliu/paperdeck/internal/backend"
	"github.com/qyliu/paperdeck/internal/config"
	"github.com/qyliu/paperdeck/internal/docview"
	"github.com/qyliu/paperdeck/internal/parsing"
	"github.com/qyliu/paperdeck/internal/session"
)

// Server is the HTTP API server for paperdeck.
type Server struct {
	router  chi.Router
	views   *docview.Store
	parses  *parsing.Manager
	session *session.Session
	client  *backend.Client
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(views *docview.Store, parses *parsing.Manager, sess *session.Session, client *backend.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		views:   views,
		parses:  parses,
		session: sess,
		client:  client,
		log:     log,
		cfg:     cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/logout", s.handleLogout)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(RequireSignIn(s.session))

		r.Get("/api/auth/me", s.handleMe)

		r.Route("/api/papers/{paperID}", func(r chi.Router) {
			r.Get("/document", s.handleGetDocument)
			r.Put("/document", s.handleSaveDocument)
			r.Post("/blocks", s.handleInsertBlocks)
			r.Delete("/blocks/{blockID}", s.handleDeleteBlock)
			r.Post("/blocks/{blockID}/replace", s.handleReplaceBlock)

			r.Post("/parse", s.handleSubmitParse)
			r.Get("/parse/{parseID}", s.handleParseStatus)
			r.Post("/parse/{parseID}/confirm", s.handleConfirmParse)
			r.Post("/parse/{parseID}/reject", s.handleRejectParse)
			r.Post("/parse/{parseID}/retry", s.handleRetryParse)
			r.Get("/parse/{parseID}/events", s.handleParseEvents)

			r.Put("/position", s.handleSavePosition)
			r.Delete("/view", s.handleCloseView)
		})

		r.Post("/api/upload", s.handleUpload)
		r.Post("/api/import", s.handleImport)

		r.Route("/api/notes", func(r chi.Router) {
			r.Post("/preview", s.handleNotePreview)
			for _, family := range []string{"/admin/{scopeID}", "/user/{scopeID}"} {
				r.Route(family, func(r chi.Router) {
					r.Get("/", s.handleListNotes)
					r.Post("/", s.handleCreateNote)
					r.Put("/{noteID}", s.handleUpdateNote)
					r.Delete("/{noteID}", s.handleDeleteNote)
				})
			}
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
