package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/qyliu/paperdeck/internal/backend"
	"github.com/qyliu/paperdeck/internal/notes"
)

// noteScope maps the request path to the matching backend route family.
func noteScope(r *http.Request) backend.NoteScope {
	scopeID := chi.URLParam(r, "scopeID")
	if strings.Contains(r.URL.Path, "/notes/admin/") {
		return backend.AdminScope(scopeID)
	}
	return backend.UserScope(scopeID)
}

// noteView is a note plus its rendered display forms.
type noteView struct {
	backend.Note
	HTML    string `json:"html"`
	Preview string `json:"preview"`
}

func (s *Server) renderNote(n backend.Note) noteView {
	view := noteView{Note: n}
	rendered, err := notes.Render(n.Content)
	if err != nil {
		s.log.Warn("note render failed", "note_id", n.ID, "error", err)
		return view
	}
	view.HTML = rendered.HTML
	if preview, err := notes.Preview(n.Content, s.cfg.NotePreviewLength); err == nil {
		view.Preview = preview
	}
	return view
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	list, err := s.client.ListNotes(r.Context(), noteScope(r))
	if err != nil {
		s.respondBackendError(w, err)
		return
	}
	views := make([]noteView, 0, len(list))
	for _, n := range list {
		views = append(views, s.renderNote(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": views})
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var draft backend.NoteDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(draft.Content) == "" {
		jsonError(w, "content is required", http.StatusBadRequest)
		return
	}

	note, err := s.client.CreateNote(r.Context(), noteScope(r), draft)
	if err != nil {
		s.respondBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.renderNote(note))
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var draft backend.NoteDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	note, err := s.client.UpdateNote(r.Context(), noteScope(r), chi.URLParam(r, "noteID"), draft)
	if err != nil {
		s.respondBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.renderNote(note))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.client.DeleteNote(r.Context(), noteScope(r), chi.URLParam(r, "noteID")); err != nil {
		s.respondBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleNotePreview renders markdown without saving anything, for live
// editor previews.
func (s *Server) handleNotePreview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	rendered, err := notes.Render(body.Content)
	if err != nil {
		jsonError(w, "render failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, rendered)
}
