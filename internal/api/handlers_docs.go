package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qyliu/paperdeck/internal/backend"
	"github.com/qyliu/paperdeck/internal/document"
	"github.com/qyliu/paperdeck/internal/docview"
)

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")
	view, err := s.views.Open(r.Context(), paperID)
	if err != nil {
		s.respondBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Snapshot())
}

func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	view, ok := s.openView(w, r)
	if !ok {
		return
	}
	if err := view.Save(r.Context()); err != nil {
		s.respondBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleInsertBlocks(w http.ResponseWriter, r *http.Request) {
	view, ok := s.openView(w, r)
	if !ok {
		return
	}

	var body struct {
		AfterBlockID string            `json:"afterBlockId"`
		Blocks       []json.RawMessage `json:"blocks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	blocks, err := decodeBlocks(body.Blocks)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(blocks) == 0 {
		jsonError(w, "at least one block is required", http.StatusBadRequest)
		return
	}

	err = view.Update(func(doc *document.Document) (*document.Document, error) {
		return doc.InsertAfter(body.AfterBlockID, blocks...)
	})
	if err != nil {
		s.respondEditError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Snapshot())
}

func (s *Server) handleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	view, ok := s.openView(w, r)
	if !ok {
		return
	}
	blockID := chi.URLParam(r, "blockID")

	err := view.Update(func(doc *document.Document) (*document.Document, error) {
		return doc.DeleteBlock(blockID)
	})
	if err != nil {
		s.respondEditError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Snapshot())
}

func (s *Server) handleReplaceBlock(w http.ResponseWriter, r *http.Request) {
	view, ok := s.openView(w, r)
	if !ok {
		return
	}
	blockID := chi.URLParam(r, "blockID")

	var body struct {
		Blocks []json.RawMessage `json:"blocks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	blocks, err := decodeBlocks(body.Blocks)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = view.Update(func(doc *document.Document) (*document.Document, error) {
		loc, found := doc.FindBlock(blockID)
		if !found {
			return nil, document.ErrBlockNotFound
		}
		return doc.ReplaceRange(loc.Section.ID, loc.BlockIndex, 1, blocks...)
	})
	if err != nil {
		s.respondEditError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Snapshot())
}

func (s *Server) handleSavePosition(w http.ResponseWriter, r *http.Request) {
	view, ok := s.openView(w, r)
	if !ok {
		return
	}
	var pos backend.ReadingPosition
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if pos.BlockID == "" {
		jsonError(w, "blockId is required", http.StatusBadRequest)
		return
	}
	view.RecordPosition(pos)
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (s *Server) handleCloseView(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")
	if !s.views.Close(paperID) {
		jsonError(w, "paper not open", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// openView resolves the view for an already open paper; edits never open a
// paper implicitly.
func (s *Server) openView(w http.ResponseWriter, r *http.Request) (*docview.View, bool) {
	paperID := chi.URLParam(r, "paperID")
	view, found := s.views.Get(paperID)
	if !found {
		jsonError(w, "paper not open", http.StatusNotFound)
		return nil, false
	}
	return view, true
}

func decodeBlocks(raw []json.RawMessage) ([]document.Block, error) {
	blocks := make([]document.Block, 0, len(raw))
	for _, rb := range raw {
		b, err := document.UnmarshalBlock(rb)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func (s *Server) respondEditError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, document.ErrBlockNotFound), errors.Is(err, document.ErrSectionNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, document.ErrFailedPlaceholder):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		jsonError(w, err.Error(), http.StatusBadRequest)
	}
}

func (s *Server) respondBackendError(w http.ResponseWriter, err error) {
	var bizErr *backend.BusinessError
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		jsonError(w, "backend session expired", http.StatusUnauthorized)
	case errors.As(err, &bizErr):
		jsonError(w, bizErr.Message, http.StatusBadGateway)
	default:
		s.log.Error("backend call failed", "error", err)
		jsonError(w, "backend temporarily unavailable", http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
