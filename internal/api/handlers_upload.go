package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/qyliu/paperdeck/internal/importer"
)

// handleUpload proxies a file to the backend's storage. For importable
// text formats the response also carries the extracted text, so a client
// can prefill the parse flow from the same upload.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	paperID := r.FormValue("paper_id")

	result, err := s.client.Upload(r.Context(), filename, bytes.NewReader(data), paperID)
	if err != nil {
		s.respondBackendError(w, err)
		return
	}

	resp := map[string]any{"upload": result}
	if importer.IsSupported(filename) {
		extract, err := importer.ExtractText(filename, bytes.NewReader(data))
		if err != nil {
			s.log.Warn("text extraction failed", "filename", filename, "error", err)
		} else {
			resp["extract"] = map[string]any{
				"title": extract.Title,
				"text":  extract.Text,
				"pages": extract.Pages,
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleImport extracts text from an uploaded file and feeds it straight
// into the parse pipeline of an open paper.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if !importer.IsSupported(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	paperID := r.FormValue("paper_id")
	if paperID == "" {
		jsonError(w, "paper_id is required", http.StatusBadRequest)
		return
	}
	view, found := s.views.Get(paperID)
	if !found {
		jsonError(w, "paper not open", http.StatusNotFound)
		return
	}

	extract, err := importer.ExtractText(filename, bytes.NewReader(data))
	if err != nil {
		jsonError(w, "text extraction failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if strings.TrimSpace(extract.Text) == "" {
		jsonError(w, "file contains no extractable text", http.StatusUnprocessableEntity)
		return
	}

	snap, err := s.parses.Submit(view, paperID, r.FormValue("after_block_id"), extract.Text)
	if err != nil {
		s.respondParseError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"parse": snap,
		"title": extract.Title,
		"pages": extract.Pages,
	})
}

// readUpload pulls the single "file" field out of a multipart request,
// enforcing the configured size limit.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return "", nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", nil, false
	}
	return filename, data, true
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
