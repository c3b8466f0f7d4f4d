package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/qyliu/paperdeck/internal/parsing"
)

func (s *Server) handleSubmitParse(w http.ResponseWriter, r *http.Request) {
	view, ok := s.openView(w, r)
	if !ok {
		return
	}

	var body struct {
		AfterBlockID string `json:"afterBlockId"`
		Text         string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.Text == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	snap, err := s.parses.Submit(view, view.PaperID(), body.AfterBlockID, body.Text)
	if err != nil {
		s.respondParseError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) handleParseStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.parses.Status(chi.URLParam(r, "parseID"))
	if err != nil {
		s.respondParseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleConfirmParse(w http.ResponseWriter, r *http.Request) {
	view, ok := s.openView(w, r)
	if !ok {
		return
	}
	if err := s.parses.Confirm(view, chi.URLParam(r, "parseID")); err != nil {
		s.respondParseError(w, err)
		return
	}
	// The confirmed blocks shift every number after them.
	view.Reflow()
	writeJSON(w, http.StatusOK, view.Snapshot())
}

func (s *Server) handleRejectParse(w http.ResponseWriter, r *http.Request) {
	view, ok := s.openView(w, r)
	if !ok {
		return
	}
	if err := s.parses.Reject(view, chi.URLParam(r, "parseID")); err != nil {
		s.respondParseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Snapshot())
}

func (s *Server) handleRetryParse(w http.ResponseWriter, r *http.Request) {
	view, ok := s.openView(w, r)
	if !ok {
		return
	}
	snap, err := s.parses.Retry(view, chi.URLParam(r, "parseID"))
	if err != nil {
		s.respondParseError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The reader app connects from app and file origins that never match
	// the Host header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleParseEvents streams stage transitions for one parse over a
// websocket. The current snapshot is sent first, then every transition
// until a terminal stage closes the stream.
func (s *Server) handleParseEvents(w http.ResponseWriter, r *http.Request) {
	parseID := chi.URLParam(r, "parseID")

	snap, err := s.parses.Status(parseID)
	if err != nil {
		s.respondParseError(w, err)
		return
	}
	events, cancel, err := s.parses.Subscribe(parseID)
	if err != nil {
		s.respondParseError(w, err)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Reader goroutine: consume control frames and notice the client
	// going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	first := parsing.Event{ParseID: snap.ParseID, Stage: snap.Stage, Message: snap.Message, At: snap.UpdatedAt}
	if err := writeEvent(conn, first); err != nil {
		return
	}
	if snap.Stage.Terminal() {
		writeClose(conn)
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case ev, open := <-events:
			if !open {
				writeClose(conn)
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev parsing.Event) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(ev)
}

func writeClose(conn *websocket.Conn) {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "parse finished"))
}

func (s *Server) respondParseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, parsing.ErrUnknownParse):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, parsing.ErrParseInProgress):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, parsing.ErrWrongStage):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		s.respondEditError(w, err)
	}
}
