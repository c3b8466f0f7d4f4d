package parsing

import (
	"sync"
	"time"

	"github.com/qyliu/paperdeck/internal/document"
)

// Session tracks one text-to-blocks conversion from submission to its
// terminal stage. The placeholder block in the document mirrors this state;
// the session additionally keeps the raw text so a failed parse can retry.
type Session struct {
	mu sync.Mutex

	ID           string
	PaperID      string
	AfterBlockID string
	TempBlockID  string
	BackendID    string // backend parse session, set once structuring returns
	RawText      string

	Stage     document.ParseStage
	Message   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is a read-only, JSON-safe copy of session state.
type Snapshot struct {
	ParseID      string              `json:"parseId"`
	PaperID      string              `json:"paperId"`
	AfterBlockID string              `json:"afterBlockId"`
	TempBlockID  string              `json:"tempBlockId"`
	Stage        document.ParseStage `json:"stage"`
	Message      string              `json:"message"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ParseID:      s.ID,
		PaperID:      s.PaperID,
		AfterBlockID: s.AfterBlockID,
		TempBlockID:  s.TempBlockID,
		Stage:        s.Stage,
		Message:      s.Message,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// setStage advances the session. Stages never move backwards; a terminal
// stage is final.
func (s *Session) setStage(stage document.ParseStage, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Stage.Terminal() {
		return
	}
	s.Stage = stage
	s.Message = message
	s.UpdatedAt = time.Now()
}

func (s *Session) setBackendID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BackendID = id
}

func (s *Session) backendID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.BackendID
}

// resetForRetry rearms a failed session for a fresh attempt with a new
// placeholder. This is a new attempt, not a backward transition of a live
// parse: it is only legal from the failed stage.
func (s *Session) resetForRetry(tempBlockID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Stage != document.StageFailed {
		return false
	}
	s.Stage = document.StageStructuring
	s.Message = "structuring"
	s.TempBlockID = tempBlockID
	s.BackendID = ""
	s.UpdatedAt = time.Now()
	return true
}

func (s *Session) stage() document.ParseStage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Stage
}
