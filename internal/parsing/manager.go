// Package parsing drives the async text-to-blocks lifecycle: a placeholder
// block is inserted at the requested position, moves through structuring and
// translating as backend responses arrive, surfaces candidate blocks for
// user confirmation, and is finally replaced in the document or left in a
// visible failed state.
package parsing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/qyliu/paperdeck/internal/document"
)

// Pipeline is the backend parse API the manager drives. Calls block until
// the backend finishes the corresponding phase.
type Pipeline interface {
	// StructureText segments and classifies raw text, returning the backend
	// session ID for the follow-up calls.
	StructureText(ctx context.Context, paperID, text string) (string, error)
	// TranslateParse produces the bilingual candidate blocks for a
	// structured session.
	TranslateParse(ctx context.Context, sessionID string) ([]document.Block, error)
}

// DocumentStore applies an edit to a document snapshot. Updates run in call
// order; a returned error leaves the snapshot unchanged.
type DocumentStore interface {
	Update(fn func(*document.Document) (*document.Document, error)) error
}

// Manager owns all parse sessions of one server instance.
type Manager struct {
	pipeline Pipeline
	log      *slog.Logger
	timeout  time.Duration
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
	active   map[string]string // afterBlockID -> parse ID with a live placeholder
	subs     map[string][]chan Event
}

// NewManager creates a parse manager. timeout bounds one backend phase; ttl
// controls how long terminal sessions stay queryable.
func NewManager(pipeline Pipeline, log *slog.Logger, timeout, ttl time.Duration) *Manager {
	return &Manager{
		pipeline: pipeline,
		log:      log,
		timeout:  timeout,
		ttl:      ttl,
		sessions: make(map[string]*Session),
		active:   make(map[string]string),
		subs:     make(map[string][]chan Event),
	}
}

// Start launches the session janitor. It stops when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.cleanup()
			}
		}
	}()
}

func (m *Manager) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, s := range m.sessions {
		snap := s.Snapshot()
		if snap.Stage.Terminal() && now.Sub(snap.UpdatedAt) > m.ttl {
			delete(m.sessions, id)
		}
	}
}

// Submit starts a parse: it inserts a structuring placeholder immediately
// after afterBlockID and spawns the pipeline. Only one placeholder may
// occupy an insertion point; a second submit while the first is still live
// is rejected.
//
// The spawned work is bounded by the manager timeout, not by the caller's
// context: tearing down a view abandons the goroutine without cancelling
// the backend operation. Known limitation.
func (m *Manager) Submit(store DocumentStore, paperID, afterBlockID, text string) (Snapshot, error) {
	pid := newParseID()
	tempID := "parsing-" + pid
	now := time.Now()

	session := &Session{
		ID:           pid,
		PaperID:      paperID,
		AfterBlockID: afterBlockID,
		TempBlockID:  tempID,
		RawText:      text,
		Stage:        document.StageStructuring,
		Message:      "structuring",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	m.mu.Lock()
	if liveID, ok := m.active[afterBlockID]; ok {
		if live, tracked := m.sessions[liveID]; tracked && !live.stage().Terminal() {
			m.mu.Unlock()
			return Snapshot{}, fmt.Errorf("after block %q: %w", afterBlockID, ErrParseInProgress)
		}
	}
	m.active[afterBlockID] = pid
	m.sessions[pid] = session
	m.mu.Unlock()

	placeholder := &document.Parsing{
		ID:          tempID,
		Stage:       document.StageStructuring,
		Message:     "structuring",
		CreatedAt:   now,
		ParseID:     pid,
		TempBlockID: tempID,
	}
	err := store.Update(func(doc *document.Document) (*document.Document, error) {
		return doc.InsertAfter(afterBlockID, placeholder)
	})
	if err != nil {
		m.drop(pid, afterBlockID)
		return Snapshot{}, fmt.Errorf("insert placeholder: %w", err)
	}

	go m.run(session, store)
	return session.Snapshot(), nil
}

// Status returns the current state of a parse.
func (m *Manager) Status(parseID string) (Snapshot, error) {
	m.mu.Lock()
	session, ok := m.sessions[parseID]
	m.mu.Unlock()
	if !ok {
		return Snapshot{}, ErrUnknownParse
	}
	return session.Snapshot(), nil
}

// Confirm replaces a pending placeholder with its candidate blocks at the
// same position. The document's total block count changes by
// len(parsedBlocks)-1.
func (m *Manager) Confirm(store DocumentStore, parseID string) error {
	session, err := m.sessionAt(parseID, document.StagePendingConfirmation)
	if err != nil {
		return err
	}
	snap := session.Snapshot()
	err = store.Update(func(doc *document.Document) (*document.Document, error) {
		loc, ok := doc.FindBlock(snap.TempBlockID)
		if !ok {
			return nil, fmt.Errorf("placeholder %q: %w", snap.TempBlockID, document.ErrBlockNotFound)
		}
		p, ok := loc.Section.Content[loc.BlockIndex].(*document.Parsing)
		if !ok {
			return nil, fmt.Errorf("block %q is not a placeholder", snap.TempBlockID)
		}
		return doc.ReplaceRange(loc.Section.ID, loc.BlockIndex, 1, p.ParsedBlocks...)
	})
	if err != nil {
		return fmt.Errorf("confirm parse %s: %w", parseID, err)
	}
	session.setStage(document.StageCompleted, "completed")
	m.publish(parseID, document.StageCompleted, "completed")
	m.release(session)
	return nil
}

// Reject discards a pending placeholder without committing its blocks.
func (m *Manager) Reject(store DocumentStore, parseID string) error {
	session, err := m.sessionAt(parseID, document.StagePendingConfirmation)
	if err != nil {
		return err
	}
	snap := session.Snapshot()
	err = store.Update(func(doc *document.Document) (*document.Document, error) {
		return doc.DeleteBlock(snap.TempBlockID)
	})
	if err != nil {
		return fmt.Errorf("reject parse %s: %w", parseID, err)
	}
	session.setStage(document.StageCompleted, MsgRejected)
	m.publish(parseID, document.StageCompleted, MsgRejected)
	m.release(session)
	return nil
}

// Retry reruns a failed parse with its original text. The failed
// placeholder is swapped for a fresh structuring one — an explicit user
// action, so removing the failed placeholder is allowed here.
func (m *Manager) Retry(store DocumentStore, parseID string) (Snapshot, error) {
	m.mu.Lock()
	session, ok := m.sessions[parseID]
	m.mu.Unlock()
	if !ok {
		return Snapshot{}, ErrUnknownParse
	}

	old := session.Snapshot()
	if old.Stage != document.StageFailed {
		return Snapshot{}, fmt.Errorf("retry parse %s: %w", parseID, ErrWrongStage)
	}

	// The failed attempt released its insertion point; make sure nothing
	// else claimed it since.
	m.mu.Lock()
	if liveID, ok := m.active[old.AfterBlockID]; ok && liveID != parseID {
		if live, tracked := m.sessions[liveID]; tracked && !live.stage().Terminal() {
			m.mu.Unlock()
			return Snapshot{}, fmt.Errorf("after block %q: %w", old.AfterBlockID, ErrParseInProgress)
		}
	}
	m.active[old.AfterBlockID] = parseID
	m.mu.Unlock()

	freshID := "parsing-" + newParseID()
	if !session.resetForRetry(freshID) {
		// Lost a race with a concurrent Retry of the same session; the
		// guard still names this parse, so leave it in place.
		return Snapshot{}, fmt.Errorf("retry parse %s: %w", parseID, ErrWrongStage)
	}

	placeholder := &document.Parsing{
		ID:          freshID,
		Stage:       document.StageStructuring,
		Message:     "structuring",
		CreatedAt:   time.Now(),
		ParseID:     parseID,
		TempBlockID: freshID,
	}
	err := store.Update(func(doc *document.Document) (*document.Document, error) {
		loc, ok := doc.FindBlock(old.TempBlockID)
		if !ok {
			return nil, fmt.Errorf("placeholder %q: %w", old.TempBlockID, document.ErrBlockNotFound)
		}
		next, err := doc.ReplaceRange(loc.Section.ID, loc.BlockIndex, 0, placeholder)
		if err != nil {
			return nil, err
		}
		return next.DeleteBlock(old.TempBlockID)
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("retry parse %s: %w", parseID, err)
	}

	m.publish(parseID, document.StageStructuring, "structuring")
	go m.run(session, store)
	return session.Snapshot(), nil
}

// run executes the pipeline phases for one attempt.
func (m *Manager) run(session *Session, store DocumentStore) {
	snap := session.Snapshot()
	log := m.log.With("parse_id", snap.ParseID, "paper_id", snap.PaperID)

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	backendID, err := m.pipeline.StructureText(ctx, snap.PaperID, session.RawText)
	if err != nil {
		m.fail(session, store, log, "structure", err)
		return
	}
	session.setBackendID(backendID)
	m.transition(session, store, document.StageTranslating, "translating")

	blocks, err := m.pipeline.TranslateParse(ctx, backendID)
	if err != nil {
		m.fail(session, store, log, "translate", err)
		return
	}
	if len(blocks) == 0 {
		m.fail(session, store, log, "translate", fmt.Errorf("backend returned no blocks"))
		return
	}

	session.setStage(document.StagePendingConfirmation, "awaiting confirmation")
	m.updatePlaceholder(session, store, log, func(p *document.Parsing) *document.Parsing {
		next := p.WithParsedBlocks(blocks, "awaiting confirmation")
		next.SessionID = backendID
		return next
	})
	m.publish(session.ID, document.StagePendingConfirmation, "awaiting confirmation")
}

func (m *Manager) transition(session *Session, store DocumentStore, stage document.ParseStage, message string) {
	session.setStage(stage, message)
	backendID := session.backendID()
	log := m.log.With("parse_id", session.ID)
	m.updatePlaceholder(session, store, log, func(p *document.Parsing) *document.Parsing {
		next := p.WithStage(stage, message)
		next.SessionID = backendID
		return next
	})
	m.publish(session.ID, stage, message)
}

// fail records a terminal failure: the session and placeholder both move to
// failed, the message is the triaged user-facing text, and the insertion
// point is released so the user can retry or delete.
func (m *Manager) fail(session *Session, store DocumentStore, log *slog.Logger, phase string, err error) {
	msg := ClassifyError(err)
	log.Error("parse pipeline failed", "phase", phase, "error", err)
	session.setStage(document.StageFailed, msg)
	m.updatePlaceholder(session, store, log, func(p *document.Parsing) *document.Parsing {
		return p.WithStage(document.StageFailed, msg)
	})
	m.publish(session.ID, document.StageFailed, msg)
	m.release(session)
}

// updatePlaceholder swaps the placeholder block for an updated copy. A
// missing placeholder means the user deleted it mid-flight; the update is
// skipped and logged, not an error.
func (m *Manager) updatePlaceholder(session *Session, store DocumentStore, log *slog.Logger, fn func(*document.Parsing) *document.Parsing) {
	snap := session.Snapshot()
	err := store.Update(func(doc *document.Document) (*document.Document, error) {
		loc, ok := doc.FindBlock(snap.TempBlockID)
		if !ok {
			log.Warn("placeholder gone, skipping update", "temp_block_id", snap.TempBlockID)
			return doc, nil
		}
		p, ok := loc.Section.Content[loc.BlockIndex].(*document.Parsing)
		if !ok {
			return nil, fmt.Errorf("block %q is not a placeholder", snap.TempBlockID)
		}
		return doc.ReplaceRange(loc.Section.ID, loc.BlockIndex, 1, fn(p))
	})
	if err != nil {
		log.Error("placeholder update failed", "error", err)
	}
}

// sessionAt fetches a session and checks it is in the required stage.
func (m *Manager) sessionAt(parseID string, stage document.ParseStage) (*Session, error) {
	m.mu.Lock()
	session, ok := m.sessions[parseID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrUnknownParse
	}
	if session.stage() != stage {
		return nil, fmt.Errorf("parse %s is %s: %w", parseID, session.stage(), ErrWrongStage)
	}
	return session, nil
}

// release frees the insertion-point guard once a parse reaches a terminal
// stage. Failed sessions stay tracked so Retry can find them.
func (m *Manager) release(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active[session.AfterBlockID] == session.ID {
		delete(m.active, session.AfterBlockID)
	}
}

func (m *Manager) drop(parseID, afterBlockID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, parseID)
	if m.active[afterBlockID] == parseID {
		delete(m.active, afterBlockID)
	}
}
