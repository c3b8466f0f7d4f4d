// Package docview holds the server-side working copy of each open document:
// the current snapshot, its reference registry and the reading position.
// Views absorb edits from handlers and the parse manager, and flush state
// back to the backend on save and teardown.
package docview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/qyliu/paperdeck/internal/backend"
	"github.com/qyliu/paperdeck/internal/document"
	"github.com/qyliu/paperdeck/internal/refs"
)

// Backend is the slice of the backend client views need.
type Backend interface {
	GetDocument(ctx context.Context, paperID string) (*document.Document, error)
	SaveDocument(ctx context.Context, paperID string, doc *document.Document) error
	SavePosition(ctx context.Context, paperID string, pos backend.ReadingPosition) error
}

// View is one open document. All snapshot access goes through the mutex;
// snapshots themselves are immutable, so callers may hold them freely.
type View struct {
	paperID  string
	backend  Backend
	registry *refs.Registry
	log      *slog.Logger

	mu    sync.Mutex
	doc   *document.Document
	pos   backend.ReadingPosition
	dirty bool
}

func newView(paperID string, doc *document.Document, b Backend, log *slog.Logger) *View {
	v := &View{
		paperID:  paperID,
		backend:  b,
		registry: refs.NewRegistry(log),
		log:      log.With("paper_id", paperID),
	}
	v.doc = v.registry.Assign(doc)
	return v
}

// PaperID returns the paper this view belongs to.
func (v *View) PaperID() string { return v.paperID }

// Registry exposes the view's reference registry for resolution and
// highlighting.
func (v *View) Registry() *refs.Registry { return v.registry }

// Snapshot returns the current document snapshot.
func (v *View) Snapshot() *document.Document {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc
}

// Update applies an edit to the current snapshot and renumbers unassigned
// entities. A returned error leaves the snapshot unchanged. Satisfies
// parsing.DocumentStore.
func (v *View) Update(fn func(*document.Document) (*document.Document, error)) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	next, err := fn(v.doc)
	if err != nil {
		return err
	}
	v.doc = v.registry.Assign(next)
	v.dirty = true
	return nil
}

// Reflow renumbers every figure, table, equation and reference from scratch.
// Called after structural edits such as a confirmed parse.
func (v *View) Reflow() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.doc = v.registry.Reflow(v.doc)
	v.dirty = true
}

// RecordPosition remembers where the reader is. Flushed on teardown.
func (v *View) RecordPosition(pos backend.ReadingPosition) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pos = pos
}

// Position returns the last recorded reading position.
func (v *View) Position() backend.ReadingPosition {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pos
}

// Save persists the current snapshot.
func (v *View) Save(ctx context.Context) error {
	v.mu.Lock()
	doc := v.doc
	v.mu.Unlock()

	if err := v.backend.SaveDocument(ctx, v.paperID, doc); err != nil {
		return fmt.Errorf("save document %s: %w", v.paperID, err)
	}

	v.mu.Lock()
	if v.doc == doc {
		v.dirty = false
	}
	v.mu.Unlock()
	return nil
}

// flush runs the teardown work: save unsaved edits, store the reading
// position, drop transient highlights. Everything is best-effort; failures
// are logged, never surfaced, since teardown has no caller to retry.
func (v *View) flush(ctx context.Context) {
	v.mu.Lock()
	dirty := v.dirty
	pos := v.pos
	v.mu.Unlock()

	if dirty {
		if err := v.Save(ctx); err != nil {
			v.log.Warn("flush document failed", "error", err)
		}
	}
	if pos.BlockID != "" {
		if err := v.backend.SavePosition(ctx, v.paperID, pos); err != nil {
			v.log.Warn("flush reading position failed", "error", err)
		}
	}
	v.registry.Reset()
}
