package docview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const flushTimeout = 10 * time.Second

// Store caches open views per paper. The cache is bounded; the least
// recently used view is flushed and dropped when a new paper is opened
// past capacity.
type Store struct {
	backend Backend
	log     *slog.Logger
	views   *lru.Cache[string, *View]
}

// NewStore creates a view store holding at most size open documents.
func NewStore(b Backend, size int, log *slog.Logger) (*Store, error) {
	s := &Store{backend: b, log: log}
	cache, err := lru.NewWithEvict(size, s.evict)
	if err != nil {
		return nil, fmt.Errorf("create view cache: %w", err)
	}
	s.views = cache
	return s, nil
}

func (s *Store) evict(paperID string, v *View) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	s.log.Info("evicting document view", "paper_id", paperID)
	v.flush(ctx)
}

// Open returns the view for a paper, fetching the document on first open.
func (s *Store) Open(ctx context.Context, paperID string) (*View, error) {
	if v, ok := s.views.Get(paperID); ok {
		return v, nil
	}
	doc, err := s.backend.GetDocument(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", paperID, err)
	}
	v := newView(paperID, doc, s.backend, s.log)
	// A concurrent Open may have raced us here; keep the cached one.
	if prev, ok, _ := s.views.PeekOrAdd(paperID, v); ok {
		return prev, nil
	}
	return v, nil
}

// Get returns the view only if the paper is already open.
func (s *Store) Get(paperID string) (*View, bool) {
	return s.views.Peek(paperID)
}

// Close tears a view down. Remove runs the eviction callback, which
// flushes unsaved edits and the reading position.
func (s *Store) Close(paperID string) bool {
	return s.views.Remove(paperID)
}

// CloseAll flushes and drops every open view. Called on shutdown.
func (s *Store) CloseAll() {
	s.views.Purge()
}
