package refs

// Hover-highlight state shared between reference markers and their targets.
// Scoped to one document view; Reset clears it on navigation away.

// Highlight adds IDs to the highlighted set.
func (r *Registry) Highlight(ids ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.highlights[id] = struct{}{}
	}
}

// Unhighlight removes IDs from the highlighted set.
func (r *Registry) Unhighlight(ids ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.highlights, id)
	}
}

// IsHighlighted reports whether the ID is currently highlighted.
func (r *Registry) IsHighlighted(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.highlights[id]
	return ok
}

// Highlighted returns the current highlighted IDs.
func (r *Registry) Highlighted() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.highlights))
	for id := range r.highlights {
		out = append(out, id)
	}
	return out
}

// Reset clears all highlights.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.highlights = make(map[string]struct{})
}
