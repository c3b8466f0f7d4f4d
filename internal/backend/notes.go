package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// NoteScope selects one of the two parallel note route families: notes on
// an admin-published paper, or notes on a user's personal library entry.
type NoteScope struct {
	admin bool
	id    string
}

// AdminScope addresses notes under /notes/admin/{paperID}.
func AdminScope(paperID string) NoteScope { return NoteScope{admin: true, id: paperID} }

// UserScope addresses notes under /notes/user/{entryID}.
func UserScope(entryID string) NoteScope { return NoteScope{admin: false, id: entryID} }

func (s NoteScope) basePath() string {
	if s.admin {
		return "/notes/admin/" + s.id
	}
	return "/notes/user/" + s.id
}

// Note is one annotation, anchored to a block when BlockID is set. Content
// is markdown.
type Note struct {
	ID        string    `json:"id"`
	BlockID   string    `json:"blockId,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteDraft is the writable part of a note.
type NoteDraft struct {
	BlockID string `json:"blockId,omitempty"`
	Content string `json:"content"`
}

// ListNotes returns all notes in the scope.
func (c *Client) ListNotes(ctx context.Context, scope NoteScope) ([]Note, error) {
	var out struct {
		Notes []Note `json:"notes"`
	}
	if err := c.do(ctx, http.MethodGet, scope.basePath(), nil, &out); err != nil {
		return nil, err
	}
	return out.Notes, nil
}

// CreateNote adds a note and returns it with its assigned ID.
func (c *Client) CreateNote(ctx context.Context, scope NoteScope, draft NoteDraft) (Note, error) {
	var out Note
	if err := c.do(ctx, http.MethodPost, scope.basePath(), draft, &out); err != nil {
		return Note{}, err
	}
	return out, nil
}

// UpdateNote rewrites a note's content.
func (c *Client) UpdateNote(ctx context.Context, scope NoteScope, noteID string, draft NoteDraft) (Note, error) {
	var out Note
	path := fmt.Sprintf("%s/%s", scope.basePath(), noteID)
	if err := c.do(ctx, http.MethodPut, path, draft, &out); err != nil {
		return Note{}, err
	}
	return out, nil
}

// DeleteNote removes a note.
func (c *Client) DeleteNote(ctx context.Context, scope NoteScope, noteID string) error {
	path := fmt.Sprintf("%s/%s", scope.basePath(), noteID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
