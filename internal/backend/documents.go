package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/qyliu/paperdeck/internal/document"
)

// GetDocument fetches a paper's section tree.
func (c *Client) GetDocument(ctx context.Context, paperID string) (*document.Document, error) {
	var doc document.Document
	path := fmt.Sprintf("/papers/%s/document", paperID)
	if err := c.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	if doc.PaperID == "" {
		doc.PaperID = paperID
	}
	if err := doc.ValidateIDs(); err != nil {
		return nil, fmt.Errorf("document %s: %w", paperID, err)
	}
	return &doc, nil
}

// SaveDocument persists a document snapshot. Transient parsing placeholders
// are stripped at this boundary; they are never saved as final content.
func (c *Client) SaveDocument(ctx context.Context, paperID string, doc *document.Document) error {
	path := fmt.Sprintf("/papers/%s/document", paperID)
	return c.do(ctx, http.MethodPut, path, doc.StripParsing(), nil)
}

// ReadingPosition is where the user left off in a paper.
type ReadingPosition struct {
	BlockID string  `json:"blockId"`
	Offset  float64 `json:"offset,omitempty"`
}

// SavePosition stores the reading position. Best-effort: callers flush it
// on view teardown and only log failures.
func (c *Client) SavePosition(ctx context.Context, paperID string, pos ReadingPosition) error {
	path := fmt.Sprintf("/papers/%s/position", paperID)
	return c.do(ctx, http.MethodPut, path, pos, nil)
}
