package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/qyliu/paperdeck/internal/document"
)

// StructureText submits raw text for segmentation and classification. The
// call returns when structuring finishes, with the backend session ID for
// the follow-up phases. Satisfies parsing.Pipeline.
func (c *Client) StructureText(ctx context.Context, paperID, text string) (string, error) {
	var out struct {
		SessionID string `json:"sessionId"`
	}
	body := map[string]string{"paperId": paperID, "text": text}
	if err := c.do(ctx, http.MethodPost, "/parse", body, &out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", fmt.Errorf("parse: backend returned no session id")
	}
	return out.SessionID, nil
}

// TranslateParse asks the backend to produce the bilingual candidate blocks
// for a structured session. Satisfies parsing.Pipeline.
func (c *Client) TranslateParse(ctx context.Context, sessionID string) ([]document.Block, error) {
	var out struct {
		Blocks document.BlockList `json:"blocks"`
	}
	path := fmt.Sprintf("/parse/%s/translate", sessionID)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Blocks, nil
}

// ParseStatus is the optional status probe for an in-flight backend parse.
func (c *Client) ParseStatus(ctx context.Context, sessionID string) (stage, message string, err error) {
	var out struct {
		Stage   string `json:"stage"`
		Message string `json:"message"`
	}
	path := fmt.Sprintf("/parse/%s", sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", "", err
	}
	return out.Stage, out.Message, nil
}
