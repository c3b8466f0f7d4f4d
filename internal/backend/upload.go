package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// UploadResult describes a stored file.
type UploadResult struct {
	URL         string    `json:"url"`
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Upload sends a file to the backend's storage as multipart form data with
// a "file" field and an optional "paper_id" field.
func (c *Client) Upload(ctx context.Context, filename string, data io.Reader, paperID string) (UploadResult, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return UploadResult{}, fmt.Errorf("copy file data: %w", err)
	}
	if paperID != "" {
		if err := form.WriteField("paper_id", paperID); err != nil {
			return UploadResult{}, fmt.Errorf("write paper_id field: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("POST /upload: %w", err)
	}
	defer resp.Body.Close()

	var out UploadResult
	if err := c.decode(http.MethodPost, "/upload", resp, &out); err != nil {
		return UploadResult{}, err
	}
	return out, nil
}
