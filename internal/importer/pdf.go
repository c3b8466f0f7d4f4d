package importer

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// extractPDF pulls the text out of a PDF. The Go library is tried first;
// when it yields nothing, pdftotext is used if present on the host. Scanned
// PDFs with no text layer produce an error rather than an empty extract.
func extractPDF(r io.Reader, _ string) (Extract, error) {
	// ledongthuc/pdf needs a ReadSeeker plus size, so spool to a temp file.
	tmp, err := os.CreateTemp("", "paperdeck-pdf-*.pdf")
	if err != nil {
		return Extract{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return Extract{}, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	text, pages, err := pdfText(tmpPath)
	if err != nil || strings.TrimSpace(text) == "" {
		if fallback, fbErr := pdftotext(tmpPath); fbErr == nil && strings.TrimSpace(fallback) != "" {
			text, err = fallback, nil
			pages = strings.Count(fallback, "\f") + 1
		}
	}
	if err != nil {
		return Extract{}, fmt.Errorf("extract pdf text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return Extract{}, fmt.Errorf("pdf has no extractable text")
	}

	var paragraphs []string
	for _, page := range strings.Split(text, "\f") {
		if page = strings.TrimSpace(page); page != "" {
			paragraphs = append(paragraphs, page)
		}
	}
	return Extract{Text: strings.Join(paragraphs, "\n\n"), Pages: pages}, nil
}

func pdfText(path string) (string, int, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\f")
		}
		buf.WriteString(text)
	}
	return buf.String(), numPages, nil
}

func pdftotext(path string) (string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
