// Package importer extracts plain text from uploaded paper files. The
// output feeds the parse pipeline, which does the real structuring; the
// importer only has to produce clean text and a best-guess title.
package importer

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Extract is the result of pulling text out of an uploaded file.
type Extract struct {
	// Title is the best guess at the paper title: document metadata when
	// the format carries it, otherwise the filename stem.
	Title string
	// Text is the extracted plain text, paragraphs separated by blank
	// lines.
	Text string
	// Pages is the page count for paginated formats, zero otherwise.
	Pages int
}

type extractor func(r io.Reader, filename string) (Extract, error)

var extractors = map[string]extractor{
	".txt":      extractPlainText,
	".md":       extractMarkdown,
	".markdown": extractMarkdown,
	".pdf":      extractPDF,
	".docx":     extractDOCX,
}

// IsSupported reports whether the file extension can be imported.
func IsSupported(filename string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// ExtractText pulls the text out of an uploaded file.
func ExtractText(filename string, r io.Reader) (Extract, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	fn, ok := extractors[ext]
	if !ok {
		return Extract{}, fmt.Errorf("unsupported file extension: %s", ext)
	}
	ex, err := fn(r, filename)
	if err != nil {
		return Extract{}, err
	}
	if ex.Title == "" {
		ex.Title = titleStem(filename)
	}
	return ex, nil
}

func titleStem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// extractPlainText collapses a text file into blank-line separated
// paragraphs; consecutive non-blank lines merge into one paragraph.
func extractPlainText(r io.Reader, _ string) (Extract, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return Extract{}, fmt.Errorf("read text: %w", err)
	}
	return Extract{Text: strings.Join(paragraphs, "\n\n")}, nil
}
