package importer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// extractDOCX flattens a .docx body into paragraphs. The first Heading1
// paragraph is taken as the title; other headings stay in the body as
// section boundary hints for the structuring phase.
func extractDOCX(r io.Reader, _ string) (Extract, error) {
	// go-docx needs a ReadSeeker plus size, so spool to a temp file.
	tmp, err := os.CreateTemp("", "paperdeck-docx-*.docx")
	if err != nil {
		return Extract{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return Extract{}, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return Extract{}, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return Extract{}, fmt.Errorf("parse docx: %w", err)
	}

	var title string
	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		if title == "" && headingLevel(para) == 1 {
			title = text
			continue
		}
		paragraphs = append(paragraphs, text)
	}

	return Extract{Title: title, Text: strings.Join(paragraphs, "\n\n")}, nil
}

func headingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	for level := 1; level <= 6; level++ {
		if style == fmt.Sprintf("heading%d", level) {
			return level
		}
	}
	return 0
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
