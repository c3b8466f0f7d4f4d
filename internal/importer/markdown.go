package importer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown walks the goldmark AST and flattens it to plain text.
// The first level-1 heading becomes the title and is not repeated in the
// body; other headings stay as their own paragraphs so the structuring
// phase can recognize section boundaries.
func extractMarkdown(r io.Reader, _ string) (Extract, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return Extract{}, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var title string
	var paragraphs []string

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			t := inlineText(h, src)
			if h.Level == 1 && title == "" {
				title = t
				continue
			}
			if t != "" {
				paragraphs = append(paragraphs, t)
			}
			continue
		}
		if t := nodeText(n, src); t != "" {
			paragraphs = append(paragraphs, t)
		}
	}

	return Extract{Title: title, Text: strings.Join(paragraphs, "\n\n")}, nil
}

// inlineText concatenates the literal text of a node's inline children.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			continue
		}
		buf.WriteString(inlineText(c, src))
	}
	return strings.TrimSpace(buf.String())
}

// nodeText renders a node from its raw source lines when it has them, and
// recurses otherwise (lists, quotes and other containers carry no lines of
// their own).
func nodeText(n ast.Node, src []byte) string {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		var buf bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}

	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := nodeText(c, src); t != "" {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(t)
		}
	}
	return strings.TrimSpace(buf.String())
}
