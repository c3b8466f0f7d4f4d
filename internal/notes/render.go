// Package notes renders user note markdown for display. Notes are stored
// as markdown on the backend; the server renders them to sanitized HTML
// plus a plain-text form for list previews.
package notes

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
)

// Raw HTML must pass through goldmark untouched; the sanitize walk below is
// what strips the dangerous parts. Goldmark's default escaping would hide
// script tags from the sanitizer while leaking their text content.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(ghtml.WithUnsafe()),
)

// Rendered is a note body in its display forms.
type Rendered struct {
	HTML  string `json:"html"`
	Plain string `json:"plain"`
}

// Render converts note markdown to sanitized HTML and a flattened plain
// text. Script and style content is dropped, as are event handler
// attributes and javascript: URLs.
func Render(markdown string) (Rendered, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return Rendered{}, fmt.Errorf("render markdown: %w", err)
	}

	doc, err := html.Parse(&buf)
	if err != nil {
		return Rendered{}, fmt.Errorf("parse rendered html: %w", err)
	}
	sanitize(doc)

	body := findBody(doc)
	if body == nil {
		body = doc
	}

	var out bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&out, c); err != nil {
			return Rendered{}, fmt.Errorf("serialize html: %w", err)
		}
	}

	return Rendered{
		HTML:  out.String(),
		Plain: plainText(body),
	}, nil
}

// Preview returns the first line of the plain-text form, truncated to max
// runes, for note list entries.
func Preview(markdown string, max int) (string, error) {
	r, err := Render(markdown)
	if err != nil {
		return "", err
	}
	line := r.Plain
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	runes := []rune(line)
	if len(runes) > max {
		line = string(runes[:max]) + "…"
	}
	return line, nil
}

func sanitize(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			switch c.Data {
			case "script", "style", "iframe", "object", "embed":
				n.RemoveChild(c)
				c = next
				continue
			}
			c.Attr = cleanAttrs(c.Attr)
		}
		sanitize(c)
		c = next
	}
}

func cleanAttrs(attrs []html.Attribute) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") {
			continue
		}
		if key == "href" || key == "src" {
			val := strings.ToLower(strings.TrimSpace(a.Val))
			if strings.HasPrefix(val, "javascript:") || strings.HasPrefix(val, "data:") {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// plainText flattens element text with newlines between block elements.
func plainText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlockTag(n.Data) {
			buf.WriteString("\n")
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre", "tr":
		return true
	}
	return false
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
