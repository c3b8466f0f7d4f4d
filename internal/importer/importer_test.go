package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("paper.pdf"))
	assert.True(t, IsSupported("Paper.PDF"))
	assert.True(t, IsSupported("notes.md"))
	assert.True(t, IsSupported("draft.docx"))
	assert.True(t, IsSupported("raw.txt"))
	assert.False(t, IsSupported("image.png"))
	assert.False(t, IsSupported("archive.zip"))
	assert.False(t, IsSupported("noext"))
}

func TestExtractUnsupported(t *testing.T) {
	_, err := ExtractText("figure.png", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file extension")
}

func TestExtractPlainText(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\n\n\nThird paragraph."
	ex, err := ExtractText("notes.txt", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "notes", ex.Title)
	want := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	assert.Equal(t, want, ex.Text)
	assert.Zero(t, ex.Pages)
}

func TestExtractPlainTextWhitespaceOnlyLines(t *testing.T) {
	ex, err := ExtractText("ws.txt", strings.NewReader("Para one.\n   \nPara two."))
	require.NoError(t, err)
	assert.Equal(t, "Para one.\n\nPara two.", ex.Text)
}

func TestExtractPlainTextEmpty(t *testing.T) {
	ex, err := ExtractText("empty.txt", strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "empty", ex.Title)
	assert.Empty(t, ex.Text)
}

func TestExtractMarkdownTitleAndBody(t *testing.T) {
	input := "# Attention Is All You Need\n\nThe dominant models are based on recurrence.\n\n## Background\n\nSelf-attention relates positions\nof a single sequence.\n"
	ex, err := ExtractText("paper.md", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "Attention Is All You Need", ex.Title)
	assert.NotContains(t, ex.Text, "Attention Is All You Need")
	assert.Contains(t, ex.Text, "Background")
	assert.Contains(t, ex.Text, "The dominant models are based on recurrence.")
	assert.Contains(t, ex.Text, "Self-attention relates positions\nof a single sequence.")
}

func TestExtractMarkdownNoHeadingFallsBackToFilename(t *testing.T) {
	ex, err := ExtractText("untitled.md", strings.NewReader("Just a paragraph."))
	require.NoError(t, err)
	assert.Equal(t, "untitled", ex.Title)
	assert.Equal(t, "Just a paragraph.", ex.Text)
}

func TestExtractMarkdownLists(t *testing.T) {
	input := "# T\n\n- first item\n- second item\n"
	ex, err := ExtractText("list.md", strings.NewReader(input))
	require.NoError(t, err)
	assert.Contains(t, ex.Text, "first item")
	assert.Contains(t, ex.Text, "second item")
}
