package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBasicMarkdown(t *testing.T) {
	r, err := Render("# Key point\n\nThis equation assumes **stationarity**.")
	require.NoError(t, err)

	assert.Contains(t, r.HTML, "<h1>Key point</h1>")
	assert.Contains(t, r.HTML, "<strong>stationarity</strong>")
	assert.Contains(t, r.Plain, "Key point")
	assert.Contains(t, r.Plain, "This equation assumes stationarity.")
}

func TestRenderGFMTable(t *testing.T) {
	r, err := Render("| a | b |\n|---|---|\n| 1 | 2 |")
	require.NoError(t, err)
	assert.Contains(t, r.HTML, "<table>")
	assert.Contains(t, r.HTML, "<td>1</td>")
}

func TestRenderStripsScript(t *testing.T) {
	r, err := Render("hello <script>alert(1)</script> world")
	require.NoError(t, err)
	assert.NotContains(t, r.HTML, "<script")
	assert.NotContains(t, r.HTML, "alert(1)")
	assert.NotContains(t, r.Plain, "alert(1)")
}

func TestRenderSanitizesRawHTMLBlocks(t *testing.T) {
	r, err := Render("<div onclick=\"x()\">kept<style>p{color:red}</style></div>")
	require.NoError(t, err)
	assert.NotContains(t, r.HTML, "onclick")
	assert.NotContains(t, r.HTML, "<style")
	assert.NotContains(t, r.Plain, "color:red")
	assert.Contains(t, r.HTML, "kept")
}

func TestRenderStripsEventHandlersAndJavascriptURLs(t *testing.T) {
	r, err := Render(`<a href="javascript:alert(1)" onclick="x()">click</a>`)
	require.NoError(t, err)
	assert.NotContains(t, r.HTML, "javascript:")
	assert.NotContains(t, r.HTML, "onclick")
	assert.Contains(t, r.HTML, "click")
}

func TestRenderKeepsSafeLinks(t *testing.T) {
	r, err := Render("[doi](https://doi.org/10.1000/x)")
	require.NoError(t, err)
	assert.Contains(t, r.HTML, `href="https://doi.org/10.1000/x"`)
}

func TestPreviewFirstLineTruncated(t *testing.T) {
	preview, err := Preview("# A very long heading about convergence\n\nbody", 10)
	require.NoError(t, err)
	assert.Equal(t, "A very lon…", preview)
}

func TestPreviewShortNote(t *testing.T) {
	preview, err := Preview("short", 80)
	require.NoError(t, err)
	assert.Equal(t, "short", preview)
}
