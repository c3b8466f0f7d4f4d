package refs

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qyliu/paperdeck/internal/document"
)

func testRegistry() (*Registry, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewRegistry(slog.New(slog.NewTextHandler(&buf, nil))), &buf
}

func numberedDoc() *document.Document {
	return &document.Document{
		Sections: []document.Section{
			{
				ID:    "s1",
				Title: document.PlainBilingual(document.LangEN, "Intro"),
				Content: document.BlockList{
					&document.Figure{ID: "f1", Src: "a.png", Caption: document.PlainBilingual(document.LangEN, "one")},
					&document.Math{ID: "e1", Latex: "a=b"},
					&document.Table{ID: "t1", Caption: document.PlainBilingual(document.LangEN, "tbl")},
				},
				Subsections: []document.Section{
					{
						ID:    "s1.1",
						Title: document.PlainBilingual(document.LangZH, "背景"),
						Content: document.BlockList{
							&document.Figure{ID: "f2", Src: "b.png"},
						},
					},
				},
			},
		},
		References: []document.Reference{
			{ID: "r1", Authors: "A"},
			{ID: "r2", Authors: "B"},
		},
	}
}

func TestAssignNumbersInReadingOrder(t *testing.T) {
	r, _ := testRegistry()
	doc := r.Assign(numberedDoc())

	n, ok := r.FigureNumber("f1")
	require.True(t, ok)
	assert.Equal(t, 1, n)
	n, ok = r.FigureNumber("f2")
	require.True(t, ok)
	assert.Equal(t, 2, n)

	assert.Equal(t, 1, doc.References[0].Number)
	assert.Equal(t, 2, doc.References[1].Number)

	loc, ok := doc.FindBlock("e1")
	require.True(t, ok)
	assert.Equal(t, 1, loc.Section.Content[loc.BlockIndex].(*document.Math).Number)
}

func TestAssignIsIdempotent(t *testing.T) {
	r, _ := testRegistry()
	once := r.Assign(numberedDoc())
	twice := r.Assign(once)
	assert.Equal(t, once, twice)
}

func TestAssignKeepsExistingNumbers(t *testing.T) {
	r, _ := testRegistry()
	doc := numberedDoc()
	doc.Sections[0].Content[0] = &document.Figure{ID: "f1", Src: "a.png", Number: 7}

	out := r.Assign(doc)
	loc, _ := out.FindBlock("f1")
	assert.Equal(t, 7, loc.Section.Content[loc.BlockIndex].(*document.Figure).Number)
}

func TestReflowAfterInsertion(t *testing.T) {
	r, _ := testRegistry()
	doc := r.Assign(numberedDoc())

	before, _ := r.FigureNumber("f2")

	// Insert two new figures before f2 (after f1, which precedes it in
	// reading order) and reflow: f2's number must increase by exactly two.
	doc, err := doc.InsertAfter("f1",
		&document.Figure{ID: "fx", Src: "x.png"},
		&document.Figure{ID: "fy", Src: "y.png"},
	)
	require.NoError(t, err)

	doc = r.Reflow(doc)

	after, ok := r.FigureNumber("f2")
	require.True(t, ok)
	assert.Equal(t, before+2, after)

	n, _ := r.FigureNumber("fx")
	assert.Equal(t, 2, n)
	n, _ = r.FigureNumber("fy")
	assert.Equal(t, 3, n)

	loc, _ := doc.FindBlock("f2")
	assert.Equal(t, after, loc.Section.Content[loc.BlockIndex].(*document.Figure).Number)
}

func TestResolveDisplayText(t *testing.T) {
	r, _ := testRegistry()
	r.Assign(numberedDoc())

	assert.Equal(t, "Figure 2",
		r.Resolve(&document.FigureRef{TargetID: "f2"}, document.LangEN))
	assert.Equal(t, "Table 1",
		r.Resolve(&document.TableRef{TargetID: "t1"}, document.LangEN))
	assert.Equal(t, "Eq. (1)",
		r.Resolve(&document.EquationRef{TargetID: "e1"}, document.LangEN))
	assert.Equal(t, "Intro",
		r.Resolve(&document.SectionRef{TargetID: "s1"}, document.LangEN))
	assert.Equal(t, "背景",
		r.Resolve(&document.SectionRef{TargetID: "s1.1"}, document.LangEN),
		"zh-only title falls back in en mode")
	assert.Equal(t, "[1,2]",
		r.Resolve(&document.Citation{ReferenceIDs: []string{"r1", "r2"}}, document.LangEN))
}

func TestResolveMissDegrades(t *testing.T) {
	r, buf := testRegistry()
	r.Assign(numberedDoc())

	// Unknown citation target renders the literal display text and logs.
	got := r.Resolve(&document.Citation{ReferenceIDs: []string{"r9"}, DisplayText: "[9]"}, document.LangEN)
	assert.Equal(t, "[9]", got)
	assert.Contains(t, buf.String(), "reference resolution miss")

	// No display text at all degrades to "?".
	got = r.Resolve(&document.FigureRef{TargetID: "nope"}, document.LangEN)
	assert.Equal(t, "?", got)
}

func TestHighlightSet(t *testing.T) {
	r, _ := testRegistry()

	r.Highlight("f1", "r1")
	assert.True(t, r.IsHighlighted("f1"))
	assert.True(t, r.IsHighlighted("r1"))
	assert.ElementsMatch(t, []string{"f1", "r1"}, r.Highlighted())

	r.Unhighlight("f1")
	assert.False(t, r.IsHighlighted("f1"))

	r.Reset()
	assert.Empty(t, r.Highlighted())
}
