package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBilingualResolveFallback(t *testing.T) {
	zhOnly := Bilingual{ZH: InlineList{NewText("仅中文")}}
	enOnly := Bilingual{EN: InlineList{NewText("english only")}}
	both := Bilingual{
		EN: InlineList{NewText("english")},
		ZH: InlineList{NewText("中文")},
	}

	// Requested language wins when present.
	assert.Equal(t, "english", PlainText(both.Resolve(LangEN)))
	assert.Equal(t, "中文", PlainText(both.Resolve(LangZH)))

	// A zh-only paragraph requested in en mode renders the zh content
	// rather than an empty block, and vice versa.
	assert.Equal(t, "仅中文", PlainText(zhOnly.Resolve(LangEN)))
	assert.Equal(t, "english only", PlainText(enOnly.Resolve(LangZH)))

	// Both empty resolves to nil; renderers show a placeholder.
	assert.Nil(t, Bilingual{}.Resolve(LangEN))
	assert.True(t, Bilingual{}.IsEmpty())
	assert.False(t, zhOnly.IsEmpty())
}

func TestPlainTextFlattening(t *testing.T) {
	nodes := InlineList{
		NewText("Results are in "),
		&TableRef{TargetID: "tab-2", DisplayText: "Table 2"},
		NewText(" and follow "),
		&Link{URL: "https://example.org", Children: InlineList{
			NewStyledText("the ", TextStyle{Italic: true}),
			NewText("baseline"),
		}},
		NewText("; see "),
		&Citation{ReferenceIDs: []string{"r3", "r5"}, DisplayText: "[3,5]"},
		NewText(" where "),
		&InlineMath{Latex: "k=2"},
		&Footnote{NoteID: "fn-9", Content: "details", DisplayText: "[b]"},
	}

	assert.Equal(t,
		"Results are in Table 2 and follow the baseline; see [3,5] where k=2[b]",
		PlainText(nodes))
}

func TestPlainTextEmpty(t *testing.T) {
	assert.Equal(t, "", PlainText(nil))
	assert.Equal(t, "", PlainText(InlineList{}))
}
