// Package document defines the structured content model for a parsed paper:
// inline nodes, content blocks, bilingual fields and the section tree.
// Values are immutable once constructed; every edit builds new nodes and
// returns a new snapshot, so UI layers can share documents freely.
package document

// InlineType discriminates the inline content union on the wire.
type InlineType string

const (
	InlineText        InlineType = "text"
	InlineLink        InlineType = "link"
	InlineMathType    InlineType = "inline_math"
	InlineCitation    InlineType = "citation"
	InlineFigureRef   InlineType = "figure_ref"
	InlineTableRef    InlineType = "table_ref"
	InlineSectionRef  InlineType = "section_ref"
	InlineEquationRef InlineType = "equation_ref"
	InlineFootnote    InlineType = "footnote"
)

// Inline is one node of rich inline content. The union is closed: consumers
// switch on the concrete type and must handle every variant.
type Inline interface {
	InlineType() InlineType
}

// TextStyle carries character-level formatting for a text run.
type TextStyle struct {
	Bold            bool   `json:"bold,omitempty"`
	Italic          bool   `json:"italic,omitempty"`
	Underline       bool   `json:"underline,omitempty"`
	Strikethrough   bool   `json:"strikethrough,omitempty"`
	Code            bool   `json:"code,omitempty"`
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

// Text is a run of plain text with optional styling.
type Text struct {
	Content string     `json:"content"`
	Styles  *TextStyle `json:"styles,omitempty"`
}

func (*Text) InlineType() InlineType { return InlineText }

// NewText builds an unstyled text run.
func NewText(content string) *Text { return &Text{Content: content} }

// NewStyledText builds a text run with the given style set.
func NewStyledText(content string, styles TextStyle) *Text {
	return &Text{Content: content, Styles: &styles}
}

// Link is a hyperlink wrapping nested inline content.
type Link struct {
	URL      string     `json:"url"`
	Title    string     `json:"title,omitempty"`
	Children InlineList `json:"children"`
}

func (*Link) InlineType() InlineType { return InlineLink }

// InlineMath is a LaTeX expression rendered inline.
type InlineMath struct {
	Latex string `json:"latex"`
}

func (*InlineMath) InlineType() InlineType { return InlineMathType }

// Citation marks one or more bibliography references, e.g. "[3,5]".
type Citation struct {
	ReferenceIDs []string `json:"referenceIds"`
	DisplayText  string   `json:"displayText"`
}

func (*Citation) InlineType() InlineType { return InlineCitation }

// FigureRef points at a figure block by ID.
type FigureRef struct {
	TargetID    string `json:"targetId"`
	DisplayText string `json:"displayText"`
}

func (*FigureRef) InlineType() InlineType { return InlineFigureRef }

// TableRef points at a table block by ID.
type TableRef struct {
	TargetID    string `json:"targetId"`
	DisplayText string `json:"displayText"`
}

func (*TableRef) InlineType() InlineType { return InlineTableRef }

// SectionRef points at a section by ID.
type SectionRef struct {
	TargetID    string `json:"targetId"`
	DisplayText string `json:"displayText"`
}

func (*SectionRef) InlineType() InlineType { return InlineSectionRef }

// EquationRef points at a numbered math block by ID.
type EquationRef struct {
	TargetID    string `json:"targetId"`
	DisplayText string `json:"displayText"`
}

func (*EquationRef) InlineType() InlineType { return InlineEquationRef }

// Footnote carries its raw content for tooltip display plus a marker text.
type Footnote struct {
	NoteID      string `json:"id"`
	Content     string `json:"content"`
	DisplayText string `json:"displayText"`
}

func (*Footnote) InlineType() InlineType { return InlineFootnote }
