package document

import "time"

// BlockType discriminates the block union on the wire.
type BlockType string

const (
	BlockHeading       BlockType = "heading"
	BlockParagraph     BlockType = "paragraph"
	BlockMath          BlockType = "math"
	BlockFigure        BlockType = "figure"
	BlockTable         BlockType = "table"
	BlockCode          BlockType = "code"
	BlockOrderedList   BlockType = "ordered_list"
	BlockUnorderedList BlockType = "unordered_list"
	BlockQuote         BlockType = "quote"
	BlockDivider       BlockType = "divider"
	BlockParsing       BlockType = "parsing"
)

// Block is one unit of document content with a stable, document-unique ID.
// The union is closed; switches over concrete types must handle every
// variant and fail loudly on an unknown one.
type Block interface {
	BlockID() string
	BlockType() BlockType
}

// Heading is a section-level heading, levels 1 through 6.
type Heading struct {
	ID      string    `json:"id"`
	Level   int       `json:"level"`
	Content Bilingual `json:"content"`
	Number  string    `json:"number,omitempty"`
}

func (h *Heading) BlockID() string { return h.ID }
func (*Heading) BlockType() BlockType { return BlockHeading }

// Paragraph is a run of bilingual rich text.
type Paragraph struct {
	ID      string    `json:"id"`
	Content Bilingual `json:"content"`
	Align   string    `json:"align,omitempty"`
}

func (p *Paragraph) BlockID() string { return p.ID }
func (*Paragraph) BlockType() BlockType { return BlockParagraph }

// Math is a display-mode LaTeX equation, optionally numbered.
type Math struct {
	ID     string `json:"id"`
	Latex  string `json:"latex"`
	Label  string `json:"label,omitempty"`
	Number int    `json:"number,omitempty"`
}

func (m *Math) BlockID() string { return m.ID }
func (*Math) BlockType() BlockType { return BlockMath }

// Figure is an image with a bilingual caption.
type Figure struct {
	ID          string    `json:"id"`
	Src         string    `json:"src"`
	Alt         string    `json:"alt,omitempty"`
	Number      int       `json:"number,omitempty"`
	Caption     Bilingual `json:"caption"`
	Description string    `json:"description,omitempty"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
}

func (f *Figure) BlockID() string { return f.ID }
func (*Figure) BlockType() BlockType { return BlockFigure }

// Table holds header and body rows of first-class cell objects.
type Table struct {
	ID          string     `json:"id"`
	Number      int        `json:"number,omitempty"`
	Caption     Bilingual  `json:"caption"`
	Description string     `json:"description,omitempty"`
	Headers     []TableRow `json:"headers,omitempty"`
	Rows        []TableRow `json:"rows"`
	Align       string     `json:"align,omitempty"`
}

func (t *Table) BlockID() string { return t.ID }
func (*Table) BlockType() BlockType { return BlockTable }

// Code is a source listing.
type Code struct {
	ID              string `json:"id"`
	Language        string `json:"language,omitempty"`
	Code            string `json:"code"`
	Caption         string `json:"caption,omitempty"`
	ShowLineNumbers bool   `json:"showLineNumbers,omitempty"`
}

func (c *Code) BlockID() string { return c.ID }
func (*Code) BlockType() BlockType { return BlockCode }

// ListItem is one entry of an ordered or unordered list.
type ListItem struct {
	Content Bilingual `json:"content"`
}

// OrderedList is a numbered list, optionally starting above 1.
type OrderedList struct {
	ID    string     `json:"id"`
	Items []ListItem `json:"items"`
	Start int        `json:"start,omitempty"`
}

func (l *OrderedList) BlockID() string { return l.ID }
func (*OrderedList) BlockType() BlockType { return BlockOrderedList }

// UnorderedList is a bullet list.
type UnorderedList struct {
	ID    string     `json:"id"`
	Items []ListItem `json:"items"`
}

func (l *UnorderedList) BlockID() string { return l.ID }
func (*UnorderedList) BlockType() BlockType { return BlockUnorderedList }

// Quote is a block quotation with an optional attribution.
type Quote struct {
	ID      string    `json:"id"`
	Content Bilingual `json:"content"`
	Author  string    `json:"author,omitempty"`
}

func (q *Quote) BlockID() string { return q.ID }
func (*Quote) BlockType() BlockType { return BlockQuote }

// Divider is a horizontal rule. No payload beyond the ID.
type Divider struct {
	ID string `json:"id"`
}

func (d *Divider) BlockID() string { return d.ID }
func (*Divider) BlockType() BlockType { return BlockDivider }

// ParseStage is the lifecycle state of an in-flight parsing placeholder.
type ParseStage string

const (
	StageStructuring         ParseStage = "structuring"
	StageTranslating         ParseStage = "translating"
	StagePendingConfirmation ParseStage = "pending_confirmation"
	StageCompleted           ParseStage = "completed"
	StageFailed              ParseStage = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s ParseStage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Parsing is the transient placeholder representing text being converted to
// blocks by the backend pipeline. It is never persisted as final document
// content; a save strips it first.
type Parsing struct {
	ID           string     `json:"id"`
	Stage        ParseStage `json:"stage"`
	Message      string     `json:"message"`
	CreatedAt    time.Time  `json:"createdAt"`
	ParsedBlocks BlockList  `json:"parsedBlocks,omitempty"`
	SessionID    string     `json:"sessionId,omitempty"`
	ParseID      string     `json:"parseId,omitempty"`
	TempBlockID  string     `json:"tempBlockId,omitempty"`
}

func (p *Parsing) BlockID() string { return p.ID }
func (*Parsing) BlockType() BlockType { return BlockParsing }

// WithStage returns a copy advanced to the given stage. A failed placeholder
// never carries candidate blocks, so moving to StageFailed drops them.
func (p *Parsing) WithStage(stage ParseStage, message string) *Parsing {
	next := *p
	next.Stage = stage
	next.Message = message
	if stage == StageFailed {
		next.ParsedBlocks = nil
	}
	return &next
}

// WithParsedBlocks returns a copy carrying the candidate blocks awaiting
// user confirmation.
func (p *Parsing) WithParsedBlocks(blocks []Block, message string) *Parsing {
	next := *p
	next.Stage = StagePendingConfirmation
	next.Message = message
	next.ParsedBlocks = append(BlockList(nil), blocks...)
	return &next
}
