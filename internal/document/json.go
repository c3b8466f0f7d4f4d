package document

import (
	"encoding/json"
	"fmt"
)

// InlineList is a heterogeneous list of inline nodes. The custom decoder
// dispatches each element on its "type" field.
type InlineList []Inline

func (l *InlineList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("inline list: %w", err)
	}
	out := make(InlineList, 0, len(raw))
	for i, item := range raw {
		node, err := UnmarshalInline(item)
		if err != nil {
			return fmt.Errorf("inline %d: %w", i, err)
		}
		out = append(out, node)
	}
	*l = out
	return nil
}

// BlockList is a heterogeneous list of blocks.
type BlockList []Block

func (l *BlockList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("block list: %w", err)
	}
	out := make(BlockList, 0, len(raw))
	for i, item := range raw {
		block, err := UnmarshalBlock(item)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, block)
	}
	*l = out
	return nil
}

// UnmarshalInline decodes a single inline node, dispatching on "type".
func UnmarshalInline(data []byte) (Inline, error) {
	var probe struct {
		Type InlineType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("probe inline type: %w", err)
	}
	var node Inline
	switch probe.Type {
	case InlineText:
		node = &Text{}
	case InlineLink:
		node = &Link{}
	case InlineMathType:
		node = &InlineMath{}
	case InlineCitation:
		node = &Citation{}
	case InlineFigureRef:
		node = &FigureRef{}
	case InlineTableRef:
		node = &TableRef{}
	case InlineSectionRef:
		node = &SectionRef{}
	case InlineEquationRef:
		node = &EquationRef{}
	case InlineFootnote:
		node = &Footnote{}
	default:
		return nil, fmt.Errorf("unhandled inline type %q", probe.Type)
	}
	if err := json.Unmarshal(data, node); err != nil {
		return nil, fmt.Errorf("decode %s: %w", probe.Type, err)
	}
	return node, nil
}

// UnmarshalBlock decodes a single block, dispatching on "type".
func UnmarshalBlock(data []byte) (Block, error) {
	var probe struct {
		Type BlockType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("probe block type: %w", err)
	}
	var block Block
	switch probe.Type {
	case BlockHeading:
		block = &Heading{}
	case BlockParagraph:
		block = &Paragraph{}
	case BlockMath:
		block = &Math{}
	case BlockFigure:
		block = &Figure{}
	case BlockTable:
		block = &Table{}
	case BlockCode:
		block = &Code{}
	case BlockOrderedList:
		block = &OrderedList{}
	case BlockUnorderedList:
		block = &UnorderedList{}
	case BlockQuote:
		block = &Quote{}
	case BlockDivider:
		block = &Divider{}
	case BlockParsing:
		block = &Parsing{}
	default:
		return nil, fmt.Errorf("unhandled block type %q", probe.Type)
	}
	if err := json.Unmarshal(data, block); err != nil {
		return nil, fmt.Errorf("decode %s: %w", probe.Type, err)
	}
	if h, ok := block.(*Heading); ok && (h.Level < 1 || h.Level > 6) {
		return nil, fmt.Errorf("decode heading %q: level %d out of range 1..6", h.ID, h.Level)
	}
	return block, nil
}

// tagJSON marshals v and splices a leading "type" discriminator into the
// resulting object, so the wire format stays flat.
func tagJSON(typ string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(body) == 2 { // empty object
		return []byte(`{"type":"` + typ + `"}`), nil
	}
	out := make([]byte, 0, len(body)+len(typ)+11)
	out = append(out, `{"type":"`...)
	out = append(out, typ...)
	out = append(out, `",`...)
	out = append(out, body[1:]...)
	return out, nil
}

func (n *Text) MarshalJSON() ([]byte, error) {
	type alias Text
	return tagJSON(string(InlineText), (*alias)(n))
}

func (n *Link) MarshalJSON() ([]byte, error) {
	type alias Link
	return tagJSON(string(InlineLink), (*alias)(n))
}

func (n *InlineMath) MarshalJSON() ([]byte, error) {
	type alias InlineMath
	return tagJSON(string(InlineMathType), (*alias)(n))
}

func (n *Citation) MarshalJSON() ([]byte, error) {
	type alias Citation
	return tagJSON(string(InlineCitation), (*alias)(n))
}

func (n *FigureRef) MarshalJSON() ([]byte, error) {
	type alias FigureRef
	return tagJSON(string(InlineFigureRef), (*alias)(n))
}

func (n *TableRef) MarshalJSON() ([]byte, error) {
	type alias TableRef
	return tagJSON(string(InlineTableRef), (*alias)(n))
}

func (n *SectionRef) MarshalJSON() ([]byte, error) {
	type alias SectionRef
	return tagJSON(string(InlineSectionRef), (*alias)(n))
}

func (n *EquationRef) MarshalJSON() ([]byte, error) {
	type alias EquationRef
	return tagJSON(string(InlineEquationRef), (*alias)(n))
}

func (n *Footnote) MarshalJSON() ([]byte, error) {
	type alias Footnote
	return tagJSON(string(InlineFootnote), (*alias)(n))
}

func (b *Heading) MarshalJSON() ([]byte, error) {
	type alias Heading
	return tagJSON(string(BlockHeading), (*alias)(b))
}

func (b *Paragraph) MarshalJSON() ([]byte, error) {
	type alias Paragraph
	return tagJSON(string(BlockParagraph), (*alias)(b))
}

func (b *Math) MarshalJSON() ([]byte, error) {
	type alias Math
	return tagJSON(string(BlockMath), (*alias)(b))
}

func (b *Figure) MarshalJSON() ([]byte, error) {
	type alias Figure
	return tagJSON(string(BlockFigure), (*alias)(b))
}

func (b *Table) MarshalJSON() ([]byte, error) {
	type alias Table
	return tagJSON(string(BlockTable), (*alias)(b))
}

func (b *Code) MarshalJSON() ([]byte, error) {
	type alias Code
	return tagJSON(string(BlockCode), (*alias)(b))
}

func (b *OrderedList) MarshalJSON() ([]byte, error) {
	type alias OrderedList
	return tagJSON(string(BlockOrderedList), (*alias)(b))
}

func (b *UnorderedList) MarshalJSON() ([]byte, error) {
	type alias UnorderedList
	return tagJSON(string(BlockUnorderedList), (*alias)(b))
}

func (b *Quote) MarshalJSON() ([]byte, error) {
	type alias Quote
	return tagJSON(string(BlockQuote), (*alias)(b))
}

func (b *Divider) MarshalJSON() ([]byte, error) {
	type alias Divider
	return tagJSON(string(BlockDivider), (*alias)(b))
}

func (b *Parsing) MarshalJSON() ([]byte, error) {
	type alias Parsing
	return tagJSON(string(BlockParsing), (*alias)(b))
}
