package document

import (
	"encoding/json"
	"fmt"
)

// TableCell is one cell of a table row. Cells are first-class objects so
// span and alignment metadata travels with the content. A cell holds either
// a plain string or bilingual inline content; Text wins when both are set.
type TableCell struct {
	Text     string     `json:"text,omitempty"`
	Content  *Bilingual `json:"content,omitempty"`
	ColSpan  int        `json:"colspan,omitempty"`
	RowSpan  int        `json:"rowspan,omitempty"`
	IsHeader bool       `json:"isHeader,omitempty"`
	Align    string     `json:"align,omitempty"`
}

// TableRow is an ordered list of cells.
type TableRow struct {
	Cells []TableCell `json:"cells"`
}

// UnmarshalJSON accepts the canonical row object plus two legacy wire
// shapes: a bare array of strings and a bare array of cell-like objects.
// Legacy rows are adapted to cell objects; only the canonical form is ever
// written back.
func (r *TableRow) UnmarshalJSON(data []byte) error {
	type rowAlias TableRow
	var obj rowAlias
	if err := json.Unmarshal(data, &obj); err == nil && obj.Cells != nil {
		*r = TableRow(obj)
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("table row: expected object or array: %w", err)
	}
	cells := make([]TableCell, 0, len(raw))
	for i, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			cells = append(cells, TableCell{Text: s})
			continue
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(item, &probe); err != nil {
			return fmt.Errorf("table row cell %d: %w", i, err)
		}
		if _, en := probe["en"]; en {
			// Legacy bilingual cell without the cell wrapper.
			var b Bilingual
			if err := json.Unmarshal(item, &b); err != nil {
				return fmt.Errorf("table row cell %d: %w", i, err)
			}
			cells = append(cells, TableCell{Content: &b})
			continue
		}
		if _, zh := probe["zh"]; zh {
			var b Bilingual
			if err := json.Unmarshal(item, &b); err != nil {
				return fmt.Errorf("table row cell %d: %w", i, err)
			}
			cells = append(cells, TableCell{Content: &b})
			continue
		}
		var cell TableCell
		if err := json.Unmarshal(item, &cell); err != nil {
			return fmt.Errorf("table row cell %d: %w", i, err)
		}
		cells = append(cells, cell)
	}
	r.Cells = cells
	return nil
}

// PlainText flattens the cell to display text in the given language.
func (c TableCell) PlainText(lang Lang) string {
	if c.Text != "" {
		return c.Text
	}
	if c.Content != nil {
		return PlainText(c.Content.Resolve(lang))
	}
	return ""
}
