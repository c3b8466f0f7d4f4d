package document

import "strings"

// PlainText flattens inline content to a display string, for copy to
// clipboard and plain-text export. Text runs contribute their content, links
// flatten recursively, math contributes its LaTeX source, and reference
// markers contribute only their display text.
func PlainText(nodes []Inline) string {
	var sb strings.Builder
	writePlain(&sb, nodes)
	return sb.String()
}

func writePlain(sb *strings.Builder, nodes []Inline) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Text:
			sb.WriteString(n.Content)
		case *Link:
			writePlain(sb, n.Children)
		case *InlineMath:
			sb.WriteString(n.Latex)
		case *Citation:
			sb.WriteString(n.DisplayText)
		case *FigureRef:
			sb.WriteString(n.DisplayText)
		case *TableRef:
			sb.WriteString(n.DisplayText)
		case *SectionRef:
			sb.WriteString(n.DisplayText)
		case *EquationRef:
			sb.WriteString(n.DisplayText)
		case *Footnote:
			sb.WriteString(n.DisplayText)
		default:
			panic("document: unhandled inline variant in PlainText")
		}
	}
}
