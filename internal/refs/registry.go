// Package refs assigns stable sequential numbers to figures, tables,
// equations and bibliography references, and resolves cross-reference nodes
// for display. One Registry serves one document view.
package refs

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/qyliu/paperdeck/internal/document"
)

// Registry holds the current number assignments for one document view plus
// the transient hover-highlight set UI components share.
type Registry struct {
	log *slog.Logger

	mu        sync.RWMutex
	figures   map[string]int
	tables    map[string]int
	equations map[string]int
	refNums   map[string]int
	sections  map[string]document.Bilingual

	highlights map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:        log,
		figures:    make(map[string]int),
		tables:     make(map[string]int),
		equations:  make(map[string]int),
		refNums:    make(map[string]int),
		sections:   make(map[string]document.Bilingual),
		highlights: make(map[string]struct{}),
	}
}

// Assign scans the document in reading order and gives each unnumbered
// figure, table and equation the next number of its class; already numbered
// blocks keep their number. Bibliography references are numbered by list
// order. Returns a new document snapshot; running Assign twice over an
// unchanged document is a no-op.
func (r *Registry) Assign(doc *document.Document) *document.Document {
	return r.scan(doc, false)
}

// Reflow discards every assigned number and renumbers from scratch. Used
// after structural edits, where stable incremental renumbering is not worth
// its complexity.
func (r *Registry) Reflow(doc *document.Document) *document.Document {
	return r.scan(doc, true)
}

func (r *Registry) scan(doc *document.Document, reflow bool) *document.Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.figures = make(map[string]int)
	r.tables = make(map[string]int)
	r.equations = make(map[string]int)
	r.refNums = make(map[string]int)
	r.sections = make(map[string]document.Bilingual)

	var nFig, nTab, nEq int

	next := *doc
	next.Sections = r.scanSections(doc.Sections, reflow, &nFig, &nTab, &nEq)

	refs := make([]document.Reference, len(doc.References))
	copy(refs, doc.References)
	for i := range refs {
		if reflow || refs[i].Number == 0 {
			refs[i].Number = i + 1
		}
		r.refNums[refs[i].ID] = refs[i].Number
	}
	next.References = refs
	return &next
}

func (r *Registry) scanSections(secs []document.Section, reflow bool, nFig, nTab, nEq *int) []document.Section {
	out := make([]document.Section, len(secs))
	for i, sec := range secs {
		r.sections[sec.ID] = sec.Title
		content := make(document.BlockList, len(sec.Content))
		for j, b := range sec.Content {
			content[j] = r.numberBlock(b, reflow, nFig, nTab, nEq)
		}
		sec.Content = content
		sec.Subsections = r.scanSections(sec.Subsections, reflow, nFig, nTab, nEq)
		out[i] = sec
	}
	return out
}

// numberBlock advances the class counter for every numberable block and
// assigns it when unset (or always, on reflow). Blocks are immutable, so an
// assignment copies the block.
func (r *Registry) numberBlock(b document.Block, reflow bool, nFig, nTab, nEq *int) document.Block {
	switch b := b.(type) {
	case *document.Figure:
		*nFig++
		if reflow || b.Number == 0 {
			cp := *b
			cp.Number = *nFig
			b = &cp
		}
		r.figures[b.ID] = b.Number
		return b
	case *document.Table:
		*nTab++
		if reflow || b.Number == 0 {
			cp := *b
			cp.Number = *nTab
			b = &cp
		}
		r.tables[b.ID] = b.Number
		return b
	case *document.Math:
		*nEq++
		if reflow || b.Number == 0 {
			cp := *b
			cp.Number = *nEq
			b = &cp
		}
		r.equations[b.ID] = b.Number
		return b
	default:
		return b
	}
}

// Resolve builds the display text for a cross-reference node against the
// current assignments. An unresolved target degrades to the node's literal
// display text (or "?") and logs the miss; reading is never interrupted.
func (r *Registry) Resolve(node document.Inline, lang document.Lang) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch n := node.(type) {
	case *document.FigureRef:
		if num, ok := r.figures[n.TargetID]; ok {
			return fmt.Sprintf("Figure %d", num)
		}
		return r.miss("figure", n.TargetID, n.DisplayText)
	case *document.TableRef:
		if num, ok := r.tables[n.TargetID]; ok {
			return fmt.Sprintf("Table %d", num)
		}
		return r.miss("table", n.TargetID, n.DisplayText)
	case *document.EquationRef:
		if num, ok := r.equations[n.TargetID]; ok {
			return fmt.Sprintf("Eq. (%d)", num)
		}
		return r.miss("equation", n.TargetID, n.DisplayText)
	case *document.SectionRef:
		if title, ok := r.sections[n.TargetID]; ok && !title.IsEmpty() {
			return document.PlainText(title.Resolve(lang))
		}
		return r.miss("section", n.TargetID, n.DisplayText)
	case *document.Citation:
		nums := make([]string, 0, len(n.ReferenceIDs))
		for _, id := range n.ReferenceIDs {
			num, ok := r.refNums[id]
			if !ok {
				return r.miss("reference", id, n.DisplayText)
			}
			nums = append(nums, fmt.Sprintf("%d", num))
		}
		return "[" + strings.Join(nums, ",") + "]"
	default:
		return ""
	}
}

// FigureNumber reports the assigned number for a figure block, if any.
func (r *Registry) FigureNumber(blockID string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.figures[blockID]
	return n, ok
}

// ReferenceNumber reports the assigned number for a bibliography entry.
func (r *Registry) ReferenceNumber(refID string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.refNums[refID]
	return n, ok
}

func (r *Registry) miss(class, targetID, display string) string {
	r.log.Warn("reference resolution miss", "class", class, "target", targetID)
	if display != "" {
		return display
	}
	return "?"
}
