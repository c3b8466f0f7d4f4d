package document

import (
	"errors"
	"fmt"
)

var (
	// ErrBlockNotFound is returned by edit operations when the anchor block
	// is not in the document. A plain lookup miss is not an error; see
	// FindBlock.
	ErrBlockNotFound = errors.New("block not found")

	// ErrSectionNotFound is returned when an edit names an unknown section.
	ErrSectionNotFound = errors.New("section not found")

	// ErrFailedPlaceholder is returned when a range replace would swallow a
	// failed parsing placeholder. Failed placeholders stay visible until the
	// user deletes them explicitly.
	ErrFailedPlaceholder = errors.New("range contains a failed parsing placeholder")
)

// Section is a titled, ordered, nestable container of blocks.
type Section struct {
	ID          string    `json:"id"`
	Title       Bilingual `json:"title"`
	Content     BlockList `json:"content"`
	Subsections []Section `json:"subsections,omitempty"`
}

// Reference is one bibliography entry. Number is assigned by list order and
// stays stable until references are added, removed or reordered.
type Reference struct {
	ID           string `json:"id"`
	Number       int    `json:"number,omitempty"`
	OriginalText string `json:"originalText,omitempty"`
	Authors      string `json:"authors,omitempty"`
	Title        string `json:"title,omitempty"`
	Publication  string `json:"publication,omitempty"`
	Year         int    `json:"year,omitempty"`
	DOI          string `json:"doi,omitempty"`
	URL          string `json:"url,omitempty"`
}

// Document is the section tree of one paper plus its bibliography.
type Document struct {
	PaperID    string      `json:"paperId,omitempty"`
	Title      Bilingual   `json:"title"`
	Sections   []Section   `json:"sections"`
	References []Reference `json:"references,omitempty"`
}

// Location identifies where a block lives: the containing section, that
// section's ordinal in reading order, and the block's index within it.
type Location struct {
	Section        *Section
	SectionOrdinal int
	BlockIndex     int
}

// FindBlock scans sections in reading order and returns the first (and,
// because IDs are document-unique, only) location of the block. A false
// result is a normal miss, not an error: stale selections after a delete
// land here.
func (d *Document) FindBlock(blockID string) (Location, bool) {
	ordinal := 0
	var find func(secs []Section) (Location, bool)
	find = func(secs []Section) (Location, bool) {
		for i := range secs {
			sec := &secs[i]
			myOrdinal := ordinal
			ordinal++
			for j, b := range sec.Content {
				if b.BlockID() == blockID {
					return Location{Section: sec, SectionOrdinal: myOrdinal, BlockIndex: j}, true
				}
			}
			if loc, ok := find(sec.Subsections); ok {
				return loc, true
			}
		}
		return Location{}, false
	}
	return find(d.Sections)
}

// Walk visits every block in reading order: section blocks first, then
// subsections. Return false from fn to stop early.
func (d *Document) Walk(fn func(sec *Section, b Block) bool) {
	var walk func(secs []Section) bool
	walk = func(secs []Section) bool {
		for i := range secs {
			sec := &secs[i]
			for _, b := range sec.Content {
				if !fn(sec, b) {
					return false
				}
			}
			if !walk(sec.Subsections) {
				return false
			}
		}
		return true
	}
	walk(d.Sections)
}

// CountBlocks returns the total number of blocks in the document.
func (d *Document) CountBlocks() int {
	n := 0
	d.Walk(func(*Section, Block) bool { n++; return true })
	return n
}

// ValidateIDs checks that block IDs are unique across the whole document,
// which is what makes the flat ID lookup unambiguous.
func (d *Document) ValidateIDs() error {
	seen := make(map[string]bool)
	var dup string
	d.Walk(func(_ *Section, b Block) bool {
		if seen[b.BlockID()] {
			dup = b.BlockID()
			return false
		}
		seen[b.BlockID()] = true
		return true
	})
	if dup != "" {
		return fmt.Errorf("duplicate block id %q", dup)
	}
	return nil
}

// InsertAfter returns a new document with blocks spliced immediately after
// the named block. Sections off the edit path are shared, not copied.
func (d *Document) InsertAfter(blockID string, blocks ...Block) (*Document, error) {
	secs, found := editSections(d.Sections, func(sec *Section) (BlockList, bool) {
		for j, b := range sec.Content {
			if b.BlockID() == blockID {
				return spliceBlocks(sec.Content, j+1, 0, blocks), true
			}
		}
		return nil, false
	})
	if !found {
		return nil, fmt.Errorf("insert after %q: %w", blockID, ErrBlockNotFound)
	}
	next := *d
	next.Sections = secs
	return &next, nil
}

// DeleteBlock returns a new document without the named block. This is the
// explicit user delete: it may remove any block, including a failed parsing
// placeholder.
func (d *Document) DeleteBlock(blockID string) (*Document, error) {
	secs, found := editSections(d.Sections, func(sec *Section) (BlockList, bool) {
		for j, b := range sec.Content {
			if b.BlockID() == blockID {
				return spliceBlocks(sec.Content, j, 1, nil), true
			}
		}
		return nil, false
	})
	if !found {
		return nil, fmt.Errorf("delete %q: %w", blockID, ErrBlockNotFound)
	}
	next := *d
	next.Sections = secs
	return &next, nil
}

// ReplaceRange returns a new document with count blocks starting at start in
// the named section replaced by the given blocks. Blocks before and after
// the range are preserved. This is the primitive the parse lifecycle uses to
// swap a placeholder for its final blocks atomically; it refuses to remove a
// failed placeholder as a side effect.
func (d *Document) ReplaceRange(sectionID string, start, count int, blocks ...Block) (*Document, error) {
	var rangeErr error
	secs, found := editSections(d.Sections, func(sec *Section) (BlockList, bool) {
		if sec.ID != sectionID {
			return nil, false
		}
		if start < 0 || count < 0 || start+count > len(sec.Content) {
			rangeErr = fmt.Errorf("replace range [%d,%d) out of bounds for section %q (%d blocks)",
				start, start+count, sectionID, len(sec.Content))
			return nil, true
		}
		for _, b := range sec.Content[start : start+count] {
			if p, ok := b.(*Parsing); ok && p.Stage == StageFailed {
				rangeErr = fmt.Errorf("replace range in %q: %w", sectionID, ErrFailedPlaceholder)
				return nil, true
			}
		}
		return spliceBlocks(sec.Content, start, count, blocks), true
	})
	if !found {
		return nil, fmt.Errorf("replace range: section %q: %w", sectionID, ErrSectionNotFound)
	}
	if rangeErr != nil {
		return nil, rangeErr
	}
	next := *d
	next.Sections = secs
	return &next, nil
}

// StripParsing returns a copy of the document with every transient parsing
// placeholder removed. Called at the save boundary: placeholders are never
// persisted as final content. The in-memory snapshot keeps them.
func (d *Document) StripParsing() *Document {
	var strip func(secs []Section) []Section
	strip = func(secs []Section) []Section {
		out := make([]Section, len(secs))
		for i, sec := range secs {
			content := make(BlockList, 0, len(sec.Content))
			for _, b := range sec.Content {
				if b.BlockType() == BlockParsing {
					continue
				}
				content = append(content, b)
			}
			sec.Content = content
			sec.Subsections = strip(sec.Subsections)
			out[i] = sec
		}
		return out
	}
	next := *d
	next.Sections = strip(d.Sections)
	return &next
}

// editSections rebuilds the section spine down to the first section where
// edit applies, sharing everything else. edit returns the section's new
// content and whether it handled the section.
func editSections(secs []Section, edit func(sec *Section) (BlockList, bool)) ([]Section, bool) {
	for i := range secs {
		if content, ok := edit(&secs[i]); ok {
			out := make([]Section, len(secs))
			copy(out, secs)
			out[i].Content = content
			return out, true
		}
		if subs, ok := editSections(secs[i].Subsections, edit); ok {
			out := make([]Section, len(secs))
			copy(out, secs)
			out[i].Subsections = subs
			return out, true
		}
	}
	return nil, false
}

// spliceBlocks builds a new block slice with count elements at start
// replaced by insert. The input slice is never mutated.
func spliceBlocks(blocks BlockList, start, count int, insert []Block) BlockList {
	out := make(BlockList, 0, len(blocks)-count+len(insert))
	out = append(out, blocks[:start]...)
	out = append(out, insert...)
	out = append(out, blocks[start+count:]...)
	return out
}
