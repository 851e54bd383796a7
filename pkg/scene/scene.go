// Package scene models what the host hands over for one tagging run: the
// active view, the elements visible in it and the annotation symbol
// library.
//
// A Snapshot is read-only once built. It can be decoded from JSON or YAML
// (see [ReadJSON] and [ReadYAML]) or produced by a scene script
// (package scene/script).
package scene

import (
	"github.com/matzehuels/autotag/pkg/geom"
	"github.com/matzehuels/autotag/pkg/placement"
	"github.com/matzehuels/autotag/pkg/symbols"
	"github.com/matzehuels/autotag/pkg/tag"
)

// ElementExtra carries the category-specific facts the placement rules read.
type ElementExtra = placement.Extra

// Element is one model element in the active view.
type Element struct {
	ID       string
	Category tag.Category
	// CategoryName is the host's category name. It is kept verbatim so
	// that elements of categories the tagger does not know survive a
	// decode/encode cycle.
	CategoryName string
	Location     geom.Location
	Extra        ElementExtra
	// IsType marks element types (family symbols), which are never tagged.
	IsType bool
}

// Snapshot is the input of one run.
type Snapshot struct {
	View     tag.ViewType
	Elements []Element
	Library  []symbols.LibrarySymbol
}

// NewElement returns an element of a known category.
func NewElement(id string, c tag.Category, loc geom.Location) Element {
	return Element{ID: id, Category: c, CategoryName: c.String(), Location: loc}
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		View:     s.View,
		Elements: make([]Element, len(s.Elements)),
		Library:  append([]symbols.LibrarySymbol(nil), s.Library...),
	}
	for i, e := range s.Elements {
		if e.Extra.LevelElevation != nil {
			lvl := *e.Extra.LevelElevation
			e.Extra.LevelElevation = &lvl
		}
		out.Elements[i] = e
	}
	return out
}

// Collect applies the host collector filter: element types and elements
// of categories that are never tagged are dropped. It returns the kept
// elements in input order and the number dropped.
func Collect(elements []Element) ([]Element, int) {
	kept := make([]Element, 0, len(elements))
	for _, e := range elements {
		if e.IsType || !e.Category.IsElementCategory() {
			continue
		}
		kept = append(kept, e)
	}
	return kept, len(elements) - len(kept)
}
