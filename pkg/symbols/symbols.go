// Package symbols builds the category to tag-symbol mapping for a run.
//
// The host library is a flat list of annotation symbols. For each category
// the configured family name selects one symbol; the first library entry
// with that family wins. The resulting Map is total over
// tag.AllCategories() or construction fails.
package symbols

import (
	"sort"
	"strings"

	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/tag"
)

// Lookup is the capability the placement engine needs: find the symbol
// for a category.
type Lookup interface {
	LookupSymbol(tag.Category) (tag.SymbolRef, bool)
}

// LibrarySymbol is one annotation symbol available in the host library.
// Category is informational; matching is by family name.
type LibrarySymbol struct {
	ID       string       `json:"id" yaml:"id" bson:"id"`
	Family   string       `json:"family" yaml:"family" bson:"family"`
	Category tag.Category `json:"category,omitempty" yaml:"category,omitempty" bson:"-"`
}

// FamilyNames maps each category to the tag family name that serves it.
type FamilyNames map[tag.Category]string

// DefaultFamilies returns the metric tag families shipped with the
// default host template.
func DefaultFamilies() FamilyNames {
	return FamilyNames{
		tag.Areas:            "M_Area Tag",
		tag.CurtainWalls:     "M_Curtain Wall Tag",
		tag.Doors:            "M_Door Tag",
		tag.Furniture:        "M_Furniture Tag",
		tag.LightingFixtures: "M_Lighting Fixture Tag",
		tag.Rooms:            "M_Room Tag",
		tag.Walls:            "M_Wall Tag",
		tag.Windows:          "M_Window Tag",
	}
}

// Merge returns a copy of f with overrides applied. Empty override values
// are ignored.
func (f FamilyNames) Merge(overrides FamilyNames) FamilyNames {
	out := make(FamilyNames, len(f)+len(overrides))
	for c, name := range f {
		out[c] = name
	}
	for c, name := range overrides {
		if strings.TrimSpace(name) != "" {
			out[c] = name
		}
	}
	return out
}

// Validate checks that every category has a well-formed family name.
func (f FamilyNames) Validate() error {
	for _, c := range tag.AllCategories() {
		name, ok := f[c]
		if !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "no tag family configured for %s", c)
		}
		if err := errors.ValidateFamilyName(name); err != nil {
			return err
		}
	}
	for c := range f {
		if !c.Valid() {
			return errors.New(errors.ErrCodeInvalidConfig, "tag family configured for unknown category %s", c)
		}
	}
	return nil
}

// Map is a resolved category to symbol mapping.
type Map map[tag.Category]tag.SymbolRef

// LookupSymbol implements Lookup.
func (m Map) LookupSymbol(c tag.Category) (tag.SymbolRef, bool) {
	ref, ok := m[c]
	if !ok || ref.IsZero() {
		return tag.SymbolRef{}, false
	}
	return ref, true
}

// Validate checks that m has a symbol for every category.
func (m Map) Validate() error {
	var missing []string
	for _, c := range tag.AllCategories() {
		if _, ok := m.LookupSymbol(c); !ok {
			missing = append(missing, c.String())
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeMissingSymbol, "no symbol for %s", strings.Join(missing, ", "))
	}
	return nil
}

// Resolve selects one library symbol per category by family name.
// Every category that cannot be resolved is listed in a single
// ErrCodeMissingSymbol error.
func Resolve(lib []LibrarySymbol, families FamilyNames) (Map, error) {
	if err := families.Validate(); err != nil {
		return nil, err
	}

	byFamily := make(map[string]tag.SymbolRef, len(lib))
	for _, s := range lib {
		if s.ID == "" {
			continue
		}
		if _, seen := byFamily[s.Family]; !seen {
			byFamily[s.Family] = tag.SymbolRef{ID: s.ID, Family: s.Family}
		}
	}

	m := make(Map, len(families))
	var missing []string
	for _, c := range tag.AllCategories() {
		name := families[c]
		ref, ok := byFamily[name]
		if !ok {
			missing = append(missing, c.String()+" ("+name+")")
			continue
		}
		m[c] = ref
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.New(errors.ErrCodeMissingSymbol,
			"tag families not found in library: %s", strings.Join(missing, ", "))
	}
	return m, nil
}
