// Package tag defines the closed vocabularies shared by the placement engine
// and its callers: element categories, view presentation types, annotation
// symbol references and tag orientation.
//
// Categories and view types are enumerations rather than strings so that the
// decision table in pkg/placement is total and checkable in tests. Host
// display names ("Lighting Fixtures") and slugs ("lighting-fixtures") are
// accepted when parsing.
package tag

import (
	"fmt"
	"strings"
)

// =============================================================================
// Category
// =============================================================================

// Category is the model category of a taggable element.
type Category int

const (
	CategoryUnknown Category = iota
	Areas
	CurtainWalls // symbol key for the curtain subtype of Walls
	Doors
	Furniture
	LightingFixtures
	Rooms
	Walls
	Windows
)

var categoryNames = map[Category]string{
	Areas:            "Areas",
	CurtainWalls:     "Curtain Walls",
	Doors:            "Doors",
	Furniture:        "Furniture",
	LightingFixtures: "Lighting Fixtures",
	Rooms:            "Rooms",
	Walls:            "Walls",
	Windows:          "Windows",
}

// AllCategories returns every category that has a symbol mapping entry,
// in declaration order.
func AllCategories() []Category {
	return []Category{Areas, CurtainWalls, Doors, Furniture, LightingFixtures, Rooms, Walls, Windows}
}

// ElementCategories returns the categories an element can carry.
// CurtainWalls is absent: curtain walls are Walls with a curtain flag.
func ElementCategories() []Category {
	return []Category{Areas, Walls, Doors, Furniture, LightingFixtures, Rooms, Windows}
}

// String returns the host display name, e.g. "Lighting Fixtures".
func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Slug returns the lowercase hyphenated name used in config files and
// scene scripts, e.g. "lighting-fixtures".
func (c Category) Slug() string {
	if _, ok := categoryNames[c]; !ok {
		return "unknown"
	}
	return strings.ReplaceAll(strings.ToLower(c.String()), " ", "-")
}

// Valid reports whether c is one of the eight named categories.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// IsElementCategory reports whether an element may carry c.
func (c Category) IsElementCategory() bool {
	return c.Valid() && c != CurtainWalls
}

// ParseCategory parses a display name, slug or identifier form of a
// category. Matching ignores case, spaces, hyphens and underscores, so
// "Lighting Fixtures", "lighting-fixtures" and "LightingFixtures" are equal.
func ParseCategory(s string) (Category, error) {
	key := normalize(s)
	for c, name := range categoryNames {
		if normalize(name) == key {
			return c, nil
		}
	}
	return CategoryUnknown, fmt.Errorf("unknown category %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", c)
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// =============================================================================
// ViewType
// =============================================================================

// ViewType is the presentation type of the active view. It selects which
// subset of placement rules applies.
type ViewType int

const (
	ViewOther ViewType = iota
	AreaPlan
	CeilingPlan
	FloorPlan
	Section
)

var viewNames = map[ViewType]string{
	ViewOther:   "Other",
	AreaPlan:    "AreaPlan",
	CeilingPlan: "CeilingPlan",
	FloorPlan:   "FloorPlan",
	Section:     "Section",
}

// AllViewTypes returns every view type, Other last.
func AllViewTypes() []ViewType {
	return []ViewType{AreaPlan, CeilingPlan, FloorPlan, Section, ViewOther}
}

func (v ViewType) String() string {
	if s, ok := viewNames[v]; ok {
		return s
	}
	return fmt.Sprintf("ViewType(%d)", int(v))
}

// ParseViewType parses a view type name. Matching ignores case, spaces,
// hyphens and underscores. Names that do not match a known presentation
// type (3-D views, elevations, schedules, ...) map to ViewOther, which has
// no placement rules.
func ParseViewType(s string) ViewType {
	key := normalize(s)
	for v, name := range viewNames {
		if normalize(name) == key {
			return v
		}
	}
	return ViewOther
}

// MarshalText implements encoding.TextMarshaler.
func (v ViewType) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *ViewType) UnmarshalText(b []byte) error {
	*v = ParseViewType(string(b))
	return nil
}

// =============================================================================
// SymbolRef & Orientation
// =============================================================================

// SymbolRef identifies an annotation symbol (tag family type) in the host
// library. The ID is opaque to the engine.
type SymbolRef struct {
	ID     string `json:"id" yaml:"id" bson:"id"`
	Family string `json:"family,omitempty" yaml:"family,omitempty" bson:"family,omitempty"`
}

// IsZero reports whether the reference is absent.
func (r SymbolRef) IsZero() bool {
	return r.ID == ""
}

func (r SymbolRef) String() string {
	if r.Family == "" {
		return r.ID
	}
	return fmt.Sprintf("%s (%s)", r.Family, r.ID)
}

// Orientation is the text orientation of a placed tag.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// MarshalText implements encoding.TextMarshaler.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Orientation) UnmarshalText(b []byte) error {
	switch normalize(string(b)) {
	case "horizontal", "":
		*o = Horizontal
	case "vertical":
		*o = Vertical
	default:
		return fmt.Errorf("unknown orientation %q", string(b))
	}
	return nil
}

func normalize(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}
