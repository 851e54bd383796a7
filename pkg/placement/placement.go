// Package placement decides whether and how to tag an element.
//
// The decision is a pure function of the active view type, the element's
// category, its resolved anchor and a few category-specific facts. A fixed
// table keyed by (view type, category) selects the tag symbol and one
// adjustment; every pair missing from the table is skipped silently.
//
//	eng := placement.New(placement.DefaultPolicy())
//	d, ok, err := eng.Decide(tag.FloorPlan, tag.Windows, anchor, placement.Extra{}, syms)
//
// The engine holds no mutable state and is safe for concurrent use.
package placement

import (
	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/geom"
	"github.com/matzehuels/autotag/pkg/symbols"
	"github.com/matzehuels/autotag/pkg/tag"
)

// Extra carries the category-specific facts rules may read.
type Extra struct {
	// IsCurtain marks a wall as a curtain wall.
	IsCurtain bool `json:"curtain,omitempty" yaml:"curtain,omitempty"`
	// LevelElevation is the elevation of a room's reference level. It is
	// carried for section views but the section lift does not depend on it.
	LevelElevation *float64 `json:"level_elevation,omitempty" yaml:"level_elevation,omitempty"`
}

// Mode selects how the host creates the tag.
type Mode int

const (
	// ModeIndependent creates a tag at Directive.Anchor.
	ModeIndependent Mode = iota
	// ModeAreaTag creates an area tag at Directive.PlanPoint.
	ModeAreaTag
)

func (m Mode) String() string {
	if m == ModeAreaTag {
		return "area-tag"
	}
	return "independent"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "independent", "":
		*m = ModeIndependent
	case "area-tag":
		*m = ModeAreaTag
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown placement mode %q", string(b))
	}
	return nil
}

// Directive tells the host how to create one tag.
type Directive struct {
	Symbol      tag.SymbolRef   `json:"symbol"`
	Anchor      geom.Point3D    `json:"anchor"`
	Orientation tag.Orientation `json:"orientation"`
	Leader      bool            `json:"leader"`
	Mode        Mode            `json:"mode"`

	// PostOffset, when set, moves the created tag after placement.
	PostOffset *geom.Vector3D `json:"post_offset,omitempty"`
	// PlanPoint and TagHead are set for area tags only.
	PlanPoint *geom.PlanPoint `json:"plan_point,omitempty"`
	TagHead   *geom.Point3D   `json:"tag_head,omitempty"`
}

// Equal reports whether d and o describe the same placement.
func (d Directive) Equal(o Directive) bool {
	if d.Symbol != o.Symbol || d.Anchor != o.Anchor || d.Orientation != o.Orientation ||
		d.Leader != o.Leader || d.Mode != o.Mode {
		return false
	}
	return eqPtr(d.PostOffset, o.PostOffset) && eqPtr(d.PlanPoint, o.PlanPoint) && eqPtr(d.TagHead, o.TagHead)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Policy holds the tunable offsets of the table.
type Policy struct {
	// WindowOffset displaces window anchors in floor plans.
	WindowOffset geom.Vector3D
	// SectionLift moves room tags in sections after placement.
	SectionLift geom.Vector3D
}

// DefaultPolicy returns the offsets of the standard office template:
// windows 3 units up the plan, section room tags lifted 3 units.
func DefaultPolicy() Policy {
	return Policy{
		WindowOffset: geom.Vec(0, 3, 0),
		SectionLift:  geom.Vec(0, 0, 3),
	}
}

// Validate rejects non-finite offsets.
func (p Policy) Validate() error {
	if !p.WindowOffset.IsFinite() {
		return errors.New(errors.ErrCodeInvalidConfig, "window offset %v is not finite", p.WindowOffset)
	}
	if !p.SectionLift.IsFinite() {
		return errors.New(errors.ErrCodeInvalidConfig, "section lift %v is not finite", p.SectionLift)
	}
	return nil
}

// Engine evaluates the decision table under a Policy.
type Engine struct {
	policy Policy
}

// New creates an Engine.
func New(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Policy returns the engine's offsets.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Decide returns the directive for one element.
//
// The boolean is false when the table has no cell for (view, category).
// A cell whose symbol is missing from syms returns an
// ErrCodeMissingSymbol error.
func (e *Engine) Decide(view tag.ViewType, category tag.Category, anchor geom.Point3D, extra Extra, syms symbols.Lookup) (Directive, bool, error) {
	rule, ok := e.Lookup(view, category)
	if !ok {
		return Directive{}, false, nil
	}

	key := rule.SymbolFor(extra)
	ref, ok := syms.LookupSymbol(key)
	if !ok {
		return Directive{}, false, errors.New(errors.ErrCodeMissingSymbol,
			"no symbol for %s (needed by %s in %s)", key, category, view)
	}

	d := Directive{
		Symbol:      ref,
		Anchor:      anchor,
		Orientation: tag.Horizontal,
		Leader:      false,
		Mode:        ModeIndependent,
	}

	switch rule.Adjust {
	case AdjustAreaProjection:
		pp := anchor.Plan()
		head := pp.Lift(0)
		d.Mode = ModeAreaTag
		d.PlanPoint = &pp
		d.TagHead = &head
	case AdjustOffsetAnchor:
		d.Anchor = anchor.Translate(rule.Offset)
	case AdjustPostOffset:
		off := rule.Offset
		d.PostOffset = &off
	}
	return d, true, nil
}
