package placement

import (
	"fmt"
	"sort"

	"github.com/matzehuels/autotag/pkg/geom"
	"github.com/matzehuels/autotag/pkg/tag"
)

// Adjust is the kind of adjustment a rule applies around placement.
type Adjust int

const (
	// AdjustNone places the tag at the anchor.
	AdjustNone Adjust = iota
	// AdjustAreaProjection places an area tag at the anchor's plan
	// projection with the tag head at z=0.
	AdjustAreaProjection
	// AdjustOffsetAnchor displaces the anchor before placement.
	AdjustOffsetAnchor
	// AdjustPostOffset places at the anchor, then moves the created tag.
	AdjustPostOffset
)

func (a Adjust) String() string {
	switch a {
	case AdjustNone:
		return "none"
	case AdjustAreaProjection:
		return "area-projection"
	case AdjustOffsetAnchor:
		return "offset-anchor"
	case AdjustPostOffset:
		return "post-offset"
	default:
		return fmt.Sprintf("Adjust(%d)", int(a))
	}
}

// offsetSource names which Policy vector an offset rule reads.
type offsetSource int

const (
	noOffset offsetSource = iota
	windowOffset
	sectionLift
)

// Rule is one cell of the decision table.
type Rule struct {
	View     tag.ViewType
	Category tag.Category

	// Symbol is the mapping key used to look up the tag symbol.
	Symbol tag.Category
	// CurtainSymbol, when valid, replaces Symbol for curtain walls.
	CurtainSymbol tag.Category

	Adjust Adjust
	// Offset is the displacement for AdjustOffsetAnchor and
	// AdjustPostOffset, taken from the engine's Policy.
	Offset geom.Vector3D

	offset offsetSource
}

// SymbolFor returns the symbol key for an element with the given extra facts.
func (r Rule) SymbolFor(extra Extra) tag.Category {
	if extra.IsCurtain && r.CurtainSymbol.Valid() {
		return r.CurtainSymbol
	}
	return r.Symbol
}

// Symbols returns every symbol key the rule can select.
func (r Rule) Symbols() []tag.Category {
	if r.CurtainSymbol.Valid() {
		return []tag.Category{r.CurtainSymbol, r.Symbol}
	}
	return []tag.Category{r.Symbol}
}

type cell struct {
	view     tag.ViewType
	category tag.Category
}

// table is the placement policy. Pairs absent from it are never tagged.
var table = map[cell]Rule{
	{tag.AreaPlan, tag.Areas}:               {Symbol: tag.Areas, Adjust: AdjustAreaProjection},
	{tag.CeilingPlan, tag.LightingFixtures}: {Symbol: tag.LightingFixtures},
	{tag.CeilingPlan, tag.Rooms}:            {Symbol: tag.Rooms},
	{tag.FloorPlan, tag.Walls}:              {Symbol: tag.Walls, CurtainSymbol: tag.CurtainWalls},
	{tag.FloorPlan, tag.Doors}:              {Symbol: tag.Doors},
	{tag.FloorPlan, tag.Furniture}:          {Symbol: tag.Furniture},
	{tag.FloorPlan, tag.Rooms}:              {Symbol: tag.Rooms},
	{tag.FloorPlan, tag.Windows}:            {Symbol: tag.Windows, Adjust: AdjustOffsetAnchor, offset: windowOffset},
	{tag.Section, tag.Rooms}:                {Symbol: tag.Rooms, Adjust: AdjustPostOffset, offset: sectionLift},
}

func (p Policy) vector(src offsetSource) geom.Vector3D {
	switch src {
	case windowOffset:
		return p.WindowOffset
	case sectionLift:
		return p.SectionLift
	default:
		return geom.Vector3D{}
	}
}

// Lookup returns the rule for (view, category) with offsets bound to the
// engine's policy.
func (e *Engine) Lookup(view tag.ViewType, category tag.Category) (Rule, bool) {
	r, ok := table[cell{view, category}]
	if !ok {
		return Rule{}, false
	}
	r.View = view
	r.Category = category
	r.Offset = e.policy.vector(r.offset)
	return r, true
}

// Rules returns every cell of the table ordered by view, then category.
func (e *Engine) Rules() []Rule {
	rules := make([]Rule, 0, len(table))
	for c := range table {
		r, _ := e.Lookup(c.view, c.category)
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].View != rules[j].View {
			return rules[i].View < rules[j].View
		}
		return rules[i].Category < rules[j].Category
	})
	return rules
}
