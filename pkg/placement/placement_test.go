package placement

import (
	"math"
	"testing"

	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/geom"
	"github.com/matzehuels/autotag/pkg/symbols"
	"github.com/matzehuels/autotag/pkg/tag"
)

func testSymbols() symbols.Map {
	m := symbols.Map{}
	for _, c := range tag.AllCategories() {
		m[c] = tag.SymbolRef{ID: c.Slug(), Family: symbols.DefaultFamilies()[c]}
	}
	return m
}

func elevation(v float64) *float64 { return &v }

func TestDecideScenarios(t *testing.T) {
	eng := New(DefaultPolicy())
	syms := testSymbols()

	t.Run("floor plan window offset", func(t *testing.T) {
		d, ok, err := eng.Decide(tag.FloorPlan, tag.Windows, geom.Pt(10, 20, 0), Extra{}, syms)
		if err != nil || !ok {
			t.Fatalf("Decide() = %v, %v", ok, err)
		}
		if d.Anchor != geom.Pt(10, 23, 0) {
			t.Errorf("Anchor = %v, want (10, 23, 0)", d.Anchor)
		}
		if d.Symbol != syms[tag.Windows] {
			t.Errorf("Symbol = %v, want Windows", d.Symbol)
		}
		if d.Leader {
			t.Error("Leader = true")
		}
		if d.PostOffset != nil {
			t.Errorf("PostOffset = %v, want nil", *d.PostOffset)
		}
	})

	t.Run("section room lift ignores elevation", func(t *testing.T) {
		d, ok, err := eng.Decide(tag.Section, tag.Rooms, geom.Pt(5, 5, 0), Extra{LevelElevation: elevation(12)}, syms)
		if err != nil || !ok {
			t.Fatalf("Decide() = %v, %v", ok, err)
		}
		if d.Anchor != geom.Pt(5, 5, 0) {
			t.Errorf("Anchor = %v, want (5, 5, 0)", d.Anchor)
		}
		if d.PostOffset == nil || *d.PostOffset != geom.Vec(0, 0, 3) {
			t.Fatalf("PostOffset = %v, want <0, 0, 3>", d.PostOffset)
		}

		other, _, _ := eng.Decide(tag.Section, tag.Rooms, geom.Pt(5, 5, 0), Extra{LevelElevation: elevation(-40)}, syms)
		none, _, _ := eng.Decide(tag.Section, tag.Rooms, geom.Pt(5, 5, 0), Extra{}, syms)
		if !d.Equal(other) || !d.Equal(none) {
			t.Error("section lift depends on level elevation")
		}
	})

	t.Run("curtain wall split", func(t *testing.T) {
		curtain, ok, err := eng.Decide(tag.FloorPlan, tag.Walls, geom.Pt(0, 0, 0), Extra{IsCurtain: true}, syms)
		if err != nil || !ok {
			t.Fatalf("Decide(curtain) = %v, %v", ok, err)
		}
		if curtain.Symbol != syms[tag.CurtainWalls] {
			t.Errorf("curtain Symbol = %v, want CurtainWalls", curtain.Symbol)
		}
		plain, ok, err := eng.Decide(tag.FloorPlan, tag.Walls, geom.Pt(0, 0, 0), Extra{IsCurtain: false}, syms)
		if err != nil || !ok {
			t.Fatalf("Decide(wall) = %v, %v", ok, err)
		}
		if plain.Symbol != syms[tag.Walls] {
			t.Errorf("wall Symbol = %v, want Walls", plain.Symbol)
		}
	})

	t.Run("area plan projection", func(t *testing.T) {
		d, ok, err := eng.Decide(tag.AreaPlan, tag.Areas, geom.Pt(1, 2, 3), Extra{}, syms)
		if err != nil || !ok {
			t.Fatalf("Decide() = %v, %v", ok, err)
		}
		if d.Mode != ModeAreaTag {
			t.Errorf("Mode = %v, want area-tag", d.Mode)
		}
		if d.PlanPoint == nil || *d.PlanPoint != (geom.PlanPoint{U: 1, V: 2}) {
			t.Errorf("PlanPoint = %v, want (1, 2)", d.PlanPoint)
		}
		if d.TagHead == nil || *d.TagHead != geom.Pt(1, 2, 0) {
			t.Errorf("TagHead = %v, want (1, 2, 0)", d.TagHead)
		}
		if d.Anchor != geom.Pt(1, 2, 3) {
			t.Errorf("Anchor = %v, want unchanged (1, 2, 3)", d.Anchor)
		}
	})

	t.Run("ceiling plan door skipped", func(t *testing.T) {
		d, ok, err := eng.Decide(tag.CeilingPlan, tag.Doors, geom.Pt(0, 0, 0), Extra{}, syms)
		if err != nil {
			t.Fatalf("Decide() error = %v", err)
		}
		if ok {
			t.Errorf("Decide() = %+v, want skip", d)
		}
	})
}

func TestDecideUnchangedAnchors(t *testing.T) {
	eng := New(DefaultPolicy())
	syms := testSymbols()
	anchor := geom.Pt(7.5, -2, 1)
	cases := []struct {
		view tag.ViewType
		cat  tag.Category
	}{
		{tag.CeilingPlan, tag.LightingFixtures},
		{tag.CeilingPlan, tag.Rooms},
		{tag.FloorPlan, tag.Doors},
		{tag.FloorPlan, tag.Furniture},
		{tag.FloorPlan, tag.Rooms},
		{tag.FloorPlan, tag.Walls},
	}
	for _, c := range cases {
		t.Run(c.view.String()+"/"+c.cat.String(), func(t *testing.T) {
			d, ok, err := eng.Decide(c.view, c.cat, anchor, Extra{}, syms)
			if err != nil || !ok {
				t.Fatalf("Decide() = %v, %v", ok, err)
			}
			if d.Anchor != anchor {
				t.Errorf("Anchor = %v, want %v", d.Anchor, anchor)
			}
			if d.Symbol != syms[c.cat] {
				t.Errorf("Symbol = %v, want %v", d.Symbol, syms[c.cat])
			}
			if d.Mode != ModeIndependent || d.PostOffset != nil || d.PlanPoint != nil || d.TagHead != nil {
				t.Errorf("unexpected adjustment: %+v", d)
			}
			if d.Orientation != tag.Horizontal || d.Leader {
				t.Errorf("Orientation/Leader = %v/%v", d.Orientation, d.Leader)
			}
		})
	}
}

func TestDecideExhaustive(t *testing.T) {
	eng := New(DefaultPolicy())
	syms := testSymbols()
	anchors := []geom.Point3D{geom.Pt(0, 0, 0), geom.Pt(1, 2, 3), geom.Pt(-100, 50.5, 9)}
	extras := []Extra{{}, {IsCurtain: true}, {LevelElevation: elevation(12)}}

	emitted := 0
	for _, view := range tag.AllViewTypes() {
		for _, cat := range tag.AllCategories() {
			_, inTable := eng.Lookup(view, cat)
			if inTable {
				emitted++
			}
			for _, a := range anchors {
				for _, x := range extras {
					_, ok, err := eng.Decide(view, cat, a, x, syms)
					if err != nil {
						t.Fatalf("Decide(%v, %v) error = %v", view, cat, err)
					}
					if ok != inTable {
						t.Errorf("Decide(%v, %v) ok = %v, want %v", view, cat, ok, inTable)
					}
				}
			}
		}
	}
	if emitted != 9 {
		t.Errorf("table has %d cells, want 9", emitted)
	}
	for _, cat := range tag.AllCategories() {
		if _, ok, _ := eng.Decide(tag.ViewOther, cat, geom.Pt(0, 0, 0), Extra{}, syms); ok {
			t.Errorf("Other view tagged %v", cat)
		}
	}
}

func TestDecideIdempotent(t *testing.T) {
	eng := New(DefaultPolicy())
	syms := testSymbols()
	for _, r := range eng.Rules() {
		a, _, err1 := eng.Decide(r.View, r.Category, geom.Pt(3, 4, 5), Extra{LevelElevation: elevation(1)}, syms)
		b, _, err2 := eng.Decide(r.View, r.Category, geom.Pt(3, 4, 5), Extra{LevelElevation: elevation(1)}, syms)
		if err1 != nil || err2 != nil {
			t.Fatalf("Decide error: %v %v", err1, err2)
		}
		if !a.Equal(b) {
			t.Errorf("%v/%v: repeated Decide differs: %+v vs %+v", r.View, r.Category, a, b)
		}
	}
}

func TestDecideMissingSymbol(t *testing.T) {
	eng := New(DefaultPolicy())
	syms := testSymbols()
	delete(syms, tag.CurtainWalls)

	_, _, err := eng.Decide(tag.FloorPlan, tag.Walls, geom.Pt(0, 0, 0), Extra{IsCurtain: true}, syms)
	if !errors.Is(err, errors.ErrCodeMissingSymbol) {
		t.Fatalf("Decide() error = %v, want MISSING_SYMBOL_MAPPING", err)
	}

	// Ordinary walls do not need the curtain symbol.
	if _, ok, err := eng.Decide(tag.FloorPlan, tag.Walls, geom.Pt(0, 0, 0), Extra{}, syms); err != nil || !ok {
		t.Errorf("Decide(ordinary wall) = %v, %v", ok, err)
	}

	// Unhandled pairs never consult the mapping.
	if _, ok, err := eng.Decide(tag.Section, tag.Walls, geom.Pt(0, 0, 0), Extra{IsCurtain: true}, symbols.Map{}); err != nil || ok {
		t.Errorf("Decide(unhandled) = %v, %v", ok, err)
	}
}

func TestCustomPolicy(t *testing.T) {
	eng := New(Policy{WindowOffset: geom.Vec(0, 5, 0), SectionLift: geom.Vec(0, 0, 1.5)})
	syms := testSymbols()

	d, _, _ := eng.Decide(tag.FloorPlan, tag.Windows, geom.Pt(0, 0, 0), Extra{}, syms)
	if d.Anchor != geom.Pt(0, 5, 0) {
		t.Errorf("window Anchor = %v, want (0, 5, 0)", d.Anchor)
	}
	d, _, _ = eng.Decide(tag.Section, tag.Rooms, geom.Pt(0, 0, 0), Extra{}, syms)
	if d.PostOffset == nil || *d.PostOffset != geom.Vec(0, 0, 1.5) {
		t.Errorf("PostOffset = %v, want <0, 0, 1.5>", d.PostOffset)
	}
}

func TestRulesSorted(t *testing.T) {
	rules := New(DefaultPolicy()).Rules()
	if len(rules) != 9 {
		t.Fatalf("len(Rules()) = %d, want 9", len(rules))
	}
	for i := 1; i < len(rules); i++ {
		prev, cur := rules[i-1], rules[i]
		if prev.View > cur.View || (prev.View == cur.View && prev.Category >= cur.Category) {
			t.Errorf("rules not sorted at %d: %v/%v before %v/%v", i, prev.View, prev.Category, cur.View, cur.Category)
		}
	}
	if rules[0].View != tag.AreaPlan || rules[0].Category != tag.Areas {
		t.Errorf("first rule = %v/%v, want AreaPlan/Areas", rules[0].View, rules[0].Category)
	}
}

func TestRuleSymbols(t *testing.T) {
	eng := New(DefaultPolicy())
	r, ok := eng.Lookup(tag.FloorPlan, tag.Walls)
	if !ok {
		t.Fatal("Lookup(FloorPlan, Walls) missing")
	}
	got := r.Symbols()
	if len(got) != 2 || got[0] != tag.CurtainWalls || got[1] != tag.Walls {
		t.Errorf("Symbols() = %v", got)
	}
	w, _ := eng.Lookup(tag.FloorPlan, tag.Windows)
	if w.Adjust != AdjustOffsetAnchor || w.Offset != geom.Vec(0, 3, 0) {
		t.Errorf("window rule = %+v", w)
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Errorf("DefaultPolicy().Validate() = %v", err)
	}
	bad := Policy{WindowOffset: geom.Vec(0, math.Inf(1), 0)}
	if !errors.Is(bad.Validate(), errors.ErrCodeInvalidConfig) {
		t.Error("expected INVALID_CONFIG for infinite offset")
	}
}
