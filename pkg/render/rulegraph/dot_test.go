package rulegraph

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/placement"
	"github.com/matzehuels/autotag/pkg/symbols"
	"github.com/matzehuels/autotag/pkg/tag"
)

func rules() []placement.Rule {
	return placement.New(placement.DefaultPolicy()).Rules()
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(rules(), Options{})

	for _, want := range []string{
		"digraph Rules {",
		`"view:FloorPlan" -> "cell:FloorPlan/windows";`,
		`"cell:FloorPlan/windows" -> "symbol:windows" [label="offset-anchor <0, 3, 0>"];`,
		`"cell:Section/rooms" -> "symbol:rooms" [label="post-offset <0, 0, 3>"];`,
		`"cell:AreaPlan/areas" -> "symbol:areas" [label="area-projection"];`,
		`"cell:FloorPlan/walls" -> "symbol:curtain-walls" [label="curtain", style=dashed];`,
		"M_Curtain Wall Tag",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q", want)
		}
	}
	if strings.Contains(dot, "view:Other") {
		t.Error("DOT contains the Other view, which has no rules")
	}
	if strings.Count(dot, `"symbol:rooms" [label="Rooms`) != 1 {
		t.Error("symbol node emitted more than once")
	}
}

func TestToDOTFamilies(t *testing.T) {
	fam := symbols.DefaultFamilies().Merge(symbols.FamilyNames{tag.Doors: "Studio Door Tag"})
	dot := ToDOT(rules(), Options{Families: fam})
	if !strings.Contains(dot, "Studio Door Tag") {
		t.Error("family override not shown")
	}
}

func TestToDOTStable(t *testing.T) {
	if ToDOT(rules(), Options{}) != ToDOT(rules(), Options{}) {
		t.Error("ToDOT is not deterministic for sorted rules")
	}
}

func TestRenderFormats(t *testing.T) {
	ctx := context.Background()
	dot, err := Render(ctx, rules(), Options{}, "dot")
	if err != nil || !bytes.HasPrefix(dot, []byte("digraph")) {
		t.Errorf("Render(dot) = %q, %v", dot, err)
	}
	if _, err := Render(ctx, rules(), Options{}, "pdf"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Render(pdf) = %v, want UNSUPPORTED", err)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(rules(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() = %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output is not SVG")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("input without viewBox changed")
	}
}
