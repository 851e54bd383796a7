package pipeline_test

import (
	"context"
	"testing"

	"github.com/matzehuels/autotag/pkg/document"
	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/geom"
	"github.com/matzehuels/autotag/pkg/pipeline"
	"github.com/matzehuels/autotag/pkg/placement"
	"github.com/matzehuels/autotag/pkg/scene"
	"github.com/matzehuels/autotag/pkg/symbols"
	"github.com/matzehuels/autotag/pkg/tag"
)

func snapshot(view tag.ViewType, elements ...scene.Element) *scene.Snapshot {
	var lib []symbols.LibrarySymbol
	for _, c := range tag.AllCategories() {
		lib = append(lib, symbols.LibrarySymbol{ID: c.Slug(), Family: symbols.DefaultFamilies()[c]})
	}
	return &scene.Snapshot{View: view, Elements: elements, Library: lib}
}

func execute(t *testing.T, r *pipeline.Runner, snap *scene.Snapshot) *pipeline.Result {
	t.Helper()
	res, err := r.Execute(context.Background(), snap, pipeline.Options{})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	return res
}

func TestApplyCommitsAll(t *testing.T) {
	r := pipeline.NewRunner(nil, nil, nil)
	res := execute(t, r, snapshot(tag.FloorPlan,
		scene.NewElement("w1", tag.Walls, geom.CurveLocation{Start: geom.Pt(0, 0, 0), End: geom.Pt(10, 0, 0)}),
		scene.NewElement("d1", tag.Doors, geom.PointLocation{Point: geom.Pt(1, 2, 0)}),
		scene.NewElement("win1", tag.Windows, geom.PointLocation{Point: geom.Pt(10, 20, 0)}),
		scene.NewElement("f1", tag.Furniture, geom.NoLocation{}),
	))

	doc := document.New()
	report, err := r.Apply(context.Background(), doc, res)
	if err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	if report.Placed() != 3 || doc.Len() != 3 {
		t.Fatalf("placed %d, document has %d, want 3", report.Placed(), doc.Len())
	}
	if got := doc.Transactions(); len(got) != 1 || got[0] != pipeline.TransactionName {
		t.Errorf("Transactions() = %v", got)
	}

	win := doc.TagsFor("win1")
	if len(win) != 1 || win[0].Head != geom.Pt(10, 23, 0) {
		t.Errorf("win1 tags = %+v", win)
	}
	for _, tg := range doc.Tags() {
		if tg.Leader || tg.Orientation != tag.Horizontal {
			t.Errorf("tag %s: leader=%v orientation=%v", tg.ID, tg.Leader, tg.Orientation)
		}
	}
}

func TestApplySectionMovesTag(t *testing.T) {
	r := pipeline.NewRunner(nil, nil, nil)
	res := execute(t, r, snapshot(tag.Section,
		scene.NewElement("r1", tag.Rooms, geom.PointLocation{Point: geom.Pt(5, 5, 0)}),
	))
	doc := document.New()
	if _, err := r.Apply(context.Background(), doc, res); err != nil {
		t.Fatal(err)
	}
	tags := doc.TagsFor("r1")
	if len(tags) != 1 {
		t.Fatalf("got %d tags", len(tags))
	}
	if tags[0].Point != geom.Pt(5, 5, 3) || tags[0].Head != geom.Pt(5, 5, 3) {
		t.Errorf("tag = %+v, want moved to (5, 5, 3)", tags[0])
	}
}

func TestApplyAreaTag(t *testing.T) {
	r := pipeline.NewRunner(nil, nil, nil)
	res := execute(t, r, snapshot(tag.AreaPlan,
		scene.NewElement("a1", tag.Areas, geom.PointLocation{Point: geom.Pt(2, 4, 7)}),
	))
	doc := document.New()
	if _, err := r.Apply(context.Background(), doc, res); err != nil {
		t.Fatal(err)
	}
	tags := doc.TagsFor("a1")
	if len(tags) != 1 {
		t.Fatalf("got %d tags", len(tags))
	}
	if tags[0].Mode != placement.ModeAreaTag || tags[0].Head != geom.Pt(2, 4, 0) {
		t.Errorf("tag = %+v", tags[0])
	}
}

func TestApplyFailureRollsBack(t *testing.T) {
	r := pipeline.NewRunner(nil, nil, nil)
	res := execute(t, r, snapshot(tag.FloorPlan,
		scene.NewElement("d1", tag.Doors, geom.PointLocation{Point: geom.Pt(1, 2, 0)}),
		scene.NewElement("d2", tag.Doors, geom.PointLocation{Point: geom.Pt(3, 2, 0)}),
		scene.NewElement("d3", tag.Doors, geom.PointLocation{Point: geom.Pt(5, 2, 0)}),
	))

	doc := document.New()
	doc.FailOn("d2")
	report, err := r.Apply(context.Background(), doc, res)
	if !errors.Is(err, errors.ErrCodeMaterialize) {
		t.Fatalf("Apply() = %v, want MATERIALIZE_FAILED", err)
	}
	if report != nil {
		t.Error("report returned alongside error")
	}
	if doc.Len() != 0 {
		t.Errorf("document has %d tags after rollback", doc.Len())
	}

	// The document accepts a new transaction after the rollback.
	ok := document.New()
	if _, err := r.Apply(context.Background(), ok, res); err != nil || ok.Len() != 3 {
		t.Errorf("Apply() on fresh document = %v, %d tags", err, ok.Len())
	}
	if _, err := doc.Begin(context.Background(), "again"); err != nil {
		t.Errorf("Begin after rollback = %v", err)
	}
}

func TestApplyRejectsIncompleteRun(t *testing.T) {
	r := pipeline.NewRunner(nil, nil, nil)
	if _, err := r.Apply(context.Background(), document.New(), nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Apply(nil) = %v", err)
	}
	res := &pipeline.Result{Status: pipeline.RunStatusFailed}
	if _, err := r.Apply(context.Background(), document.New(), res); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Apply(failed run) = %v", err)
	}
}
