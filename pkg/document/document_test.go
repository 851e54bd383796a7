package document

import (
	"context"
	"testing"

	"github.com/matzehuels/autotag/pkg/geom"
	"github.com/matzehuels/autotag/pkg/placement"
	"github.com/matzehuels/autotag/pkg/tag"
)

func directive(at geom.Point3D) placement.Directive {
	return placement.Directive{Symbol: tag.SymbolRef{ID: "s1", Family: "M_Door Tag"}, Anchor: at}
}

func TestCommitPublishes(t *testing.T) {
	d := New()
	tx, err := d.Begin(context.Background(), "Insert Tags")
	if err != nil {
		t.Fatal(err)
	}
	id, err := tx.Place("d1", directive(geom.Pt(1, 2, 0)))
	if err != nil {
		t.Fatal(err)
	}
	if d.Len() != 0 {
		t.Error("staged tag visible before commit")
	}
	if err := tx.Move(id, geom.Vec(0, 0, 3)); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	tags := d.Tags()
	if len(tags) != 1 {
		t.Fatalf("got %d tags", len(tags))
	}
	if tags[0].Point != geom.Pt(1, 2, 3) || tags[0].Head != geom.Pt(1, 2, 3) {
		t.Errorf("tag = %+v", tags[0])
	}
	if got := d.ElementIDs(); len(got) != 1 || got[0] != "d1" {
		t.Errorf("ElementIDs() = %v", got)
	}
}

func TestRollbackDiscards(t *testing.T) {
	d := New()
	tx, _ := d.Begin(context.Background(), "Insert Tags")
	if _, err := tx.Place("d1", directive(geom.Pt(0, 0, 0))); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatal(err)
	}
	if d.Len() != 0 {
		t.Errorf("Len() = %d after rollback", d.Len())
	}
	if len(d.Transactions()) != 0 {
		t.Error("rolled back transaction recorded as committed")
	}
}

func TestTransactionNotReusable(t *testing.T) {
	d := New()
	tx, _ := d.Begin(context.Background(), "Insert Tags")
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	if _, err := tx.Place("d1", directive(geom.Pt(0, 0, 0))); err == nil {
		t.Error("Place after Commit succeeded")
	}
	if err := tx.Commit(); err == nil {
		t.Error("second Commit succeeded")
	}
	if err := tx.Rollback(); err == nil {
		t.Error("Rollback after Commit succeeded")
	}
}

func TestSingleOpenTransaction(t *testing.T) {
	d := New()
	tx, _ := d.Begin(context.Background(), "a")
	if _, err := d.Begin(context.Background(), "b"); err == nil {
		t.Error("second Begin succeeded while a transaction is open")
	}
	_ = tx.Rollback()
	if _, err := d.Begin(context.Background(), "c"); err != nil {
		t.Errorf("Begin after rollback = %v", err)
	}
}

func TestFailOn(t *testing.T) {
	d := New()
	d.FailOn("bad")
	tx, _ := d.Begin(context.Background(), "Insert Tags")
	if _, err := tx.Place("bad", directive(geom.Pt(0, 0, 0))); err == nil {
		t.Error("Place succeeded for a failing element")
	}
	if _, err := tx.Place("good", directive(geom.Pt(0, 0, 0))); err != nil {
		t.Errorf("Place(good) = %v", err)
	}
}

func TestPlaceValidation(t *testing.T) {
	d := New()
	tx, _ := d.Begin(context.Background(), "Insert Tags")
	if _, err := tx.Place("x", placement.Directive{}); err == nil {
		t.Error("Place without symbol succeeded")
	}
	area := directive(geom.Pt(1, 1, 1))
	area.Mode = placement.ModeAreaTag
	if _, err := tx.Place("a1", area); err == nil {
		t.Error("area tag without plan point succeeded")
	}
	if err := tx.Move("tag-999", geom.Vec(1, 0, 0)); err == nil {
		t.Error("Move of unknown tag succeeded")
	}
}

func TestAreaTagHead(t *testing.T) {
	d := New()
	tx, _ := d.Begin(context.Background(), "Insert Tags")
	pp := geom.PlanPoint{U: 2, V: 4}
	head := pp.Lift(0)
	dir := directive(geom.Pt(2, 4, 7))
	dir.Mode = placement.ModeAreaTag
	dir.PlanPoint = &pp
	dir.TagHead = &head
	if _, err := tx.Place("a1", dir); err != nil {
		t.Fatal(err)
	}
	_ = tx.Commit()
	tg := d.TagsFor("a1")[0]
	if tg.Point != geom.Pt(2, 4, 0) || tg.Head != head {
		t.Errorf("tag = %+v", tg)
	}
}

func TestMoveTranslatesPointAndHead(t *testing.T) {
	pp := geom.PlanPoint{U: 2, V: 4}
	head := geom.Pt(3, 5, 0)
	area := directive(geom.Pt(2, 4, 7))
	area.Mode = placement.ModeAreaTag
	area.PlanPoint = &pp
	area.TagHead = &head

	tests := []struct {
		name      string
		dir       placement.Directive
		by        geom.Vector3D
		wantPoint geom.Point3D
		wantHead  geom.Point3D
	}{
		{"independent", directive(geom.Pt(1, 1, 0)), geom.Vec(0, 0, 3), geom.Pt(1, 1, 3), geom.Pt(1, 1, 3)},
		{"area with offset head", area, geom.Vec(1, -1, 0), geom.Pt(3, 3, 0), geom.Pt(4, 4, 0)},
		{"zero vector", directive(geom.Pt(6, 7, 8)), geom.Vec(0, 0, 0), geom.Pt(6, 7, 8), geom.Pt(6, 7, 8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			tx, err := d.Begin(context.Background(), "Insert Tags")
			if err != nil {
				t.Fatal(err)
			}
			id, err := tx.Place("e1", tt.dir)
			if err != nil {
				t.Fatal(err)
			}
			if err := tx.Move(id, tt.by); err != nil {
				t.Fatal(err)
			}
			if err := tx.Commit(); err != nil {
				t.Fatal(err)
			}
			tg := d.TagsFor("e1")[0]
			if tg.Point != tt.wantPoint || tg.Head != tt.wantHead {
				t.Errorf("point = %v head = %v, want %v and %v", tg.Point, tg.Head, tt.wantPoint, tt.wantHead)
			}
		})
	}
}

func TestBeginCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Begin(ctx, "x"); err == nil {
		t.Error("Begin with cancelled context succeeded")
	}
}
