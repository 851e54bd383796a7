// Package document is an in-memory host for tag placement. It implements
// pipeline.Host with real transaction semantics: tags placed in a
// transaction become visible only on Commit, and Rollback discards them.
//
// The CLI and server apply results to a Document; tests use FailOn to
// inject materialization failures.
package document

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/geom"
	"github.com/matzehuels/autotag/pkg/pipeline"
	"github.com/matzehuels/autotag/pkg/placement"
	"github.com/matzehuels/autotag/pkg/tag"
)

// Tag is a committed annotation.
type Tag struct {
	ID          string          `json:"id"`
	ElementID   string          `json:"element_id"`
	Symbol      tag.SymbolRef   `json:"symbol"`
	Mode        placement.Mode  `json:"mode"`
	Orientation tag.Orientation `json:"orientation"`
	Leader      bool            `json:"leader"`
	// Point is the tag location: the anchor for independent tags, the lifted
	// plan point for area tags. Move translates it along with Head.
	Point geom.Point3D `json:"point"`
	// Head is the tag head position.
	Head geom.Point3D `json:"head"`
}

// Document holds committed tags. It is safe for concurrent use; at most
// one transaction is open at a time.
type Document struct {
	mu      sync.Mutex
	tags    []Tag
	nextID  int
	open    bool
	failOn  map[string]bool
	commits []string
}

// New returns an empty document.
func New() *Document {
	return &Document{failOn: make(map[string]bool)}
}

// FailOn makes Place fail for the given element IDs.
func (d *Document) FailOn(elementIDs ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range elementIDs {
		d.failOn[id] = true
	}
}

// Tags returns the committed tags in creation order.
func (d *Document) Tags() []Tag {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Tag(nil), d.tags...)
}

// Len returns the number of committed tags.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tags)
}

// TagsFor returns the committed tags of an element.
func (d *Document) TagsFor(elementID string) []Tag {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Tag
	for _, t := range d.tags {
		if t.ElementID == elementID {
			out = append(out, t)
		}
	}
	return out
}

// Transactions returns the names of committed transactions, oldest first.
func (d *Document) Transactions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.commits...)
}

// Begin implements pipeline.Host.
func (d *Document) Begin(ctx context.Context, name string) (pipeline.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return nil, errors.New(errors.ErrCodeMaterialize, "transaction already open")
	}
	d.open = true
	return &transaction{doc: d, name: name, index: make(map[string]int)}, nil
}

func (d *Document) newID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return fmt.Sprintf("tag-%d", d.nextID)
}

func (d *Document) shouldFail(elementID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.failOn[elementID]
}

// =============================================================================
// Transaction
// =============================================================================

type transaction struct {
	doc    *Document
	name   string
	staged []Tag
	index  map[string]int // tag ID -> staged position
	done   bool
}

func (t *transaction) Place(elementID string, dir placement.Directive) (string, error) {
	if t.done {
		return "", errFinished(t.name)
	}
	if t.doc.shouldFail(elementID) {
		return "", fmt.Errorf("host refused tag for element %s", elementID)
	}
	if dir.Symbol.IsZero() {
		return "", fmt.Errorf("directive for %s has no symbol", elementID)
	}

	tg := Tag{
		ID:          t.doc.newID(),
		ElementID:   elementID,
		Symbol:      dir.Symbol,
		Mode:        dir.Mode,
		Orientation: dir.Orientation,
		Leader:      dir.Leader,
		Point:       dir.Anchor,
		Head:        dir.Anchor,
	}
	if dir.Mode == placement.ModeAreaTag {
		if dir.PlanPoint == nil {
			return "", fmt.Errorf("area tag for %s has no plan point", elementID)
		}
		tg.Point = dir.PlanPoint.Lift(0)
		tg.Head = tg.Point
		if dir.TagHead != nil {
			tg.Head = *dir.TagHead
		}
	}
	t.index[tg.ID] = len(t.staged)
	t.staged = append(t.staged, tg)
	return tg.ID, nil
}

func (t *transaction) Move(tagID string, by geom.Vector3D) error {
	if t.done {
		return errFinished(t.name)
	}
	i, ok := t.index[tagID]
	if !ok {
		return fmt.Errorf("tag %s not created in this transaction", tagID)
	}
	tg := &t.staged[i]
	tg.Point = tg.Point.Translate(by)
	tg.Head = tg.Head.Translate(by)
	return nil
}

func (t *transaction) Commit() error {
	if t.done {
		return errFinished(t.name)
	}
	t.done = true
	d := t.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tags = append(d.tags, t.staged...)
	d.commits = append(d.commits, t.name)
	d.open = false
	return nil
}

func (t *transaction) Rollback() error {
	if t.done {
		return errFinished(t.name)
	}
	t.done = true
	t.staged = nil
	t.doc.mu.Lock()
	t.doc.open = false
	t.doc.mu.Unlock()
	return nil
}

func errFinished(name string) error {
	return fmt.Errorf("transaction %q already finished", name)
}

// ElementIDs returns the sorted IDs of tagged elements.
func (d *Document) ElementIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, t := range d.tags {
		if !seen[t.ElementID] {
			seen[t.ElementID] = true
			out = append(out, t.ElementID)
		}
	}
	sort.Strings(out)
	return out
}
