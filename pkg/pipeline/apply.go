package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/geom"
	"github.com/matzehuels/autotag/pkg/observability"
	"github.com/matzehuels/autotag/pkg/placement"
)

// =============================================================================
// Host Interfaces
// =============================================================================

// Host is the document that receives tags.
type Host interface {
	// Begin opens a named transaction. Nothing placed through it is
	// visible until Commit.
	Begin(ctx context.Context, name string) (Transaction, error)
}

// Transaction groups tag creation into one undoable unit. A transaction
// is finished by exactly one Commit or Rollback and cannot be reused.
type Transaction interface {
	// Place creates a tag for the element and returns the new tag's ID.
	Place(elementID string, d placement.Directive) (string, error)
	// Move translates a tag created in this transaction.
	Move(tagID string, by geom.Vector3D) error
	Commit() error
	Rollback() error
}

// =============================================================================
// Apply
// =============================================================================

// PlacedTag links a created tag to its element.
type PlacedTag struct {
	ElementID string `json:"element_id"`
	TagID     string `json:"tag_id"`
}

// ApplyReport summarizes a committed transaction.
type ApplyReport struct {
	RunID    uuid.UUID     `json:"run_id"`
	Tags     []PlacedTag   `json:"tags"`
	Duration time.Duration `json:"duration"`
}

// Placed returns the number of committed tags.
func (a *ApplyReport) Placed() int {
	return len(a.Tags)
}

// Apply materializes every directive of res inside a single transaction.
// Directives with a PostOffset are placed first and then moved. Any
// failure rolls the transaction back, so either every tag is committed or
// none is.
func (r *Runner) Apply(ctx context.Context, host Host, res *Result) (_ *ApplyReport, err error) {
	if res == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "result is nil")
	}
	if res.Status != RunStatusCompleted {
		return nil, errors.New(errors.ErrCodeInvalidInput, "run %s is %s", res.RunID, res.Status)
	}

	start := time.Now()
	report := &ApplyReport{RunID: res.RunID}
	defer func() {
		observability.Run().OnApplyComplete(ctx, res.RunID.String(), report.Placed(), time.Since(start), err)
	}()

	tx, err := host.Begin(ctx, TransactionName)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMaterialize, err, "open transaction")
	}

	fail := func(cause error, format string, args ...any) error {
		report.Tags = nil
		if rbErr := tx.Rollback(); rbErr != nil {
			r.Logger.Warn("rollback failed", "error", rbErr)
		}
		return errors.Wrap(errors.ErrCodeMaterialize, cause, format, args...)
	}

	for _, er := range res.Results {
		if !er.Placed() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fail(err, "cancelled before %s", er.ElementID)
		}
		tagID, err := tx.Place(er.ElementID, *er.Directive)
		if err != nil {
			return nil, fail(err, "place tag for %s", er.ElementID)
		}
		if off := er.Directive.PostOffset; off != nil {
			if err := tx.Move(tagID, *off); err != nil {
				return nil, fail(err, "move tag for %s", er.ElementID)
			}
		}
		report.Tags = append(report.Tags, PlacedTag{ElementID: er.ElementID, TagID: tagID})
	}

	if err := tx.Commit(); err != nil {
		return nil, fail(err, "commit %q", TransactionName)
	}
	report.Duration = time.Since(start)

	r.Logger.Info("committed tags", "tags", report.Placed(), "duration", report.Duration)
	return report, nil
}
