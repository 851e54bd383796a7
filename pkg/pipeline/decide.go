package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/autotag/pkg/anchor"
	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/placement"
	"github.com/matzehuels/autotag/pkg/scene"
	"github.com/matzehuels/autotag/pkg/symbols"
	"github.com/matzehuels/autotag/pkg/tag"
)

// decideAll returns one result per element, in input order. Decisions are
// independent, so the parallel path writes into a preallocated slice and
// yields the same output as the sequential one.
func decideAll(ctx context.Context, e *placement.Engine, view tag.ViewType, elements []scene.Element, syms symbols.Lookup, opts Options) ([]ElementResult, error) {
	results := make([]ElementResult, len(elements))

	if !opts.Parallel || len(elements) < 2 {
		for i, el := range elements {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := decideOne(e, view, el, syms, opts.AbortOnInvalidGeometry)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, el := range elements {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := decideOne(e, view, el, syms, opts.AbortOnInvalidGeometry)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// decideOne checks the rule table before touching geometry, so elements
// the view never tags are skipped even when their location is unusable.
func decideOne(e *placement.Engine, view tag.ViewType, el scene.Element, syms symbols.Lookup, abortOnInvalid bool) (ElementResult, error) {
	res := ElementResult{ElementID: el.ID}

	if _, ok := e.Lookup(view, el.Category); !ok {
		res.Skip = SkipUnhandled
		return res, nil
	}

	pt, ok, err := anchor.Resolve(el.Location)
	if err != nil {
		if abortOnInvalid {
			return res, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "element %s", el.ID)
		}
		res.Skip = SkipInvalidGeometry
		res.Detail = errors.UserMessage(err)
		return res, nil
	}
	if !ok {
		res.Skip = SkipMissingLocation
		return res, nil
	}

	d, ok, err := e.Decide(view, el.Category, pt, el.Extra, syms)
	if err != nil {
		return res, err
	}
	if !ok {
		res.Skip = SkipUnhandled
		return res, nil
	}
	res.Directive = &d
	return res, nil
}
