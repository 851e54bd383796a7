package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/autotag/pkg/cache"
	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/observability"
	"github.com/matzehuels/autotag/pkg/placement"
	"github.com/matzehuels/autotag/pkg/scene"
	"github.com/matzehuels/autotag/pkg/symbols"
)

// Runner encapsulates run execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store results. Multiple goroutines can safely use the same Runner with
// different snapshots and options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, caching is disabled.
// If logger is nil, run logs are discarded.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NoCache{}
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute decides a directive or skip for every collected element of snap.
// It never touches a host document. On error no Result is returned and
// nothing may be placed.
func (r *Runner) Execute(ctx context.Context, snap *scene.Snapshot, opts Options) (_ *Result, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "snapshot is nil")
	}

	start := time.Now()
	res := &Result{
		RunID:     uuid.New(),
		Status:    RunStatusRunning,
		View:      opts.ViewFor(snap.View),
		StartedAt: start,
	}
	runID := res.RunID.String()
	logger := opts.Logger.With("run", runID[:8])

	findings := scene.Validate(snap)
	if err := findings.Err(); err != nil {
		return nil, err
	}
	for _, f := range findings.Warnings() {
		logger.Debug("snapshot warning", "element", f.ElementID, "msg", f.Message)
	}

	elements, filtered := scene.Collect(snap.Elements)
	syms, err := symbols.Resolve(snap.Library, opts.Families)
	if err != nil {
		return nil, err
	}

	hooks := observability.Run()
	hooks.OnRunStart(ctx, runID, res.View.String(), len(elements))
	defer func() {
		stats := observability.RunStats{ViewType: res.View.String(), Filtered: filtered, Parallel: opts.Parallel}
		if err != nil {
			res.Status = RunStatusFailed
		}
		if err == nil {
			stats.Elements = res.Stats.Elements
			stats.Placed = res.Stats.Placed
			stats.Skipped = res.Stats.Skipped()
			stats.Invalid = res.Stats.InvalidGeometry
			stats.CacheHit = res.CacheInfo.Hit
		}
		hooks.OnRunComplete(ctx, runID, stats, time.Since(start), err)
	}()

	logger.Info("collected elements",
		"view", res.View,
		"elements", len(elements),
		"filtered", filtered)

	key := r.directivesKey(snap, &opts)
	res.CacheInfo.Key = key

	results, hit := r.cached(ctx, key, opts, len(elements))
	if !hit {
		engine := placement.New(*opts.Policy)
		results, err = decideAll(ctx, engine, res.View, elements, syms, opts)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(results); err == nil {
			if err := r.Cache.Set(ctx, key, data, opts.CacheTTL); err == nil {
				observability.Cache().OnCacheSet(ctx, key, len(data))
			}
		}
	}

	res.Results = results
	res.CacheInfo.Hit = hit
	res.Stats = countStats(results)
	res.Stats.Filtered = filtered
	res.Stats.Warnings = len(findings.Warnings())
	res.Stats.Duration = time.Since(start)
	res.Status = RunStatusCompleted
	done := time.Now()
	res.CompletedAt = &done

	logger.Info("decided placements",
		"placed", res.Stats.Placed,
		"skipped", res.Stats.Skipped(),
		"cached", hit,
		"duration", res.Stats.Duration)
	return res, nil
}

// cached returns a stored directive set for key. A stored set that does
// not decode or does not match the element count is treated as a miss.
func (r *Runner) cached(ctx context.Context, key string, opts Options, n int) ([]ElementResult, bool) {
	if opts.Refresh {
		return nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	var results []ElementResult
	if err := json.Unmarshal(data, &results); err != nil || len(results) != n {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, key)
	return results, true
}

// DirectivesKey returns the cache key Execute uses for snap under opts.
func (r *Runner) DirectivesKey(snap *scene.Snapshot, opts Options) (string, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return "", err
	}
	if snap == nil {
		return "", errors.New(errors.ErrCodeInvalidInput, "snapshot is nil")
	}
	return r.directivesKey(snap, &opts), nil
}

func (r *Runner) directivesKey(snap *scene.Snapshot, opts *Options) string {
	view := opts.ViewFor(snap.View)
	return r.Keyer.DirectivesKey(cache.Hash(snap.Fingerprint()), opts.DirectivesKeyOpts(view))
}

// Forget drops the cached directive set for snap under opts, so the next
// Execute decides it afresh. It returns the key that was dropped.
func (r *Runner) Forget(ctx context.Context, snap *scene.Snapshot, opts Options) (string, error) {
	r.applyLogger(&opts)
	key, err := r.DirectivesKey(snap, opts)
	if err != nil {
		return "", err
	}
	if err := r.Cache.Delete(ctx, key); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "drop cached directives %s", key)
	}
	opts.Logger.Debug("dropped cached directives", "key", key)
	return key, nil
}

// Rules returns the placement rules in effect for opts, for display.
// opts is validated in place so callers can read the effective families.
func (r *Runner) Rules(opts *Options) ([]placement.Rule, error) {
	r.applyLogger(opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return placement.New(*opts.Policy).Rules(), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
