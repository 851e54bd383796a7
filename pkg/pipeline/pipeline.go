// Package pipeline runs the tagger over one host snapshot.
//
// A run has two phases. Execute is pure: it validates the snapshot,
// applies the collector filter, resolves the symbol mapping, and decides a
// directive (or a skip) for every collected element. Apply is the side
// effect: it materializes the directives in the host inside a single
// transaction, committing all of them or none.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, snap, pipeline.Options{Parallel: true})
//	if err != nil {
//	    return err // nothing was placed
//	}
//	report, err := runner.Apply(ctx, doc, res)
//
// Element-level conditions (no geometry, no rule for the view, invalid
// geometry when tolerated) become skips in the result. Configuration
// problems (a tag family missing from the library) abort before any
// decision is made.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/autotag/pkg/cache"
	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/placement"
	"github.com/matzehuels/autotag/pkg/scene"
	"github.com/matzehuels/autotag/pkg/symbols"
	"github.com/matzehuels/autotag/pkg/tag"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultWorkers bounds the worker pool in parallel mode.
	DefaultWorkers = 8

	// MaxWorkers caps user-supplied worker counts.
	MaxWorkers = 256

	// TransactionName is the name of the host transaction opened by Apply.
	TransactionName = "Insert Tags"
)

// =============================================================================
// Options - Run Configuration
// =============================================================================

// Options configures a run. The zero value is valid: the snapshot's view,
// the default tag families, the default policy, sequential decisions and
// invalid geometry skipped.
type Options struct {
	// View overrides the snapshot's view type when set.
	View string `json:"view,omitempty"`

	// Families overrides tag family names per category. Categories not
	// listed keep their default family.
	Families symbols.FamilyNames `json:"-"`

	// Policy overrides the placement offsets. Nil means the default policy.
	Policy *placement.Policy `json:"-"`

	Parallel bool `json:"parallel,omitempty"`
	Workers  int  `json:"workers,omitempty"`

	// AbortOnInvalidGeometry fails the run on the first element with a
	// non-finite location instead of skipping it.
	AbortOnInvalidGeometry bool `json:"abort_on_invalid_geometry,omitempty"`

	// Refresh bypasses cached directive sets.
	Refresh bool `json:"refresh,omitempty"`

	// CacheTTL is the lifetime of stored directive sets.
	CacheTTL time.Duration `json:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	o.Families = symbols.DefaultFamilies().Merge(o.Families)
	if err := o.Families.Validate(); err != nil {
		return err
	}

	if o.Policy == nil {
		p := placement.DefaultPolicy()
		o.Policy = &p
	}
	if err := o.Policy.Validate(); err != nil {
		return err
	}

	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Workers < 0 || o.Workers > MaxWorkers {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be between 1 and %d, got %d", MaxWorkers, o.Workers)
	}

	if o.CacheTTL == 0 {
		o.CacheTTL = cache.TTLDirectives
	}
	if o.CacheTTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache ttl must be positive, got %s", o.CacheTTL)
	}

	if o.Logger == nil {
		o.Logger = discardLogger()
	}

	o.validated = true
	return nil
}

// ViewFor returns the view type a run over a snapshot with view v uses.
func (o *Options) ViewFor(v tag.ViewType) tag.ViewType {
	if o.View != "" {
		return tag.ParseViewType(o.View)
	}
	return v
}

// DirectivesKeyOpts returns cache key options for a run in view v.
func (o *Options) DirectivesKeyOpts(v tag.ViewType) cache.DirectivesKeyOpts {
	p := placement.DefaultPolicy()
	if o.Policy != nil {
		p = *o.Policy
	}
	return cache.DirectivesKeyOpts{
		View:           v.String(),
		FamiliesHash:   cache.Hash(scene.FamiliesFingerprint(o.Families)),
		WindowOffset:   [3]float64{p.WindowOffset.X, p.WindowOffset.Y, p.WindowOffset.Z},
		SectionLift:    [3]float64{p.SectionLift.X, p.SectionLift.Y, p.SectionLift.Z},
		AbortOnInvalid: o.AbortOnInvalidGeometry,
	}
}

// =============================================================================
// Results
// =============================================================================

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// SkipReason explains why an element got no directive.
type SkipReason int

const (
	SkipNone SkipReason = iota
	// SkipMissingLocation: the element has no point or curve.
	SkipMissingLocation
	// SkipUnhandled: no rule for the (view, category) pair.
	SkipUnhandled
	// SkipInvalidGeometry: the location has non-finite coordinates.
	SkipInvalidGeometry
)

var skipNames = map[SkipReason]string{
	SkipNone:            "none",
	SkipMissingLocation: "missing-location",
	SkipUnhandled:       "unhandled-combination",
	SkipInvalidGeometry: "invalid-geometry",
}

func (s SkipReason) String() string {
	if n, ok := skipNames[s]; ok {
		return n
	}
	return fmt.Sprintf("SkipReason(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s SkipReason) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SkipReason) UnmarshalText(b []byte) error {
	for r, n := range skipNames {
		if n == string(b) {
			*s = r
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unknown skip reason %q", string(b))
}

// ElementResult is the outcome for one collected element. Exactly one of
// Directive and a non-none Skip is set.
type ElementResult struct {
	ElementID string               `json:"element_id"`
	Directive *placement.Directive `json:"directive,omitempty"`
	Skip      SkipReason           `json:"skip"`
	// Detail explains an invalid-geometry skip.
	Detail string `json:"detail,omitempty"`
}

// Placed reports whether the element gets a tag.
func (r ElementResult) Placed() bool {
	return r.Directive != nil
}

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Result contains the outputs of a run.
type Result struct {
	RunID       uuid.UUID       `json:"run_id"`
	Status      RunStatus       `json:"status"`
	View        tag.ViewType    `json:"view"`
	Results     []ElementResult `json:"results"`
	Stats       Stats           `json:"stats"`
	CacheInfo   CacheInfo       `json:"cache"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Directives returns the placed results in input order.
func (r *Result) Directives() []ElementResult {
	var out []ElementResult
	for _, er := range r.Results {
		if er.Placed() {
			out = append(out, er)
		}
	}
	return out
}

// Stats counts outcomes.
type Stats struct {
	Elements        int           `json:"elements"` // collected elements
	Filtered        int           `json:"filtered"` // dropped by the collector
	Placed          int           `json:"placed"`
	MissingLocation int           `json:"missing_location"`
	Unhandled       int           `json:"unhandled"`
	InvalidGeometry int           `json:"invalid_geometry"`
	Warnings        int           `json:"warnings"`
	Duration        time.Duration `json:"duration"`
}

// Skipped returns the number of collected elements without a directive.
func (s Stats) Skipped() int {
	return s.MissingLocation + s.Unhandled + s.InvalidGeometry
}

// CacheInfo tracks whether the directive set came from cache.
type CacheInfo struct {
	Hit bool   `json:"hit"`
	Key string `json:"key,omitempty"`
}

func countStats(results []ElementResult) Stats {
	s := Stats{Elements: len(results)}
	for _, r := range results {
		switch {
		case r.Placed():
			s.Placed++
		case r.Skip == SkipMissingLocation:
			s.MissingLocation++
		case r.Skip == SkipUnhandled:
			s.Unhandled++
		case r.Skip == SkipInvalidGeometry:
			s.InvalidGeometry++
		}
	}
	return s
}
