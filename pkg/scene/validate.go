package scene

import (
	"fmt"
	"strings"

	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/geom"
	"github.com/matzehuels/autotag/pkg/tag"
)

// Severity grades a validation finding.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Finding is one problem found in a snapshot.
type Finding struct {
	Severity  Severity `json:"severity"`
	ElementID string   `json:"element_id,omitempty"`
	Message   string   `json:"message"`
}

func (f Finding) String() string {
	if f.ElementID == "" {
		return fmt.Sprintf("%s: %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", f.Severity, f.ElementID, f.Message)
}

// Findings is the result of [Validate].
type Findings []Finding

// Errors returns only the error-severity findings.
func (fs Findings) Errors() Findings {
	var out Findings
	for _, f := range fs {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// Warnings returns only the warning-severity findings.
func (fs Findings) Warnings() Findings {
	var out Findings
	for _, f := range fs {
		if f.Severity == SeverityWarning {
			out = append(out, f)
		}
	}
	return out
}

// Err returns an ErrCodeInvalidSnapshot error summarizing the
// error-severity findings, or nil if there are none.
func (fs Findings) Err() error {
	errs := fs.Errors()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, f := range errs {
		if f.ElementID != "" {
			msgs[i] = f.ElementID + ": " + f.Message
		} else {
			msgs[i] = f.Message
		}
	}
	return errors.New(errors.ErrCodeInvalidSnapshot, "%d problem(s): %s", len(errs), strings.Join(msgs, "; "))
}

// Validate checks s for structural problems.
//
// Errors make the snapshot unusable: empty, malformed or duplicate element
// IDs, and library entries without an ID. Warnings flag data that will be
// ignored: curtain flags on non-walls, section rooms without a level
// elevation, elements the collector will drop, and non-finite coordinates
// (those elements are skipped or abort the run, depending on options).
func Validate(s *Snapshot) Findings {
	var fs Findings
	add := func(sev Severity, id, format string, args ...any) {
		fs = append(fs, Finding{Severity: sev, ElementID: id, Message: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]int, len(s.Elements))
	for i, e := range s.Elements {
		if err := errors.ValidateElementID(e.ID); err != nil {
			add(SeverityError, e.ID, "element %d: %s", i, errors.UserMessage(err))
		} else if prev, dup := seen[e.ID]; dup {
			add(SeverityError, e.ID, "duplicate element id (also element %d)", prev)
		} else {
			seen[e.ID] = i
		}

		if e.IsType {
			add(SeverityWarning, e.ID, "element type is never tagged")
			continue
		}
		if !e.Category.IsElementCategory() {
			add(SeverityWarning, e.ID, "category %q is never tagged", e.CategoryName)
			continue
		}
		if e.Extra.IsCurtain && e.Category != tag.Walls {
			add(SeverityWarning, e.ID, "curtain flag ignored on %s", e.Category)
		}
		if s.View == tag.Section && e.Category == tag.Rooms && e.Extra.LevelElevation == nil {
			add(SeverityWarning, e.ID, "room has no level elevation")
		}
		if !locationFinite(e.Location) {
			add(SeverityWarning, e.ID, "location has non-finite coordinates")
		}
	}

	for i, sym := range s.Library {
		if sym.ID == "" {
			add(SeverityError, "", "library entry %d (%q) has no id", i, sym.Family)
		}
	}
	return fs
}

func locationFinite(loc geom.Location) bool {
	switch l := loc.(type) {
	case geom.PointLocation:
		return l.Point.IsFinite()
	case geom.CurveLocation:
		return l.Start.IsFinite() && l.End.IsFinite()
	default:
		return true
	}
}
