package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/autotag/pkg/errors"
)

func TestReport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     int
		wantText string
	}{
		{"success", nil, exitOK, ""},
		{"interrupted", fmt.Errorf("decide: %w", context.Canceled), exitInterrupt, ""},
		{"bad snapshot", errors.New(errors.ErrCodeInvalidSnapshot, "element w1 has both a point and a curve"), exitBadInput, "Error [INVALID_SNAPSHOT]: element w1 has both a point and a curve"},
		{"missing tag family", errors.New(errors.ErrCodeMissingSymbol, "no symbol for family M_Door Tag"), exitBadInput, "MISSING_SYMBOL_MAPPING"},
		{"rolled back", errors.Wrap(errors.ErrCodeMaterialize, fmt.Errorf("host refused tag"), "place tag for d-201"), exitRolledBack, "Error [MATERIALIZE_FAILED]: place tag for d-201"},
		{"uncoded", fmt.Errorf("unknown flag: --bogus"), exitFailure, "Error: unknown flag: --bogus"},
		{"internal", errors.New(errors.ErrCodeInternal, "cache write"), exitFailure, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := report(&buf, tt.err); got != tt.want {
				t.Errorf("report() = %d, want %d", got, tt.want)
			}
			if tt.wantText == "" && buf.Len() > 0 {
				t.Errorf("unexpected output %q", buf.String())
			}
			if !strings.Contains(buf.String(), tt.wantText) {
				t.Errorf("output = %q, want %q", buf.String(), tt.wantText)
			}
		})
	}
}
