package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	refused := errors.New("host refused tag")
	tests := []struct {
		name string
		err  *Error
		want string
		msg  string
	}{
		{
			name: "new",
			err:  New(ErrCodeInvalidSnapshot, "element %s has no id", "#3"),
			want: "INVALID_SNAPSHOT: element #3 has no id",
			msg:  "element #3 has no id",
		},
		{
			name: "wrapped",
			err:  Wrap(ErrCodeMaterialize, refused, "place tag for %s", "d-201"),
			want: "MATERIALIZE_FAILED: place tag for d-201: host refused tag",
			msg:  "place tag for d-201",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if got := UserMessage(tt.err); got != tt.msg {
				t.Errorf("UserMessage() = %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestWrapUnwraps(t *testing.T) {
	refused := errors.New("host refused tag")
	err := Wrap(ErrCodeMaterialize, refused, "place tag for d-201")
	if errors.Unwrap(err) != refused || !errors.Is(err, refused) {
		t.Errorf("cause lost: %v", err)
	}
	var e *Error
	if !errors.As(fmt.Errorf("apply run: %w", err), &e) || e.Code != ErrCodeMaterialize {
		t.Errorf("errors.As through fmt wrap = %v", e)
	}
}

func TestCodeLookups(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		is   Code
		want bool
	}{
		{"coded", New(ErrCodeMissingSymbol, "no family for Doors"), ErrCodeMissingSymbol, ErrCodeMissingSymbol, true},
		{"other code", New(ErrCodeMissingSymbol, "no family for Doors"), ErrCodeMissingSymbol, ErrCodeMaterialize, false},
		{"outer code wins", Wrap(ErrCodeMaterialize, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeMaterialize, ErrCodeMaterialize, true},
		{"through fmt wrap", fmt.Errorf("run: %w", New(ErrCodeInvalidGeometry, "w1")), ErrCodeInvalidGeometry, ErrCodeInvalidGeometry, true},
		{"plain", errors.New("plain"), "", ErrCodeInvalidInput, false},
		{"nil", nil, "", ErrCodeInvalidInput, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if got := Is(tt.err, tt.is); got != tt.want {
				t.Errorf("Is(%s) = %v, want %v", tt.is, got, tt.want)
			}
		})
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"invalid geometry", New(ErrCodeInvalidGeometry, "curve endpoint is NaN"), false},
		{"wrapped invalid geometry", Wrap(ErrCodeInvalidGeometry, errors.New("nan"), "element w1"), false},
		{"missing symbol", New(ErrCodeMissingSymbol, "no family for Doors"), true},
		{"materialize", New(ErrCodeMaterialize, "host refused"), true},
		{"plain error", errors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.expected {
				t.Errorf("IsFatal() = %v, want %v", got, tt.expected)
			}
		})
	}
}
