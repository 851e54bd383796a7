package errors

import (
	"strings"
	"testing"
)

func TestValidateElementID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"numeric", "348201", false},
		{"uuid-like", "5f0c7d3e-0001-4a2b-9c55-000000012af1", false},
		{"with spaces inside", "Wall 12", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"leading space", " w1", true},
		{"trailing space", "w1 ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateElementID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateElementID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && GetCode(err) != ErrCodeInvalidInput {
				t.Errorf("ValidateElementID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateFamilyName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"default door", "M_Door Tag", false},
		{"lighting", "M_Lighting Fixture Tag", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"tab inside", "M_Door\tTag", true},
		{"too long", strings.Repeat("x", 257), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFamilyName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFamilyName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "examples/floor.json", false},
		{"absolute", "/tmp/floor.yaml", false},

		{"empty", "", true},
		{"null byte", "floor\x00.json", true},
		{"too long", strings.Repeat("a", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidSnapshot,
		ErrCodeInvalidConfig,
		ErrCodeInvalidGeometry,
		ErrCodeInvalidFormat,
		ErrCodeInvalidPath,
		ErrCodeUnknownCategory,
		ErrCodeMissingSymbol,
		ErrCodeMaterialize,
		ErrCodeScript,
		ErrCodeFileNotFound,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
