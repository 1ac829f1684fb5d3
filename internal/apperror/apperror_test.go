package apperror

import (
	"errors"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("team", "ABC123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("identity", "identity is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("athlete", "bobsmith"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("invalid PIN"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Exhausted wraps ErrExhausted",
			err:       Exhausted("team"),
			target:    ErrExhausted,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("family", "XYZ999"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Exhausted does NOT match ErrConflict",
			err:       Exhausted("share"),
			target:    ErrConflict,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestAppError_Message(t *testing.T) {
	err := ValidationFailed("pin", "PINs do not match")
	if err.Error() != "PINs do not match" {
		t.Errorf("Error() = %q, want %q", err.Error(), "PINs do not match")
	}
	if err.Field != "pin" {
		t.Errorf("Field = %q, want %q", err.Field, "pin")
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := NotFound("snapshot", "WRONGCODE")
	if !errors.Is(err, ErrNotFound) {
		t.Error("unwrap chain should reach ErrNotFound")
	}

	wrapped := errors.Join(errors.New("outer"), err)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("errors.Is should walk through wrapping")
	}
}
