package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// =============================================================================
// Test Error Types and Constructors
// =============================================================================

func TestNotFound(t *testing.T) {
	err := NotFound("prize not found")

	if err.Kind != ErrNotFound {
		t.Errorf("expected Kind to be ErrNotFound (%d), got %d", ErrNotFound, err.Kind)
	}
	if err.Message != "prize not found" {
		t.Errorf("expected Message to be 'prize not found', got '%s'", err.Message)
	}
	if err.Err != nil {
		t.Errorf("expected Err to be nil, got %v", err.Err)
	}
}

func TestNotFoundf(t *testing.T) {
	err := NotFoundf("project %d not found", 42)

	if err.Kind != ErrNotFound {
		t.Errorf("expected Kind to be ErrNotFound, got %d", err.Kind)
	}
	if err.Message != "project 42 not found" {
		t.Errorf("expected formatted message, got '%s'", err.Message)
	}
}

func TestValidationConstructors(t *testing.T) {
	if err := Validation("contact is required"); err.Kind != ErrValidation {
		t.Errorf("expected ErrValidation, got %d", err.Kind)
	}
	err := Validationf("field %s must be at least %d characters", "password", 8)
	if err.Kind != ErrValidation {
		t.Errorf("expected ErrValidation, got %d", err.Kind)
	}
	if err.Message != "field password must be at least 8 characters" {
		t.Errorf("unexpected message: %s", err.Message)
	}
}

func TestConflictConstructors(t *testing.T) {
	if err := Conflict("already redeemed"); err.Kind != ErrConflict {
		t.Errorf("expected ErrConflict, got %d", err.Kind)
	}
	if err := Conflictf("prize %q exhausted", "Mug"); err.Message != `prize "Mug" exhausted` {
		t.Errorf("unexpected message: %s", err.Message)
	}
}

func TestInvalidInputConstructors(t *testing.T) {
	if err := InvalidInput("bad id"); err.Kind != ErrInvalidInput {
		t.Errorf("expected ErrInvalidInput, got %d", err.Kind)
	}
	if err := InvalidInputf("bad id %s", "x"); err.Message != "bad id x" {
		t.Errorf("unexpected message: %s", err.Message)
	}
}

func TestRateLimited(t *testing.T) {
	err := RateLimited("daily spin limit reached", 3*time.Hour)

	if err.Kind != ErrRateLimited {
		t.Errorf("expected ErrRateLimited, got %d", err.Kind)
	}
	if err.RetryAfter != 3*time.Hour {
		t.Errorf("expected RetryAfter 3h, got %v", err.RetryAfter)
	}
}

func TestRateLimited_ClampsNegativeRetry(t *testing.T) {
	err := RateLimited("slow down", -time.Minute)
	if err.RetryAfter != 0 {
		t.Errorf("expected RetryAfter to be clamped to 0, got %v", err.RetryAfter)
	}
}

func TestUnauthorizedAndForbidden(t *testing.T) {
	if err := Unauthorized("missing token"); err.Kind != ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %d", err.Kind)
	}
	if err := Forbidden("owner only"); err.Kind != ErrForbidden {
		t.Errorf("expected ErrForbidden, got %d", err.Kind)
	}
}

func TestInternal(t *testing.T) {
	underlying := errors.New("disk full")
	err := Internal(underlying)

	if err.Kind != ErrInternal {
		t.Errorf("expected ErrInternal, got %d", err.Kind)
	}
	if err.Message != "internal error" {
		t.Errorf("expected generic message, got '%s'", err.Message)
	}
	if !errors.Is(err, underlying) {
		t.Error("expected errors.Is to find the underlying error")
	}
}

func TestInternalf(t *testing.T) {
	err := Internalf("failed after %d attempts", 3)
	if err.Kind != ErrInternal || err.Message != "failed after 3 attempts" {
		t.Errorf("unexpected error: %+v", err)
	}
}

// =============================================================================
// Test Error() and Unwrap()
// =============================================================================

func TestError_MessageOnly(t *testing.T) {
	err := NotFound("token not found")
	if err.Error() != "token not found" {
		t.Errorf("expected 'token not found', got '%s'", err.Error())
	}
}

func TestError_WithUnderlying(t *testing.T) {
	err := Wrap(errors.New("constraint failed"), ErrConflict, "cannot save prize")
	expected := "cannot save prize: constraint failed"
	if err.Error() != expected {
		t.Errorf("expected '%s', got '%s'", expected, err.Error())
	}
}

func TestUnwrap_Nil(t *testing.T) {
	err := Conflict("no underlying")
	if err.Unwrap() != nil {
		t.Error("expected Unwrap to return nil")
	}
}

func TestErrorsAs_ThroughFmtWrap(t *testing.T) {
	inner := Validation("contact is required")
	wrapped := fmt.Errorf("spin: %w", inner)

	var appErr *Error
	if !errors.As(wrapped, &appErr) {
		t.Fatal("expected errors.As to find *Error")
	}
	if appErr.Kind != ErrValidation {
		t.Errorf("expected ErrValidation, got %d", appErr.Kind)
	}
}

// =============================================================================
// Test KindOf and Kind.String
// =============================================================================

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ErrInternal},
		{"plain error", errors.New("boom"), ErrInternal},
		{"direct", NotFound("x"), ErrNotFound},
		{"wrapped", fmt.Errorf("ctx: %w", Conflict("x")), ErrConflict},
		{"double wrapped", fmt.Errorf("a: %w", fmt.Errorf("b: %w", RateLimited("x", time.Second))), ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	tests := map[Kind]string{
		ErrInternal:     "internal",
		ErrNotFound:     "not_found",
		ErrValidation:   "validation",
		ErrConflict:     "conflict",
		ErrInvalidInput: "invalid_input",
		ErrRateLimited:  "rate_limited",
		ErrUnauthorized: "unauthorized",
		ErrForbidden:    "forbidden",
		Kind(99):        "internal",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
