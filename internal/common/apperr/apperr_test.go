package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorsAsThroughWrap(t *testing.T) {
	base := NotFound("order", "o-1")
	wrapped := fmt.Errorf("load order: %w", base)

	if !IsNotFound(wrapped) {
		t.Fatalf("expected wrapped NotFoundError to match")
	}

	var nf *NotFoundError
	if !errors.As(wrapped, &nf) {
		t.Fatalf("errors.As failed")
	}
	if nf.Entity != "order" || nf.Key != "o-1" {
		t.Fatalf("unexpected fields: %+v", nf)
	}
}

func TestInsufficientStockMessage(t *testing.T) {
	err := &InsufficientStockError{SKU: "P-OIL-050", Required: 5, Available: 3}
	msg := err.Error()
	for _, want := range []string{"P-OIL-050", "required 5", "available 3"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestValidationf(t *testing.T) {
	err := Validationf("quantity must be > 0, got %d", -1)
	if !IsValidation(err) {
		t.Fatalf("expected ValidationError")
	}
	if IsNotFound(err) {
		t.Fatalf("validation error must not match NotFound")
	}
}
