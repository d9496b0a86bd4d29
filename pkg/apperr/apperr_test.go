package apperr

import (
	"fmt"
	"testing"
)

func TestInvalid(t *testing.T) {
	err := Invalid("rating must be between %d and %d", 1, 5)
	if err.Error() != "rating must be between 1 and 5" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsValidation(err) {
		t.Error("expected validation error")
	}
	if !IsValidation(fmt.Errorf("create review: %w", err)) {
		t.Error("expected wrapped validation error to match")
	}
	if IsValidation(fmt.Errorf("boom")) {
		t.Error("plain error is not a validation error")
	}
}
