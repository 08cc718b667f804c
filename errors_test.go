package cds

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCDSErrors(t *testing.T) {
	t.Run("ErrorCreation", func(t *testing.T) {
		err := NewCDSError(ErrorCategoryValidation, ErrorSeverityHigh, "TEST_ERROR", "Test error message")

		if err.Category != ErrorCategoryValidation {
			t.Errorf("Expected category %s, got %s", ErrorCategoryValidation, err.Category)
		}
		if err.Code != "TEST_ERROR" {
			t.Errorf("Expected code TEST_ERROR, got %s", err.Code)
		}
		if !err.IsRecoverable() {
			t.Error("High severity error should be recoverable")
		}
	})

	t.Run("CriticalErrorNotRecoverable", func(t *testing.T) {
		if ErrRandomnessGeneration.IsRecoverable() {
			t.Error("Critical error should not be recoverable")
		}
		if IsRecoverableError(ErrRandomnessGeneration.WithDetails("entropy")) {
			t.Error("Wrapped critical error should not be recoverable")
		}
		if !IsRecoverableError(fmt.Errorf("plain")) {
			t.Error("Non-CDS errors are recoverable")
		}
	})

	t.Run("CopiesMatchSentinel", func(t *testing.T) {
		err := ErrInvalidWitness.WithDetails("clause %d", 3).WithClause(3)
		if !errors.Is(err, ErrInvalidWitness) {
			t.Error("Contextualised copy should match its sentinel")
		}
		if errors.Is(err, ErrInvalidMessage) {
			t.Error("Distinct codes should not match")
		}
		if len(ErrInvalidWitness.Context) != 0 {
			t.Error("Sentinel context must not be modified by copies")
		}
		if !strings.Contains(err.Error(), "(clause 3)") {
			t.Errorf("Error string should name the clause: %s", err.Error())
		}
	})

	t.Run("ClauseOf", func(t *testing.T) {
		wrapped := fmt.Errorf("round failed: %w", ErrInvalidState.WithClause(5))
		index, ok := ClauseOf(wrapped)
		if !ok || index != 5 {
			t.Errorf("Expected clause 5, got %d (ok=%v)", index, ok)
		}
		if _, ok := ClauseOf(ErrInvalidState); ok {
			t.Error("Sentinel should carry no clause")
		}
	})

	t.Run("ErrorWithCause", func(t *testing.T) {
		original := fmt.Errorf("original error")
		wrapped := WrapError(original, ErrorCategoryEncoding, ErrorSeverityMedium, "WRAPPED", "wrapped")
		if wrapped.Unwrap() != original {
			t.Error("Should unwrap to original error")
		}
		if !errors.Is(ErrEncoding.WithCause(ErrInvalidScalar), ErrInvalidScalar) {
			t.Error("errors.Is should reach the cause")
		}
	})

	t.Run("Categories", func(t *testing.T) {
		testCases := []struct {
			err      error
			category ErrorCategory
		}{
			{ErrInvalidAccessStructure, ErrorCategoryValidation},
			{ErrFieldMismatch, ErrorCategoryConfiguration},
			{ErrInvalidWitness, ErrorCategoryWitness},
			{ErrDegenerateInput, ErrorCategorySharing},
			{ErrRoundOrder, ErrorCategoryProtocol},
			{ErrEncoding, ErrorCategoryEncoding},
		}
		for _, tc := range testCases {
			if !IsErrorCategory(tc.err, tc.category) {
				t.Errorf("Expected %v in category %s", tc.err, tc.category)
			}
		}
	})
}
