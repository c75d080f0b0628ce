package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTypePredicates(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantTyp ErrorType
		check   func(error) bool
	}{
		{"validation", NewValidationError("bad input"), ErrorTypeValidation, IsValidation},
		{"not found", NewNotFoundError("missing"), ErrorTypeNotFound, IsNotFound},
		{"conflict", NewConflictError("duplicate"), ErrorTypeConflict, IsConflict},
		{"provider", NewProviderError("scrape failed", nil), ErrorTypeProvider, IsProvider},
		{"timeout", NewTimeoutError("poll budget exhausted"), ErrorTypeTimeout, IsTimeout},
		{"persistence", NewPersistenceError("save failed", nil), ErrorTypePersistence, IsPersistence},
		{"internal", NewInternalError("boom", nil), ErrorTypeInternal, IsInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.wantTyp, TypeOf(tt.err))
		})
	}
}

func TestWrapPreservesType(t *testing.T) {
	err := NewTimeoutError("poll budget exhausted")
	wrapped := Wrap(err, "ingestion job")

	assert.True(t, IsTimeout(wrapped))
	assert.Contains(t, wrapped.Error(), "ingestion job")
	assert.Contains(t, wrapped.Error(), "poll budget exhausted")
}

func TestWrapUnknownBecomesInternal(t *testing.T) {
	wrapped := Wrap(fmt.Errorf("plain failure"), "context")

	assert.True(t, IsInternal(wrapped))
	assert.Equal(t, ErrorTypeInternal, TypeOf(wrapped))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
}

func TestTypeOfPlainError(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, TypeOf(fmt.Errorf("plain")))
}
