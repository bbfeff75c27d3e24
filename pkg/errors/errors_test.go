package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsSentinel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     Kind
		status   int
	}{
		{"invalid char", InvalidChar(0x07, 3), ErrInvalidInput, KindInvalidInput, http.StatusBadRequest},
		{"duplicate", DuplicateID(-1), ErrDuplicateID, KindDuplicateID, http.StatusConflict},
		{"malformed", MalformedQuery("--cat", "doubled marker", nil), ErrMalformedQuery, KindMalformedQuery, http.StatusBadRequest},
		{"unknown", UnknownDocument(42), ErrUnknownDocument, KindUnknownDocument, http.StatusNotFound},
		{"out of range", OutOfRange(9, 3), ErrOutOfRange, KindOutOfRange, http.StatusRequestedRangeNotSatisfiable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("operation: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(wrapped))
			assert.Equal(t, tt.status, HTTPStatusCode(wrapped))
		})
	}
}

func TestErrorIsNotOtherSentinel(t *testing.T) {
	err := DuplicateID(7)
	assert.False(t, errors.Is(err, ErrUnknownDocument))
	assert.False(t, errors.Is(err, ErrInvalidInput))
}

func TestErrorContext(t *testing.T) {
	var e *Error
	err := fmt.Errorf("adding: %w", DuplicateID(42))
	if assert.True(t, errors.As(err, &e)) {
		assert.Equal(t, 42, e.DocID)
	}
	assert.Contains(t, err.Error(), "document id 42")
}

func TestMalformedQueryUnwrapsCause(t *testing.T) {
	cause := InvalidChar('\n', 4)
	err := MalformedQuery("ca\nt", "invalid character", cause)
	assert.ErrorIs(t, err, ErrMalformedQuery)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, KindMalformedQuery, KindOf(err))
}

func TestHTTPStatusCodeUnknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusCode(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindOfPlainSentinel(t *testing.T) {
	err := fmt.Errorf("decoding body: %w", ErrInvalidInput)
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.Equal(t, http.StatusBadRequest, HTTPStatusCode(err))
}
