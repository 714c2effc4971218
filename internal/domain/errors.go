package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDocument signals a query against a session with no document set.
	ErrNoDocument = errors.New("no document set")
	// ErrMalformedDocument signals a document source that produced unusable text.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrEmptyQuery signals a blank user query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGeneratorError signals an answer generator failure.
	ErrGeneratorError = errors.New("answer generator error")
	// ErrSessionNotFound signals a missing retrieval session.
	ErrSessionNotFound = errors.New("session not found")
)

// DimMismatchError wraps ErrVectorDimMismatch with the expected and actual dimensions.
type DimMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrVectorDimMismatch.Error(), e.Expected, e.Actual)
}

func (e *DimMismatchError) Unwrap() error { return ErrVectorDimMismatch }

// NewDimMismatch creates a dimension mismatch error.
func NewDimMismatch(expected, actual int) error {
	return &DimMismatchError{Expected: expected, Actual: actual}
}
