package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports a caller contract violation such as overlap >= chunk size.
	ErrConfiguration = errors.New("configuration error")

	// ErrProviderUnavailable means no embeddings can be produced for the
	// current batch. Callers fall back to unranked selection.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrDegenerateVector is returned for zero-norm vectors in a similarity computation.
	ErrDegenerateVector = errors.New("degenerate vector")

	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	ErrEmptyDocument = errors.New("document has no content")

	ErrUnknownTool = errors.New("unknown tool")
)

// ProviderError is a failed embedding call for a single input.
type ProviderError struct {
	Index int // position of the input in its batch, -1 for a query
	Err   error
}

func (e *ProviderError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("embedding query: %v", e.Err)
	}
	return fmt.Sprintf("embedding chunk %d: %v", e.Index, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// FetchError is a network or parse failure while fetching a URL.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
