// Package errs defines the error taxonomy shared by every stage of the
// recommendation pipeline.
package errs

import (
	"errors"
	"fmt"
)

// Pipeline errors.
var (
	// ErrValidation indicates malformed or too-short user input. Not retried.
	ErrValidation = errors.New("validation error")

	// ErrModelUnavailable indicates a model checkpoint could not be loaded.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrRetrievalEmpty indicates retrieval produced no candidates.
	ErrRetrievalEmpty = errors.New("no candidates")

	// ErrRankingEmpty indicates the ranker produced nothing for a non-empty
	// candidate list.
	ErrRankingEmpty = errors.New("ranking produced no results")

	// ErrUpstreamTimeout indicates an inference call exceeded its time bound.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("not found")
)

// Validationf returns an ErrValidation wrapping a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ModelUnavailable wraps cause as ErrModelUnavailable for the named model.
func ModelUnavailable(name string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrModelUnavailable, name)
	}
	return fmt.Errorf("%w: %s: %w", ErrModelUnavailable, name, cause)
}
