package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmbeddingUnavailable means the embedding provider could not produce a
	// vector for a signature. The record is left out of similarity matching.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrOracleUnparseable means an oracle response did not match the expected
	// label set or line format.
	ErrOracleUnparseable = errors.New("oracle response unparseable")

	// ErrMalformedRecord means a required non-derived field is missing.
	ErrMalformedRecord = errors.New("malformed record")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
