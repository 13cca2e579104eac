// Package common defines sentinel errors shared by the store, the build
// pipeline and the driver. Callers should use errors.Is to match these values.
package common

import (
	"context"
	"errors"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")

	// Feed-level errors. A feed whose source is unavailable produces no output.
	ErrSourceUnavailable = errors.New("source unavailable")

	// Entry-level errors.
	ErrExtractionFailed     = errors.New("extraction failed")
	ErrEmptyExtraction      = errors.New("extraction returned empty content")
	ErrMalformedEntry       = errors.New("malformed entry")
	ErrDuplicateKeyConflict = errors.New("duplicate key conflict")

	// Rule and configuration errors.
	ErrFilterRuleConflict = errors.New("filter rule already exists")
	ErrInvalidFilterRule  = errors.New("invalid filter rule")
	ErrUnknownExtractor   = errors.New("unknown extractor")
)

// transient is implemented by store errors that may succeed when repeated.
type transient interface {
	Transient() bool
}

// IsRetryable reports whether an entry-level failure may succeed on a later
// build without any change of input.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrMalformedEntry),
		errors.Is(err, ErrInvalidFilterRule),
		errors.Is(err, ErrFilterRuleConflict),
		errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrExtractionFailed),
		errors.Is(err, ErrEmptyExtraction),
		errors.Is(err, ErrDuplicateKeyConflict),
		errors.Is(err, ErrVersionConflict),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}
	var t transient
	if errors.As(err, &t) {
		return t.Transient()
	}
	return false
}
