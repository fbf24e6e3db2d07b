package engine

import (
	"errors"
	"fmt"
)

// SynthesisError reports a structural problem found before any feature is
// computed.
type SynthesisError struct {
	// Code identifies the error category.
	Code SynthesisErrorCode

	// Message is a human-readable description.
	Message string

	// Table names the affected table.
	Table string

	// Relationship names the affected link, when there is one.
	Relationship string
}

// SynthesisErrorCode categorizes synthesis errors.
type SynthesisErrorCode string

const (
	// ErrCodeUnknownTarget indicates the target table is not in the entity set.
	ErrCodeUnknownTarget SynthesisErrorCode = "UNKNOWN_TARGET"

	// ErrCodeDuplicateFeature indicates two features of one frame share a
	// name, as when a parent links to the same child through two columns.
	ErrCodeDuplicateFeature SynthesisErrorCode = "DUPLICATE_FEATURE"

	// ErrCodeUnlinked indicates a relationship that is not part of the entity set.
	ErrCodeUnlinked SynthesisErrorCode = "UNLINKED"
)

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	if e.Relationship != "" {
		return fmt.Sprintf("%s: %s (relationship=%s)", e.Code, e.Message, e.Relationship)
	}
	return fmt.Sprintf("%s: %s (table=%s)", e.Code, e.Message, e.Table)
}

// IsUnknownTarget returns true if err is an unknown-target error.
// Uses errors.As to handle wrapped errors.
func IsUnknownTarget(err error) bool {
	var se *SynthesisError
	if errors.As(err, &se) {
		return se.Code == ErrCodeUnknownTarget
	}
	return false
}

// IsDuplicateFeature returns true if err is a duplicate-feature error.
func IsDuplicateFeature(err error) bool {
	var se *SynthesisError
	if errors.As(err, &se) {
		return se.Code == ErrCodeDuplicateFeature
	}
	return false
}
