package selection

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for selection failures.
const (
	ErrCodeUnknownFeature = "UNKNOWN_FEATURE"
	ErrCodeNameCollision  = "NAME_COLLISION"
)

// UnknownFeatureError reports a requested feature name that synthesis did not
// produce. A mistyped name is a hard failure, never a silent null column.
type UnknownFeatureError struct {
	// Feature is the requested name, as written.
	Feature string

	// Target is the frame's target table.
	Target string

	// Suggestion is a synthesized name that differs only in case, if any.
	Suggestion string
}

// Error implements the error interface.
func (e *UnknownFeatureError) Error() string {
	msg := fmt.Sprintf("%s: feature %q was not synthesized (target=%s)", ErrCodeUnknownFeature, e.Feature, e.Target)
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestion)
	}
	return msg
}

// NameCollisionError reports two features mapped to the same output column.
type NameCollisionError struct {
	// Name is the contested output column name.
	Name string

	// Table is the output table, when known.
	Table string

	// Features lists the sources that produced Name, in request order.
	Features []string
}

// Error implements the error interface.
func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("%s: output column %q produced by %s (table=%s)",
		ErrCodeNameCollision, e.Name, strings.Join(e.Features, ", "), e.Table)
}

// IsUnknownFeature returns true if err is or wraps an *UnknownFeatureError.
func IsUnknownFeature(err error) bool {
	var ue *UnknownFeatureError
	return errors.As(err, &ue)
}

// IsNameCollision returns true if err is or wraps a *NameCollisionError.
func IsNameCollision(err error) bool {
	var ne *NameCollisionError
	return errors.As(err, &ne)
}
