package export

import (
	"errors"
	"fmt"
)

// NotFoundError reports that no Trips row carries the requested trip id.
type NotFoundError struct {
	TripID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Trip_ID %s not found in Trips sheet", e.TripID)
}

// SourceUnavailableError reports that a table or document backend could not
// be reached or is misconfigured.
type SourceUnavailableError struct {
	Op  string
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source unavailable: %s: %v", e.Op, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsSourceUnavailable reports whether err is or wraps a *SourceUnavailableError.
func IsSourceUnavailable(err error) bool {
	var su *SourceUnavailableError
	return errors.As(err, &su)
}
