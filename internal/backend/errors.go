package backend

import (
	"errors"
	"fmt"
)

// UnavailableError indicates the backend was unreachable or the request
// timed out before a response arrived.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("backend unavailable (%s): %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// RejectedError indicates the backend returned a 4xx-class business error,
// e.g. insufficient coins, unknown task, lab already running.
type RejectedError struct {
	Op     string
	Status int
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend rejected %s (%d): %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("backend rejected %s (%d)", e.Op, e.Status)
}

// MalformedError indicates the response body did not match the expected
// shape. Callers degrade to documented fallbacks, never silently corrupt.
type MalformedError struct {
	Op  string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s response: %v", e.Op, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err is a transport-level failure.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// RejectionDetail extracts the backend-provided reason from a RejectedError.
func RejectionDetail(err error) (string, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re.Detail, true
	}
	return "", false
}
