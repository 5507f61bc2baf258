// Package domainerrors carries typed error codes across layers so that
// services can classify failures without string matching.
//
// Stores return sentinel facts (see pkg/platform/sentinel); services translate
// them into coded errors with New or Wrap. Callers branch with HasCode.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeNotFound: process, OTP, verification or document absent.
	CodeNotFound Code = "not_found"
	// CodeValidation: malformed input rejected before any state mutation.
	CodeValidation Code = "validation_error"
	// CodeBadRequest: a required argument is missing.
	CodeBadRequest Code = "bad_request"
	// CodeInvariantViolation: a model constructor rejected its inputs.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInvalidState: the event is illegal for the current state or a guard vetoed it.
	CodeInvalidState Code = "invalid_state"
	// CodeConflict: a conditional update lost a race.
	CodeConflict Code = "conflict"
	// CodeUnavailable: an external provider is unreachable or failing.
	CodeUnavailable Code = "unavailable"
	// CodeTimeout: an external provider or transaction timed out.
	CodeTimeout Code = "timeout"
	// CodeNotEnabled: the capability is disabled for this deployment.
	CodeNotEnabled Code = "not_enabled"
	// CodeScoreExceeded: the error score reached the limit and the process is failed.
	CodeScoreExceeded Code = "score_exceeded"
	// CodeInternal: anything else.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. The wrapped error, if any, stays reachable
// through errors.Is / errors.As.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error. A nil err yields nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the outermost coded error in the chain, or
// CodeInternal when the chain carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any coded error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}
