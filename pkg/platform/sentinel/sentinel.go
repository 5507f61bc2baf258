package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into coded domain errors.
//
//   - ErrNotFound: row does not exist
//   - ErrConflict: a conditional update matched no row because the row moved on
//   - ErrExpired: OTP or lease past its deadline
//   - ErrAlreadyUsed: OTP already consumed
//   - ErrInvalidState: row is in the wrong state for the requested operation
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation failures use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
