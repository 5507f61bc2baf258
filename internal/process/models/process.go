package models

import (
	"strings"
	"time"

	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
)

// Status is the lifecycle of an onboarding process.
type Status string

const (
	StatusActivationInProgress   Status = "ACTIVATION_IN_PROGRESS"
	StatusVerificationInProgress Status = "VERIFICATION_IN_PROGRESS"
	StatusFinished               Status = "FINISHED"
	StatusFailed                 Status = "FAILED"
)

var processTransitions = map[Status][]Status{
	StatusActivationInProgress:   {StatusVerificationInProgress, StatusFailed},
	StatusVerificationInProgress: {StatusFinished, StatusFailed},
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusFailed
}

// IsRunning is the complement of IsTerminal for known statuses.
func (s Status) IsRunning() bool {
	return s == StatusActivationInProgress || s == StatusVerificationInProgress
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range processTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// FailureOrigin records why a process was failed.
type FailureOrigin string

const (
	OriginErrorScore         FailureOrigin = "ERROR_SCORE"
	OriginActivationExpired  FailureOrigin = "ACTIVATION_EXPIRED"
	OriginOtpExhausted       FailureOrigin = "OTP_EXHAUSTED"
	OriginCanceled           FailureOrigin = "CANCELED"
	OriginVerificationFailed FailureOrigin = "VERIFICATION_FAILED"
)

// Process is the aggregate root of one user's onboarding.
//
// Invariants:
//   - UserID is non-empty
//   - ErrorScore never decreases
//   - Status only moves along processTransitions; FINISHED and FAILED are final
//   - ActivationID is bound exactly once, when activation completes
//   - Rows are never deleted
type Process struct {
	ID           id.ProcessID
	UserID       id.UserID
	ActivationID id.ActivationID
	Status       Status
	ErrorScore   int
	ErrorDetail  string
	ErrorOrigin  FailureOrigin
	Correlation  Correlation
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   *time.Time
}

// NewProcess starts a process in ACTIVATION_IN_PROGRESS.
func NewProcess(processID id.ProcessID, userID id.UserID, correlation Correlation, now time.Time) (*Process, error) {
	if processID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "process id cannot be empty")
	}
	if strings.TrimSpace(string(userID)) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "process user id cannot be empty")
	}
	return &Process{
		ID:          processID,
		UserID:      userID,
		Status:      StatusActivationInProgress,
		Correlation: correlation,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Owner returns the provider correlation key. It fails until an activation
// has been bound.
func (p *Process) Owner() (id.OwnerID, error) {
	return id.NewOwnerID(p.UserID, p.ActivationID)
}

// CanFail checks that the process is still running.
func (p *Process) CanFail() error {
	if !p.Status.CanTransitionTo(StatusFailed) {
		return dErrors.New(dErrors.CodeInvalidState, "process is already "+strings.ToLower(string(p.Status)))
	}
	return nil
}

// ApplyFailure moves the process to FAILED. Call CanFail first.
func (p *Process) ApplyFailure(origin FailureOrigin, detail string, now time.Time) {
	p.Status = StatusFailed
	p.ErrorOrigin = origin
	p.ErrorDetail = detail
	p.UpdatedAt = now
	p.FinishedAt = &now
}

// CanFinish checks that identity verification is running.
func (p *Process) CanFinish() error {
	if !p.Status.CanTransitionTo(StatusFinished) {
		return dErrors.New(dErrors.CodeInvalidState, "process is not in verification")
	}
	return nil
}

// ApplyFinish moves the process to FINISHED. Call CanFinish first.
func (p *Process) ApplyFinish(now time.Time) {
	p.Status = StatusFinished
	p.UpdatedAt = now
	p.FinishedAt = &now
}
