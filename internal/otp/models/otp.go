package models

import (
	"time"

	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
)

// Type distinguishes the two code purposes of a process.
type Type string

const (
	TypeActivation       Type = "ACTIVATION"
	TypeUserVerification Type = "USER_VERIFICATION"
)

func (t Type) IsValid() bool {
	return t == TypeActivation || t == TypeUserVerification
}

// Status is the lifecycle of a single code.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusVerified Status = "VERIFIED"
	StatusFailed   Status = "FAILED"
	StatusExpired  Status = "EXPIRED"
	StatusCanceled Status = "CANCELED"
)

// Otp is one issued code. Only the bcrypt hash of the code is kept.
// At most one ACTIVE Otp exists per (process, type).
type Otp struct {
	ID             id.OtpID
	ProcessID      id.ProcessID
	Type           Type
	CodeHash       string
	Status         Status
	FailedAttempts int
	MaxAttempts    int
	CreatedAt      time.Time
	ExpiresAt      time.Time
	UpdatedAt      time.Time
}

// NewOtp creates an ACTIVE code valid for ttl from now.
func NewOtp(otpID id.OtpID, processID id.ProcessID, otpType Type, codeHash string, maxAttempts int, ttl time.Duration, now time.Time) (*Otp, error) {
	if processID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "otp process id cannot be empty")
	}
	if !otpType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown otp type "+string(otpType))
	}
	if codeHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "otp code hash cannot be empty")
	}
	if maxAttempts <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "otp max attempts must be positive")
	}
	if ttl <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "otp ttl must be positive")
	}
	return &Otp{
		ID:          otpID,
		ProcessID:   processID,
		Type:        otpType,
		CodeHash:    codeHash,
		Status:      StatusActive,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
		UpdatedAt:   now,
	}, nil
}

// RemainingAttempts never goes below zero.
func (o *Otp) RemainingAttempts() int {
	return max(o.MaxAttempts-o.FailedAttempts, 0)
}

// Exhausted reports whether no attempt is left.
func (o *Otp) Exhausted() bool {
	return o.RemainingAttempts() == 0
}

// Matchable reports whether a correct code may still be accepted at now.
func (o *Otp) Matchable(now time.Time) bool {
	return o.Status == StatusActive && !o.Exhausted() && !HasExpired(o.CreatedAt, o.ExpiresAt, now)
}

// HasExpired is true strictly after expiresAt; the boundary instant itself is
// still valid. createdAt is accepted for symmetry with the stored row.
func HasExpired(_, expiresAt, now time.Time) bool {
	return now.After(expiresAt)
}

// VerifyResult is the outcome of a single verification attempt. Expired is
// set when the code ran out of time; such an attempt is not a mismatch.
type VerifyResult struct {
	Matched           bool
	RemainingAttempts int
	Expired           bool
}
