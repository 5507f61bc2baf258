package models

import dErrors "onboarding/pkg/domain-errors"

// ErrorType is the closed set of scored process errors.
type ErrorType string

const (
	ErrorActivationOtpFailed          ErrorType = "ACTIVATION_OTP_FAILED"
	ErrorDocumentVerificationFailed   ErrorType = "DOCUMENT_VERIFICATION_FAILED"
	ErrorDocumentVerificationRejected ErrorType = "DOCUMENT_VERIFICATION_REJECTED"
	ErrorPresenceCheckFailed          ErrorType = "PRESENCE_CHECK_FAILED"
	ErrorPresenceCheckRejected        ErrorType = "PRESENCE_CHECK_REJECTED"
	ErrorUserVerificationOtpFailed    ErrorType = "USER_VERIFICATION_OTP_FAILED"
	ErrorIdentityVerificationReset    ErrorType = "IDENTITY_VERIFICATION_RESET"
)

var errorWeights = map[ErrorType]int{
	ErrorActivationOtpFailed:          1,
	ErrorDocumentVerificationFailed:   1,
	ErrorDocumentVerificationRejected: 2,
	ErrorPresenceCheckFailed:          1,
	ErrorPresenceCheckRejected:        2,
	ErrorUserVerificationOtpFailed:    2,
	ErrorIdentityVerificationReset:    3,
}

// Weight is the fixed score contribution of one occurrence.
func (t ErrorType) Weight() int {
	return errorWeights[t]
}

// IsValid reports whether t belongs to the closed set.
func (t ErrorType) IsValid() bool {
	_, ok := errorWeights[t]
	return ok
}

// ParseErrorType validates an error type received from outside the module.
func ParseErrorType(s string) (ErrorType, error) {
	t := ErrorType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown error type "+s)
	}
	return t, nil
}

// ScoreLimitReached applies the termination policy: reaching the limit is
// enough, exceeding is not required.
func ScoreLimitReached(score, limit int) bool {
	return score >= limit
}
