// Package onboarding adapts the external onboarding subsystem: OTP delivery,
// consent, client evaluation, user lookup and process event notification.
package onboarding

import (
	"context"
	"time"

	id "onboarding/pkg/domain"
)

// OtpDelivery asks the onboarding subsystem to deliver a code to the user.
type OtpDelivery struct {
	ProcessID id.ProcessID `json:"process_id"`
	UserID    id.UserID    `json:"user_id"`
	Type      string       `json:"type"`
	Code      string       `json:"code"`
	Resend    bool         `json:"resend"`
	ExpiresAt time.Time    `json:"expires_at"`
	Locale    string       `json:"locale,omitempty"`
}

// LookupRequest identifies the enrolling user by an external reference such as
// a phone number or customer number.
type LookupRequest struct {
	Identifier string `json:"identifier"`
	Locale     string `json:"locale,omitempty"`
}

// ConsentApproval records the user's consent decision.
type ConsentApproval struct {
	ProcessID id.ProcessID `json:"process_id"`
	UserID    id.UserID    `json:"user_id"`
	Consent   string       `json:"consent"`
	Approved  bool         `json:"approved"`
}

// ClientEvaluation is the subsystem's verdict on a verified client.
type ClientEvaluation struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// EventType names a process milestone.
type EventType string

const (
	EventProcessFinished      EventType = "PROCESS_FINISHED"
	EventProcessFailed        EventType = "PROCESS_FAILED"
	EventVerificationAccepted EventType = "VERIFICATION_ACCEPTED"
	EventVerificationRejected EventType = "VERIFICATION_REJECTED"
	EventVerificationFailed   EventType = "VERIFICATION_FAILED"
	EventVerificationExpired  EventType = "VERIFICATION_EXPIRED"
	EventActivationExpired    EventType = "ACTIVATION_EXPIRED"
)

// Event is a process milestone notification.
type Event struct {
	Type           EventType         `json:"type"`
	ProcessID      id.ProcessID      `json:"process_id"`
	UserID         id.UserID         `json:"user_id"`
	ActivationID   id.ActivationID   `json:"activation_id,omitempty"`
	VerificationID id.VerificationID `json:"verification_id,omitempty"`
	Status         string            `json:"status"`
	Detail         string            `json:"detail,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// Provider is the onboarding subsystem as seen by the verification engine.
type Provider interface {
	SendOtpCode(ctx context.Context, delivery OtpDelivery) error
	ApproveConsent(ctx context.Context, approval ConsentApproval) error
	EvaluateClient(ctx context.Context, owner id.OwnerID, verificationID id.VerificationID) (ClientEvaluation, error)
	LookupUser(ctx context.Context, req LookupRequest) (id.UserID, error)
	ProcessEvent(ctx context.Context, event Event) error
}

// ActivationRemover deletes an activation that expired before the user
// completed it.
type ActivationRemover interface {
	RemoveActivation(ctx context.Context, processID id.ProcessID, userID id.UserID) error
}
