package models

import (
	"time"

	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
)

// Phase is a stage of the verification pipeline.
type Phase string

const (
	PhaseDocumentUpload       Phase = "DOCUMENT_UPLOAD"
	PhaseDocumentVerification Phase = "DOCUMENT_VERIFICATION"
	PhasePresenceCheck        Phase = "PRESENCE_CHECK"
	PhaseOtpVerification      Phase = "OTP_VERIFICATION"
	PhaseCompleted            Phase = "COMPLETED"
)

func ParsePhase(s string) (Phase, error) {
	switch p := Phase(s); p {
	case PhaseDocumentUpload, PhaseDocumentVerification, PhasePresenceCheck, PhaseOtpVerification, PhaseCompleted:
		return p, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown verification phase "+s)
}

// Status qualifies the phase.
type Status string

const (
	StatusNotInitialized      Status = "NOT_INITIALIZED"
	StatusInProgress          Status = "IN_PROGRESS"
	StatusVerificationPending Status = "VERIFICATION_PENDING"
	StatusAccepted            Status = "ACCEPTED"
	StatusRejected            Status = "REJECTED"
	StatusFailed              Status = "FAILED"
)

// State is a (phase, status) pair.
type State struct {
	Phase  Phase
	Status Status
}

var (
	StateInitial                           = State{PhaseDocumentUpload, StatusNotInitialized}
	StateDocumentUploadInProgress          = State{PhaseDocumentUpload, StatusInProgress}
	StateDocumentUploadVerificationPending = State{PhaseDocumentUpload, StatusVerificationPending}
	StateDocumentVerificationInProgress    = State{PhaseDocumentVerification, StatusInProgress}
	StatePresenceCheckNotInitialized       = State{PhasePresenceCheck, StatusNotInitialized}
	StatePresenceCheckInProgress           = State{PhasePresenceCheck, StatusInProgress}
	StatePresenceCheckVerificationPending  = State{PhasePresenceCheck, StatusVerificationPending}
	StatePresenceCheckFailed               = State{PhasePresenceCheck, StatusFailed}
	StatePresenceCheckRejected             = State{PhasePresenceCheck, StatusRejected}
	StateOtpVerificationPending            = State{PhaseOtpVerification, StatusVerificationPending}
	StateCompletedAccepted                 = State{PhaseCompleted, StatusAccepted}
	StateCompletedFailed                   = State{PhaseCompleted, StatusFailed}
	StateCompletedRejected                 = State{PhaseCompleted, StatusRejected}
)

var stateNames = map[State]string{
	StateInitial:                           "INITIAL",
	StateDocumentUploadVerificationPending: "DOCUMENT_UPLOAD_VERIFICATION_PENDING",
	StateOtpVerificationPending:            "OTP_VERIFICATION_PENDING",
}

// String renders the state as PHASE_STATUS, with a few established short
// names.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return string(s.Phase) + "_" + string(s.Status)
}

// IsTerminal reports whether the verification is completed.
func (s State) IsTerminal() bool {
	return s.Phase == PhaseCompleted
}

// RunningPhases are the phases of a verification that is not completed.
var RunningPhases = []Phase{PhaseDocumentUpload, PhaseDocumentVerification, PhasePresenceCheck, PhaseOtpVerification}

// Verification is one identity-check attempt of an activation.
//
// Invariants:
//   - at most one verification per activation is not COMPLETED
//   - the state only moves through the transition table; reset is the only
//     way back and is itself a new verification
type Verification struct {
	ID           id.VerificationID
	ProcessID    id.ProcessID
	ActivationID id.ActivationID
	UserID       id.UserID
	Phase        Phase
	Status       Status
	ErrorDetail  string
	RejectReason string
	SessionInfo  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewVerification creates a verification waiting for documents.
func NewVerification(verificationID id.VerificationID, processID id.ProcessID, userID id.UserID, activationID id.ActivationID, now time.Time) (*Verification, error) {
	if verificationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "verification id cannot be empty")
	}
	if processID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "verification process id cannot be empty")
	}
	if userID.IsNil() || activationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "verification owner cannot be empty")
	}
	return &Verification{
		ID:           verificationID,
		ProcessID:    processID,
		ActivationID: activationID,
		UserID:       userID,
		Phase:        StateDocumentUploadInProgress.Phase,
		Status:       StateDocumentUploadInProgress.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (v *Verification) State() State {
	return State{Phase: v.Phase, Status: v.Status}
}

func (v *Verification) Owner() (id.OwnerID, error) {
	return id.NewOwnerID(v.UserID, v.ActivationID)
}

// StateChange is written together with a state move. Empty strings leave the
// stored value untouched; SessionInfo is replaced when non-nil.
type StateChange struct {
	To           State
	ErrorDetail  string
	RejectReason string
	SessionInfo  *string
}

// ExpiredRef identifies a verification failed by the expiration sweep.
type ExpiredRef struct {
	ID           id.VerificationID
	ProcessID    id.ProcessID
	UserID       id.UserID
	ActivationID id.ActivationID
	SessionInfo  string
}
