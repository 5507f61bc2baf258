// Package statemachine holds the verification transition table. The table is
// data: each row names a source state, an event, an optional guard over the
// facts the caller loaded, the target state and the effect to run. Fire is
// pure; persisting the result is the caller's job.
package statemachine

import (
	docmodels "onboarding/internal/document/models"
	processmodels "onboarding/internal/process/models"
	"onboarding/internal/verification/models"
	dErrors "onboarding/pkg/domain-errors"
)

// Event drives a verification.
type Event string

const (
	EventInit                   Event = "INIT"
	EventDocumentsSubmitted     Event = "DOCUMENTS_SUBMITTED"
	EventNextState              Event = "NEXT_STATE"
	EventPresenceCheckInit      Event = "PRESENCE_CHECK_INIT"
	EventPresenceCheckSubmitted Event = "PRESENCE_CHECK_SUBMITTED"
	EventOtpResend              Event = "OTP_RESEND"
	EventOtpVerify              Event = "OTP_VERIFY"
)

// Action is the side effect the caller performs with the transition.
type Action string

const (
	ActionNone               Action = ""
	ActionCreate             Action = "CREATE"
	ActionPersistDocuments   Action = "PERSIST_DOCUMENTS"
	ActionStartDocumentCheck Action = "START_DOCUMENT_VERIFICATION"
	ActionStartPresenceCheck Action = "START_PRESENCE_CHECK"
	ActionStoreSelfie        Action = "STORE_SELFIE"
	ActionResendOtp          Action = "RESEND_OTP"
)

// PresenceOutcome is the presence provider verdict as seen by the guards.
type PresenceOutcome string

const (
	PresenceUnknown    PresenceOutcome = ""
	PresenceAccepted   PresenceOutcome = "ACCEPTED"
	PresenceRejected   PresenceOutcome = "REJECTED"
	PresenceInProgress PresenceOutcome = "IN_PROGRESS"
	PresenceFailed     PresenceOutcome = "FAILED"
)

// OtpOutcome is the result of an OTP verification attempt.
type OtpOutcome string

const (
	OtpUnknown   OtpOutcome = ""
	OtpMatched   OtpOutcome = "MATCHED"
	OtpMismatch  OtpOutcome = "MISMATCH"
	OtpExhausted OtpOutcome = "EXHAUSTED"
	OtpExpired   OtpOutcome = "EXPIRED"
)

// Facts are the aggregates loaded before firing an event.
type Facts struct {
	// Documents in use for verification: disposed documents and selfies
	// excluded.
	Documents       []*docmodels.Document
	ProcessRunning  bool
	PresenceEnabled bool
	Presence        PresenceOutcome
	ClientRejected  bool
	Otp             OtpOutcome
}

// advance marks a row whose target is the next pipeline phase.
var advance = models.State{Phase: "ADVANCE"}

type row struct {
	from   models.State
	event  Event
	guard  func(Facts) bool
	to     models.State
	action Action
	score  processmodels.ErrorType
	reason string
}

var table = []row{
	{from: models.StateInitial, event: EventInit, guard: processRunning, to: models.StateDocumentUploadInProgress, action: ActionCreate},

	{from: models.StateDocumentUploadInProgress, event: EventDocumentsSubmitted, guard: processRunning, to: models.StateDocumentUploadInProgress, action: ActionPersistDocuments},
	{from: models.StateDocumentUploadInProgress, event: EventNextState, guard: uploadsSettledAndReady, to: models.StateDocumentUploadVerificationPending},

	{from: models.StateDocumentUploadVerificationPending, event: EventNextState, to: models.StateDocumentVerificationInProgress, action: ActionStartDocumentCheck},

	{from: models.StateDocumentVerificationInProgress, event: EventNextState, guard: anyDocumentFailed, to: models.StateCompletedFailed,
		score: processmodels.ErrorDocumentVerificationFailed, reason: "document verification failed"},
	{from: models.StateDocumentVerificationInProgress, event: EventNextState, guard: documentsRejected, to: models.StateCompletedRejected,
		score: processmodels.ErrorDocumentVerificationRejected, reason: "documents rejected"},
	{from: models.StateDocumentVerificationInProgress, event: EventNextState, guard: clientRejected, to: models.StateCompletedRejected,
		reason: "client evaluation rejected"},
	{from: models.StateDocumentVerificationInProgress, event: EventNextState, guard: documentsAccepted, to: advance},

	{from: models.StatePresenceCheckNotInitialized, event: EventPresenceCheckInit, guard: presenceEnabled, to: models.StatePresenceCheckInProgress, action: ActionStartPresenceCheck},
	{from: models.StatePresenceCheckFailed, event: EventPresenceCheckInit, guard: presenceEnabled, to: models.StatePresenceCheckInProgress, action: ActionStartPresenceCheck},
	{from: models.StatePresenceCheckRejected, event: EventPresenceCheckInit, guard: presenceEnabled, to: models.StatePresenceCheckInProgress, action: ActionStartPresenceCheck},

	{from: models.StatePresenceCheckInProgress, event: EventPresenceCheckSubmitted, guard: presenceIs(PresenceAccepted), to: advance, action: ActionStoreSelfie},
	{from: models.StatePresenceCheckInProgress, event: EventPresenceCheckSubmitted, guard: presenceIs(PresenceRejected), to: models.StatePresenceCheckRejected,
		score: processmodels.ErrorPresenceCheckRejected, reason: "presence check rejected"},
	{from: models.StatePresenceCheckInProgress, event: EventPresenceCheckSubmitted, guard: presenceIs(PresenceFailed), to: models.StatePresenceCheckFailed,
		score: processmodels.ErrorPresenceCheckFailed, reason: "presence check failed"},
	{from: models.StatePresenceCheckInProgress, event: EventPresenceCheckSubmitted, guard: presenceIs(PresenceInProgress), to: models.StatePresenceCheckVerificationPending},

	{from: models.StatePresenceCheckVerificationPending, event: EventNextState, guard: presenceIs(PresenceAccepted), to: advance, action: ActionStoreSelfie},
	{from: models.StatePresenceCheckVerificationPending, event: EventNextState, guard: presenceIs(PresenceRejected), to: models.StatePresenceCheckRejected,
		score: processmodels.ErrorPresenceCheckRejected, reason: "presence check rejected"},
	{from: models.StatePresenceCheckVerificationPending, event: EventNextState, guard: presenceIs(PresenceFailed), to: models.StatePresenceCheckFailed,
		score: processmodels.ErrorPresenceCheckFailed, reason: "presence check failed"},

	{from: models.StateOtpVerificationPending, event: EventOtpResend, guard: processRunning, to: models.StateOtpVerificationPending, action: ActionResendOtp},
	{from: models.StateOtpVerificationPending, event: EventOtpVerify, guard: otpIs(OtpMatched), to: advance},
	{from: models.StateOtpVerificationPending, event: EventOtpVerify, guard: otpIs(OtpMismatch), to: models.StateOtpVerificationPending,
		score: processmodels.ErrorUserVerificationOtpFailed},
	{from: models.StateOtpVerificationPending, event: EventOtpVerify, guard: otpIs(OtpExhausted), to: models.StateCompletedFailed,
		score: processmodels.ErrorUserVerificationOtpFailed, reason: "verification code attempts exhausted"},
	{from: models.StateOtpVerificationPending, event: EventOtpVerify, guard: otpIs(OtpExpired), to: models.StateOtpVerificationPending},
}

// Transition is the outcome of firing an event.
type Transition struct {
	From   models.State
	To     models.State
	Event  Event
	Action Action
	// Score is the error to record with the move, if any.
	Score processmodels.ErrorType
	// Reason is the detail stored on a failing or rejecting move.
	Reason string
	// Noop is set when NEXT_STATE found nothing to do.
	Noop bool
}

// Machine fires events against the table for one configured pipeline.
type Machine struct {
	pipeline models.Pipeline
}

func New(pipeline models.Pipeline) *Machine {
	return &Machine{pipeline: pipeline}
}

func (m *Machine) Pipeline() models.Pipeline {
	return m.pipeline
}

// Fire finds the first row for (from, event) whose guard holds. NEXT_STATE
// with no applicable row is a no-op; any other unmatched pair is an invalid
// state error. A row whose guard vetoes is reported the same way.
func (m *Machine) Fire(from models.State, event Event, facts Facts) (Transition, error) {
	known := false
	for _, r := range table {
		if r.from != from || r.event != event {
			continue
		}
		known = true
		if r.guard != nil && !r.guard(facts) {
			continue
		}
		to := r.to
		if to == advance {
			to = models.EntryState(m.pipeline.Next(from.Phase))
		}
		return Transition{
			From:   from,
			To:     to,
			Event:  event,
			Action: r.action,
			Score:  r.score,
			Reason: r.reason,
		}, nil
	}
	if event == EventNextState {
		return Transition{From: from, To: from, Event: event, Noop: true}, nil
	}
	if known {
		return Transition{}, dErrors.New(dErrors.CodeInvalidState, string(event)+" is not allowed now in "+from.String())
	}
	return Transition{}, dErrors.New(dErrors.CodeInvalidState, string(event)+" is not valid in "+from.String())
}

// CanFire reports whether (from, event) has any row, regardless of guards.
func CanFire(from models.State, event Event) bool {
	for _, r := range table {
		if r.from == from && r.event == event {
			return true
		}
	}
	return false
}
