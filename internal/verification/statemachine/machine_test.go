package statemachine

import (
	"testing"

	"github.com/stretchr/testify/suite"

	docmodels "onboarding/internal/document/models"
	processmodels "onboarding/internal/process/models"
	"onboarding/internal/verification/models"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
)

type MachineSuite struct {
	suite.Suite
	machine *Machine
}

func TestMachineSuite(t *testing.T) {
	suite.Run(t, new(MachineSuite))
}

func (s *MachineSuite) SetupTest() {
	s.machine = New(models.DefaultPipeline())
}

func doc(t docmodels.Type, status docmodels.Status) *docmodels.Document {
	return &docmodels.Document{ID: id.NewDocumentID(), Type: t, Status: status}
}

func (s *MachineSuite) fire(from models.State, event Event, facts Facts) Transition {
	tr, err := s.machine.Fire(from, event, facts)
	s.Require().NoError(err)
	return tr
}

func (s *MachineSuite) TestInit() {
	s.Run("requires a running process", func() {
		_, err := s.machine.Fire(models.StateInitial, EventInit, Facts{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("creates the upload state", func() {
		tr := s.fire(models.StateInitial, EventInit, Facts{ProcessRunning: true})
		s.Equal(models.StateDocumentUploadInProgress, tr.To)
		s.Equal(ActionCreate, tr.Action)
	})
}

func (s *MachineSuite) TestDocumentUpload() {
	s.Run("submission keeps the state", func() {
		tr := s.fire(models.StateDocumentUploadInProgress, EventDocumentsSubmitted, Facts{ProcessRunning: true})
		s.Equal(models.StateDocumentUploadInProgress, tr.To)
		s.Equal(ActionPersistDocuments, tr.Action)
	})

	s.Run("waits while an upload is outstanding", func() {
		tr := s.fire(models.StateDocumentUploadInProgress, EventNextState, Facts{Documents: []*docmodels.Document{
			doc(docmodels.TypePassport, docmodels.StatusVerificationPending),
			doc(docmodels.TypeDrivingLicense, docmodels.StatusUploadInProgress),
		}})
		s.True(tr.Noop)
		s.Equal(models.StateDocumentUploadInProgress, tr.To)
	})

	s.Run("no documents stays in progress", func() {
		tr := s.fire(models.StateDocumentUploadInProgress, EventNextState, Facts{})
		s.True(tr.Noop)
	})

	s.Run("a failed upload blocks progress", func() {
		tr := s.fire(models.StateDocumentUploadInProgress, EventNextState, Facts{Documents: []*docmodels.Document{
			doc(docmodels.TypePassport, docmodels.StatusVerificationPending),
			doc(docmodels.TypeDrivingLicense, docmodels.StatusFailed),
		}})
		s.True(tr.Noop)
	})

	s.Run("settled uploads move to verification pending", func() {
		tr := s.fire(models.StateDocumentUploadInProgress, EventNextState, Facts{Documents: []*docmodels.Document{
			doc(docmodels.TypePassport, docmodels.StatusVerificationPending),
			doc(docmodels.TypeDrivingLicense, docmodels.StatusVerificationPending),
		}})
		s.False(tr.Noop)
		s.Equal(models.StateDocumentUploadVerificationPending, tr.To)
	})

	s.Run("verification pending starts the provider check", func() {
		tr := s.fire(models.StateDocumentUploadVerificationPending, EventNextState, Facts{})
		s.Equal(models.StateDocumentVerificationInProgress, tr.To)
		s.Equal(ActionStartDocumentCheck, tr.Action)
	})
}

func (s *MachineSuite) TestDocumentVerificationOutcome() {
	accepted := func(types ...docmodels.Type) []*docmodels.Document {
		out := make([]*docmodels.Document, 0, len(types))
		for _, t := range types {
			out = append(out, doc(t, docmodels.StatusAccepted))
		}
		return out
	}

	tests := []struct {
		name      string
		facts     Facts
		wantTo    models.State
		wantScore processmodels.ErrorType
		wantNoop  bool
	}{
		{
			name: "any failure fails the verification",
			facts: Facts{Documents: []*docmodels.Document{
				doc(docmodels.TypePassport, docmodels.StatusAccepted),
				doc(docmodels.TypeDrivingLicense, docmodels.StatusFailed),
			}},
			wantTo:    models.StateCompletedFailed,
			wantScore: processmodels.ErrorDocumentVerificationFailed,
		},
		{
			name: "a rejection rejects the verification",
			facts: Facts{Documents: []*docmodels.Document{
				doc(docmodels.TypePassport, docmodels.StatusAccepted),
				doc(docmodels.TypeDrivingLicense, docmodels.StatusRejected),
			}},
			wantTo:    models.StateCompletedRejected,
			wantScore: processmodels.ErrorDocumentVerificationRejected,
		},
		{
			name:      "accepted without coverage is rejected",
			facts:     Facts{Documents: accepted(docmodels.TypeIDCard, docmodels.TypeIDCard)},
			wantTo:    models.StateCompletedRejected,
			wantScore: processmodels.ErrorDocumentVerificationRejected,
		},
		{
			name:   "client evaluation rejection is not scored",
			facts:  Facts{Documents: accepted(docmodels.TypeIDCard, docmodels.TypePassport), ClientRejected: true},
			wantTo: models.StateCompletedRejected,
		},
		{
			name:   "accepted with coverage advances",
			facts:  Facts{Documents: accepted(docmodels.TypeIDCard, docmodels.TypeDrivingLicense)},
			wantTo: models.StatePresenceCheckNotInitialized,
		},
		{
			name: "still in progress is a no-op",
			facts: Facts{Documents: []*docmodels.Document{
				doc(docmodels.TypePassport, docmodels.StatusAccepted),
				doc(docmodels.TypeDrivingLicense, docmodels.StatusVerificationInProgress),
			}},
			wantTo:   models.StateDocumentVerificationInProgress,
			wantNoop: true,
		},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			tr := s.fire(models.StateDocumentVerificationInProgress, EventNextState, tt.facts)
			s.Equal(tt.wantTo, tr.To)
			s.Equal(tt.wantScore, tr.Score)
			s.Equal(tt.wantNoop, tr.Noop)
		})
	}
}

func (s *MachineSuite) TestPresenceCheck() {
	s.Run("init requires the feature", func() {
		_, err := s.machine.Fire(models.StatePresenceCheckNotInitialized, EventPresenceCheckInit, Facts{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	for _, from := range []models.State{models.StatePresenceCheckNotInitialized, models.StatePresenceCheckFailed, models.StatePresenceCheckRejected} {
		s.Run("init from "+from.String(), func() {
			tr := s.fire(from, EventPresenceCheckInit, Facts{PresenceEnabled: true})
			s.Equal(models.StatePresenceCheckInProgress, tr.To)
			s.Equal(ActionStartPresenceCheck, tr.Action)
		})
	}

	tests := []struct {
		outcome   PresenceOutcome
		wantTo    models.State
		wantScore processmodels.ErrorType
	}{
		{PresenceAccepted, models.StateOtpVerificationPending, ""},
		{PresenceRejected, models.StatePresenceCheckRejected, processmodels.ErrorPresenceCheckRejected},
		{PresenceFailed, models.StatePresenceCheckFailed, processmodels.ErrorPresenceCheckFailed},
		{PresenceInProgress, models.StatePresenceCheckVerificationPending, ""},
	}
	for _, tt := range tests {
		s.Run("submitted "+string(tt.outcome), func() {
			tr := s.fire(models.StatePresenceCheckInProgress, EventPresenceCheckSubmitted, Facts{Presence: tt.outcome})
			s.Equal(tt.wantTo, tr.To)
			s.Equal(tt.wantScore, tr.Score)
		})
	}

	s.Run("accepted stores the selfie", func() {
		tr := s.fire(models.StatePresenceCheckVerificationPending, EventNextState, Facts{Presence: PresenceAccepted})
		s.Equal(ActionStoreSelfie, tr.Action)
		s.Equal(models.StateOtpVerificationPending, tr.To)
	})

	s.Run("pending result stays pending", func() {
		tr := s.fire(models.StatePresenceCheckVerificationPending, EventNextState, Facts{Presence: PresenceInProgress})
		s.True(tr.Noop)
	})

	s.Run("submitting twice is invalid", func() {
		_, err := s.machine.Fire(models.StatePresenceCheckVerificationPending, EventPresenceCheckSubmitted, Facts{Presence: PresenceAccepted})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *MachineSuite) TestOtpVerification() {
	tests := []struct {
		outcome   OtpOutcome
		wantTo    models.State
		wantScore processmodels.ErrorType
	}{
		{OtpMatched, models.StateCompletedAccepted, ""},
		{OtpMismatch, models.StateOtpVerificationPending, processmodels.ErrorUserVerificationOtpFailed},
		{OtpExhausted, models.StateCompletedFailed, processmodels.ErrorUserVerificationOtpFailed},
		{OtpExpired, models.StateOtpVerificationPending, ""},
	}
	for _, tt := range tests {
		s.Run(string(tt.outcome), func() {
			tr := s.fire(models.StateOtpVerificationPending, EventOtpVerify, Facts{Otp: tt.outcome})
			s.Equal(tt.wantTo, tr.To)
			s.Equal(tt.wantScore, tr.Score)
		})
	}

	s.Run("resend keeps the state", func() {
		tr := s.fire(models.StateOtpVerificationPending, EventOtpResend, Facts{ProcessRunning: true})
		s.Equal(models.StateOtpVerificationPending, tr.To)
		s.Equal(ActionResendOtp, tr.Action)
	})
}

func (s *MachineSuite) TestPipelineDrivesAdvance() {
	s.Run("without presence check documents lead to otp", func() {
		pipeline, err := models.ParsePipeline([]string{"DOCUMENT_UPLOAD", "DOCUMENT_VERIFICATION", "OTP_VERIFICATION", "COMPLETED"})
		s.Require().NoError(err)
		tr, err := New(pipeline).Fire(models.StateDocumentVerificationInProgress, EventNextState, Facts{Documents: []*docmodels.Document{
			doc(docmodels.TypePassport, docmodels.StatusAccepted),
			doc(docmodels.TypeDrivingLicense, docmodels.StatusAccepted),
		}})
		s.Require().NoError(err)
		s.Equal(models.StateOtpVerificationPending, tr.To)
	})

	s.Run("otp before presence check", func() {
		pipeline, err := models.ParsePipeline([]string{"DOCUMENT_UPLOAD", "DOCUMENT_VERIFICATION", "OTP_VERIFICATION", "PRESENCE_CHECK", "COMPLETED"})
		s.Require().NoError(err)
		m := New(pipeline)
		tr, err := m.Fire(models.StateOtpVerificationPending, EventOtpVerify, Facts{Otp: OtpMatched})
		s.Require().NoError(err)
		s.Equal(models.StatePresenceCheckNotInitialized, tr.To)

		tr, err = m.Fire(models.StatePresenceCheckInProgress, EventPresenceCheckSubmitted, Facts{Presence: PresenceAccepted})
		s.Require().NoError(err)
		s.Equal(models.StateCompletedAccepted, tr.To)
	})

	s.Run("documents only", func() {
		pipeline, err := models.ParsePipeline([]string{"DOCUMENT_UPLOAD", "DOCUMENT_VERIFICATION", "COMPLETED"})
		s.Require().NoError(err)
		tr, err := New(pipeline).Fire(models.StateDocumentVerificationInProgress, EventNextState, Facts{Documents: []*docmodels.Document{
			doc(docmodels.TypeIDCard, docmodels.StatusAccepted),
			doc(docmodels.TypeDrivingLicense, docmodels.StatusAccepted),
		}})
		s.Require().NoError(err)
		s.Equal(models.StateCompletedAccepted, tr.To)
	})
}

func (s *MachineSuite) TestUnknownPairs() {
	s.Run("terminal states accept nothing", func() {
		for _, ev := range []Event{EventDocumentsSubmitted, EventPresenceCheckInit, EventOtpVerify} {
			_, err := s.machine.Fire(models.StateCompletedAccepted, ev, Facts{ProcessRunning: true})
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidState), ev)
		}
	})

	s.Run("next state on a terminal state is a no-op", func() {
		tr := s.fire(models.StateCompletedRejected, EventNextState, Facts{})
		s.True(tr.Noop)
		s.Equal(models.StateCompletedRejected, tr.To)
	})

	s.Run("CanFire ignores guards", func() {
		s.True(CanFire(models.StatePresenceCheckNotInitialized, EventPresenceCheckInit))
		s.False(CanFire(models.StateDocumentUploadInProgress, EventOtpVerify))
	})
}
