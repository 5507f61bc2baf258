package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	docmodels "onboarding/internal/document/models"
	docports "onboarding/internal/document/ports"
	docservice "onboarding/internal/document/service"
	docstore "onboarding/internal/document/store"
	"onboarding/internal/onboarding"
	onboardingmocks "onboarding/internal/onboarding/mocks"
	otpmodels "onboarding/internal/otp/models"
	otpservice "onboarding/internal/otp/service"
	otpstore "onboarding/internal/otp/store"
	"onboarding/internal/presence"
	processmodels "onboarding/internal/process/models"
	processservice "onboarding/internal/process/service"
	processstore "onboarding/internal/process/store"
	"onboarding/internal/providers/mock"
	"onboarding/internal/verification/models"
	"onboarding/internal/verification/statemachine"
	"onboarding/internal/verification/store"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/platform/tx"
	"onboarding/pkg/requestcontext"
)

// VerificationServiceSuite runs the verification flow over in-memory stores,
// the real process, OTP and document services and the mock providers. Only
// the onboarding subsystem is mocked.
type VerificationServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	hook      *onboardingmocks.MockProvider
	processes *processstore.InMemoryStore
	docStore  *docstore.InMemoryStore
	store     *store.InMemoryStore
	docProv   *mock.DocumentProvider
	otpStore  *otpstore.InMemoryStore
	process   *processservice.Service
	service   *Service
	now       time.Time
	ctx       context.Context

	mu     sync.Mutex
	codes  []string
	events []onboarding.Event
}

func TestVerificationServiceSuite(t *testing.T) {
	suite.Run(t, new(VerificationServiceSuite))
}

func (s *VerificationServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.hook = onboardingmocks.NewMockProvider(s.ctrl)
	s.codes = nil
	s.events = nil
	s.hook.EXPECT().SendOtpCode(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, d onboarding.OtpDelivery) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.codes = append(s.codes, d.Code)
			return nil
		}).AnyTimes()
	s.hook.EXPECT().ProcessEvent(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e onboarding.Event) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.events = append(s.events, e)
			return nil
		}).AnyTimes()

	s.now = time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.build(15, models.DefaultPipeline(), false)
}

func (s *VerificationServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *VerificationServiceSuite) build(scoreLimit int, pipeline models.Pipeline, clientEvaluation bool) {
	s.processes = processstore.NewInMemory()
	s.docStore = docstore.NewInMemory()
	s.store = store.NewInMemory()
	s.docProv = mock.NewDocumentProvider(0)
	s.otpStore = otpstore.NewInMemory()

	otp, err := otpservice.New(s.otpStore, s.processes, s.hook, otpservice.WithConfig(otpservice.Config{
		Length:      6,
		Expiration:  5 * time.Minute,
		MaxAttempts: 3,
		HashCost:    bcrypt.MinCost,
	}))
	s.Require().NoError(err)
	s.process, err = processservice.New(s.processes, otp, s.hook, processservice.WithErrorScoreLimit(scoreLimit))
	s.Require().NoError(err)
	documents, err := docservice.New(s.docStore, s.docProv)
	s.Require().NoError(err)
	presenceCheck, err := presence.New(mock.NewPresenceProvider(0))
	s.Require().NoError(err)

	s.service, err = New(s.store, s.process, otp, s.hook, documents, presenceCheck, tx.NewLockRunner(0),
		WithPipeline(pipeline),
		WithClientEvaluation(clientEvaluation),
	)
	s.Require().NoError(err)
	s.process.SetVerificationTerminator(s.service)
}

// over builds a second service sharing every dependency but the store.
func (s *VerificationServiceSuite) over(st Store) *Service {
	svc, err := New(st, s.process, s.service.otp, s.hook, s.service.documents, s.service.presence, s.service.tx)
	s.Require().NoError(err)
	return svc
}

// lostUpdateStore loses every state write to a concurrent writer.
type lostUpdateStore struct {
	*store.InMemoryStore
}

func (lostUpdateStore) UpdateState(context.Context, id.VerificationID, models.State, models.StateChange, time.Time) (bool, error) {
	return false, nil
}

// activated seeds a process that passed activation.
func (s *VerificationServiceSuite) activated() *processmodels.Process {
	p, err := processmodels.NewProcess(id.NewProcessID(), id.UserID("user-"+string(id.NewProcessID())), processmodels.Correlation{Locale: "en"}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.processes.Create(s.ctx, p))
	activation := id.ActivationID("act-" + string(p.ID))
	ok, err := s.processes.Activate(s.ctx, p.ID, activation, s.now)
	s.Require().NoError(err)
	s.Require().True(ok)
	p.Status = processmodels.StatusVerificationInProgress
	p.ActivationID = activation
	return p
}

func identityUploads(filename string) []docports.Upload {
	return []docports.Upload{
		{Type: docmodels.TypeIDCard, Side: docmodels.SideFront, Filename: "id-front-" + filename},
		{Type: docmodels.TypeIDCard, Side: docmodels.SideBack, Filename: "id-back-" + filename},
		{Type: docmodels.TypeDrivingLicense, Filename: "license-" + filename},
	}
}

func (s *VerificationServiceSuite) next(vid id.VerificationID, want models.State) *models.Verification {
	v, err := s.service.NextState(s.ctx, vid)
	s.Require().NoError(err)
	s.Require().Equal(want, v.State(), "after NEXT_STATE")
	return v
}

// throughDocuments drives a fresh verification to the end of document
// verification.
func (s *VerificationServiceSuite) throughDocuments(p *processmodels.Process, filename string) *models.Verification {
	v, err := s.service.Init(s.ctx, p.ID)
	s.Require().NoError(err)
	_, _, err = s.service.SubmitDocuments(s.ctx, v.ID, identityUploads(filename))
	s.Require().NoError(err)
	s.next(v.ID, models.StateDocumentUploadVerificationPending)
	s.next(v.ID, models.StateDocumentVerificationInProgress)
	got, err := s.service.NextState(s.ctx, v.ID)
	s.Require().NoError(err)
	return got
}

// atOtp seeds a verification waiting for the user verification code.
func (s *VerificationServiceSuite) atOtp(p *processmodels.Process) *models.Verification {
	v, err := models.NewVerification(id.NewVerificationID(), p.ID, p.UserID, p.ActivationID, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, v))
	ok, err := s.store.UpdateState(s.ctx, v.ID, v.State(), models.StateChange{To: models.StateOtpVerificationPending}, s.now)
	s.Require().NoError(err)
	s.Require().True(ok)
	v.Phase, v.Status = models.StateOtpVerificationPending.Phase, models.StateOtpVerificationPending.Status
	return v
}

func (s *VerificationServiceSuite) lastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Require().NotEmpty(s.codes)
	return s.codes[len(s.codes)-1]
}

func (s *VerificationServiceSuite) eventTypes() []onboarding.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]onboarding.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func (s *VerificationServiceSuite) score(pid id.ProcessID) (int, processmodels.Status) {
	p, err := s.processes.FindByID(s.ctx, pid)
	s.Require().NoError(err)
	return p.ErrorScore, p.Status
}

func (s *VerificationServiceSuite) TestNew() {
	presenceOff, err := presence.New(presence.Disabled{})
	s.Require().NoError(err)
	documents, err := docservice.New(s.docStore, s.docProv)
	s.Require().NoError(err)

	s.Run("presence phase needs an enabled provider", func() {
		_, err := New(s.store, s.process, &otpservice.Service{}, s.hook, documents, presenceOff, tx.NewLockRunner(0))
		s.Require().Error(err)
		s.Contains(err.Error(), "PRESENCE_CHECK")
	})

	s.Run("pipeline without presence accepts a disabled provider", func() {
		pipeline, err := models.ParsePipeline([]string{"DOCUMENT_UPLOAD", "DOCUMENT_VERIFICATION", "OTP_VERIFICATION", "COMPLETED"})
		s.Require().NoError(err)
		_, err = New(s.store, s.process, &otpservice.Service{}, s.hook, documents, presenceOff, tx.NewLockRunner(0), WithPipeline(pipeline))
		s.NoError(err)
	})

	s.Run("runner is required", func() {
		_, err := New(s.store, s.process, &otpservice.Service{}, s.hook, documents, presenceOff, nil)
		s.Require().Error(err)
	})
}

func (s *VerificationServiceSuite) TestAcceptedVerification() {
	p := s.activated()

	v, err := s.service.Init(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StateDocumentUploadInProgress, v.State())

	_, docs, err := s.service.SubmitDocuments(s.ctx, v.ID, identityUploads("ok.jpg"))
	s.Require().NoError(err)
	s.Len(docs, 3)

	s.Run("two-sided documents are paired", func() {
		stored, err := s.docStore.ListByVerification(s.ctx, v.ID)
		s.Require().NoError(err)
		var front, back *docmodels.Document
		for _, d := range stored {
			switch d.Side {
			case docmodels.SideFront:
				front = d
			case docmodels.SideBack:
				back = d
			}
		}
		s.Require().NotNil(front)
		s.Require().NotNil(back)
		s.Equal(back.ID, front.OtherSideID)
		s.Equal(front.ID, back.OtherSideID)
	})

	s.next(v.ID, models.StateDocumentUploadVerificationPending)
	s.next(v.ID, models.StateDocumentVerificationInProgress)
	s.next(v.ID, models.StatePresenceCheckNotInitialized)

	v, session, err := s.service.InitPresenceCheck(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(models.StatePresenceCheckInProgress, v.State())
	s.NotEmpty(session.SessionID)
	s.Contains(v.SessionInfo, session.SessionID)

	v, err = s.service.SubmitPresenceCheck(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(models.StateOtpVerificationPending, v.State())

	s.Run("selfie is stored as a document", func() {
		all, err := s.service.Documents(s.ctx, v.ID)
		s.Require().NoError(err)
		var selfies int
		for _, d := range all {
			if d.Type == docmodels.TypeSelfiePhoto {
				selfies++
				s.Equal(docmodels.StatusAccepted, d.Status)
			}
		}
		s.Equal(1, selfies)
	})

	v, result, err := s.service.VerifyOtp(s.ctx, v.ID, s.lastCode())
	s.Require().NoError(err)
	s.True(result.Matched)
	s.Equal(models.StateCompletedAccepted, v.State())

	score, status := s.score(p.ID)
	s.Equal(0, score)
	s.Equal(processmodels.StatusFinished, status)
	s.Contains(s.eventTypes(), onboarding.EventVerificationAccepted)
	s.Contains(s.eventTypes(), onboarding.EventProcessFinished)
}

func (s *VerificationServiceSuite) TestPipelineWithoutPresenceCheck() {
	pipeline, err := models.ParsePipeline([]string{"DOCUMENT_UPLOAD", "DOCUMENT_VERIFICATION", "OTP_VERIFICATION", "COMPLETED"})
	s.Require().NoError(err)
	s.build(15, pipeline, false)

	v := s.throughDocuments(s.activated(), "ok.jpg")
	s.Equal(models.StateOtpVerificationPending, v.State())
	s.NotEmpty(s.lastCode())
}

func (s *VerificationServiceSuite) TestRejectedDocuments() {
	p := s.activated()
	v := s.throughDocuments(p, "forged.jpg")

	s.Equal(models.StateCompletedRejected, v.State())
	s.Equal("documents rejected", v.RejectReason)
	score, status := s.score(p.ID)
	s.Equal(processmodels.ErrorDocumentVerificationRejected.Weight(), score)
	s.Equal(processmodels.StatusVerificationInProgress, status)
	s.Contains(s.eventTypes(), onboarding.EventVerificationRejected)

	s.Run("provider uploads are cleaned up", func() {
		docs, err := s.docStore.ListByVerification(s.ctx, v.ID)
		s.Require().NoError(err)
		owner, err := v.Owner()
		s.Require().NoError(err)
		_, err = s.docProv.CheckDocumentUpload(s.ctx, owner, docs[0].UploadID)
		s.Error(err)
	})
}

func (s *VerificationServiceSuite) TestFailedUploadBlocksVerification() {
	p := s.activated()
	v, err := s.service.Init(s.ctx, p.ID)
	s.Require().NoError(err)
	_, _, err = s.service.SubmitDocuments(s.ctx, v.ID, []docports.Upload{
		{Type: docmodels.TypePassport, Filename: "passport.jpg"},
		{Type: docmodels.TypeDrivingLicense, Filename: "license-fail.jpg"},
	})
	s.Require().NoError(err)

	s.next(v.ID, models.StateDocumentUploadInProgress)

	s.Run("resubmitting the failed document unblocks it", func() {
		_, _, err := s.service.SubmitDocuments(s.ctx, v.ID, []docports.Upload{
			{Type: docmodels.TypeDrivingLicense, Filename: "license.jpg"},
		})
		s.Require().NoError(err)
		s.next(v.ID, models.StateDocumentUploadVerificationPending)
	})
}

func (s *VerificationServiceSuite) TestClientEvaluationRejects() {
	s.build(15, models.DefaultPipeline(), true)
	s.hook.EXPECT().EvaluateClient(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(onboarding.ClientEvaluation{Accepted: false, Reason: "sanctions list"}, nil)

	p := s.activated()
	v := s.throughDocuments(p, "ok.jpg")

	s.Equal(models.StateCompletedRejected, v.State())
	s.Equal("sanctions list", v.RejectReason)
	score, _ := s.score(p.ID)
	s.Equal(0, score)
}

func (s *VerificationServiceSuite) TestOtpVerification() {
	s.Run("mismatch is scored and keeps waiting", func() {
		p := s.activated()
		v := s.atOtp(p)
		s.Require().NoError(s.service.otp.Send(s.ctx, p, otpmodels.TypeUserVerification))

		got, result, err := s.service.VerifyOtp(s.ctx, v.ID, "wrong")
		s.Require().NoError(err)
		s.False(result.Matched)
		s.Equal(2, result.RemainingAttempts)
		s.Equal(models.StateOtpVerificationPending, got.State())
		score, _ := s.score(p.ID)
		s.Equal(processmodels.ErrorUserVerificationOtpFailed.Weight(), score)
	})

	s.Run("exhausted code fails the verification", func() {
		p := s.activated()
		v := s.atOtp(p)
		s.Require().NoError(s.service.otp.Send(s.ctx, p, otpmodels.TypeUserVerification))

		var got *models.Verification
		for range 3 {
			var err error
			got, _, err = s.service.VerifyOtp(s.ctx, v.ID, "wrong")
			s.Require().NoError(err)
		}
		s.Equal(models.StateCompletedFailed, got.State())
		s.Contains(s.eventTypes(), onboarding.EventVerificationFailed)
	})

	s.Run("expired code is not scored", func() {
		p := s.activated()
		v := s.atOtp(p)
		s.Require().NoError(s.service.otp.Send(s.ctx, p, otpmodels.TypeUserVerification))

		later := requestcontext.WithTime(context.Background(), s.now.Add(6*time.Minute))
		got, result, err := s.service.VerifyOtp(later, v.ID, s.lastCode())
		s.Require().NoError(err)
		s.True(result.Expired)
		s.Equal(models.StateOtpVerificationPending, got.State())
		score, _ := s.score(p.ID)
		s.Equal(0, score)

		s.Require().NoError(s.service.ResendOtp(later, v.ID))
		got, result, err = s.service.VerifyOtp(later, v.ID, s.lastCode())
		s.Require().NoError(err)
		s.True(result.Matched)
		s.Equal(models.StateCompletedAccepted, got.State())
	})
}

func (s *VerificationServiceSuite) TestScoreThresholdFailsProcess() {
	s.build(3, models.DefaultPipeline(), false)
	p := s.activated()
	v := s.atOtp(p)
	s.Require().NoError(s.service.otp.Send(s.ctx, p, otpmodels.TypeUserVerification))

	got, _, err := s.service.VerifyOtp(s.ctx, v.ID, "wrong")
	s.Require().NoError(err)
	s.Equal(models.StateOtpVerificationPending, got.State())
	_, status := s.score(p.ID)
	s.Equal(processmodels.StatusVerificationInProgress, status)

	got, _, err = s.service.VerifyOtp(s.ctx, v.ID, "wrong")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeScoreExceeded))
	s.Require().NotNil(got)
	s.Equal(models.StateCompletedFailed, got.State())

	score, status := s.score(p.ID)
	s.Equal(4, score)
	s.Equal(processmodels.StatusFailed, status)

	stored, err := s.service.Get(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(models.StateCompletedFailed, stored.State())
	s.Contains(stored.ErrorDetail, "reached limit")
}

func (s *VerificationServiceSuite) TestInit() {
	s.Run("requires an activated process", func() {
		p, err := processmodels.NewProcess(id.NewProcessID(), "user-new", processmodels.Correlation{}, s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.processes.Create(s.ctx, p))
		_, err = s.service.Init(s.ctx, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("unknown process", func() {
		_, err := s.service.Init(s.ctx, id.NewProcessID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("reset fails the running verification and is scored", func() {
		p := s.activated()
		first, err := s.service.Init(s.ctx, p.ID)
		s.Require().NoError(err)
		second, err := s.service.Init(s.ctx, p.ID)
		s.Require().NoError(err)
		s.NotEqual(first.ID, second.ID)

		old, err := s.service.Get(s.ctx, first.ID)
		s.Require().NoError(err)
		s.Equal(models.StateCompletedFailed, old.State())
		s.Equal("reset", old.ErrorDetail)

		latest, err := s.service.Latest(s.ctx, p.ActivationID)
		s.Require().NoError(err)
		s.Equal(second.ID, latest.ID)

		score, _ := s.score(p.ID)
		s.Equal(processmodels.ErrorIdentityVerificationReset.Weight(), score)
	})
}

func (s *VerificationServiceSuite) TestResetPastLimitCreatesNothing() {
	s.build(3, models.DefaultPipeline(), false)
	p := s.activated()
	first, err := s.service.Init(s.ctx, p.ID)
	s.Require().NoError(err)

	_, err = s.service.Init(s.ctx, p.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeScoreExceeded))

	latest, err := s.service.Latest(s.ctx, p.ActivationID)
	s.Require().NoError(err)
	s.Equal(first.ID, latest.ID)
	s.Equal(models.StateCompletedFailed, latest.State())
	_, status := s.score(p.ID)
	s.Equal(processmodels.StatusFailed, status)
}

func (s *VerificationServiceSuite) TestInvalidEventsLeaveStateAlone() {
	p := s.activated()
	v, err := s.service.Init(s.ctx, p.ID)
	s.Require().NoError(err)

	_, _, err = s.service.VerifyOtp(s.ctx, v.ID, "123456")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	_, err = s.service.SubmitPresenceCheck(s.ctx, v.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	s.Run("next state without documents is a no-op", func() {
		s.next(v.ID, models.StateDocumentUploadInProgress)
	})

	got, err := s.service.Get(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(models.StateDocumentUploadInProgress, got.State())
	score, _ := s.score(p.ID)
	s.Equal(0, score)
}

func (s *VerificationServiceSuite) TestExpireOverdue() {
	window := time.Hour
	p := s.activated()
	v, err := s.service.Init(s.ctx, p.ID)
	s.Require().NoError(err)

	s.Run("untouched before the window ends", func() {
		early := requestcontext.WithTime(context.Background(), s.now.Add(window-time.Second))
		refs, err := s.service.ExpireOverdue(early, window)
		s.Require().NoError(err)
		s.Empty(refs)
	})

	s.Run("failed once the window ends", func() {
		due := requestcontext.WithTime(context.Background(), s.now.Add(window))
		refs, err := s.service.ExpireOverdue(due, window)
		s.Require().NoError(err)
		s.Require().Len(refs, 1)
		s.Equal(v.ID, refs[0].ID)

		got, err := s.service.Get(s.ctx, v.ID)
		s.Require().NoError(err)
		s.Equal(models.StateCompletedFailed, got.State())
		s.Contains(s.eventTypes(), onboarding.EventVerificationExpired)
	})
}

func (s *VerificationServiceSuite) TestCancelingProcessFailsVerification() {
	p := s.activated()
	v, err := s.service.Init(s.ctx, p.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.process.Cancel(s.ctx, p.ID))

	got, err := s.service.Get(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(models.StateCompletedFailed, got.State())
	s.Equal("canceled", got.ErrorDetail)

	_, _, err = s.service.SubmitDocuments(s.ctx, v.ID, identityUploads("ok.jpg"))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *VerificationServiceSuite) TestLostTransitionCommitsNothing() {
	s.build(2, models.DefaultPipeline(), false)
	p := s.activated()
	v := s.atOtp(p)
	s.Require().NoError(s.service.otp.Send(s.ctx, p, otpmodels.TypeUserVerification))

	s.Run("scored mismatch over the limit is undone", func() {
		_, _, err := s.over(lostUpdateStore{s.store}).VerifyOtp(s.ctx, v.ID, "wrong")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		score, status := s.score(p.ID)
		s.Zero(score)
		s.Equal(processmodels.StatusVerificationInProgress, status)

		stored, err := s.service.Get(s.ctx, v.ID)
		s.Require().NoError(err)
		s.Equal(models.StateOtpVerificationPending, stored.State())

		code, err := s.otpStore.FindActive(s.ctx, p.ID, otpmodels.TypeUserVerification)
		s.Require().NoError(err)
		s.Zero(code.FailedAttempts)

		s.NotContains(s.eventTypes(), onboarding.EventProcessFailed)
		s.NotContains(s.eventTypes(), onboarding.EventVerificationFailed)
	})

	s.Run("matching code is still usable after the lost write", func() {
		_, _, err := s.over(lostUpdateStore{s.store}).VerifyOtp(s.ctx, v.ID, s.lastCode())
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		_, status := s.score(p.ID)
		s.Equal(processmodels.StatusVerificationInProgress, status)
		s.NotContains(s.eventTypes(), onboarding.EventProcessFinished)

		got, result, err := s.service.VerifyOtp(s.ctx, v.ID, s.lastCode())
		s.Require().NoError(err)
		s.True(result.Matched)
		s.Equal(models.StateCompletedAccepted, got.State())
		_, status = s.score(p.ID)
		s.Equal(processmodels.StatusFinished, status)
		s.Contains(s.eventTypes(), onboarding.EventProcessFinished)
	})
}

func (s *VerificationServiceSuite) TestStaleVerificationIsRejected() {
	p := s.activated()
	v := s.atOtp(p)
	ok, err := s.store.UpdateState(s.ctx, v.ID, v.State(), models.StateChange{To: models.StateCompletedFailed, ErrorDetail: "elsewhere"}, s.now)
	s.Require().NoError(err)
	s.Require().True(ok)

	checked := false
	_, err = s.service.commit(s.ctx, v, statemachine.EventOtpVerify, step{
		facts: func(context.Context) (statemachine.Facts, error) {
			checked = true
			return statemachine.Facts{Otp: statemachine.OtpMismatch}, nil
		},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.False(checked, "facts are not loaded for a stale verification")

	score, _ := s.score(p.ID)
	s.Zero(score)
	stored, err := s.service.Get(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(models.StateCompletedFailed, stored.State())
	s.Equal("elsewhere", stored.ErrorDetail)
}

func (s *VerificationServiceSuite) TestConcurrentOtpVerifyTransitionsOnce() {
	p := s.activated()
	v := s.atOtp(p)
	s.Require().NoError(s.service.otp.Send(s.ctx, p, otpmodels.TypeUserVerification))
	code := s.lastCode()

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		failures []error
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _, err := s.service.VerifyOtp(s.ctx, v.ID, code)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			if got.State() == models.StateCompletedAccepted {
				accepted++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, accepted)
	s.Len(failures, callers-1)
	for _, err := range failures {
		s.True(dErrors.HasCode(err, dErrors.CodeConflict) || dErrors.HasCode(err, dErrors.CodeInvalidState), err.Error())
	}

	score, status := s.score(p.ID)
	s.Zero(score)
	s.Equal(processmodels.StatusFinished, status)
	finished := 0
	for _, t := range s.eventTypes() {
		if t == onboarding.EventProcessFinished {
			finished++
		}
	}
	s.Equal(1, finished)
}
