package service

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	docmodels "onboarding/internal/document/models"
	docports "onboarding/internal/document/ports"
	docservice "onboarding/internal/document/service"
	"onboarding/internal/onboarding"
	otpmodels "onboarding/internal/otp/models"
	"onboarding/internal/presence"
	presenceports "onboarding/internal/presence/ports"
	processmodels "onboarding/internal/process/models"
	"onboarding/internal/providers"
	"onboarding/internal/verification/metrics"
	"onboarding/internal/verification/models"
	"onboarding/internal/verification/statemachine"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/platform/tx"
	"onboarding/pkg/requestcontext"
)

// Store persists verifications. State moves are conditional on the prior
// state and report whether the row moved.
type Store interface {
	Create(ctx context.Context, v *models.Verification) error
	FindByID(ctx context.Context, verificationID id.VerificationID) (*models.Verification, error)
	FindLatestByActivation(ctx context.Context, activationID id.ActivationID) (*models.Verification, error)
	FindRunningByProcess(ctx context.Context, processID id.ProcessID) (*models.Verification, error)
	UpdateState(ctx context.Context, verificationID id.VerificationID, from models.State, change models.StateChange, now time.Time) (bool, error)
	StreamByState(ctx context.Context, state models.State) iter.Seq2[*models.Verification, error]
	FailRunningCreatedBefore(ctx context.Context, cutoff time.Time, detail string, now time.Time) ([]models.ExpiredRef, error)
	FailRunningByProcess(ctx context.Context, processID id.ProcessID, detail string, now time.Time) ([]models.ExpiredRef, error)
}

// ProcessService is the process lifecycle and error scoring.
type ProcessService interface {
	Get(ctx context.Context, processID id.ProcessID) (*processmodels.Process, error)
	RecordError(ctx context.Context, processID id.ProcessID, errType processmodels.ErrorType) (int, error)
	Finish(ctx context.Context, processID id.ProcessID) error
}

// OtpService issues and checks the user verification code.
type OtpService interface {
	Send(ctx context.Context, p *processmodels.Process, otpType otpmodels.Type) error
	Resend(ctx context.Context, p *processmodels.Process, otpType otpmodels.Type) error
	Verify(ctx context.Context, processID id.ProcessID, owner id.OwnerID, code string, otpType otpmodels.Type) (otpmodels.VerifyResult, error)
}

// Hook is the part of the onboarding subsystem verification calls.
type Hook interface {
	EvaluateClient(ctx context.Context, owner id.OwnerID, verificationID id.VerificationID) (onboarding.ClientEvaluation, error)
	ProcessEvent(ctx context.Context, event onboarding.Event) error
}

// Documents is the document pipeline.
type Documents interface {
	ProviderName() string
	Submit(ctx context.Context, owner id.OwnerID, verificationID id.VerificationID, uploads []docports.Upload) (*docservice.Submission, error)
	Persist(ctx context.Context, sub *docservice.Submission) ([]*docmodels.Document, error)
	Pair(ctx context.Context, verificationID id.VerificationID) error
	Documents(ctx context.Context, verificationID id.VerificationID) ([]*docmodels.Document, error)
	AllDocuments(ctx context.Context, verificationID id.VerificationID) ([]*docmodels.Document, error)
	CheckUpload(ctx context.Context, owner id.OwnerID, doc *docmodels.Document) (bool, error)
	RequestVerification(ctx context.Context, owner id.OwnerID, verificationID id.VerificationID) (docports.VerificationHandle, []*docmodels.Document, error)
	MarkInVerification(ctx context.Context, handle docports.VerificationHandle, docs []*docmodels.Document) error
	PollResult(ctx context.Context, owner id.OwnerID, verificationID id.VerificationID) (docservice.Aggregate, error)
	ReferencePhoto(ctx context.Context, verificationID id.VerificationID) ([]byte, error)
	RecordSelfie(ctx context.Context, verificationID id.VerificationID, activationID id.ActivationID, providerName, captureRef string) error
	Cleanup(ctx context.Context, owner id.OwnerID, uploadIDs []string)
}

// Presence is the presence check adapter.
type Presence interface {
	Enabled() bool
	ProviderName() string
	Init(ctx context.Context, owner id.OwnerID, referencePhoto []byte) error
	Start(ctx context.Context, owner id.OwnerID) (presenceports.SessionInfo, error)
	GetResult(ctx context.Context, owner id.OwnerID, session presenceports.SessionInfo) (presenceports.Result, error)
	Cleanup(ctx context.Context, owner id.OwnerID, session presenceports.SessionInfo)
}

// Service drives identity verifications through the transition table.
//
// Provider calls run before the unit of work. Inside it, under the
// activation's lock, the service reloads the verification and the facts the
// guards need, fires the event, records any error score, runs the in-tx
// effect and moves the state conditionally. Provider cleanup, events and
// code delivery follow the commit.
type Service struct {
	store     Store
	processes ProcessService
	otp       OtpService
	hook      Hook
	documents Documents
	presence  Presence
	tx        tx.Runner
	machine   *statemachine.Machine
	logger    *slog.Logger
	metrics   *metrics.Metrics

	clientEvaluation bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPipeline sets the phase order.
func WithPipeline(p models.Pipeline) Option {
	return func(s *Service) {
		s.machine = statemachine.New(p)
	}
}

// WithClientEvaluation asks the onboarding subsystem to evaluate the client
// once the documents are accepted.
func WithClientEvaluation(enabled bool) Option {
	return func(s *Service) {
		s.clientEvaluation = enabled
	}
}

func New(store Store, processes ProcessService, otp OtpService, hook Hook, documents Documents, presenceCheck Presence, runner tx.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("verification store is required")
	}
	if processes == nil {
		return nil, errors.New("process service is required")
	}
	if otp == nil {
		return nil, errors.New("otp service is required")
	}
	if hook == nil {
		return nil, errors.New("onboarding hook is required")
	}
	if documents == nil {
		return nil, errors.New("document pipeline is required")
	}
	if presenceCheck == nil {
		return nil, errors.New("presence adapter is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	svc := &Service{
		store:     store,
		processes: processes,
		otp:       otp,
		hook:      hook,
		documents: documents,
		presence:  presenceCheck,
		tx:        runner,
		machine:   statemachine.New(models.DefaultPipeline()),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.machine.Pipeline().Has(models.PhasePresenceCheck) && !presenceCheck.Enabled() {
		return nil, errors.New("pipeline includes PRESENCE_CHECK but the presence check provider is disabled")
	}
	return svc, nil
}

// Get loads a verification.
func (s *Service) Get(ctx context.Context, verificationID id.VerificationID) (*models.Verification, error) {
	v, err := s.store.FindByID(ctx, verificationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load verification")
	}
	return v, nil
}

// Latest returns the most recent verification of an activation.
func (s *Service) Latest(ctx context.Context, activationID id.ActivationID) (*models.Verification, error) {
	v, err := s.store.FindLatestByActivation(ctx, activationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load verification")
	}
	return v, nil
}

// Documents lists every document of a verification.
func (s *Service) Documents(ctx context.Context, verificationID id.VerificationID) ([]*docmodels.Document, error) {
	if _, err := s.Get(ctx, verificationID); err != nil {
		return nil, err
	}
	return s.documents.AllDocuments(ctx, verificationID)
}

// Init starts a verification for an activated process. A previous attempt
// that was not accepted is a reset: a running one is failed, and the reset
// is scored. When the reset exhausts the error score no new verification is
// created.
func (s *Service) Init(ctx context.Context, processID id.ProcessID) (*models.Verification, error) {
	p, err := s.processes.Get(ctx, processID)
	if err != nil {
		return nil, err
	}
	if _, err := s.machine.Fire(models.StateInitial, statemachine.EventInit, statemachine.Facts{
		ProcessRunning: p.Status == processmodels.StatusVerificationInProgress,
	}); err != nil {
		s.metrics.IncrementRejected(string(statemachine.EventInit), "invalid_state")
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidState, "process is not in identity verification")
	}

	var (
		created  *models.Verification
		previous *models.Verification
		exceeded error
	)
	err = s.tx.RunInTx(tx.WithLockKey(ctx, p.ActivationID.String()), func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		latest, err := s.store.FindLatestByActivation(ctx, p.ActivationID)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
		case err != nil:
			return dErrors.Wrap(err, dErrors.CodeInternal, "load previous verification")
		case latest.State() == models.StateCompletedAccepted:
			return dErrors.New(dErrors.CodeInvalidState, "identity verification already accepted")
		default:
			previous = latest
			if !latest.State().IsTerminal() {
				ok, err := s.store.UpdateState(ctx, latest.ID, latest.State(), models.StateChange{
					To:          models.StateCompletedFailed,
					ErrorDetail: "reset",
				}, now)
				if err != nil {
					return dErrors.Wrap(err, dErrors.CodeInternal, "fail previous verification")
				}
				if !ok {
					return dErrors.New(dErrors.CodeConflict, "previous verification changed during reset")
				}
			}
			if _, err := s.processes.RecordError(ctx, processID, processmodels.ErrorIdentityVerificationReset); err != nil {
				if !dErrors.HasCode(err, dErrors.CodeScoreExceeded) {
					return err
				}
				exceeded = err
				return nil
			}
		}

		v, err := models.NewVerification(id.NewVerificationID(), p.ID, p.UserID, p.ActivationID, now)
		if err != nil {
			return err
		}
		if err := s.store.Create(ctx, v); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Wrap(err, dErrors.CodeConflict, "verification already running")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "create verification")
		}
		created = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous != nil && !previous.State().IsTerminal() {
		s.metrics.IncrementTransition(previous.State().String(), models.StateCompletedFailed.String(), string(statemachine.EventInit))
		s.cleanupProviders(ctx, previous)
	}
	if exceeded != nil {
		return nil, exceeded
	}
	s.metrics.IncrementTransition(models.StateInitial.String(), created.State().String(), string(statemachine.EventInit))
	s.logger.InfoContext(ctx, "verification started",
		"process_id", p.ID.String(),
		"verification_id", created.ID.String(),
		"activation_id", p.ActivationID.String(),
		"reset", previous != nil,
	)
	return created, nil
}

// SubmitDocuments hands uploads to the document provider and records them.
// If the commit fails the provider-side uploads are cleaned up.
func (s *Service) SubmitDocuments(ctx context.Context, verificationID id.VerificationID, uploads []docports.Upload) (*models.Verification, []*docmodels.Document, error) {
	v, owner, err := s.load(ctx, verificationID, statemachine.EventDocumentsSubmitted)
	if err != nil {
		return nil, nil, err
	}
	sub, err := s.documents.Submit(ctx, owner, verificationID, uploads)
	if err != nil {
		return nil, nil, err
	}

	var disposed []*docmodels.Document
	updated, err := s.commit(ctx, v, statemachine.EventDocumentsSubmitted, step{
		facts: s.processFacts(v.ProcessID),
		effect: func(ctx context.Context, _ statemachine.Transition, _ *models.StateChange) error {
			var err error
			if disposed, err = s.documents.Persist(ctx, sub); err != nil {
				return err
			}
			return s.documents.Pair(ctx, verificationID)
		},
	})
	if err != nil {
		s.documents.Cleanup(ctx, owner, sub.UploadIDs())
		return nil, nil, err
	}
	if len(disposed) > 0 {
		ids := make([]string, 0, len(disposed))
		for _, d := range disposed {
			ids = append(ids, d.UploadID)
		}
		s.documents.Cleanup(ctx, owner, ids)
	}
	return updated, sub.Documents, nil
}

// NextState advances a verification without user input: it checks uploads,
// starts and polls provider verification and collects presence results.
// Nothing to do is not an error.
func (s *Service) NextState(ctx context.Context, verificationID id.VerificationID) (*models.Verification, error) {
	v, err := s.Get(ctx, verificationID)
	if err != nil {
		return nil, err
	}
	owner, err := v.Owner()
	if err != nil {
		return nil, err
	}

	switch v.State() {
	case models.StateDocumentUploadInProgress:
		if err := s.checkUploads(ctx, owner, verificationID); err != nil {
			return nil, err
		}
		return s.commit(ctx, v, statemachine.EventNextState, step{facts: s.documentFacts(verificationID, false)})

	case models.StateDocumentUploadVerificationPending:
		handle, pending, err := s.documents.RequestVerification(ctx, owner, verificationID)
		if err != nil {
			return nil, err
		}
		return s.commit(ctx, v, statemachine.EventNextState, step{
			effect: func(ctx context.Context, _ statemachine.Transition, _ *models.StateChange) error {
				return s.documents.MarkInVerification(ctx, handle, pending)
			},
		})

	case models.StateDocumentVerificationInProgress:
		agg, err := s.documents.PollResult(ctx, owner, verificationID)
		if err != nil {
			return nil, err
		}
		clientRejected := false
		var reason string
		if !agg.Pending && s.clientEvaluation {
			if clientRejected, reason, err = s.evaluateClient(ctx, owner, verificationID); err != nil {
				return nil, err
			}
		}
		return s.commit(ctx, v, statemachine.EventNextState, step{
			facts: s.documentFacts(verificationID, clientRejected),
			effect: func(_ context.Context, tr statemachine.Transition, change *models.StateChange) error {
				if clientRejected && tr.To == models.StateCompletedRejected && reason != "" {
					change.RejectReason = reason
				}
				return nil
			},
		})

	case models.StatePresenceCheckVerificationPending:
		return s.collectPresence(ctx, v, owner, statemachine.EventNextState)
	}

	s.metrics.IncrementRejected(string(statemachine.EventNextState), "noop")
	return v, nil
}

func (s *Service) checkUploads(ctx context.Context, owner id.OwnerID, verificationID id.VerificationID) error {
	docs, err := s.documents.Documents(ctx, verificationID)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if d.Status != docmodels.StatusUploadInProgress {
			continue
		}
		if _, err := s.documents.CheckUpload(ctx, owner, d); err != nil {
			return err
		}
	}
	return nil
}

// evaluateClient runs the client evaluation once every document is accepted
// with enough coverage.
func (s *Service) evaluateClient(ctx context.Context, owner id.OwnerID, verificationID id.VerificationID) (bool, string, error) {
	docs, err := s.documents.Documents(ctx, verificationID)
	if err != nil {
		return false, "", err
	}
	if !docmodels.AllInStatus(docs, docmodels.StatusAccepted) || !docmodels.HasIdentityCoverage(docs) {
		return false, "", nil
	}
	eval, err := s.hook.EvaluateClient(ctx, owner, verificationID)
	if err != nil {
		return false, "", dErrors.Wrap(err, dErrors.CodeOf(err), "evaluate client")
	}
	return !eval.Accepted, eval.Reason, nil
}

// InitPresenceCheck hands the reference portrait to the presence provider and
// opens a capture session.
func (s *Service) InitPresenceCheck(ctx context.Context, verificationID id.VerificationID) (*models.Verification, presenceports.SessionInfo, error) {
	if !s.presence.Enabled() {
		return nil, presenceports.SessionInfo{}, dErrors.New(dErrors.CodeNotEnabled, "presence check is not enabled")
	}
	v, owner, err := s.load(ctx, verificationID, statemachine.EventPresenceCheckInit)
	if err != nil {
		return nil, presenceports.SessionInfo{}, err
	}
	photo, err := s.documents.ReferencePhoto(ctx, verificationID)
	if err != nil {
		return nil, presenceports.SessionInfo{}, err
	}
	if err := s.presence.Init(ctx, owner, photo); err != nil {
		return nil, presenceports.SessionInfo{}, err
	}
	session, err := s.presence.Start(ctx, owner)
	if err != nil {
		return nil, presenceports.SessionInfo{}, err
	}
	encoded, err := presence.EncodeSession(session)
	if err != nil {
		return nil, presenceports.SessionInfo{}, err
	}

	updated, err := s.commit(ctx, v, statemachine.EventPresenceCheckInit, step{
		facts: func(context.Context) (statemachine.Facts, error) {
			return statemachine.Facts{PresenceEnabled: s.presence.Enabled()}, nil
		},
		effect: func(_ context.Context, _ statemachine.Transition, change *models.StateChange) error {
			change.SessionInfo = &encoded
			return nil
		},
	})
	if err != nil {
		s.presence.Cleanup(ctx, owner, session)
		return nil, presenceports.SessionInfo{}, err
	}
	return updated, session, nil
}

// SubmitPresenceCheck collects the result of a capture the user finished.
func (s *Service) SubmitPresenceCheck(ctx context.Context, verificationID id.VerificationID) (*models.Verification, error) {
	v, owner, err := s.load(ctx, verificationID, statemachine.EventPresenceCheckSubmitted)
	if err != nil {
		return nil, err
	}
	return s.collectPresence(ctx, v, owner, statemachine.EventPresenceCheckSubmitted)
}

func (s *Service) collectPresence(ctx context.Context, v *models.Verification, owner id.OwnerID, event statemachine.Event) (*models.Verification, error) {
	session, err := presence.DecodeSession(v.SessionInfo)
	if err != nil {
		return nil, err
	}
	outcome := statemachine.PresenceFailed
	var result presenceports.Result
	result, err = s.presence.GetResult(ctx, owner, session)
	var pe *providers.ProviderError
	switch {
	case err == nil:
		outcome = statemachine.PresenceOutcome(result.Status)
	case errors.As(err, &pe) && !pe.Retryable:
		s.logger.WarnContext(ctx, "presence check failed at provider",
			"verification_id", v.ID.String(),
			"category", string(pe.Category),
			"error", err,
		)
	default:
		return nil, err
	}

	updated, err := s.commit(ctx, v, event, step{
		facts: func(context.Context) (statemachine.Facts, error) {
			return statemachine.Facts{Presence: outcome}, nil
		},
		effect: func(ctx context.Context, tr statemachine.Transition, change *models.StateChange) error {
			switch tr.Action {
			case statemachine.ActionStoreSelfie:
				return s.documents.RecordSelfie(ctx, v.ID, v.ActivationID, s.presence.ProviderName(), result.SelfieRef)
			}
			if outcome == statemachine.PresenceRejected {
				change.RejectReason = result.Reason
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	if outcome == statemachine.PresenceAccepted && !updated.State().IsTerminal() {
		s.presence.Cleanup(ctx, owner, session)
	}
	return updated, nil
}

// ResendOtp delivers a fresh user verification code.
func (s *Service) ResendOtp(ctx context.Context, verificationID id.VerificationID) error {
	v, _, err := s.load(ctx, verificationID, statemachine.EventOtpResend)
	if err != nil {
		return err
	}
	p, err := s.processes.Get(ctx, v.ProcessID)
	if err != nil {
		return err
	}
	if _, err := s.machine.Fire(v.State(), statemachine.EventOtpResend, statemachine.Facts{ProcessRunning: p.Status.IsRunning()}); err != nil {
		s.metrics.IncrementRejected(string(statemachine.EventOtpResend), "invalid_state")
		return err
	}
	return s.otp.Resend(ctx, p, otpmodels.TypeUserVerification)
}

// VerifyOtp checks the user verification code. A match completes the
// verification; a mismatch is scored and an exhausted code fails it. An
// expired code only needs a resend.
func (s *Service) VerifyOtp(ctx context.Context, verificationID id.VerificationID, code string) (*models.Verification, otpmodels.VerifyResult, error) {
	v, owner, err := s.load(ctx, verificationID, statemachine.EventOtpVerify)
	if err != nil {
		return nil, otpmodels.VerifyResult{}, err
	}
	var result otpmodels.VerifyResult
	updated, err := s.commit(ctx, v, statemachine.EventOtpVerify, step{
		// the code is consumed in the same unit as the transition
		facts: func(ctx context.Context) (statemachine.Facts, error) {
			var err error
			result, err = s.otp.Verify(ctx, v.ProcessID, owner, code, otpmodels.TypeUserVerification)
			if err != nil {
				return statemachine.Facts{}, err
			}
			outcome := statemachine.OtpMismatch
			switch {
			case result.Matched:
				outcome = statemachine.OtpMatched
			case result.Expired:
				outcome = statemachine.OtpExpired
			case result.RemainingAttempts == 0:
				outcome = statemachine.OtpExhausted
			}
			return statemachine.Facts{Otp: outcome}, nil
		},
	})
	if err != nil && updated == nil {
		return nil, otpmodels.VerifyResult{}, err
	}
	return updated, result, err
}

// FailRunning fails the running verification of a process that is failed
// from outside the verification flow.
func (s *Service) FailRunning(ctx context.Context, processID id.ProcessID, detail string) error {
	refs, err := s.store.FailRunningByProcess(ctx, processID, detail, requestcontext.Now(ctx))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "fail running verification")
	}
	tx.AfterCommit(ctx, func(ctx context.Context) {
		for _, ref := range refs {
			s.metrics.IncrementCompleted(string(models.StatusFailed))
			s.cleanupRef(ctx, ref)
			s.logger.InfoContext(ctx, "verification failed with process",
				"process_id", processID.String(),
				"verification_id", ref.ID.String(),
				"detail", detail,
			)
		}
	})
	return nil
}

// ExpireOverdue fails every running verification created at or before
// now minus window, cleans up their provider data and emits an expiry event
// for each.
func (s *Service) ExpireOverdue(ctx context.Context, window time.Duration) ([]models.ExpiredRef, error) {
	now := requestcontext.Now(ctx)
	refs, err := s.store.FailRunningCreatedBefore(ctx, now.Add(-window), "verification expired", now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "expire verifications")
	}
	tx.AfterCommit(ctx, func(ctx context.Context) {
		for _, ref := range refs {
			s.metrics.IncrementCompleted(string(models.StatusFailed))
			s.cleanupRef(ctx, ref)
			onboarding.Emit(ctx, s.logger, s.hook, onboarding.Event{
				Type:           onboarding.EventVerificationExpired,
				ProcessID:      ref.ProcessID,
				UserID:         ref.UserID,
				ActivationID:   ref.ActivationID,
				VerificationID: ref.ID,
				Status:         models.StateCompletedFailed.String(),
				Detail:         "verification expired",
			})
		}
	})
	return refs, nil
}

// Stalled streams verifications waiting in state for a NEXT_STATE event.
func (s *Service) Stalled(ctx context.Context, state models.State) iter.Seq2[*models.Verification, error] {
	return s.store.StreamByState(ctx, state)
}

// load fetches the verification and checks that event is possible in its
// state before any provider is called.
func (s *Service) load(ctx context.Context, verificationID id.VerificationID, event statemachine.Event) (*models.Verification, id.OwnerID, error) {
	v, err := s.Get(ctx, verificationID)
	if err != nil {
		return nil, id.OwnerID{}, err
	}
	if !statemachine.CanFire(v.State(), event) {
		s.metrics.IncrementRejected(string(event), "invalid_state")
		return nil, id.OwnerID{}, dErrors.New(dErrors.CodeInvalidState, string(event)+" is not valid in "+v.State().String())
	}
	owner, err := v.Owner()
	if err != nil {
		return nil, id.OwnerID{}, err
	}
	return v, owner, nil
}

func (s *Service) processFacts(processID id.ProcessID) func(context.Context) (statemachine.Facts, error) {
	return func(ctx context.Context) (statemachine.Facts, error) {
		p, err := s.processes.Get(ctx, processID)
		if err != nil {
			return statemachine.Facts{}, err
		}
		return statemachine.Facts{ProcessRunning: p.Status == processmodels.StatusVerificationInProgress}, nil
	}
}

func (s *Service) documentFacts(verificationID id.VerificationID, clientRejected bool) func(context.Context) (statemachine.Facts, error) {
	return func(ctx context.Context) (statemachine.Facts, error) {
		docs, err := s.documents.Documents(ctx, verificationID)
		if err != nil {
			return statemachine.Facts{}, err
		}
		return statemachine.Facts{Documents: docs, ClientRejected: clientRejected}, nil
	}
}
