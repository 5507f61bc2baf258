package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"onboarding/internal/onboarding"
	otpmodels "onboarding/internal/otp/models"
	"onboarding/internal/process/metrics"
	"onboarding/internal/process/models"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/platform/tx"
	"onboarding/pkg/requestcontext"
)

// Store persists processes. Status changes are conditional and report
// whether the row moved. AddErrorScore leaves the score of a final process
// unchanged.
type Store interface {
	Create(ctx context.Context, p *models.Process) error
	FindByID(ctx context.Context, processID id.ProcessID) (*models.Process, error)
	FindRunningByUser(ctx context.Context, userID id.UserID) (*models.Process, error)
	Activate(ctx context.Context, processID id.ProcessID, activationID id.ActivationID, now time.Time) (bool, error)
	Finish(ctx context.Context, processID id.ProcessID, now time.Time) (bool, error)
	Fail(ctx context.Context, processID id.ProcessID, origin models.FailureOrigin, detail string, now time.Time) (bool, error)
	AddErrorScore(ctx context.Context, processID id.ProcessID, weight int, now time.Time) (int, error)
	StreamCreatedBefore(ctx context.Context, status models.Status, cutoff time.Time) iter.Seq2[*models.Process, error]
}

// OtpService issues and checks the process's one-time codes.
type OtpService interface {
	Send(ctx context.Context, p *models.Process, otpType otpmodels.Type) error
	Resend(ctx context.Context, p *models.Process, otpType otpmodels.Type) error
	Verify(ctx context.Context, processID id.ProcessID, owner id.OwnerID, code string, otpType otpmodels.Type) (otpmodels.VerifyResult, error)
	Cancel(ctx context.Context, processID id.ProcessID) error
}

// Hook is the part of the onboarding subsystem the process lifecycle calls.
type Hook interface {
	LookupUser(ctx context.Context, req onboarding.LookupRequest) (id.UserID, error)
	ApproveConsent(ctx context.Context, approval onboarding.ConsentApproval) error
	ProcessEvent(ctx context.Context, event onboarding.Event) error
}

// VerificationTerminator fails the running identity verification of a
// process that is being failed from outside the verification flow.
type VerificationTerminator interface {
	FailRunning(ctx context.Context, processID id.ProcessID, detail string) error
}

// StartRequest identifies the user and captures request correlation.
type StartRequest struct {
	Identifier   string
	Locale       string
	FraudSignals map[string]string
}

// Service owns the process lifecycle and the error-score termination policy.
type Service struct {
	store      Store
	otp        OtpService
	hook       Hook
	terminator VerificationTerminator
	tx         tx.Runner
	logger     *slog.Logger
	metrics    *metrics.Metrics
	scoreLimit int
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

// WithErrorScoreLimit sets the cumulative score at which a process is failed.
func WithErrorScoreLimit(limit int) Option {
	return func(s *Service) {
		s.scoreLimit = limit
	}
}

// WithRunner sets the unit of work the activation check runs in. The store and
// the otp store must join the same unit.
func WithRunner(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func WithVerificationTerminator(t VerificationTerminator) Option {
	return func(s *Service) {
		s.terminator = t
	}
}

const DefaultErrorScoreLimit = 15

func New(store Store, otp OtpService, hook Hook, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("process store is required")
	}
	if otp == nil {
		return nil, errors.New("otp service is required")
	}
	if hook == nil {
		return nil, errors.New("onboarding hook is required")
	}
	svc := &Service{
		store:      store,
		otp:        otp,
		hook:       hook,
		tx:         tx.NewLockRunner(0),
		logger:     slog.New(slog.DiscardHandler),
		scoreLimit: DefaultErrorScoreLimit,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.scoreLimit <= 0 {
		return nil, errors.New("error score limit must be positive")
	}
	return svc, nil
}

// SetVerificationTerminator wires the terminator after construction, for
// callers whose terminator itself depends on this service.
func (s *Service) SetVerificationTerminator(t VerificationTerminator) {
	s.terminator = t
}

// Start resolves the user and opens a process awaiting activation, sending
// the activation code. A user with a running process gets that process back;
// if it still awaits activation the code is resent.
func (s *Service) Start(ctx context.Context, req StartRequest) (*models.Process, error) {
	if strings.TrimSpace(req.Identifier) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "user identifier is required")
	}
	userID, err := s.hook.LookupUser(ctx, onboarding.LookupRequest{Identifier: req.Identifier, Locale: req.Locale})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeOf(err), "lookup user")
	}

	existing, err := s.store.FindRunningByUser(ctx, userID)
	switch {
	case err == nil:
		return s.restart(ctx, existing)
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find running process")
	}

	now := requestcontext.Now(ctx)
	correlation := models.NewCorrelation(req.Locale, requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx), req.FraudSignals)
	p, err := models.NewProcess(id.NewProcessID(), userID, correlation, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "process already running for user")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create process")
	}
	s.metrics.IncrementStarted()
	s.logger.InfoContext(ctx, "process started",
		"process_id", p.ID.String(),
		"device", correlation.Device,
	)

	if err := s.otp.Send(ctx, p, otpmodels.TypeActivation); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) restart(ctx context.Context, p *models.Process) (*models.Process, error) {
	if p.Status == models.StatusActivationInProgress {
		if err := s.otp.Resend(ctx, p, otpmodels.TypeActivation); err != nil {
			return nil, err
		}
	}
	s.logger.InfoContext(ctx, "process resumed", "process_id", p.ID.String(), "status", string(p.Status))
	return p, nil
}

// VerifyActivationOtp checks the activation code. A match binds activationID
// and moves the process into identity verification. A mismatch is scored;
// an exhausted code fails the process. An expired code only needs a resend.
// The code is consumed only if the process write commits with it.
func (s *Service) VerifyActivationOtp(ctx context.Context, processID id.ProcessID, activationID id.ActivationID, code string) (otpmodels.VerifyResult, error) {
	var (
		result   otpmodels.VerifyResult
		exceeded error
	)
	err := s.tx.RunInTx(tx.WithLockKey(ctx, processID.String()), func(ctx context.Context) error {
		var err error
		result, err = s.verifyActivationOtp(ctx, processID, activationID, code)
		if dErrors.HasCode(err, dErrors.CodeScoreExceeded) {
			// the failure it caused still commits
			exceeded = err
			return nil
		}
		return err
	})
	if err != nil {
		return otpmodels.VerifyResult{}, err
	}
	if exceeded != nil {
		return result, exceeded
	}
	if result.Matched {
		s.logger.InfoContext(ctx, "process activated",
			"process_id", processID.String(),
			"activation_id", activationID.String(),
		)
	}
	return result, nil
}

func (s *Service) verifyActivationOtp(ctx context.Context, processID id.ProcessID, activationID id.ActivationID, code string) (otpmodels.VerifyResult, error) {
	p, err := s.Get(ctx, processID)
	if err != nil {
		return otpmodels.VerifyResult{}, err
	}
	if p.Status != models.StatusActivationInProgress {
		return otpmodels.VerifyResult{}, dErrors.New(dErrors.CodeInvalidState, "process is not awaiting activation")
	}
	owner, err := id.NewOwnerID(p.UserID, activationID)
	if err != nil {
		return otpmodels.VerifyResult{}, err
	}

	result, err := s.otp.Verify(ctx, processID, owner, code, otpmodels.TypeActivation)
	if err != nil {
		return otpmodels.VerifyResult{}, err
	}

	if result.Expired {
		return result, nil
	}
	if !result.Matched {
		if _, err := s.RecordError(ctx, processID, models.ErrorActivationOtpFailed); err != nil {
			return result, err
		}
		if result.RemainingAttempts == 0 {
			if err := s.Fail(ctx, processID, models.OriginOtpExhausted, "activation code attempts exhausted"); err != nil {
				return result, err
			}
		}
		return result, nil
	}

	activated, err := s.store.Activate(ctx, processID, activationID, requestcontext.Now(ctx))
	if err != nil {
		return otpmodels.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "activate process")
	}
	if !activated {
		return otpmodels.VerifyResult{}, dErrors.New(dErrors.CodeConflict, "process changed during activation")
	}
	return result, nil
}

// ApproveConsent forwards the user's consent decision for a running process.
func (s *Service) ApproveConsent(ctx context.Context, processID id.ProcessID, consent string, approved bool) error {
	if strings.TrimSpace(consent) == "" {
		return dErrors.New(dErrors.CodeValidation, "consent is required")
	}
	p, err := s.Get(ctx, processID)
	if err != nil {
		return err
	}
	if !p.Status.IsRunning() {
		return dErrors.New(dErrors.CodeInvalidState, "process is not running")
	}
	err = s.hook.ApproveConsent(ctx, onboarding.ConsentApproval{
		ProcessID: p.ID,
		UserID:    p.UserID,
		Consent:   consent,
		Approved:  approved,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeOf(err), "approve consent")
	}
	return nil
}

// Get loads a process.
func (s *Service) Get(ctx context.Context, processID id.ProcessID) (*models.Process, error) {
	p, err := s.store.FindByID(ctx, processID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "process not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load process")
	}
	return p, nil
}

// RecordError adds the weight of errType to the process score and returns the
// new score. When the score reaches the limit the process is failed and the
// returned error carries CodeScoreExceeded.
func (s *Service) RecordError(ctx context.Context, processID id.ProcessID, errType models.ErrorType) (int, error) {
	if !errType.IsValid() {
		return 0, dErrors.New(dErrors.CodeValidation, "unknown error type "+string(errType))
	}
	score, err := s.store.AddErrorScore(ctx, processID, errType.Weight(), requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "process not found")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "add error score")
	}
	s.metrics.IncrementErrorRecorded(string(errType))
	s.logger.InfoContext(ctx, "process error recorded",
		"process_id", processID.String(),
		"error_type", string(errType),
		"score", score,
		"limit", s.scoreLimit,
	)
	if !models.ScoreLimitReached(score, s.scoreLimit) {
		return score, nil
	}

	detail := fmt.Sprintf("error score %d reached limit %d", score, s.scoreLimit)
	if _, err := s.fail(ctx, processID, models.OriginErrorScore, detail); err != nil {
		return score, err
	}
	return score, dErrors.New(dErrors.CodeScoreExceeded, detail)
}

// Fail moves a running process to FAILED, cancels its codes and fails its
// running verification. Failing an already final process is an invalid state.
func (s *Service) Fail(ctx context.Context, processID id.ProcessID, origin models.FailureOrigin, detail string) error {
	failed, err := s.fail(ctx, processID, origin, detail)
	if err != nil {
		return err
	}
	if !failed {
		return dErrors.New(dErrors.CodeInvalidState, "process is not running")
	}
	if s.terminator != nil {
		if err := s.terminator.FailRunning(ctx, processID, detail); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) fail(ctx context.Context, processID id.ProcessID, origin models.FailureOrigin, detail string) (bool, error) {
	now := requestcontext.Now(ctx)
	failed, err := s.store.Fail(ctx, processID, origin, detail, now)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "fail process")
	}
	if !failed {
		return false, nil
	}
	if err := s.otp.Cancel(ctx, processID); err != nil {
		return true, err
	}
	tx.AfterCommit(ctx, func(ctx context.Context) {
		s.metrics.IncrementTerminated(string(models.StatusFailed), string(origin))
		s.emit(ctx, processID, onboarding.EventProcessFailed, string(models.StatusFailed), detail)
	})
	return true, nil
}

// Finish completes a process whose identity verification was accepted.
func (s *Service) Finish(ctx context.Context, processID id.ProcessID) error {
	finished, err := s.store.Finish(ctx, processID, requestcontext.Now(ctx))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "finish process")
	}
	if !finished {
		return dErrors.New(dErrors.CodeConflict, "process is not in verification")
	}
	tx.AfterCommit(ctx, func(ctx context.Context) {
		s.metrics.IncrementTerminated(string(models.StatusFinished), "")
		s.emit(ctx, processID, onboarding.EventProcessFinished, string(models.StatusFinished), "")
	})
	return nil
}

// Cancel fails the process on the user's request.
func (s *Service) Cancel(ctx context.Context, processID id.ProcessID) error {
	if _, err := s.Get(ctx, processID); err != nil {
		return err
	}
	return s.Fail(ctx, processID, models.OriginCanceled, "canceled")
}

// StaleActivations streams processes that started at or before cutoff and
// were never activated.
func (s *Service) StaleActivations(ctx context.Context, cutoff time.Time) iter.Seq2[*models.Process, error] {
	return s.store.StreamCreatedBefore(ctx, models.StatusActivationInProgress, cutoff)
}

// ExpireActivation fails a process that is still waiting for activation and
// cancels its codes. It reports false when the process has left activation
// in the meantime.
func (s *Service) ExpireActivation(ctx context.Context, processID id.ProcessID) (bool, error) {
	p, err := s.Get(ctx, processID)
	if err != nil {
		return false, err
	}
	if p.Status != models.StatusActivationInProgress {
		return false, nil
	}
	const detail = "activation expired"
	failed, err := s.fail(ctx, processID, models.OriginActivationExpired, detail)
	if err != nil || !failed {
		return failed, err
	}
	tx.AfterCommit(ctx, func(ctx context.Context) {
		s.emit(ctx, processID, onboarding.EventActivationExpired, string(models.StatusFailed), detail)
	})
	return true, nil
}

func (s *Service) emit(ctx context.Context, processID id.ProcessID, eventType onboarding.EventType, status, detail string) {
	event := onboarding.Event{
		Type:      eventType,
		ProcessID: processID,
		Status:    status,
		Detail:    detail,
	}
	if p, err := s.store.FindByID(ctx, processID); err == nil {
		event.UserID = p.UserID
		event.ActivationID = p.ActivationID
	}
	onboarding.Emit(ctx, s.logger, s.hook, event)
}
