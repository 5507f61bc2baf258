package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"onboarding/internal/onboarding"
	"onboarding/internal/otp/metrics"
	"onboarding/internal/otp/models"
	processmodels "onboarding/internal/process/models"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/requestcontext"
)

// Store persists codes.
type Store interface {
	Create(ctx context.Context, o *models.Otp) error
	FindActive(ctx context.Context, processID id.ProcessID, otpType models.Type) (*models.Otp, error)
	RecordFailedAttempt(ctx context.Context, otpID id.OtpID, now time.Time) (*models.Otp, error)
	Close(ctx context.Context, otpID id.OtpID, status models.Status, now time.Time) (bool, error)
	CancelActive(ctx context.Context, processID id.ProcessID, otpType models.Type, now time.Time) (int, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

// ProcessLookup resolves the owning process of a code.
type ProcessLookup interface {
	FindByID(ctx context.Context, processID id.ProcessID) (*processmodels.Process, error)
}

// Sender delivers codes to the user.
type Sender interface {
	SendOtpCode(ctx context.Context, delivery onboarding.OtpDelivery) error
}

// Config controls generation and verification.
type Config struct {
	Length      int
	Expiration  time.Duration
	MaxAttempts int
	HashCost    int
}

func DefaultConfig() Config {
	return Config{Length: 8, Expiration: 5 * time.Minute, MaxAttempts: 5, HashCost: bcrypt.DefaultCost}
}

// Service issues and verifies one-time codes bound to a process.
type Service struct {
	store     Store
	processes ProcessLookup
	sender    Sender
	logger    *slog.Logger
	metrics   *metrics.Metrics
	config    Config
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

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func New(store Store, processes ProcessLookup, sender Sender, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("otp store is required")
	}
	if processes == nil {
		return nil, errors.New("process lookup is required")
	}
	if sender == nil {
		return nil, errors.New("otp sender is required")
	}
	svc := &Service{
		store:     store,
		processes: processes,
		sender:    sender,
		logger:    slog.New(slog.DiscardHandler),
		config:    DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Send issues a fresh code of otpType for the process and delivers it. Any
// code of the same type still active is canceled first.
func (s *Service) Send(ctx context.Context, p *processmodels.Process, otpType models.Type) error {
	return s.issue(ctx, p, otpType, false)
}

// Resend replaces the active code of otpType with a new one.
func (s *Service) Resend(ctx context.Context, p *processmodels.Process, otpType models.Type) error {
	return s.issue(ctx, p, otpType, true)
}

func (s *Service) issue(ctx context.Context, p *processmodels.Process, otpType models.Type, resend bool) error {
	if p == nil {
		return dErrors.New(dErrors.CodeBadRequest, "process is required")
	}
	if !p.Status.IsRunning() {
		return dErrors.New(dErrors.CodeInvalidState, "process is not running")
	}
	code, err := models.Generate(s.config.Length)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.config.HashCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "hash otp code")
	}
	now := requestcontext.Now(ctx)
	o, err := models.NewOtp(id.NewOtpID(), p.ID, otpType, string(hash), s.config.MaxAttempts, s.config.Expiration, now)
	if err != nil {
		return err
	}
	if _, err := s.store.CancelActive(ctx, p.ID, otpType, now); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "cancel previous otp")
	}
	if err := s.store.Create(ctx, o); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent otp issued")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "save otp")
	}
	err = s.sender.SendOtpCode(ctx, onboarding.OtpDelivery{
		ProcessID: p.ID,
		UserID:    p.UserID,
		Type:      string(otpType),
		Code:      code,
		Resend:    resend,
		ExpiresAt: o.ExpiresAt,
		Locale:    p.Correlation.Locale,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "deliver otp code")
	}
	s.metrics.IncrementIssued(string(otpType), resend)
	s.logger.InfoContext(ctx, "otp issued",
		"process_id", p.ID.String(),
		"type", string(otpType),
		"resend", resend,
	)
	return nil
}

// Verify checks code against the active code of otpType. A mismatch consumes
// one attempt; a match consumes the code. Exhausted or expired codes never
// match. The owner must belong to the process.
func (s *Service) Verify(ctx context.Context, processID id.ProcessID, owner id.OwnerID, code string, otpType models.Type) (models.VerifyResult, error) {
	p, err := s.processes.FindByID(ctx, processID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.VerifyResult{}, dErrors.New(dErrors.CodeNotFound, "process not found")
		}
		return models.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "load process")
	}
	if !ownsProcess(p, owner, otpType) {
		return models.VerifyResult{}, dErrors.New(dErrors.CodeNotFound, "process not found")
	}
	o, err := s.store.FindActive(ctx, processID, otpType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.VerifyResult{}, dErrors.New(dErrors.CodeNotFound, "no active otp")
		}
		return models.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "load otp")
	}

	now := requestcontext.Now(ctx)
	if !o.Matchable(now) {
		if _, err := s.store.Close(ctx, o.ID, models.StatusExpired, now); err != nil {
			return models.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "expire otp")
		}
		s.metrics.IncrementVerifyOutcome(string(otpType), "expired")
		return models.VerifyResult{Matched: false, RemainingAttempts: 0, Expired: true}, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(o.CodeHash), []byte(code)) != nil {
		updated, err := s.store.RecordFailedAttempt(ctx, o.ID, now)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return models.VerifyResult{}, dErrors.New(dErrors.CodeConflict, "otp no longer active")
			}
			return models.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "record otp attempt")
		}
		s.metrics.IncrementVerifyOutcome(string(otpType), "mismatch")
		s.logger.InfoContext(ctx, "otp mismatch",
			"process_id", processID.String(),
			"type", string(otpType),
			"remaining_attempts", updated.RemainingAttempts(),
		)
		return models.VerifyResult{Matched: false, RemainingAttempts: updated.RemainingAttempts()}, nil
	}

	closed, err := s.store.Close(ctx, o.ID, models.StatusVerified, now)
	if err != nil {
		return models.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "consume otp")
	}
	if !closed {
		return models.VerifyResult{}, dErrors.New(dErrors.CodeConflict, "otp no longer active")
	}
	s.metrics.IncrementVerifyOutcome(string(otpType), "matched")
	return models.VerifyResult{Matched: true, RemainingAttempts: o.RemainingAttempts()}, nil
}

// Cancel cancels every active code of the process.
func (s *Service) Cancel(ctx context.Context, processID id.ProcessID) error {
	if _, err := s.store.CancelActive(ctx, processID, "", requestcontext.Now(ctx)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "cancel otps")
	}
	return nil
}

// ExpireOverdue marks every active code past its expiry as EXPIRED.
func (s *Service) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	n, err := s.store.ExpireOverdue(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "expire overdue otps")
	}
	s.metrics.AddExpired(n)
	return n, nil
}

// ownsProcess matches the caller's owner against the process. Activation codes
// are verified before the activation is bound, so only the user is compared.
func ownsProcess(p *processmodels.Process, owner id.OwnerID, otpType models.Type) bool {
	if owner.UserID() != p.UserID {
		return false
	}
	if otpType == models.TypeActivation {
		return true
	}
	return owner.ActivationID() == p.ActivationID
}
