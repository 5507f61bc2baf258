// Package presence wraps the configured liveness provider. Every call is
// keyed by the owner; the session handed out by Start travels with the
// verification and comes back on GetResult and Cleanup.
package presence

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"onboarding/internal/presence/ports"
	"onboarding/internal/providers"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
)

type Adapter struct {
	provider ports.Provider
	logger   *slog.Logger
}

type Option func(*Adapter)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func New(provider ports.Provider, opts ...Option) (*Adapter, error) {
	if provider == nil {
		return nil, errors.New("presence check provider is required")
	}
	a := &Adapter{
		provider: provider,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Enabled reports whether the deployment runs presence checks at all.
func (a *Adapter) Enabled() bool {
	return a.provider.Name() != DisabledName
}

func (a *Adapter) ProviderName() string {
	return a.provider.Name()
}

// Init hands the reference portrait to the provider.
func (a *Adapter) Init(ctx context.Context, owner id.OwnerID, referencePhoto []byte) error {
	if len(referencePhoto) == 0 {
		return dErrors.New(dErrors.CodeValidation, "reference photo is required")
	}
	if err := a.provider.InitPresenceCheck(ctx, owner, referencePhoto); err != nil {
		return providers.ToDomain(err, "init presence check")
	}
	return nil
}

// Start opens a capture session.
func (a *Adapter) Start(ctx context.Context, owner id.OwnerID) (ports.SessionInfo, error) {
	session, err := a.provider.StartPresenceCheck(ctx, owner)
	if err != nil {
		return ports.SessionInfo{}, providers.ToDomain(err, "start presence check")
	}
	if session.SessionID == "" {
		return ports.SessionInfo{}, providers.ToDomain(
			providers.NewProviderError(providers.ErrorBadData, a.provider.Name(), "empty presence session", nil),
			"start presence check")
	}
	a.logger.InfoContext(ctx, "presence check started",
		"owner", owner.String(),
		"provider", a.provider.Name(),
	)
	return session, nil
}

// GetResult fetches the verdict for a session. An accepted result without a
// selfie is treated as bad provider data.
func (a *Adapter) GetResult(ctx context.Context, owner id.OwnerID, session ports.SessionInfo) (ports.Result, error) {
	if session.SessionID == "" {
		return ports.Result{}, dErrors.New(dErrors.CodeInvalidState, "no presence session")
	}
	result, err := a.provider.GetResult(ctx, owner, session)
	if err != nil {
		return ports.Result{}, providers.ToDomain(err, "get presence result")
	}
	switch result.Status {
	case ports.ResultInProgress, ports.ResultRejected:
	case ports.ResultAccepted:
		if len(result.Selfie) == 0 && result.SelfieRef == "" {
			return ports.Result{}, providers.ToDomain(
				providers.NewProviderError(providers.ErrorBadData, a.provider.Name(), "accepted presence check without selfie", nil),
				"get presence result")
		}
	default:
		return ports.Result{}, providers.ToDomain(
			providers.NewProviderError(providers.ErrorBadData, a.provider.Name(), "unknown presence status "+string(result.Status), nil),
			"get presence result")
	}
	return result, nil
}

// Cleanup deletes provider-side identity data. Failures are logged only.
func (a *Adapter) Cleanup(ctx context.Context, owner id.OwnerID, session ports.SessionInfo) {
	if !a.Enabled() || session.SessionID == "" {
		return
	}
	if err := a.provider.CleanupIdentityData(ctx, owner, session); err != nil {
		a.logger.WarnContext(ctx, "presence cleanup failed",
			"owner", owner.String(),
			"provider", a.provider.Name(),
			"error", err,
		)
	}
}

// EncodeSession serializes a session for storage on the verification.
func EncodeSession(session ports.SessionInfo) (string, error) {
	b, err := json.Marshal(session)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "encode presence session")
	}
	return string(b), nil
}

// DecodeSession reverses EncodeSession. Empty input yields an empty session.
func DecodeSession(raw string) (ports.SessionInfo, error) {
	var session ports.SessionInfo
	if raw == "" {
		return session, nil
	}
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return session, dErrors.Wrap(err, dErrors.CodeInternal, "decode presence session")
	}
	return session, nil
}
