package onboarding

import (
	"context"
	"log/slog"
	"strings"

	id "onboarding/pkg/domain"
)

// LoggingProvider stands in for the onboarding subsystem in development. It
// resolves users by identifier, accepts every client and logs deliveries with
// the code masked.
type LoggingProvider struct {
	logger *slog.Logger
}

func NewLoggingProvider(logger *slog.Logger) *LoggingProvider {
	return &LoggingProvider{logger: logger}
}

func (p *LoggingProvider) SendOtpCode(ctx context.Context, delivery OtpDelivery) error {
	p.logger.InfoContext(ctx, "otp code delivered",
		"process_id", delivery.ProcessID.String(),
		"type", delivery.Type,
		"code", mask(delivery.Code),
		"expires_at", delivery.ExpiresAt,
	)
	return nil
}

func (p *LoggingProvider) ApproveConsent(ctx context.Context, approval ConsentApproval) error {
	p.logger.InfoContext(ctx, "consent recorded",
		"process_id", approval.ProcessID.String(),
		"consent", approval.Consent,
		"approved", approval.Approved,
	)
	return nil
}

func (p *LoggingProvider) EvaluateClient(_ context.Context, _ id.OwnerID, _ id.VerificationID) (ClientEvaluation, error) {
	return ClientEvaluation{Accepted: true}, nil
}

func (p *LoggingProvider) LookupUser(_ context.Context, req LookupRequest) (id.UserID, error) {
	return id.UserID(strings.TrimSpace(req.Identifier)), nil
}

func (p *LoggingProvider) ProcessEvent(context.Context, Event) error {
	return nil
}

func (p *LoggingProvider) RemoveActivation(ctx context.Context, processID id.ProcessID, userID id.UserID) error {
	p.logger.InfoContext(ctx, "activation removed",
		"process_id", processID.String(),
		"user_id", userID.String(),
	)
	return nil
}

func mask(code string) string {
	if len(code) <= 2 {
		return strings.Repeat("*", len(code))
	}
	return strings.Repeat("*", len(code)-2) + code[len(code)-2:]
}
