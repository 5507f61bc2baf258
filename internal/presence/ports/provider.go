// Package ports declares the presence check provider contract.
package ports

import (
	"context"
	"time"

	id "onboarding/pkg/domain"
)

// SessionInfo is what the client needs to run the liveness capture. It is
// stored on the verification while the check runs.
type SessionInfo struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token,omitempty"`
	URL       string    `json:"url,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// ResultStatus is the provider's verdict on a session.
type ResultStatus string

const (
	ResultAccepted   ResultStatus = "ACCEPTED"
	ResultRejected   ResultStatus = "REJECTED"
	ResultInProgress ResultStatus = "IN_PROGRESS"
)

// Result of a presence check. Selfie is set when the capture was accepted.
type Result struct {
	Status    ResultStatus
	Reason    string
	Score     float64
	Selfie    []byte
	SelfieRef string
}

// Provider is a liveness vendor. Calls may fail with a
// *providers.ProviderError; a deployment without presence checks answers
// every call with the not_enabled category.
type Provider interface {
	Name() string
	InitPresenceCheck(ctx context.Context, owner id.OwnerID, photo []byte) error
	StartPresenceCheck(ctx context.Context, owner id.OwnerID) (SessionInfo, error)
	GetResult(ctx context.Context, owner id.OwnerID, session SessionInfo) (Result, error)
	CleanupIdentityData(ctx context.Context, owner id.OwnerID, session SessionInfo) error
}
