// Package ports declares the document verification provider contract.
package ports

import (
	"context"

	"onboarding/internal/document/models"
	id "onboarding/pkg/domain"
)

// Upload is one document handed to the provider. Ref is echoed back in the
// receipt so callers can match uploads to their documents.
type Upload struct {
	Ref         string
	Type        models.Type
	Side        models.Side
	Filename    string
	ContentType string
	Content     []byte
}

// Receipt acknowledges an upload.
type Receipt struct {
	Ref      string
	UploadID string
}

// Outcome is a provider verdict on one document.
type Outcome string

const (
	OutcomePending  Outcome = "PENDING"
	OutcomeAccepted Outcome = "ACCEPTED"
	OutcomeRejected Outcome = "REJECTED"
	OutcomeFailed   Outcome = "FAILED"
)

// Verdict is the provider's assessment of a single upload.
type Verdict struct {
	UploadID          string
	Outcome           Outcome
	Reason            string
	Errors            []string
	ExtractedData     string
	ValidationPayload string
	Score             float64
}

// VerificationHandle identifies a provider-side verification of a batch of
// uploads.
type VerificationHandle struct {
	ID string
}

// VerificationResult carries one verdict per upload. No verdicts means the
// provider is still working.
type VerificationResult struct {
	Verdicts []Verdict
}

// Provider is a document verification vendor. Calls may fail with a
// *providers.ProviderError.
type Provider interface {
	Name() string
	SubmitDocuments(ctx context.Context, owner id.OwnerID, uploads []Upload) ([]Receipt, error)
	CheckDocumentUpload(ctx context.Context, owner id.OwnerID, uploadID string) (Verdict, error)
	VerifyDocuments(ctx context.Context, owner id.OwnerID, uploadIDs []string) (VerificationHandle, error)
	GetVerificationResult(ctx context.Context, owner id.OwnerID, verificationID string) (VerificationResult, error)
	GetPhoto(ctx context.Context, photoID string) ([]byte, error)
	CleanupDocuments(ctx context.Context, owner id.OwnerID, uploadIDs []string) error
}
