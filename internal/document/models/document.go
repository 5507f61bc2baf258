package models

import (
	"time"

	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
)

// Type is the kind of captured document.
type Type string

const (
	TypeIDCard         Type = "ID_CARD"
	TypePassport       Type = "PASSPORT"
	TypeDrivingLicense Type = "DRIVING_LICENSE"
	TypeSelfiePhoto    Type = "SELFIE_PHOTO"
	TypeSelfieVideo    Type = "SELFIE_VIDEO"
	TypeUnknown        Type = "UNKNOWN"
)

// identityTypes are the approved identity documents.
var identityTypes = map[Type]bool{
	TypeIDCard:         true,
	TypePassport:       true,
	TypeDrivingLicense: true,
}

// IsIdentityDocument reports whether t proves identity.
func (t Type) IsIdentityDocument() bool {
	return identityTypes[t]
}

// IsTwoSided reports whether t is captured as a FRONT and BACK pair.
func (t Type) IsTwoSided() bool {
	return t == TypeIDCard
}

func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeIDCard, TypePassport, TypeDrivingLicense, TypeSelfiePhoto, TypeSelfieVideo, TypeUnknown:
		return t, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown document type "+s)
}

// Side of a two-sided document. Single-sided documents have SideNone.
type Side string

const (
	SideNone  Side = ""
	SideFront Side = "FRONT"
	SideBack  Side = "BACK"
)

// Status is the lifecycle of one document.
type Status string

const (
	StatusUploadInProgress       Status = "UPLOAD_IN_PROGRESS"
	StatusVerificationPending    Status = "VERIFICATION_PENDING"
	StatusVerificationInProgress Status = "VERIFICATION_IN_PROGRESS"
	StatusAccepted               Status = "ACCEPTED"
	StatusRejected               Status = "REJECTED"
	StatusFailed                 Status = "FAILED"
	StatusDisposed               Status = "DISPOSED"
)

// IsSettled reports whether the provider has reached a verdict.
func (s Status) IsSettled() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusFailed
}

// Document is one uploaded page or capture belonging to a verification.
//
// Invariants:
//   - Side is set iff Type is two-sided
//   - pairing is symmetric: a.OtherSideID == b.ID iff b.OtherSideID == a.ID
type Document struct {
	ID                     id.DocumentID
	VerificationID         id.VerificationID
	ActivationID           id.ActivationID
	Type                   Type
	Side                   Side
	OtherSideID            id.DocumentID
	Status                 Status
	ProviderName           string
	UploadID               string
	ProviderVerificationID string
	Filename               string
	RejectReason           string
	Errors                 []string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// NewDocument creates a document awaiting upload confirmation.
func NewDocument(docID id.DocumentID, verificationID id.VerificationID, activationID id.ActivationID, docType Type, side Side, providerName, filename string, now time.Time) (*Document, error) {
	if verificationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document verification id cannot be empty")
	}
	if providerName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document provider cannot be empty")
	}
	if docType.IsTwoSided() && side != SideFront && side != SideBack {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, string(docType)+" requires a FRONT or BACK side")
	}
	if !docType.IsTwoSided() && side != SideNone {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, string(docType)+" has no sides")
	}
	return &Document{
		ID:             docID,
		VerificationID: verificationID,
		ActivationID:   activationID,
		Type:           docType,
		Side:           side,
		Status:         StatusUploadInProgress,
		ProviderName:   providerName,
		Filename:       filename,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ResultPhase tells which provider round produced a result.
type ResultPhase string

const (
	ResultPhaseUpload       ResultPhase = "UPLOAD"
	ResultPhaseVerification ResultPhase = "VERIFICATION"
)

// Result is an append-only record of one provider verdict on a document.
type Result struct {
	ID                string
	DocumentID        id.DocumentID
	Phase             ResultPhase
	ExtractedData     string
	ValidationPayload string
	Score             float64
	CreatedAt         time.Time
}

// StatusChange carries the fields written alongside a status move.
type StatusChange struct {
	Status                 Status
	RejectReason           string
	Errors                 []string
	ProviderVerificationID string
}

// ProviderVerificationRef names a provider-side verification still running
// for a verification.
type ProviderVerificationRef struct {
	VerificationID         id.VerificationID
	ProviderVerificationID string
}
