// Package domain holds identifier primitives shared by every onboarding module.
//
// Identifiers minted by this service are UUID strings behind distinct types so
// the compiler rejects passing a DocumentID where a ProcessID is expected.
// UserID and ActivationID come from external systems and are opaque.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "onboarding/pkg/domain-errors"
)

type (
	ProcessID      string
	VerificationID string
	DocumentID     string
	OtpID          string
	UserID         string
	ActivationID   string
)

func NewProcessID() ProcessID           { return ProcessID(uuid.NewString()) }
func NewVerificationID() VerificationID { return VerificationID(uuid.NewString()) }
func NewDocumentID() DocumentID         { return DocumentID(uuid.NewString()) }
func NewOtpID() OtpID                   { return OtpID(uuid.NewString()) }

func (id ProcessID) String() string      { return string(id) }
func (id VerificationID) String() string { return string(id) }
func (id DocumentID) String() string     { return string(id) }
func (id OtpID) String() string          { return string(id) }
func (id UserID) String() string         { return string(id) }
func (id ActivationID) String() string   { return string(id) }

func (id ProcessID) IsNil() bool      { return id == "" }
func (id VerificationID) IsNil() bool { return id == "" }
func (id DocumentID) IsNil() bool     { return id == "" }
func (id UserID) IsNil() bool         { return id == "" }
func (id ActivationID) IsNil() bool   { return id == "" }

// ParseProcessID validates a process identifier received at a trust boundary.
func ParseProcessID(s string) (ProcessID, error) {
	v, err := parseUUID(s, "process id")
	return ProcessID(v), err
}

// ParseVerificationID validates a verification identifier.
func ParseVerificationID(s string) (VerificationID, error) {
	v, err := parseUUID(s, "verification id")
	return VerificationID(v), err
}

// ParseDocumentID validates a document identifier.
func ParseDocumentID(s string) (DocumentID, error) {
	v, err := parseUUID(s, "document id")
	return DocumentID(v), err
}

func parseUUID(s, field string) (string, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "invalid "+field)
	}
	if u == uuid.Nil {
		return "", dErrors.New(dErrors.CodeValidation, field+" cannot be nil")
	}
	return u.String(), nil
}

// OwnerID is the immutable correlation key threaded through every provider
// call. It is never persisted.
type OwnerID struct {
	userID       UserID
	activationID ActivationID
}

// NewOwnerID pairs a user with an activation. Both parts are required.
func NewOwnerID(userID UserID, activationID ActivationID) (OwnerID, error) {
	if strings.TrimSpace(string(userID)) == "" {
		return OwnerID{}, dErrors.New(dErrors.CodeValidation, "owner user id is required")
	}
	if strings.TrimSpace(string(activationID)) == "" {
		return OwnerID{}, dErrors.New(dErrors.CodeValidation, "owner activation id is required")
	}
	return OwnerID{userID: userID, activationID: activationID}, nil
}

func (o OwnerID) UserID() UserID             { return o.userID }
func (o OwnerID) ActivationID() ActivationID { return o.activationID }
func (o OwnerID) IsZero() bool               { return o.userID == "" && o.activationID == "" }

// String renders the owner for logs and provider correlation headers.
func (o OwnerID) String() string {
	return string(o.userID) + "/" + string(o.activationID)
}
