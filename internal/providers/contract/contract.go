// Package contract checks that a provider implementation honours the
// behaviour the onboarding engine relies on. Vendor adapters run these
// against a sandbox; the mock providers run them in unit tests.
package contract

import (
	"context"
	"testing"
	"time"

	"onboarding/internal/document/models"
	docports "onboarding/internal/document/ports"
	presenceports "onboarding/internal/presence/ports"
	"onboarding/internal/providers"
	id "onboarding/pkg/domain"
)

// DocumentSuite drives a document provider through a full round: submit,
// upload check, verification and cleanup. MaxPolls bounds how many pending
// answers are tolerated before a verdict.
type DocumentSuite struct {
	Provider docports.Provider
	Owner    id.OwnerID
	MaxPolls int
}

func (s *DocumentSuite) Run(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.Provider.Name() == "" {
		t.Fatal("provider name not set")
	}

	uploads := []docports.Upload{
		{Ref: "front", Type: models.TypeIDCard, Side: models.SideFront, Filename: "front.jpg", ContentType: "image/jpeg", Content: []byte{0xff, 0xd8}},
		{Ref: "back", Type: models.TypeIDCard, Side: models.SideBack, Filename: "back.jpg", ContentType: "image/jpeg", Content: []byte{0xff, 0xd8}},
	}
	receipts, err := s.Provider.SubmitDocuments(ctx, s.Owner, uploads)
	if err != nil {
		t.Fatalf("submit documents: %v", err)
	}
	if len(receipts) != len(uploads) {
		t.Fatalf("expected %d receipts, got %d", len(uploads), len(receipts))
	}
	var uploadIDs []string
	for i, r := range receipts {
		if r.Ref != uploads[i].Ref {
			t.Errorf("receipt %d echoes ref %q, want %q", i, r.Ref, uploads[i].Ref)
		}
		if r.UploadID == "" {
			t.Errorf("receipt %d has no upload id", i)
		}
		uploadIDs = append(uploadIDs, r.UploadID)
	}

	for _, uploadID := range uploadIDs {
		verdict := s.pollUpload(ctx, t, uploadID)
		if verdict.Outcome != docports.OutcomeAccepted {
			t.Fatalf("upload %s: expected ACCEPTED, got %s", uploadID, verdict.Outcome)
		}
	}

	handle, err := s.Provider.VerifyDocuments(ctx, s.Owner, uploadIDs)
	if err != nil {
		t.Fatalf("verify documents: %v", err)
	}
	if handle.ID == "" {
		t.Fatal("verification handle not set")
	}
	result := s.pollVerification(ctx, t, handle.ID)
	if len(result.Verdicts) != len(uploadIDs) {
		t.Fatalf("expected %d verdicts, got %d", len(uploadIDs), len(result.Verdicts))
	}
	for _, v := range result.Verdicts {
		if v.Score < 0 || v.Score > 1 {
			t.Errorf("score %f out of range [0, 1]", v.Score)
		}
	}

	photo, err := s.Provider.GetPhoto(ctx, uploadIDs[0])
	if err != nil || len(photo) == 0 {
		t.Errorf("get photo: %v (%d bytes)", err, len(photo))
	}

	if err := s.Provider.CleanupDocuments(ctx, s.Owner, uploadIDs); err != nil {
		t.Errorf("cleanup documents: %v", err)
	}
}

func (s *DocumentSuite) pollUpload(ctx context.Context, t *testing.T, uploadID string) docports.Verdict {
	t.Helper()
	for range s.MaxPolls + 1 {
		verdict, err := s.Provider.CheckDocumentUpload(ctx, s.Owner, uploadID)
		if err != nil {
			t.Fatalf("check upload %s: %v", uploadID, err)
		}
		if verdict.Outcome != docports.OutcomePending {
			return verdict
		}
	}
	t.Fatalf("upload %s still pending after %d polls", uploadID, s.MaxPolls)
	return docports.Verdict{}
}

func (s *DocumentSuite) pollVerification(ctx context.Context, t *testing.T, handle string) docports.VerificationResult {
	t.Helper()
	for range s.MaxPolls + 1 {
		result, err := s.Provider.GetVerificationResult(ctx, s.Owner, handle)
		if err != nil {
			t.Fatalf("get verification result: %v", err)
		}
		if len(result.Verdicts) > 0 {
			return result
		}
	}
	t.Fatalf("verification %s still pending after %d polls", handle, s.MaxPolls)
	return docports.VerificationResult{}
}

// PresenceSuite drives a presence provider from init to an accepted result.
type PresenceSuite struct {
	Provider presenceports.Provider
	Owner    id.OwnerID
	Photo    []byte
	MaxPolls int
}

func (s *PresenceSuite) Run(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Provider.InitPresenceCheck(ctx, s.Owner, s.Photo); err != nil {
		t.Fatalf("init presence check: %v", err)
	}
	session, err := s.Provider.StartPresenceCheck(ctx, s.Owner)
	if err != nil {
		t.Fatalf("start presence check: %v", err)
	}
	if session.SessionID == "" {
		t.Fatal("session id not set")
	}

	var result presenceports.Result
	for range s.MaxPolls + 1 {
		result, err = s.Provider.GetResult(ctx, s.Owner, session)
		if err != nil {
			t.Fatalf("get presence result: %v", err)
		}
		if result.Status != presenceports.ResultInProgress {
			break
		}
	}
	if result.Status != presenceports.ResultAccepted {
		t.Fatalf("expected ACCEPTED, got %s", result.Status)
	}
	if len(result.Selfie) == 0 && result.SelfieRef == "" {
		t.Error("accepted result carries no selfie")
	}

	if err := s.Provider.CleanupIdentityData(ctx, s.Owner, session); err != nil {
		t.Errorf("cleanup identity data: %v", err)
	}
}

// ErrorCase validates that a failing call follows the error taxonomy.
type ErrorCase struct {
	Name          string
	Call          func(ctx context.Context) error
	ExpectedError providers.ErrorCategory
	ExpectedRetry bool
}

func (c ErrorCase) Run(t *testing.T) {
	err := c.Call(context.Background())
	if err == nil {
		t.Fatal("expected error but got none")
	}
	if category := providers.GetCategory(err); category != c.ExpectedError {
		t.Errorf("expected error category %s, got %s", c.ExpectedError, category)
	}
	if retry := providers.IsRetryable(err); retry != c.ExpectedRetry {
		t.Errorf("expected retryable=%v, got %v", c.ExpectedRetry, retry)
	}
}
