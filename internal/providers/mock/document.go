// Package mock holds deterministic in-process providers for development and
// tests. Outcomes are driven by the uploaded filename:
//
//   - "reject" rejects the upload
//   - "fail" fails the upload
//   - "forged" passes the upload but is rejected by verification
//
// Every verdict is preceded by a configurable number of pending answers.
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"onboarding/internal/document/ports"
	"onboarding/internal/providers"
	id "onboarding/pkg/domain"
)

const Name = "mock"

type upload struct {
	owner    id.OwnerID
	filename string
	polls    int
}

type verification struct {
	owner     id.OwnerID
	uploadIDs []string
	polls     int
}

// DocumentProvider is an in-memory document verification vendor.
type DocumentProvider struct {
	mu            sync.Mutex
	pendingPolls  int
	uploads       map[string]*upload
	verifications map[string]*verification
}

var _ ports.Provider = (*DocumentProvider)(nil)

// NewDocumentProvider answers PENDING pendingPolls times before each verdict.
func NewDocumentProvider(pendingPolls int) *DocumentProvider {
	return &DocumentProvider{
		pendingPolls:  max(pendingPolls, 0),
		uploads:       make(map[string]*upload),
		verifications: make(map[string]*verification),
	}
}

func (p *DocumentProvider) Name() string { return Name }

func (p *DocumentProvider) SubmitDocuments(_ context.Context, owner id.OwnerID, uploads []ports.Upload) ([]ports.Receipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	receipts := make([]ports.Receipt, 0, len(uploads))
	for _, u := range uploads {
		uploadID := "mock-upload-" + uuid.NewString()
		p.uploads[uploadID] = &upload{owner: owner, filename: strings.ToLower(u.Filename)}
		receipts = append(receipts, ports.Receipt{Ref: u.Ref, UploadID: uploadID})
	}
	return receipts, nil
}

func (p *DocumentProvider) CheckDocumentUpload(_ context.Context, owner id.OwnerID, uploadID string) (ports.Verdict, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, err := p.upload(owner, uploadID)
	if err != nil {
		return ports.Verdict{}, err
	}
	if u.polls < p.pendingPolls {
		u.polls++
		return ports.Verdict{UploadID: uploadID, Outcome: ports.OutcomePending}, nil
	}
	switch {
	case strings.Contains(u.filename, "reject"):
		return ports.Verdict{UploadID: uploadID, Outcome: ports.OutcomeRejected, Reason: "document not readable", Errors: []string{"UNREADABLE"}}, nil
	case strings.Contains(u.filename, "fail"):
		return ports.Verdict{UploadID: uploadID, Outcome: ports.OutcomeFailed, Reason: "upload corrupted"}, nil
	}
	return ports.Verdict{
		UploadID:      uploadID,
		Outcome:       ports.OutcomeAccepted,
		ExtractedData: `{"source":"mock"}`,
		Score:         1,
	}, nil
}

func (p *DocumentProvider) VerifyDocuments(_ context.Context, owner id.OwnerID, uploadIDs []string) (ports.VerificationHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, uploadID := range uploadIDs {
		if _, err := p.upload(owner, uploadID); err != nil {
			return ports.VerificationHandle{}, err
		}
	}
	handle := "mock-verification-" + uuid.NewString()
	p.verifications[handle] = &verification{owner: owner, uploadIDs: append([]string(nil), uploadIDs...)}
	return ports.VerificationHandle{ID: handle}, nil
}

func (p *DocumentProvider) GetVerificationResult(_ context.Context, owner id.OwnerID, verificationID string) (ports.VerificationResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.verifications[verificationID]
	if !ok || v.owner != owner {
		return ports.VerificationResult{}, providers.NewProviderError(providers.ErrorNotFound, Name, "unknown verification", nil)
	}
	if v.polls < p.pendingPolls {
		v.polls++
		return ports.VerificationResult{}, nil
	}
	verdicts := make([]ports.Verdict, 0, len(v.uploadIDs))
	for _, uploadID := range v.uploadIDs {
		verdict := ports.Verdict{UploadID: uploadID, Outcome: ports.OutcomeAccepted, ValidationPayload: `{"checks":"passed"}`, Score: 1}
		if u, ok := p.uploads[uploadID]; ok && strings.Contains(u.filename, "forged") {
			verdict = ports.Verdict{UploadID: uploadID, Outcome: ports.OutcomeRejected, Reason: "security features missing"}
		}
		verdicts = append(verdicts, verdict)
	}
	return ports.VerificationResult{Verdicts: verdicts}, nil
}

func (p *DocumentProvider) GetPhoto(_ context.Context, photoID string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.uploads[photoID]; !ok {
		return nil, providers.NewProviderError(providers.ErrorNotFound, Name, "unknown photo", nil)
	}
	return []byte("mock-portrait:" + photoID), nil
}

func (p *DocumentProvider) CleanupDocuments(_ context.Context, owner id.OwnerID, uploadIDs []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, uploadID := range uploadIDs {
		if u, ok := p.uploads[uploadID]; ok && u.owner == owner {
			delete(p.uploads, uploadID)
		}
	}
	return nil
}

// upload must be called with mu held.
func (p *DocumentProvider) upload(owner id.OwnerID, uploadID string) (*upload, error) {
	u, ok := p.uploads[uploadID]
	if !ok || u.owner != owner {
		return nil, providers.NewProviderError(providers.ErrorNotFound, Name, "unknown upload "+uploadID, nil)
	}
	return u, nil
}
