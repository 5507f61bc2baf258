package factory

import (
	"context"

	docports "onboarding/internal/document/ports"
	presenceports "onboarding/internal/presence/ports"
	"onboarding/internal/providers"
	id "onboarding/pkg/domain"
)

type instrumentedDocument struct {
	next   docports.Provider
	caller *providers.Caller
}

func (d *instrumentedDocument) Name() string { return d.next.Name() }

func (d *instrumentedDocument) SubmitDocuments(ctx context.Context, owner id.OwnerID, uploads []docports.Upload) ([]docports.Receipt, error) {
	return providers.Call(ctx, d.caller, d.Name(), "submit_documents", func(ctx context.Context) ([]docports.Receipt, error) {
		return d.next.SubmitDocuments(ctx, owner, uploads)
	})
}

func (d *instrumentedDocument) CheckDocumentUpload(ctx context.Context, owner id.OwnerID, uploadID string) (docports.Verdict, error) {
	return providers.Call(ctx, d.caller, d.Name(), "check_document_upload", func(ctx context.Context) (docports.Verdict, error) {
		return d.next.CheckDocumentUpload(ctx, owner, uploadID)
	})
}

func (d *instrumentedDocument) VerifyDocuments(ctx context.Context, owner id.OwnerID, uploadIDs []string) (docports.VerificationHandle, error) {
	return providers.Call(ctx, d.caller, d.Name(), "verify_documents", func(ctx context.Context) (docports.VerificationHandle, error) {
		return d.next.VerifyDocuments(ctx, owner, uploadIDs)
	})
}

func (d *instrumentedDocument) GetVerificationResult(ctx context.Context, owner id.OwnerID, verificationID string) (docports.VerificationResult, error) {
	return providers.Call(ctx, d.caller, d.Name(), "get_verification_result", func(ctx context.Context) (docports.VerificationResult, error) {
		return d.next.GetVerificationResult(ctx, owner, verificationID)
	})
}

func (d *instrumentedDocument) GetPhoto(ctx context.Context, photoID string) ([]byte, error) {
	return providers.Call(ctx, d.caller, d.Name(), "get_photo", func(ctx context.Context) ([]byte, error) {
		return d.next.GetPhoto(ctx, photoID)
	})
}

func (d *instrumentedDocument) CleanupDocuments(ctx context.Context, owner id.OwnerID, uploadIDs []string) error {
	return d.caller.Do(ctx, d.Name(), "cleanup_documents", func(ctx context.Context) error {
		return d.next.CleanupDocuments(ctx, owner, uploadIDs)
	})
}

type instrumentedPresence struct {
	next   presenceports.Provider
	caller *providers.Caller
}

func (p *instrumentedPresence) Name() string { return p.next.Name() }

func (p *instrumentedPresence) InitPresenceCheck(ctx context.Context, owner id.OwnerID, photo []byte) error {
	return p.caller.Do(ctx, p.Name(), "init_presence_check", func(ctx context.Context) error {
		return p.next.InitPresenceCheck(ctx, owner, photo)
	})
}

func (p *instrumentedPresence) StartPresenceCheck(ctx context.Context, owner id.OwnerID) (presenceports.SessionInfo, error) {
	return providers.Call(ctx, p.caller, p.Name(), "start_presence_check", func(ctx context.Context) (presenceports.SessionInfo, error) {
		return p.next.StartPresenceCheck(ctx, owner)
	})
}

func (p *instrumentedPresence) GetResult(ctx context.Context, owner id.OwnerID, session presenceports.SessionInfo) (presenceports.Result, error) {
	return providers.Call(ctx, p.caller, p.Name(), "get_presence_result", func(ctx context.Context) (presenceports.Result, error) {
		return p.next.GetResult(ctx, owner, session)
	})
}

func (p *instrumentedPresence) CleanupIdentityData(ctx context.Context, owner id.OwnerID, session presenceports.SessionInfo) error {
	return p.caller.Do(ctx, p.Name(), "cleanup_identity_data", func(ctx context.Context) error {
		return p.next.CleanupIdentityData(ctx, owner, session)
	})
}
