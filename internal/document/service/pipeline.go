package service

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"onboarding/internal/document/metrics"
	"onboarding/internal/document/models"
	"onboarding/internal/document/ports"
	"onboarding/internal/providers"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/requestcontext"
)

// Store persists documents and their provider results.
type Store interface {
	Create(ctx context.Context, d *models.Document) error
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	ListByVerification(ctx context.Context, verificationID id.VerificationID) ([]*models.Document, error)
	UpdateStatus(ctx context.Context, docID id.DocumentID, from models.Status, change models.StatusChange, now time.Time) (bool, error)
	SetOtherSide(ctx context.Context, docID, expected, otherID id.DocumentID, now time.Time) (bool, error)
	AddResult(ctx context.Context, r *models.Result) error
	ListResults(ctx context.Context, docID id.DocumentID) ([]*models.Result, error)
	StreamByProviderStatus(ctx context.Context, provider string, status models.Status) iter.Seq2[*models.Document, error]
	StreamPendingVerifications(ctx context.Context, provider string) iter.Seq2[models.ProviderVerificationRef, error]
}

// Pipeline submits documents to the configured provider and tracks each
// document until the provider has a verdict.
type Pipeline struct {
	store    Store
	provider ports.Provider
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func New(store Store, provider ports.Provider, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	if provider == nil {
		return nil, errors.New("document provider is required")
	}
	p := &Pipeline{
		store:    store,
		provider: provider,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ProviderName is the name documents are recorded under.
func (p *Pipeline) ProviderName() string {
	return p.provider.Name()
}

// Submission is a batch acknowledged by the provider but not yet persisted.
type Submission struct {
	VerificationID id.VerificationID
	Documents      []*models.Document
}

// UploadIDs lists the provider references of the batch.
func (s *Submission) UploadIDs() []string {
	out := make([]string, 0, len(s.Documents))
	for _, d := range s.Documents {
		out = append(out, d.UploadID)
	}
	return out
}

// Submit hands the uploads to the provider. Nothing is persisted: the caller
// commits the returned submission with Persist. If the provider acknowledges
// only part of the batch the acknowledged uploads are cleaned up and the whole
// call fails.
func (p *Pipeline) Submit(ctx context.Context, owner id.OwnerID, verificationID id.VerificationID, uploads []ports.Upload) (*Submission, error) {
	if len(uploads) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one document is required")
	}
	now := requestcontext.Now(ctx)
	docs := make([]*models.Document, 0, len(uploads))
	byRef := make(map[string]*models.Document, len(uploads))
	sent := make([]ports.Upload, 0, len(uploads))
	for _, u := range uploads {
		if u.Type == models.TypeSelfiePhoto || u.Type == models.TypeSelfieVideo {
			return nil, dErrors.New(dErrors.CodeValidation, "selfies are captured by the presence check")
		}
		d, err := models.NewDocument(id.NewDocumentID(), verificationID, owner.ActivationID(), u.Type, u.Side, p.provider.Name(), u.Filename, now)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid document")
		}
		u.Ref = d.ID.String()
		docs = append(docs, d)
		byRef[u.Ref] = d
		sent = append(sent, u)
	}

	receipts, err := p.provider.SubmitDocuments(ctx, owner, sent)
	if err != nil {
		return nil, providers.ToDomain(err, "submit documents")
	}
	var acknowledged []string
	for _, r := range receipts {
		if d, ok := byRef[r.Ref]; ok && r.UploadID != "" {
			d.UploadID = r.UploadID
			acknowledged = append(acknowledged, r.UploadID)
		}
	}
	if len(acknowledged) != len(docs) {
		p.Cleanup(ctx, owner, acknowledged)
		return nil, providers.ToDomain(
			providers.NewProviderError(providers.ErrorBadData, p.provider.Name(), "provider acknowledged a partial batch", nil),
			"submit documents")
	}
	for _, d := range docs {
		p.metrics.IncrementSubmitted(d.ProviderName, string(d.Type))
	}
	return &Submission{VerificationID: verificationID, Documents: docs}, nil
}

// Persist stores a submission. Earlier unsettled documents of the same type
// and side are disposed and returned so the caller can clean them up after
// commit.
func (p *Pipeline) Persist(ctx context.Context, sub *Submission) ([]*models.Document, error) {
	existing, err := p.store.ListByVerification(ctx, sub.VerificationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	now := requestcontext.Now(ctx)
	var disposed []*models.Document
	for _, old := range models.Active(existing) {
		if old.Status == models.StatusAccepted || old.Status == models.StatusVerificationInProgress {
			continue
		}
		if !supersedes(sub.Documents, old) {
			continue
		}
		ok, err := p.store.UpdateStatus(ctx, old.ID, old.Status, models.StatusChange{Status: models.StatusDisposed}, now)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "dispose document")
		}
		if !ok {
			return nil, dErrors.New(dErrors.CodeConflict, "document changed while disposing")
		}
		disposed = append(disposed, old)
	}
	for _, d := range sub.Documents {
		if err := p.store.Create(ctx, d); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save document")
		}
	}
	return disposed, nil
}

func supersedes(docs []*models.Document, old *models.Document) bool {
	for _, d := range docs {
		if d.Type == old.Type && d.Side == old.Side {
			return true
		}
	}
	return false
}

// Pair links the newest FRONT and BACK of each two-sided type in both
// directions. Already linked pairs are left alone. A direction whose update
// matched no row means a concurrent pairing won and is a conflict.
func (p *Pipeline) Pair(ctx context.Context, verificationID id.VerificationID) error {
	docs, err := p.store.ListByVerification(ctx, verificationID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	type pair struct{ front, back *models.Document }
	pairs := make(map[models.Type]*pair)
	for _, d := range models.Active(docs) {
		if !d.Type.IsTwoSided() {
			continue
		}
		pr, ok := pairs[d.Type]
		if !ok {
			pr = &pair{}
			pairs[d.Type] = pr
		}
		switch d.Side {
		case models.SideFront:
			pr.front = d
		case models.SideBack:
			pr.back = d
		}
	}

	now := requestcontext.Now(ctx)
	for docType, pr := range pairs {
		if pr.front == nil || pr.back == nil {
			continue
		}
		if pr.front.OtherSideID == pr.back.ID && pr.back.OtherSideID == pr.front.ID {
			continue
		}
		for _, link := range [][2]*models.Document{{pr.front, pr.back}, {pr.back, pr.front}} {
			if link[0].OtherSideID == link[1].ID {
				continue
			}
			ok, err := p.store.SetOtherSide(ctx, link[0].ID, link[0].OtherSideID, link[1].ID, now)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "pair documents")
			}
			if !ok {
				return dErrors.New(dErrors.CodeConflict, "concurrent pairing of "+string(docType))
			}
		}
		p.logger.InfoContext(ctx, "documents paired",
			"verification_id", verificationID.String(),
			"type", string(docType),
		)
	}
	return nil
}

// Documents returns the documents taking part in verification.
func (p *Pipeline) Documents(ctx context.Context, verificationID id.VerificationID) ([]*models.Document, error) {
	docs, err := p.store.ListByVerification(ctx, verificationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	return models.Active(docs), nil
}

// AllDocuments returns every document of the verification, selfies and
// disposed documents included.
func (p *Pipeline) AllDocuments(ctx context.Context, verificationID id.VerificationID) ([]*models.Document, error) {
	docs, err := p.store.ListByVerification(ctx, verificationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	return docs, nil
}

// CheckUpload asks the provider whether an upload has been processed and
// applies the verdict. It reports whether the document changed; a pending
// upload is left untouched.
func (p *Pipeline) CheckUpload(ctx context.Context, owner id.OwnerID, doc *models.Document) (bool, error) {
	if doc.Status != models.StatusUploadInProgress {
		return false, nil
	}
	verdict, err := p.provider.CheckDocumentUpload(ctx, owner, doc.UploadID)
	if err != nil {
		return false, providers.ToDomain(err, "check document upload")
	}
	return p.apply(ctx, doc, verdict, models.ResultPhaseUpload, models.StatusVerificationPending)
}

// RequestVerification starts provider-side verification of every document
// awaiting it. Nothing is persisted; pass the result to MarkInVerification.
func (p *Pipeline) RequestVerification(ctx context.Context, owner id.OwnerID, verificationID id.VerificationID) (ports.VerificationHandle, []*models.Document, error) {
	docs, err := p.Documents(ctx, verificationID)
	if err != nil {
		return ports.VerificationHandle{}, nil, err
	}
	var pending []*models.Document
	var uploadIDs []string
	for _, d := range docs {
		if d.Status == models.StatusVerificationPending {
			pending = append(pending, d)
			uploadIDs = append(uploadIDs, d.UploadID)
		}
	}
	if len(pending) == 0 {
		return ports.VerificationHandle{}, nil, dErrors.New(dErrors.CodeInvalidState, "no documents await verification")
	}
	handle, err := p.provider.VerifyDocuments(ctx, owner, uploadIDs)
	if err != nil {
		return ports.VerificationHandle{}, nil, providers.ToDomain(err, "verify documents")
	}
	if handle.ID == "" {
		return ports.VerificationHandle{}, nil, providers.ToDomain(
			providers.NewProviderError(providers.ErrorBadData, p.provider.Name(), "empty verification handle", nil),
			"verify documents")
	}
	return handle, pending, nil
}

// MarkInVerification records the provider handle on the documents.
func (p *Pipeline) MarkInVerification(ctx context.Context, handle ports.VerificationHandle, docs []*models.Document) error {
	now := requestcontext.Now(ctx)
	for _, d := range docs {
		ok, err := p.store.UpdateStatus(ctx, d.ID, models.StatusVerificationPending, models.StatusChange{
			Status:                 models.StatusVerificationInProgress,
			ProviderVerificationID: handle.ID,
		}, now)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "mark document in verification")
		}
		if !ok {
			return dErrors.New(dErrors.CodeConflict, "document changed before verification started")
		}
	}
	return nil
}

// Aggregate summarizes a verification poll.
type Aggregate struct {
	// Pending is true while any document still awaits a verdict.
	Pending  bool
	Outcomes map[id.DocumentID]models.Status
}

// PollResult fetches the provider verdicts for the documents in verification
// and applies them. An empty or partial answer is not an error: the
// remaining documents stay in progress and Pending is set.
func (p *Pipeline) PollResult(ctx context.Context, owner id.OwnerID, verificationID id.VerificationID) (Aggregate, error) {
	docs, err := p.Documents(ctx, verificationID)
	if err != nil {
		return Aggregate{}, err
	}
	agg := Aggregate{Outcomes: make(map[id.DocumentID]models.Status, len(docs))}
	byHandle := make(map[string][]*models.Document)
	for _, d := range docs {
		agg.Outcomes[d.ID] = d.Status
		if d.Status == models.StatusVerificationInProgress && d.ProviderVerificationID != "" {
			byHandle[d.ProviderVerificationID] = append(byHandle[d.ProviderVerificationID], d)
		}
	}

	for handle, inFlight := range byHandle {
		result, err := p.provider.GetVerificationResult(ctx, owner, handle)
		if err != nil {
			return Aggregate{}, providers.ToDomain(err, "get verification result")
		}
		verdicts := make(map[string]ports.Verdict, len(result.Verdicts))
		for _, v := range result.Verdicts {
			verdicts[v.UploadID] = v
		}
		for _, d := range inFlight {
			v, ok := verdicts[d.UploadID]
			if !ok || v.Outcome == ports.OutcomePending {
				agg.Pending = true
				continue
			}
			if _, err := p.apply(ctx, d, v, models.ResultPhaseVerification, models.StatusAccepted); err != nil {
				return Aggregate{}, err
			}
			agg.Outcomes[d.ID] = statusFor(v.Outcome, models.StatusAccepted)
		}
	}
	return agg, nil
}

// apply moves doc according to verdict and appends a result. accepted is the
// status an accepting verdict leads to in this phase.
func (p *Pipeline) apply(ctx context.Context, doc *models.Document, verdict ports.Verdict, phase models.ResultPhase, accepted models.Status) (bool, error) {
	if verdict.Outcome == ports.OutcomePending || verdict.Outcome == "" {
		return false, nil
	}
	now := requestcontext.Now(ctx)
	change := models.StatusChange{
		Status:       statusFor(verdict.Outcome, accepted),
		RejectReason: verdict.Reason,
		Errors:       verdict.Errors,
	}
	ok, err := p.store.UpdateStatus(ctx, doc.ID, doc.Status, change, now)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "update document")
	}
	if !ok {
		return false, nil
	}
	err = p.store.AddResult(ctx, &models.Result{
		ID:                uuid.NewString(),
		DocumentID:        doc.ID,
		Phase:             phase,
		ExtractedData:     verdict.ExtractedData,
		ValidationPayload: verdict.ValidationPayload,
		Score:             verdict.Score,
		CreatedAt:         now,
	})
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "save document result")
	}
	p.metrics.IncrementOutcome(doc.ProviderName, string(phase), string(change.Status))
	p.logger.InfoContext(ctx, "document verdict applied",
		"document_id", doc.ID.String(),
		"verification_id", doc.VerificationID.String(),
		"phase", string(phase),
		"status", string(change.Status),
	)
	return true, nil
}

func statusFor(outcome ports.Outcome, accepted models.Status) models.Status {
	switch outcome {
	case ports.OutcomeAccepted:
		return accepted
	case ports.OutcomeRejected:
		return models.StatusRejected
	default:
		return models.StatusFailed
	}
}

// ReferencePhoto returns the portrait of an accepted identity document for
// the presence check.
func (p *Pipeline) ReferencePhoto(ctx context.Context, verificationID id.VerificationID) ([]byte, error) {
	docs, err := p.Documents(ctx, verificationID)
	if err != nil {
		return nil, err
	}
	var photoID string
	for _, d := range docs {
		if d.Status != models.StatusAccepted || !d.Type.IsIdentityDocument() || d.Side == models.SideBack {
			continue
		}
		photoID = d.UploadID
		if d.Type == models.TypeIDCard || d.Type == models.TypePassport {
			break
		}
	}
	if photoID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidState, "no accepted identity document with a portrait")
	}
	photo, err := p.provider.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, providers.ToDomain(err, "get reference photo")
	}
	return photo, nil
}

// RecordSelfie stores the presence-check capture as an accepted SELFIE_PHOTO
// document.
func (p *Pipeline) RecordSelfie(ctx context.Context, verificationID id.VerificationID, activationID id.ActivationID, providerName, captureRef string) error {
	d, err := models.NewDocument(id.NewDocumentID(), verificationID, activationID, models.TypeSelfiePhoto, models.SideNone, providerName, "selfie", requestcontext.Now(ctx))
	if err != nil {
		return err
	}
	d.Status = models.StatusAccepted
	d.UploadID = captureRef
	if err := p.store.Create(ctx, d); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save selfie")
	}
	return nil
}

// Cleanup deletes provider-side data. Failures are logged and swallowed.
func (p *Pipeline) Cleanup(ctx context.Context, owner id.OwnerID, uploadIDs []string) {
	if len(uploadIDs) == 0 {
		return
	}
	if err := p.provider.CleanupDocuments(ctx, owner, uploadIDs); err != nil {
		p.logger.WarnContext(ctx, "document cleanup failed",
			"owner", owner.String(),
			"uploads", len(uploadIDs),
			"error", err,
		)
	}
}

// PendingUploads streams this provider's documents still being uploaded.
func (p *Pipeline) PendingUploads(ctx context.Context) iter.Seq2[*models.Document, error] {
	return p.store.StreamByProviderStatus(ctx, p.provider.Name(), models.StatusUploadInProgress)
}

// PendingVerifications streams this provider's verifications still running.
func (p *Pipeline) PendingVerifications(ctx context.Context) iter.Seq2[models.ProviderVerificationRef, error] {
	return p.store.StreamPendingVerifications(ctx, p.provider.Name())
}

// Find loads one document.
func (p *Pipeline) Find(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	d, err := p.store.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load document")
	}
	return d, nil
}
