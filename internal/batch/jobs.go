// Package batch holds the scheduled synchronization jobs. They make progress
// on verifications waiting for slow providers and expire abandoned work
// without a user request.
package batch

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	docmodels "onboarding/internal/document/models"
	docservice "onboarding/internal/document/service"
	"onboarding/internal/onboarding"
	processmodels "onboarding/internal/process/models"
	"onboarding/internal/scheduler"
	"onboarding/internal/scheduler/metrics"
	"onboarding/internal/verification/models"
	id "onboarding/pkg/domain"
	"onboarding/pkg/requestcontext"
)

// Job names double as lease names.
const (
	JobPollDocumentSubmissions    = "poll-pending-document-submissions"
	JobPollDocumentVerifications  = "poll-pending-document-verifications"
	JobAdvanceStalledStates       = "batch-advance-stalled-states"
	JobExpireOverdueVerifications = "expire-overdue-verifications"
	JobCleanupStaleActivations    = "cleanup-stale-activations"
)

// stalledStates are swept in pipeline order so that a verification the
// providers already answered for moves as far as it can in one run.
var stalledStates = []models.State{
	models.StateDocumentUploadInProgress,
	models.StateDocumentUploadVerificationPending,
	models.StateDocumentVerificationInProgress,
	models.StatePresenceCheckVerificationPending,
}

type Documents interface {
	PendingUploads(ctx context.Context) iter.Seq2[*docmodels.Document, error]
	PendingVerifications(ctx context.Context) iter.Seq2[docmodels.ProviderVerificationRef, error]
	CheckUpload(ctx context.Context, owner id.OwnerID, doc *docmodels.Document) (bool, error)
	PollResult(ctx context.Context, owner id.OwnerID, verificationID id.VerificationID) (docservice.Aggregate, error)
}

type Verifications interface {
	Get(ctx context.Context, verificationID id.VerificationID) (*models.Verification, error)
	Stalled(ctx context.Context, state models.State) iter.Seq2[*models.Verification, error]
	NextState(ctx context.Context, verificationID id.VerificationID) (*models.Verification, error)
	ExpireOverdue(ctx context.Context, window time.Duration) ([]models.ExpiredRef, error)
}

type Otps interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

type Processes interface {
	StaleActivations(ctx context.Context, cutoff time.Time) iter.Seq2[*processmodels.Process, error]
	ExpireActivation(ctx context.Context, processID id.ProcessID) (bool, error)
}

// Registrar is the part of the scheduler the jobs register with.
type Registrar interface {
	Register(name string, interval time.Duration, fn scheduler.JobFunc) error
}

// Config holds the expiry windows.
type Config struct {
	VerificationExpiration time.Duration
	ActivationExpiration   time.Duration
}

// Summary counts what one run did. Visited rows that needed no change are
// neither Changed nor Failed.
type Summary struct {
	Visited int
	Changed int
	Failed  int
}

// Jobs runs the five synchronization sweeps. Every row is handled on its own:
// a failing row is logged and counted, and the sweep moves on.
type Jobs struct {
	documents     Documents
	verifications Verifications
	otps          Otps
	processes     Processes
	remover       onboarding.ActivationRemover
	config        Config
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type Option func(*Jobs)

func WithLogger(logger *slog.Logger) Option {
	return func(j *Jobs) {
		j.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(j *Jobs) {
		j.metrics = m
	}
}

func New(documents Documents, verifications Verifications, otps Otps, processes Processes, remover onboarding.ActivationRemover, cfg Config, opts ...Option) (*Jobs, error) {
	if documents == nil {
		return nil, errors.New("document pipeline is required")
	}
	if verifications == nil {
		return nil, errors.New("verification service is required")
	}
	if otps == nil {
		return nil, errors.New("otp service is required")
	}
	if processes == nil {
		return nil, errors.New("process service is required")
	}
	if remover == nil {
		return nil, errors.New("activation remover is required")
	}
	if cfg.VerificationExpiration <= 0 || cfg.ActivationExpiration <= 0 {
		return nil, errors.New("expiration windows must be positive")
	}
	j := &Jobs{
		documents:     documents,
		verifications: verifications,
		otps:          otps,
		processes:     processes,
		remover:       remover,
		config:        cfg,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Register schedules every job at interval.
func (j *Jobs) Register(r Registrar, interval time.Duration) error {
	sweeps := []struct {
		name string
		run  func(context.Context) (Summary, error)
	}{
		{JobPollDocumentSubmissions, j.PollDocumentSubmissions},
		{JobPollDocumentVerifications, j.PollDocumentVerifications},
		{JobAdvanceStalledStates, j.AdvanceStalledStates},
		{JobExpireOverdueVerifications, j.ExpireOverdueVerifications},
		{JobCleanupStaleActivations, j.CleanupStaleActivations},
	}
	for _, sweep := range sweeps {
		if err := r.Register(sweep.name, interval, j.logged(sweep.name, sweep.run)); err != nil {
			return err
		}
	}
	return nil
}

func (j *Jobs) logged(name string, run func(context.Context) (Summary, error)) scheduler.JobFunc {
	return func(ctx context.Context) error {
		sum, err := run(ctx)
		level := slog.LevelDebug
		if sum.Changed > 0 || sum.Failed > 0 {
			level = slog.LevelInfo
		}
		j.logger.Log(ctx, level, "batch job finished",
			"job", name,
			"visited", sum.Visited,
			"changed", sum.Changed,
			"failed", sum.Failed,
		)
		return err
	}
}

// owners resolves the provider owner of a verification once per run and
// skips completed verifications.
type owners struct {
	verifications Verifications
	seen          map[id.VerificationID]ownerEntry
}

type ownerEntry struct {
	owner  id.OwnerID
	active bool
}

func newOwners(v Verifications) *owners {
	return &owners{verifications: v, seen: make(map[id.VerificationID]ownerEntry)}
}

func (o *owners) lookup(ctx context.Context, verificationID id.VerificationID) (id.OwnerID, bool, error) {
	if e, ok := o.seen[verificationID]; ok {
		return e.owner, e.active, nil
	}
	v, err := o.verifications.Get(ctx, verificationID)
	if err != nil {
		return id.OwnerID{}, false, err
	}
	var e ownerEntry
	if !v.State().IsTerminal() {
		if e.owner, err = v.Owner(); err != nil {
			return id.OwnerID{}, false, err
		}
		e.active = true
	}
	o.seen[verificationID] = e
	return e.owner, e.active, nil
}

// PollDocumentSubmissions asks the provider about every upload still in
// progress and applies the verdicts that arrived.
func (j *Jobs) PollDocumentSubmissions(ctx context.Context) (Summary, error) {
	var sum Summary
	owners := newOwners(j.verifications)
	for doc, err := range j.documents.PendingUploads(ctx) {
		if err != nil {
			return sum, err
		}
		sum.Visited++
		owner, active, err := owners.lookup(ctx, doc.VerificationID)
		if err == nil && active {
			var changed bool
			if changed, err = j.documents.CheckUpload(ctx, owner, doc); changed {
				sum.Changed++
			}
		}
		j.rowDone(ctx, JobPollDocumentSubmissions, &sum, err, "document_id", doc.ID.String())
	}
	return sum, nil
}

// PollDocumentVerifications fetches provider results for every verification
// with documents under review. A verification counts as changed once its
// review has no pending document left.
func (j *Jobs) PollDocumentVerifications(ctx context.Context) (Summary, error) {
	var sum Summary
	owners := newOwners(j.verifications)
	polled := make(map[id.VerificationID]bool)
	for ref, err := range j.documents.PendingVerifications(ctx) {
		if err != nil {
			return sum, err
		}
		if polled[ref.VerificationID] {
			continue
		}
		polled[ref.VerificationID] = true
		sum.Visited++
		owner, active, err := owners.lookup(ctx, ref.VerificationID)
		if err == nil && active {
			var agg docservice.Aggregate
			if agg, err = j.documents.PollResult(ctx, owner, ref.VerificationID); err == nil && !agg.Pending {
				sum.Changed++
			}
		}
		j.rowDone(ctx, JobPollDocumentVerifications, &sum, err, "verification_id", ref.VerificationID.String())
	}
	return sum, nil
}

// AdvanceStalledStates fires NEXT_STATE on every verification waiting in a
// state that the providers' answers can move forward.
func (j *Jobs) AdvanceStalledStates(ctx context.Context) (Summary, error) {
	var sum Summary
	for _, state := range stalledStates {
		for v, err := range j.verifications.Stalled(ctx, state) {
			if err != nil {
				return sum, err
			}
			sum.Visited++
			updated, err := j.verifications.NextState(ctx, v.ID)
			if err == nil && updated.State() != v.State() {
				sum.Changed++
			}
			j.rowDone(ctx, JobAdvanceStalledStates, &sum, err, "verification_id", v.ID.String(), "state", state.String())
		}
	}
	return sum, nil
}

// ExpireOverdueVerifications fails running verifications older than the
// verification window and expires overdue codes.
func (j *Jobs) ExpireOverdueVerifications(ctx context.Context) (Summary, error) {
	var sum Summary
	refs, err := j.verifications.ExpireOverdue(ctx, j.config.VerificationExpiration)
	if err != nil {
		return sum, err
	}
	expired, err := j.otps.ExpireOverdue(ctx, requestcontext.Now(ctx))
	if err != nil {
		return sum, err
	}
	sum.Visited = len(refs) + expired
	sum.Changed = sum.Visited
	if sum.Changed > 0 {
		j.metrics.IncrementRowBy(JobExpireOverdueVerifications, "changed", sum.Changed)
	}
	return sum, nil
}

// CleanupStaleActivations fails processes that were never activated within
// the activation window and removes their activation.
func (j *Jobs) CleanupStaleActivations(ctx context.Context) (Summary, error) {
	var sum Summary
	cutoff := requestcontext.Now(ctx).Add(-j.config.ActivationExpiration)
	for p, err := range j.processes.StaleActivations(ctx, cutoff) {
		if err != nil {
			return sum, err
		}
		sum.Visited++
		expired, err := j.processes.ExpireActivation(ctx, p.ID)
		if err == nil && expired {
			sum.Changed++
			err = j.remover.RemoveActivation(ctx, p.ID, p.UserID)
		}
		j.rowDone(ctx, JobCleanupStaleActivations, &sum, err, "process_id", p.ID.String())
	}
	return sum, nil
}

func (j *Jobs) rowDone(ctx context.Context, job string, sum *Summary, err error, attrs ...any) {
	if err == nil {
		j.metrics.IncrementRow(job, "ok")
		return
	}
	sum.Failed++
	j.metrics.IncrementRow(job, "failed")
	j.logger.WarnContext(ctx, "batch row failed", append([]any{"job", job, "error", err}, attrs...)...)
}
