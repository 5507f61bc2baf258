package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"onboarding/internal/scheduler/metrics"
	"onboarding/pkg/requestcontext"
)

const (
	tracerName     = "onboarding/scheduler"
	releaseTimeout = 5 * time.Second
)

// JobFunc is one run of a job. Returning an error marks the run failed; the
// next tick runs the job again.
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	run      JobFunc
}

// Scheduler ticks every registered job on its own interval. A tick runs the
// job only when this instance gets the job's lease.
type Scheduler struct {
	locker  Locker
	owner   string
	minHold time.Duration
	maxHold time.Duration
	jobs    []job
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Scheduler) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// WithOwner names this instance in the lease store. The default is the host
// name with a random suffix.
func WithOwner(owner string) Option {
	return func(s *Scheduler) {
		if owner != "" {
			s.owner = owner
		}
	}
}

// WithLeaseHold sets how long a lease is kept at least after a run started
// and how long it may be held at most.
func WithLeaseHold(minHold, maxHold time.Duration) Option {
	return func(s *Scheduler) {
		s.minHold = minHold
		s.maxHold = maxHold
	}
}

func New(locker Locker, opts ...Option) (*Scheduler, error) {
	if locker == nil {
		return nil, errors.New("locker is required")
	}
	host, _ := os.Hostname()
	s := &Scheduler{
		locker:  locker,
		owner:   host + "-" + newToken()[:8],
		minHold: time.Second,
		maxHold: 5 * time.Minute,
		logger:  slog.New(slog.DiscardHandler),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.minHold < 0 || s.maxHold <= s.minHold {
		return nil, fmt.Errorf("lease max hold %s must exceed min hold %s", s.maxHold, s.minHold)
	}
	return s, nil
}

// Register adds a job. Names double as lease names and must be unique.
func (s *Scheduler) Register(name string, interval time.Duration, fn JobFunc) error {
	if name == "" || fn == nil {
		return errors.New("job name and function are required")
	}
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	for _, j := range s.jobs {
		if j.name == name {
			return fmt.Errorf("job %s registered twice", name)
		}
	}
	s.jobs = append(s.jobs, job{name: name, interval: interval, run: fn})
	return nil
}

// Jobs lists the registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		names = append(names, j.name)
	}
	return names
}

// Run ticks every job until ctx is canceled. Job failures never stop the
// loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "scheduler started", "owner", s.owner, "jobs", s.Jobs())
	g, ctx := errgroup.WithContext(ctx)
	for _, j := range s.jobs {
		g.Go(func() error {
			s.loop(ctx, j)
			return nil
		})
	}
	err := g.Wait()
	s.logger.InfoContext(context.WithoutCancel(ctx), "scheduler stopped", "owner", s.owner)
	return err
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.runJob(ctx, j); err != nil {
				s.logger.ErrorContext(ctx, "scheduled job failed", "job", j.name, "error", err)
			}
		}
	}
}

// RunOnce runs the named job now if its lease is free. It reports whether
// the job ran.
func (s *Scheduler) RunOnce(ctx context.Context, name string) (bool, error) {
	for _, j := range s.jobs {
		if j.name == name {
			return s.runJob(ctx, j)
		}
	}
	return false, fmt.Errorf("unknown job %s", name)
}

func (s *Scheduler) runJob(ctx context.Context, j job) (bool, error) {
	now := requestcontext.Now(ctx)
	lease, ok, err := s.locker.TryAcquire(ctx, j.name, s.owner, now, s.maxHold)
	if err != nil {
		s.metrics.IncrementLeaseFailure(j.name, "acquire")
		return false, err
	}
	if !ok {
		s.metrics.IncrementLeaseSkipped(j.name)
		return false, nil
	}
	defer s.release(ctx, lease)

	runCtx, cancel := context.WithTimeout(ctx, s.maxHold)
	defer cancel()
	runCtx = requestcontext.WithTime(runCtx, now)
	runCtx = requestcontext.WithRequestID(runCtx, j.name+"/"+lease.Token)
	runCtx, span := s.tracer.Start(runCtx, "scheduler."+j.name, trace.WithAttributes(
		attribute.String("scheduler.job", j.name),
		attribute.String("scheduler.owner", s.owner),
	))
	defer span.End()

	start := time.Now()
	err = safeRun(runCtx, j)
	s.metrics.ObserveRun(j.name, time.Since(start))
	if err != nil {
		s.metrics.IncrementRun(j.name, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "job failed")
		return true, err
	}
	s.metrics.IncrementRun(j.name, "success")
	return true, nil
}

// release keeps the lease for the minimum hold counted from acquisition so
// that peers ticking right after a short run do not repeat it.
func (s *Scheduler) release(ctx context.Context, lease Lease) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	keepUntil := lease.AcquiredAt.Add(s.minHold)
	if err := s.locker.Release(ctx, lease, keepUntil, requestcontext.Now(ctx)); err != nil {
		s.metrics.IncrementLeaseFailure(lease.Name, "release")
		s.logger.WarnContext(ctx, "lease release failed; it expires on its own",
			"job", lease.Name,
			"until", lease.Until,
			"error", err,
		)
	}
}

func safeRun(ctx context.Context, j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
	}()
	return j.run(ctx)
}

func newToken() string {
	return uuid.NewString()
}
