package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"onboarding/internal/scheduler/metrics"
	"onboarding/pkg/requestcontext"
)

type SchedulerSuite struct {
	suite.Suite
	locker   *MemoryLocker
	metrics  *metrics.Metrics
	recorder *tracetest.SpanRecorder
	tp       *sdktrace.TracerProvider
	now      time.Time
	ctx      context.Context
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.locker = NewMemoryLocker()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.recorder = tracetest.NewSpanRecorder()
	s.tp = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(s.recorder))
	s.now = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *SchedulerSuite) TearDownTest() {
	_ = s.tp.Shutdown(context.Background())
}

func (s *SchedulerSuite) newScheduler(owner string) *Scheduler {
	sched, err := New(s.locker,
		WithOwner(owner),
		WithLeaseHold(time.Second, time.Minute),
		WithMetrics(s.metrics),
		WithTracerProvider(s.tp),
	)
	s.Require().NoError(err)
	return sched
}

func (s *SchedulerSuite) TestNew() {
	s.Run("locker is required", func() {
		_, err := New(nil)
		s.ErrorContains(err, "locker is required")
	})

	s.Run("max hold must exceed min hold", func() {
		_, err := New(s.locker, WithLeaseHold(time.Minute, time.Minute))
		s.Error(err)
	})
}

func (s *SchedulerSuite) TestRegister() {
	sched := s.newScheduler("node-a")
	noop := func(context.Context) error { return nil }

	s.Require().NoError(sched.Register("b", time.Second, noop))
	s.Require().NoError(sched.Register("a", time.Second, noop))
	s.Equal([]string{"b", "a"}, sched.Jobs())

	s.Error(sched.Register("a", time.Second, noop))
	s.Error(sched.Register("c", 0, noop))
	s.Error(sched.Register("", time.Second, noop))

	_, err := sched.RunOnce(s.ctx, "missing")
	s.Error(err)
}

func (s *SchedulerSuite) TestLeaseIsKeptForMinimumHold() {
	sched := s.newScheduler("node-a")
	var runs int
	s.Require().NoError(sched.Register("sweep", time.Second, func(context.Context) error {
		runs++
		return nil
	}))

	ran, err := sched.RunOnce(s.ctx, "sweep")
	s.Require().NoError(err)
	s.True(ran)

	ran, err = sched.RunOnce(requestcontext.WithTime(context.Background(), s.now.Add(999*time.Millisecond)), "sweep")
	s.Require().NoError(err)
	s.False(ran)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.LeaseSkipped.WithLabelValues("sweep")))

	ran, err = sched.RunOnce(requestcontext.WithTime(context.Background(), s.now.Add(time.Second)), "sweep")
	s.Require().NoError(err)
	s.True(ran)
	s.Equal(2, runs)

	spans := s.recorder.Ended()
	s.Require().Len(spans, 2)
	s.Equal("scheduler.sweep", spans[0].Name())
}

func (s *SchedulerSuite) TestRunContext() {
	sched := s.newScheduler("node-a")
	var (
		now       time.Time
		requestID string
	)
	s.Require().NoError(sched.Register("sweep", time.Second, func(ctx context.Context) error {
		now = requestcontext.Now(ctx)
		requestID = requestcontext.RequestID(ctx)
		return nil
	}))

	_, err := sched.RunOnce(s.ctx, "sweep")
	s.Require().NoError(err)
	s.Equal(s.now, now, "the run sees the time it acquired the lease at")
	s.True(strings.HasPrefix(requestID, "sweep/"), requestID)
}

func (s *SchedulerSuite) TestOneInstanceRunsAJobAtATime() {
	a := s.newScheduler("node-a")
	b := s.newScheduler("node-b")

	started := make(chan struct{})
	finish := make(chan struct{})
	var runs atomic.Int32
	job := func(context.Context) error {
		runs.Add(1)
		close(started)
		<-finish
		return nil
	}
	s.Require().NoError(a.Register("sweep", time.Second, job))
	s.Require().NoError(b.Register("sweep", time.Second, job))

	done := make(chan bool)
	go func() {
		ran, _ := a.RunOnce(s.ctx, "sweep")
		done <- ran
	}()
	<-started

	ran, err := b.RunOnce(s.ctx, "sweep")
	s.Require().NoError(err)
	s.False(ran)

	close(finish)
	s.True(<-done)
	s.Equal(int32(1), runs.Load())
}

func (s *SchedulerSuite) TestFailuresAreContained() {
	sched := s.newScheduler("node-a")
	s.Require().NoError(sched.Register("failing", time.Second, func(context.Context) error {
		return errors.New("store unavailable")
	}))
	s.Require().NoError(sched.Register("panicking", time.Second, func(context.Context) error {
		panic("nil row")
	}))

	ran, err := sched.RunOnce(s.ctx, "failing")
	s.True(ran)
	s.ErrorContains(err, "store unavailable")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Runs.WithLabelValues("failing", "error")))

	ran, err = sched.RunOnce(s.ctx, "panicking")
	s.True(ran)
	s.ErrorContains(err, "panicked")

	for _, span := range s.recorder.Ended() {
		s.Equal(codes.Error, span.Status().Code)
	}

	s.Run("the lease is still released", func() {
		later := requestcontext.WithTime(context.Background(), s.now.Add(time.Second))
		ran, _ := sched.RunOnce(later, "panicking")
		s.True(ran)
	})
}

func (s *SchedulerSuite) TestRunTicksUntilCanceled() {
	sched, err := New(s.locker, WithLeaseHold(0, time.Minute))
	s.Require().NoError(err)
	var runs atomic.Int32
	s.Require().NoError(sched.Register("tick", 5*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- sched.Run(ctx) }()

	s.Eventually(func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	s.NoError(<-done)
}

func (s *SchedulerSuite) TestMemoryLocker() {
	lease, ok, err := s.locker.TryAcquire(s.ctx, "job", "node-a", s.now, time.Minute)
	s.Require().NoError(err)
	s.Require().True(ok)

	s.Run("a live lease is exclusive", func() {
		_, ok, err := s.locker.TryAcquire(s.ctx, "job", "node-b", s.now.Add(59*time.Second), time.Minute)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("a stranger's token cannot release", func() {
		stranger := lease
		stranger.Token = "other"
		s.Require().NoError(s.locker.Release(s.ctx, stranger, s.now, s.now))
		_, ok, _ := s.locker.TryAcquire(s.ctx, "job", "node-b", s.now, time.Minute)
		s.False(ok)
	})

	s.Run("an expired lease is taken over", func() {
		taken, ok, err := s.locker.TryAcquire(s.ctx, "job", "node-b", s.now.Add(time.Minute), time.Minute)
		s.Require().NoError(err)
		s.Require().True(ok)
		s.Equal("node-b", taken.Owner)

		// the previous holder's late release leaves the new lease alone
		s.Require().NoError(s.locker.Release(s.ctx, lease, s.now, s.now.Add(time.Minute)))
		_, ok, _ = s.locker.TryAcquire(s.ctx, "job", "node-a", s.now.Add(time.Minute), time.Minute)
		s.False(ok)
	})
}
