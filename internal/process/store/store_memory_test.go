package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"onboarding/internal/process/models"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/platform/tx"
)

type InMemoryProcessStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryProcessStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryProcessStoreSuite))
}

func (s *InMemoryProcessStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func (s *InMemoryProcessStoreSuite) newProcess(user string, createdAt time.Time) *models.Process {
	p, err := models.NewProcess(id.NewProcessID(), id.UserID(user), models.Correlation{Locale: "en"}, createdAt)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, p))
	return p
}

func (s *InMemoryProcessStoreSuite) TestCreate() {
	s.Run("second running process for the same user conflicts", func() {
		s.newProcess("user-1", s.now)
		dup, err := models.NewProcess(id.NewProcessID(), "user-1", models.Correlation{}, s.now)
		s.Require().NoError(err)
		s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("finished process does not block a new one", func() {
		p := s.newProcess("user-2", s.now)
		ok, err := s.store.Fail(s.ctx, p.ID, models.OriginCanceled, "canceled", s.now)
		s.Require().NoError(err)
		s.True(ok)
		s.newProcess("user-2", s.now.Add(time.Minute))
	})
}

func (s *InMemoryProcessStoreSuite) TestFind() {
	p := s.newProcess("user-1", s.now)

	s.Run("by id returns a copy", func() {
		got, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		got.ErrorScore = 99
		again, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(0, again.ErrorScore)
	})

	s.Run("missing id is not found", func() {
		_, err := s.store.FindByID(s.ctx, id.NewProcessID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("running by user", func() {
		got, err := s.store.FindRunningByUser(s.ctx, "user-1")
		s.Require().NoError(err)
		s.Equal(p.ID, got.ID)
		_, err = s.store.FindRunningByUser(s.ctx, "nobody")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryProcessStoreSuite) TestConditionalTransitions() {
	p := s.newProcess("user-1", s.now)

	ok, err := s.store.Finish(s.ctx, p.ID, s.now)
	s.Require().NoError(err)
	s.False(ok, "finish requires verification in progress")

	ok, err = s.store.Activate(s.ctx, p.ID, "act-1", s.now)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.Activate(s.ctx, p.ID, "act-2", s.now)
	s.Require().NoError(err)
	s.False(ok, "activation binds once")

	ok, err = s.store.Finish(s.ctx, p.ID, s.now)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.Fail(s.ctx, p.ID, models.OriginErrorScore, "late", s.now)
	s.Require().NoError(err)
	s.False(ok, "terminal status is final")

	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusFinished, got.Status)
	s.Equal(id.ActivationID("act-1"), got.ActivationID)
	s.NotNil(got.FinishedAt)
}

func (s *InMemoryProcessStoreSuite) TestAddErrorScoreConcurrent() {
	p := s.newProcess("user-1", s.now)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.AddErrorScore(s.ctx, p.ID, 2, s.now)
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(40, got.ErrorScore)

	_, err = s.store.AddErrorScore(s.ctx, id.NewProcessID(), 1, s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryProcessStoreSuite) TestAddErrorScoreFrozenWhenFinal() {
	p := s.newProcess("user-frozen", s.now)
	score, err := s.store.AddErrorScore(s.ctx, p.ID, 3, s.now)
	s.Require().NoError(err)
	s.Equal(3, score)

	ok, err := s.store.Fail(s.ctx, p.ID, models.OriginErrorScore, "limit", s.now)
	s.Require().NoError(err)
	s.Require().True(ok)

	score, err = s.store.AddErrorScore(s.ctx, p.ID, 2, s.now)
	s.Require().NoError(err)
	s.Equal(3, score)
	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(3, got.ErrorScore)
}

func (s *InMemoryProcessStoreSuite) TestFailedUnitOfWorkIsUndone() {
	runner := tx.NewLockRunner(0)
	p := s.newProcess("user-undo", s.now)
	boom := errors.New("boom")

	var created *models.Process
	err := runner.RunInTx(s.ctx, func(ctx context.Context) error {
		if _, err := s.store.AddErrorScore(ctx, p.ID, 2, s.now); err != nil {
			return err
		}
		if _, err := s.store.Fail(ctx, p.ID, models.OriginErrorScore, "limit", s.now.Add(time.Second)); err != nil {
			return err
		}
		var err error
		created, err = models.NewProcess(id.NewProcessID(), "user-other", models.Correlation{}, s.now)
		if err != nil {
			return err
		}
		if err := s.store.Create(ctx, created); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusActivationInProgress, got.Status)
	s.Zero(got.ErrorScore)
	s.Empty(got.ErrorDetail)

	_, err = s.store.FindByID(s.ctx, created.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryProcessStoreSuite) TestStreamCreatedBefore() {
	cutoff := s.now
	old := s.newProcess("user-old", s.now.Add(-time.Hour))
	boundary := s.newProcess("user-boundary", s.now)
	s.newProcess("user-new", s.now.Add(time.Second))

	var got []id.ProcessID
	for p, err := range s.store.StreamCreatedBefore(s.ctx, models.StatusActivationInProgress, cutoff) {
		s.Require().NoError(err)
		got = append(got, p.ID)
	}
	s.Equal([]id.ProcessID{old.ID, boundary.ID}, got)

	s.Run("early stop", func() {
		count := 0
		for range s.store.StreamCreatedBefore(s.ctx, models.StatusActivationInProgress, cutoff) {
			count++
			break
		}
		s.Equal(1, count)
	})
}
