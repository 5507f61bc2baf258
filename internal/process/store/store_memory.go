package store

import (
	"context"
	"iter"
	"sort"
	"sync"
	"time"

	"onboarding/internal/process/models"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/platform/tx"
)

// InMemoryStore is a process store for tests and single-node development.
// Every read returns a copy so callers cannot mutate stored state. Writes
// made inside a tx unit of work are undone when the unit fails.
type InMemoryStore struct {
	mu        sync.RWMutex
	processes map[id.ProcessID]*models.Process
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{processes: make(map[id.ProcessID]*models.Process)}
}

func (s *InMemoryStore) Create(ctx context.Context, p *models.Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.processes[p.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.processes {
		if existing.UserID == p.UserID && existing.Status.IsRunning() {
			return sentinel.ErrConflict
		}
	}
	stored := clone(p)
	s.processes[p.ID] = stored
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.processes[p.ID] == stored {
			delete(s.processes, p.ID)
		}
	})
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, processID id.ProcessID) (*models.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.processes[processID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(p), nil
}

func (s *InMemoryStore) FindRunningByUser(_ context.Context, userID id.UserID) (*models.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.processes {
		if p.UserID == userID && p.Status.IsRunning() {
			return clone(p), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Activate(ctx context.Context, processID id.ProcessID, activationID id.ActivationID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.processes[processID]
	if !ok || p.Status != models.StatusActivationInProgress {
		return false, nil
	}
	before := clone(p)
	p.ActivationID = activationID
	p.Status = models.StatusVerificationInProgress
	p.UpdatedAt = now
	s.restoreOnRollback(ctx, p, before)
	return true, nil
}

func (s *InMemoryStore) Finish(ctx context.Context, processID id.ProcessID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.processes[processID]
	if !ok || p.CanFinish() != nil {
		return false, nil
	}
	before := clone(p)
	p.ApplyFinish(now)
	s.restoreOnRollback(ctx, p, before)
	return true, nil
}

func (s *InMemoryStore) Fail(ctx context.Context, processID id.ProcessID, origin models.FailureOrigin, detail string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.processes[processID]
	if !ok || p.CanFail() != nil {
		return false, nil
	}
	before := clone(p)
	p.ApplyFailure(origin, detail, now)
	s.restoreOnRollback(ctx, p, before)
	return true, nil
}

func (s *InMemoryStore) AddErrorScore(ctx context.Context, processID id.ProcessID, weight int, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.processes[processID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	if !p.Status.IsRunning() {
		return p.ErrorScore, nil
	}
	p.ErrorScore += weight
	p.UpdatedAt = now
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		p.ErrorScore -= weight
	})
	return p.ErrorScore, nil
}

// restoreOnRollback puts p back to before if a failed unit of work wrote its
// status and nothing has moved the process since. The score is left alone;
// AddErrorScore compensates its own increments.
func (s *InMemoryStore) restoreOnRollback(ctx context.Context, p, before *models.Process) {
	written, at := p.Status, p.UpdatedAt
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.processes[p.ID] != p || p.Status != written || !p.UpdatedAt.Equal(at) {
			return
		}
		score := p.ErrorScore
		*p = *before
		p.ErrorScore = score
	})
}
func clone(p *models.Process) *models.Process {
	c := *p
	if p.FinishedAt != nil {
		t := *p.FinishedAt
		c.FinishedAt = &t
	}
	if p.Correlation.FraudSignals != nil {
		c.Correlation.FraudSignals = make(map[string]string, len(p.Correlation.FraudSignals))
		for k, v := range p.Correlation.FraudSignals {
			c.Correlation.FraudSignals[k] = v
		}
	}
	return &c
}
