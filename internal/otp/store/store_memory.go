package store

import (
	"context"
	"sync"
	"time"

	"onboarding/internal/otp/models"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/platform/tx"
)

// InMemoryStore keeps codes in a map for tests and single-node development.
// Writes made inside a tx unit of work are undone when the unit fails.
type InMemoryStore struct {
	mu   sync.RWMutex
	otps map[id.OtpID]*models.Otp
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{otps: make(map[id.OtpID]*models.Otp)}
}

func (s *InMemoryStore) Create(ctx context.Context, o *models.Otp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.otps {
		if existing.ProcessID == o.ProcessID && existing.Type == o.Type && existing.Status == models.StatusActive {
			return sentinel.ErrConflict
		}
	}
	c := *o
	s.otps[o.ID] = &c
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.otps[o.ID] == &c {
			delete(s.otps, o.ID)
		}
	})
	return nil
}

func (s *InMemoryStore) FindActive(_ context.Context, processID id.ProcessID, otpType models.Type) (*models.Otp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.otps {
		if o.ProcessID == processID && o.Type == otpType && o.Status == models.StatusActive {
			c := *o
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) RecordFailedAttempt(ctx context.Context, otpID id.OtpID, now time.Time) (*models.Otp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.otps[otpID]
	if !ok || o.Status != models.StatusActive {
		return nil, sentinel.ErrNotFound
	}
	before := *o
	o.FailedAttempts++
	if o.FailedAttempts >= o.MaxAttempts {
		o.Status = models.StatusFailed
	}
	o.UpdatedAt = now
	s.restoreOnRollback(ctx, o, before)
	c := *o
	return &c, nil
}

func (s *InMemoryStore) Close(ctx context.Context, otpID id.OtpID, status models.Status, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.otps[otpID]
	if !ok || o.Status != models.StatusActive {
		return false, nil
	}
	before := *o
	o.Status = status
	o.UpdatedAt = now
	s.restoreOnRollback(ctx, o, before)
	return true, nil
}

func (s *InMemoryStore) CancelActive(ctx context.Context, processID id.ProcessID, otpType models.Type, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.otps {
		if o.ProcessID != processID || o.Status != models.StatusActive {
			continue
		}
		if otpType != "" && o.Type != otpType {
			continue
		}
		before := *o
		o.Status = models.StatusCanceled
		o.UpdatedAt = now
		s.restoreOnRollback(ctx, o, before)
		n++
	}
	return n, nil
}

func (s *InMemoryStore) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.otps {
		if o.Status == models.StatusActive && models.HasExpired(o.CreatedAt, o.ExpiresAt, now) {
			before := *o
			o.Status = models.StatusExpired
			o.UpdatedAt = now
			s.restoreOnRollback(ctx, o, before)
			n++
		}
	}
	return n, nil
}

// restoreOnRollback puts o back to before if a failed unit of work wrote it
// and nothing has changed the code since.
func (s *InMemoryStore) restoreOnRollback(ctx context.Context, o *models.Otp, before models.Otp) {
	after := *o
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.otps[o.ID] == o && *o == after {
			*o = before
		}
	})
}
