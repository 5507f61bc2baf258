package store

import (
	"context"
	"iter"
	"sort"
	"sync"
	"time"

	"onboarding/internal/verification/models"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/platform/tx"
)

// InMemoryStore keeps verifications in a map and enforces the one running
// verification per activation rule itself. Writes made inside a tx unit of
// work are undone when the unit fails.
type InMemoryStore struct {
	mu            sync.RWMutex
	verifications map[id.VerificationID]*models.Verification
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{verifications: make(map[id.VerificationID]*models.Verification)}
}

func (s *InMemoryStore) Create(ctx context.Context, v *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.verifications[v.ID]; ok {
		return sentinel.ErrConflict
	}
	if !v.State().IsTerminal() {
		for _, existing := range s.verifications {
			if existing.ActivationID == v.ActivationID && !existing.State().IsTerminal() {
				return sentinel.ErrConflict
			}
		}
	}
	c := *v
	s.verifications[v.ID] = &c
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.verifications[v.ID] == &c {
			delete(s.verifications, v.ID)
		}
	})
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, verificationID id.VerificationID) (*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verifications[verificationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *v
	return &c, nil
}

// FindLatestByActivation returns the most recently created verification of
// the activation, running or not.
func (s *InMemoryStore) FindLatestByActivation(_ context.Context, activationID id.ActivationID) (*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Verification
	for _, v := range s.verifications {
		if v.ActivationID != activationID {
			continue
		}
		if latest == nil || v.CreatedAt.After(latest.CreatedAt) || (v.CreatedAt.Equal(latest.CreatedAt) && v.ID > latest.ID) {
			latest = v
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	c := *latest
	return &c, nil
}

func (s *InMemoryStore) FindRunningByProcess(_ context.Context, processID id.ProcessID) (*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.verifications {
		if v.ProcessID == processID && !v.State().IsTerminal() {
			c := *v
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) UpdateState(ctx context.Context, verificationID id.VerificationID, from models.State, change models.StateChange, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.verifications[verificationID]
	if !ok || v.State() != from {
		return false, nil
	}
	before := *v
	apply(v, change, now)
	s.restoreOnRollback(ctx, v, before)
	return true, nil
}

func (s *InMemoryStore) StreamByState(_ context.Context, state models.State) iter.Seq2[*models.Verification, error] {
	return func(yield func(*models.Verification, error) bool) {
		s.mu.RLock()
		var matched []*models.Verification
		for _, v := range s.verifications {
			if v.State() == state {
				c := *v
				matched = append(matched, &c)
			}
		}
		s.mu.RUnlock()
		sortByCreated(matched)
		for _, v := range matched {
			if !yield(v, nil) {
				return
			}
		}
	}
}

func (s *InMemoryStore) FailRunningCreatedBefore(ctx context.Context, cutoff time.Time, detail string, now time.Time) ([]models.ExpiredRef, error) {
	return s.failRunning(ctx, func(v *models.Verification) bool { return !v.CreatedAt.After(cutoff) }, detail, now), nil
}

func (s *InMemoryStore) FailRunningByProcess(ctx context.Context, processID id.ProcessID, detail string, now time.Time) ([]models.ExpiredRef, error) {
	return s.failRunning(ctx, func(v *models.Verification) bool { return v.ProcessID == processID }, detail, now), nil
}

func (s *InMemoryStore) failRunning(ctx context.Context, match func(*models.Verification) bool, detail string, now time.Time) []models.ExpiredRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hits []*models.Verification
	for _, v := range s.verifications {
		if !v.State().IsTerminal() && match(v) {
			hits = append(hits, v)
		}
	}
	sortByCreated(hits)
	refs := make([]models.ExpiredRef, 0, len(hits))
	for _, v := range hits {
		refs = append(refs, models.ExpiredRef{
			ID:           v.ID,
			ProcessID:    v.ProcessID,
			UserID:       v.UserID,
			ActivationID: v.ActivationID,
			SessionInfo:  v.SessionInfo,
		})
		before := *v
		apply(v, models.StateChange{To: models.StateCompletedFailed, ErrorDetail: detail}, now)
		s.restoreOnRollback(ctx, v, before)
	}
	return refs
}

// restoreOnRollback puts v back to before if a failed unit of work wrote it
// and no later write has moved it.
func (s *InMemoryStore) restoreOnRollback(ctx context.Context, v *models.Verification, before models.Verification) {
	state, at := v.State(), v.UpdatedAt
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.verifications[v.ID] == v && v.State() == state && v.UpdatedAt.Equal(at) {
			*v = before
		}
	})
}

func apply(v *models.Verification, change models.StateChange, now time.Time) {
	v.Phase = change.To.Phase
	v.Status = change.To.Status
	if change.ErrorDetail != "" {
		v.ErrorDetail = change.ErrorDetail
	}
	if change.RejectReason != "" {
		v.RejectReason = change.RejectReason
	}
	if change.SessionInfo != nil {
		v.SessionInfo = *change.SessionInfo
	}
	v.UpdatedAt = now
}

func sortByCreated(vs []*models.Verification) {
	sort.Slice(vs, func(i, j int) bool {
		if !vs[i].CreatedAt.Equal(vs[j].CreatedAt) {
			return vs[i].CreatedAt.Before(vs[j].CreatedAt)
		}
		return vs[i].ID < vs[j].ID
	})
}
