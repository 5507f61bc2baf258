package store

import (
	"context"
	"iter"
	"slices"
	"sort"
	"sync"
	"time"

	"onboarding/internal/document/models"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/platform/tx"
)

// InMemoryStore keeps documents and their results in maps. Writes made
// inside a tx unit of work are undone when the unit fails.
type InMemoryStore struct {
	mu        sync.RWMutex
	documents map[id.DocumentID]*models.Document
	results   map[id.DocumentID][]*models.Result
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		documents: make(map[id.DocumentID]*models.Document),
		results:   make(map[id.DocumentID][]*models.Result),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[d.ID]; ok {
		return sentinel.ErrConflict
	}
	stored := clone(d)
	s.documents[d.ID] = stored
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.documents[d.ID] == stored {
			delete(s.documents, d.ID)
		}
	})
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(d), nil
}

func (s *InMemoryStore) ListByVerification(_ context.Context, verificationID id.VerificationID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, d := range s.documents {
		if d.VerificationID == verificationID {
			out = append(out, clone(d))
		}
	}
	sortByCreated(out)
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(ctx context.Context, docID id.DocumentID, from models.Status, change models.StatusChange, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[docID]
	if !ok || d.Status != from {
		return false, nil
	}
	before := clone(d)
	d.Status = change.Status
	if change.RejectReason != "" {
		d.RejectReason = change.RejectReason
	}
	if change.Errors != nil {
		d.Errors = slices.Clone(change.Errors)
	}
	if change.ProviderVerificationID != "" {
		d.ProviderVerificationID = change.ProviderVerificationID
	}
	d.UpdatedAt = now
	s.restoreOnRollback(ctx, d, before)
	return true, nil
}

func (s *InMemoryStore) SetOtherSide(ctx context.Context, docID, expected, otherID id.DocumentID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[docID]
	if !ok || d.OtherSideID != expected || d.Status == models.StatusDisposed {
		return false, nil
	}
	before := clone(d)
	d.OtherSideID = otherID
	d.UpdatedAt = now
	s.restoreOnRollback(ctx, d, before)
	return true, nil
}

func (s *InMemoryStore) AddResult(ctx context.Context, r *models.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[r.DocumentID]; !ok {
		return sentinel.ErrNotFound
	}
	c := *r
	s.results[r.DocumentID] = append(s.results[r.DocumentID], &c)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.results[r.DocumentID] = slices.DeleteFunc(s.results[r.DocumentID], func(x *models.Result) bool { return x == &c })
	})
	return nil
}

func (s *InMemoryStore) ListResults(_ context.Context, docID id.DocumentID) ([]*models.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Result, 0, len(s.results[docID]))
	for _, r := range s.results[docID] {
		c := *r
		out = append(out, &c)
	}
	return out, nil
}

func (s *InMemoryStore) StreamByProviderStatus(_ context.Context, provider string, status models.Status) iter.Seq2[*models.Document, error] {
	return func(yield func(*models.Document, error) bool) {
		s.mu.RLock()
		var matched []*models.Document
		for _, d := range s.documents {
			if d.ProviderName == provider && d.Status == status {
				matched = append(matched, clone(d))
			}
		}
		s.mu.RUnlock()
		sortByCreated(matched)
		for _, d := range matched {
			if !yield(d, nil) {
				return
			}
		}
	}
}

func (s *InMemoryStore) StreamPendingVerifications(_ context.Context, provider string) iter.Seq2[models.ProviderVerificationRef, error] {
	return func(yield func(models.ProviderVerificationRef, error) bool) {
		s.mu.RLock()
		seen := make(map[models.ProviderVerificationRef]time.Time)
		for _, d := range s.documents {
			if d.ProviderName != provider || d.Status != models.StatusVerificationInProgress || d.ProviderVerificationID == "" {
				continue
			}
			ref := models.ProviderVerificationRef{VerificationID: d.VerificationID, ProviderVerificationID: d.ProviderVerificationID}
			if t, ok := seen[ref]; !ok || d.CreatedAt.Before(t) {
				seen[ref] = d.CreatedAt
			}
		}
		s.mu.RUnlock()
		refs := make([]models.ProviderVerificationRef, 0, len(seen))
		for ref := range seen {
			refs = append(refs, ref)
		}
		sort.Slice(refs, func(i, j int) bool { return seen[refs[i]].Before(seen[refs[j]]) })
		for _, ref := range refs {
			if !yield(ref, nil) {
				return
			}
		}
	}
}

// restoreOnRollback puts d back to before if a failed unit of work wrote it
// and no later write has moved it.
func (s *InMemoryStore) restoreOnRollback(ctx context.Context, d, before *models.Document) {
	status, other, at := d.Status, d.OtherSideID, d.UpdatedAt
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.documents[d.ID] == d && d.Status == status && d.OtherSideID == other && d.UpdatedAt.Equal(at) {
			*d = *before
		}
	})
}

func clone(d *models.Document) *models.Document {
	c := *d
	c.Errors = slices.Clone(d.Errors)
	return &c
}

func sortByCreated(docs []*models.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}
