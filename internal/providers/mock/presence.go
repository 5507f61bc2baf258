package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"onboarding/internal/presence/ports"
	"onboarding/internal/providers"
	id "onboarding/pkg/domain"
)

type presenceSession struct {
	photo   []byte
	session ports.SessionInfo
	polls   int
}

// PresenceProvider is an in-memory liveness vendor. A check started without
// a reference photo is rejected.
type PresenceProvider struct {
	mu           sync.Mutex
	pendingPolls int
	sessions     map[id.OwnerID]*presenceSession
}

var _ ports.Provider = (*PresenceProvider)(nil)

func NewPresenceProvider(pendingPolls int) *PresenceProvider {
	return &PresenceProvider{
		pendingPolls: max(pendingPolls, 0),
		sessions:     make(map[id.OwnerID]*presenceSession),
	}
}

func (p *PresenceProvider) Name() string { return Name }

func (p *PresenceProvider) InitPresenceCheck(_ context.Context, owner id.OwnerID, photo []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[owner] = &presenceSession{photo: append([]byte(nil), photo...)}
	return nil
}

func (p *PresenceProvider) StartPresenceCheck(_ context.Context, owner id.OwnerID) (ports.SessionInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[owner]
	if !ok {
		return ports.SessionInfo{}, providers.NewProviderError(providers.ErrorBadData, Name, "presence check not initialized", nil)
	}
	sessionID := uuid.NewString()
	s.session = ports.SessionInfo{SessionID: sessionID, Token: uuid.NewString(), URL: "mock://presence/" + sessionID}
	s.polls = 0
	return s.session, nil
}

func (p *PresenceProvider) GetResult(_ context.Context, owner id.OwnerID, session ports.SessionInfo) (ports.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[owner]
	if !ok || s.session.SessionID != session.SessionID {
		return ports.Result{}, providers.NewProviderError(providers.ErrorNotFound, Name, "unknown presence session", nil)
	}
	if s.polls < p.pendingPolls {
		s.polls++
		return ports.Result{Status: ports.ResultInProgress}, nil
	}
	if len(s.photo) == 0 {
		return ports.Result{Status: ports.ResultRejected, Reason: "no reference portrait"}, nil
	}
	return ports.Result{
		Status:    ports.ResultAccepted,
		Score:     1,
		Selfie:    []byte("mock-selfie:" + session.SessionID),
		SelfieRef: "mock-selfie-" + session.SessionID,
	}, nil
}

func (p *PresenceProvider) CleanupIdentityData(_ context.Context, owner id.OwnerID, _ ports.SessionInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, owner)
	return nil
}
