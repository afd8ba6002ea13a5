package runtime

import (
	"sync"

	"trade-lab/contract"
	"trade-lab/domain"
	"trade-lab/errors"
)

var _ contract.IRegistry = (*Registry)(nil)

// Registry maps every actor in a trade to the session they share.
// Both participants point at the same *domain.Session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ActorID]*domain.Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.ActorID]*domain.Session),
	}
}

// TryOpen creates a session between a and b.
// The membership check and both inserts happen under a single lock, so two
// concurrent invitations can never put the same actor in two sessions.
func (r *Registry) TryOpen(a, b domain.ActorID, channel domain.ChannelID) (*domain.Session, error) {
	if a == b {
		return nil, errors.ErrSelfTrade
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[a]; ok {
		return nil, errors.ErrAlreadyInSession
	}
	if _, ok := r.sessions[b]; ok {
		return nil, errors.ErrAlreadyInSession
	}
	session := domain.NewSession(a, b, channel)
	r.sessions[a] = session
	r.sessions[b] = session
	return session, nil
}

func (r *Registry) Get(actor domain.ActorID) (*domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[actor]
	return session, ok
}

// Close releases both participants. Keys that already point elsewhere, or
// nowhere, are left alone, so closing twice is a no-op.
func (r *Registry) Close(session *domain.Session) {
	if session == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range session.Participants() {
		if r.sessions[p] == session {
			delete(r.sessions, p)
		}
	}
}

// Count returns the number of open sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions) / 2
}
