package shopping

import (
	"context"
	"sync"

	"github.com/gofrs/uuid"
)

// MemoryRepository is an in-process session directory with the same
// version semantics as the Postgres repository. Used for tests and for
// the demo seed path.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[uuid.UUID]Session)}
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return copySession(session), nil
}

func (r *MemoryRepository) GetActiveByBasketID(_ context.Context, basketID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, session := range r.sessions {
		if session.BasketID == basketID && session.Status == StatusActive {
			return copySession(session), nil
		}
	}

	return nil, ErrSessionNotFound
}

func (r *MemoryRepository) GetByCustomerID(_ context.Context, customerID string) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]Session, 0)
	for _, session := range r.sessions {
		if session.CustomerID == customerID {
			sessions = append(sessions, *copySession(session))
		}
	}

	return sessions, nil
}

func (r *MemoryRepository) Save(_ context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.sessions[session.ID]
	if session.Version == 0 {
		session.Version = 1
	} else {
		if !exists || stored.Version != session.Version {
			return ErrVersionConflict
		}
		session.Version++
	}

	r.sessions[session.ID] = *copySession(*session)

	return nil
}

func copySession(s Session) *Session {
	out := s
	out.Items = make([]BasketItem, len(s.Items))
	copy(out.Items, s.Items)
	return &out
}
