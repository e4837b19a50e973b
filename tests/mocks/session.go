package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
)

// InMemorySessionRepo simula SessionRepository guardando copias de las sesiones.
type InMemorySessionRepo struct {
	Sessions map[uuid.UUID]skiDomain.Session
	Saves    int
	FailSave error
	mu       sync.Mutex
}

var _ skiDomain.SessionRepository = (*InMemorySessionRepo)(nil)

func NewInMemorySessionRepo() *InMemorySessionRepo {
	return &InMemorySessionRepo{
		Sessions: make(map[uuid.UUID]skiDomain.Session),
	}
}

func (r *InMemorySessionRepo) Get(ctx context.Context, id uuid.UUID) (*skiDomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.Sessions[id]
	if !ok {
		return nil, skiDomain.ErrSessionNotFound
	}
	return &s, nil
}

func (r *InMemorySessionRepo) Save(ctx context.Context, s *skiDomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailSave != nil {
		return r.FailSave
	}
	r.Sessions[s.ID] = *s
	r.Saves++
	return nil
}

func (r *InMemorySessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Sessions[id]; !ok {
		return skiDomain.ErrSessionNotFound
	}
	delete(r.Sessions, id)
	return nil
}
