package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	sharedCache "github.com/davicafu/skidash/internal/shared/infra/platform/cache"
	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
)

// SessionRepo persiste las sesiones sobre cualquier Cache (Redis o memoria).
// Una sesión que no se toca durante ttl expira.
type SessionRepo struct {
	cache sharedCache.Cache
	ttl   time.Duration
}

var _ skiDomain.SessionRepository = (*SessionRepo)(nil)

func NewSessionRepo(cache sharedCache.Cache, ttl time.Duration) *SessionRepo {
	return &SessionRepo{cache: cache, ttl: ttl}
}

func (r *SessionRepo) Get(ctx context.Context, id uuid.UUID) (*skiDomain.Session, error) {
	var s skiDomain.Session
	hit, err := r.cache.Get(ctx, skiDomain.SessionCacheKey(id), &s)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	if !hit {
		return nil, skiDomain.ErrSessionNotFound
	}
	return &s, nil
}

func (r *SessionRepo) Save(ctx context.Context, s *skiDomain.Session) error {
	if err := r.cache.Set(ctx, skiDomain.SessionCacheKey(s.ID), s, sharedCache.TTLSeconds(r.ttl)); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.cache.Delete(ctx, skiDomain.SessionCacheKey(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
