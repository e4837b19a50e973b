package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/skidash/internal/shared/domain"
	sharedQuery "github.com/davicafu/skidash/internal/shared/infra/platform/query"
)

// ---------- Errores de dominio ----------
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrInvalidCriteria    = errors.New("invalid criteria")
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	ErrDuplicateID        = errors.New("duplicate ski pass id")
)

// ---------- Interfaces (Ports) ----------

// DatasetSource entrega la colección completa una única vez al arrancar.
type DatasetSource interface {
	Fetch(ctx context.Context) ([]SkiPass, error)
}

// PassRepository es la fuente consultable (SQL, Mongo) que además admite
// filtrado y paginación del lado del almacenamiento.
type PassRepository interface {
	DatasetSource
	ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]SkiPass, error)
	Count(ctx context.Context, criteria sharedDomain.Criteria) (int, error)
}

// SessionRepository persiste el estado de cada tablero.
type SessionRepository interface {
	// Debe devolver ErrSessionNotFound si no existe o expiró.
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SessionAnalyticsRepository registra los cambios de sesión para análisis.
type SessionAnalyticsRepository interface {
	LogBatch(ctx context.Context, changes []SessionChanged) error
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// SessionCacheKey forma una key consistente para la caché de sesiones.
func SessionCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("skipass:session:%s", id.String())
}
