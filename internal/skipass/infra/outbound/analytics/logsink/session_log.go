package logsink

import (
	"context"

	"go.uber.org/zap"

	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
)

// SessionLog escribe los cambios de sesión en el log estructurado.
// Se usa cuando no hay ClickHouse configurado.
type SessionLog struct {
	log *zap.Logger
}

func NewSessionLog(log *zap.Logger) *SessionLog {
	return &SessionLog{log: log.Named("session_analytics")}
}

func (s *SessionLog) LogBatch(_ context.Context, changes []skiDomain.SessionChanged) error {
	for _, c := range changes {
		s.log.Info("session change",
			zap.String("session_id", c.SessionID.String()),
			zap.Int64("version", c.Version),
			zap.String("change", string(c.Change)),
			zap.String("field", c.Field),
			zap.Any("filters", c.Filters),
			zap.String("criteria", string(c.Criteria)),
			zap.Int("page", c.Page),
			zap.Int("filtered_count", c.FilteredCount),
			zap.Time("occurred_at", c.OccurredAt),
		)
	}
	return nil
}

var _ skiDomain.SessionAnalyticsRepository = (*SessionLog)(nil)
