package domain

import (
	"time"

	"github.com/google/uuid"
)

// Las constantes de los tipos de evento se definen aquí, como valores string.
const (
	SessionCreated = "session.created"
	SessionUpdated = "session.updated"
	SessionDeleted = "session.deleted"
)

const SessionTopic = "skipass.sessions"

// ChangeKind indica qué operación produjo el evento.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeLimits   ChangeKind = "limits"
	ChangeFilter   ChangeKind = "filter"
	ChangeCriteria ChangeKind = "criteria"
	ChangePage     ChangeKind = "page"
	ChangeDeleted  ChangeKind = "deleted"
)

// SessionChanged es el payload de las notificaciones de cambio de estado.
type SessionChanged struct {
	SessionID     uuid.UUID         `json:"sessionId"`
	Version       int64             `json:"version"`
	Change        ChangeKind        `json:"change"`
	Field         string            `json:"field,omitempty"`
	Filters       FilterState       `json:"filters"`
	Page          int               `json:"page"`
	Criteria      BreakdownCriteria `json:"criteria"`
	FilteredCount int               `json:"filteredCount"`
	OccurredAt    time.Time         `json:"occurredAt"`
}

// EventType traduce el tipo de cambio al tipo de evento publicado.
func (k ChangeKind) EventType() string {
	switch k {
	case ChangeCreated:
		return SessionCreated
	case ChangeDeleted:
		return SessionDeleted
	default:
		return SessionUpdated
	}
}

// NewSessionChanged toma una instantánea de la sesión tras el cambio.
func NewSessionChanged(s *Session, kind ChangeKind, field string, filteredCount int) SessionChanged {
	return SessionChanged{
		SessionID:     s.ID,
		Version:       s.Version,
		Change:        kind,
		Field:         field,
		Filters:       s.Filters,
		Page:          s.Page,
		Criteria:      s.Criteria,
		FilteredCount: filteredCount,
		OccurredAt:    time.Now().UTC(),
	}
}
