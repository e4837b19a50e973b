package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Base de todos los eventos de integración
type IntegrationEvent struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Key       string          `json:"key,omitempty"` // clave de partición (ej. id de sesión)
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"` // contenido específico del evento
}

// NewIntegrationEvent serializa el payload y construye el sobre del evento.
func NewIntegrationEvent(eventType, key string, payload interface{}) (IntegrationEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return IntegrationEvent{}, err
	}
	return IntegrationEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Key:       key,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// PartitionKey permite a los publishers (Kafka) mantener el orden por clave.
func (e IntegrationEvent) PartitionKey() string {
	return e.Key
}

// EventType permite a los publishers etiquetar el mensaje sin decodificarlo.
func (e IntegrationEvent) EventType() string {
	return e.Type
}
