package events

import (
	"context"
	"encoding/json"
	"sync"

	sharedBus "github.com/davicafu/skidash/internal/shared/infra/platform/bus"
)

// InMemoryEventBus implementa un bus de eventos para UN solo topic.
// Cada suscriptor recibe el evento serializado como []byte.
type InMemoryEventBus struct {
	subscribers []chan interface{}
	mu          sync.RWMutex
	closed      bool
	topic       string // Identificador del topic que maneja este bus
}

// Verifica en tiempo de compilación que cumple la interfaz
var _ sharedBus.EventBus = (*InMemoryEventBus)(nil)

// NewInMemoryEventBus crea un bus de eventos para un topic específico.
func NewInMemoryEventBus(topic string) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make([]chan interface{}, 0),
		topic:       topic,
	}
}

func (b *InMemoryEventBus) Topic() string {
	return b.topic
}

// Publish envía un evento a todos los suscriptores de este bus.
// Un suscriptor con el buffer lleno pierde el evento; el publicador nunca se bloquea.
func (b *InMemoryEventBus) Publish(ctx context.Context, event interface{}) error {
	payloadBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// El envío se hace bajo el RLock para no competir con el close de Unsubscribe.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for _, subChan := range b.subscribers {
		select {
		case subChan <- payloadBytes:
		default:
		}
	}
	return nil
}

// Subscribe suscribe un nuevo oyente a este bus.
func (b *InMemoryEventBus) Subscribe(bufferSize int) <-chan interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	subChan := make(chan interface{}, bufferSize)
	if b.closed {
		close(subChan)
		return subChan
	}
	b.subscribers = append(b.subscribers, subChan)
	return subChan
}

// Unsubscribe retira y cierra el canal. Es idempotente.
func (b *InMemoryEventBus) Unsubscribe(ch <-chan interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, subChan := range b.subscribers {
		if subChan == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(subChan)
			return
		}
	}
}

// SubscriberCount devuelve el número de oyentes activos.
func (b *InMemoryEventBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close cierra todos los canales; los Publish posteriores se descartan.
func (b *InMemoryEventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, subChan := range b.subscribers {
		close(subChan)
	}
	b.subscribers = nil
}
