package mocks

import (
	"context"
	"errors"
	"sync"

	sharedEvents "github.com/davicafu/skidash/internal/shared/events"
	sharedBus "github.com/davicafu/skidash/internal/shared/infra/platform/bus"
)

// RecordingBus captura los eventos de integración publicados.
type RecordingBus struct {
	Events []sharedEvents.IntegrationEvent
	Err    error
	mu     sync.Mutex
}

var _ sharedBus.EventBus = (*RecordingBus)(nil)

func (b *RecordingBus) Publish(ctx context.Context, event interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	evt, ok := event.(sharedEvents.IntegrationEvent)
	if !ok {
		return errors.New("unexpected event type")
	}
	b.Events = append(b.Events, evt)
	return nil
}

// Types devuelve los tipos de evento en orden de publicación.
func (b *RecordingBus) Types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.Events))
	for i, e := range b.Events {
		out[i] = e.Type
	}
	return out
}

// Last devuelve el último evento publicado.
func (b *RecordingBus) Last() (sharedEvents.IntegrationEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Events) == 0 {
		return sharedEvents.IntegrationEvent{}, false
	}
	return b.Events[len(b.Events)-1], true
}
