package bus

import (
	"context"
	"errors"
)

type Keyer interface {
	PartitionKey() string
}

// La semántica de topic/nombre y formato del payload la decides en los adapters.
type EventBus interface {
	Publish(ctx context.Context, event interface{}) error
}

// Fanout publica el mismo evento en varios buses (ej. memoria local + Kafka).
type Fanout []EventBus

// Publish intenta todos los destinos y devuelve la unión de errores.
func (f Fanout) Publish(ctx context.Context, event interface{}) error {
	var errs []error
	for _, b := range f {
		if b == nil {
			continue
		}
		if err := b.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ EventBus = Fanout(nil)
