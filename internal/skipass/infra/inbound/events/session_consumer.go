package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	// --- Importaciones compartidas ---
	sharedEvents "github.com/davicafu/skidash/internal/shared/events"
	sharedUtils "github.com/davicafu/skidash/internal/shared/infra/utils"
	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
)

const (
	defaultFlushInterval = 5 * time.Second
	defaultBatchSize     = 100
	flushTimeout         = 5 * time.Second
)

// SessionConsumer acumula los cambios de sesión y los vuelca por lotes al
// repositorio analítico: cada intervalo o al llenarse el lote.
type SessionConsumer struct {
	repo      skiDomain.SessionAnalyticsRepository
	log       *zap.Logger
	interval  time.Duration
	batchSize int
	maxBuffer int

	mu      sync.Mutex
	buffer  []skiDomain.SessionChanged
	pending map[uuid.UUID]struct{} // ids de evento en el buffer, para descartar duplicados
}

// NewSessionConsumer es el constructor. Valores <= 0 toman los de por defecto.
func NewSessionConsumer(repo skiDomain.SessionAnalyticsRepository, interval time.Duration, batchSize int, log *zap.Logger) *SessionConsumer {
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &SessionConsumer{
		repo:      repo,
		log:       log,
		interval:  interval,
		batchSize: batchSize,
		maxBuffer: batchSize * 10,
		pending:   make(map[uuid.UUID]struct{}),
	}
}

// HandleMessage es el punto de entrada para un nuevo mensaje/evento.
func (c *SessionConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	base, err := sharedUtils.DecodeJSON[sharedEvents.IntegrationEvent](payload)
	if err != nil {
		c.log.Warn("Failed to unmarshal integration event for session", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case skiDomain.SessionCreated, skiDomain.SessionUpdated, skiDomain.SessionDeleted:
		sharedUtils.UnmarshalAndHandle(c.log, base.Type, base.Data, func(evt skiDomain.SessionChanged) {
			c.enqueue(base.ID, evt)
		})
	default:
		c.log.Warn("Unknown session event type", zap.String("type", base.Type), zap.String("key", key))
		return
	}

	if c.Pending() >= c.batchSize {
		c.Flush(ctx)
	}
}

func (c *SessionConsumer) enqueue(eventID uuid.UUID, evt skiDomain.SessionChanged) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, dup := c.pending[eventID]; dup {
		c.log.Debug("Evento de sesión duplicado ignorado", zap.String("event_id", eventID.String()))
		return
	}
	c.pending[eventID] = struct{}{}
	c.buffer = append(c.buffer, evt)
}

// Pending devuelve cuántos cambios esperan a ser volcados.
func (c *SessionConsumer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// Flush vuelca el buffer. Si el repositorio falla, el lote vuelve al buffer
// y se conservan como mucho los maxBuffer cambios más recientes.
func (c *SessionConsumer) Flush(ctx context.Context) {
	c.mu.Lock()
	batch := c.buffer
	c.buffer = nil
	c.pending = make(map[uuid.UUID]struct{})
	c.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	ctxFlush, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()

	if err := c.repo.LogBatch(ctxFlush, batch); err != nil {
		c.log.Warn("⚠️ Failed to log session changes", zap.Int("count", len(batch)), zap.Error(err))
		c.requeue(batch)
		return
	}
	c.log.Debug("📬 Cambios de sesión registrados", zap.Int("count", len(batch)))
}

func (c *SessionConsumer) requeue(batch []skiDomain.SessionChanged) {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := append(batch, c.buffer...)
	if dropped := len(merged) - c.maxBuffer; dropped > 0 {
		c.log.Warn("Descartando cambios de sesión antiguos", zap.Int("dropped", dropped))
		merged = merged[dropped:]
	}
	c.buffer = merged
}

// Start inicia el bucle de volcado periódico. Es bloqueante; al cancelar el
// contexto hace un último volcado.
func (c *SessionConsumer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.log.Info("🚀 Session analytics worker iniciado", zap.Duration("interval", c.interval), zap.Int("batch_size", c.batchSize))

	for {
		select {
		case <-ctx.Done():
			c.Flush(context.Background())
			c.log.Info("🛑 Session analytics worker detenido.")
			return
		case <-ticker.C:
			c.Flush(ctx)
		}
	}
}

// BackgroundConsumerChan inicia una goroutine para consumir eventos de un canal
// del bus en memoria. Termina al cancelar el contexto o al cerrarse el canal.
func BackgroundConsumerChan(ctx context.Context, ch <-chan interface{}, consumer *SessionConsumer) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				consumer.log.Info("SessionConsumer stopped")
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				// Hacemos una aserción de tipo para asegurarnos de que es un []byte
				if payload, ok := msg.([]byte); ok {
					// La 'key' no es relevante en el bus en memoria, pasamos una vacía.
					consumer.HandleMessage(ctx, "", payload)
				}
			}
		}
	}()
}
