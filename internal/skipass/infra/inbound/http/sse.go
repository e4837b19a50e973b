package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/skidash/internal/shared/events"
	sharedUtils "github.com/davicafu/skidash/internal/shared/infra/utils"
	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
)

const (
	heartbeatInterval = 15 * time.Second
	streamBuffer      = 16
)

// StreamEvents endpoint GET /api/v1/sessions/:id/events
// Reenvía como Server-Sent Events las notificaciones de cambio de esa sesión.
// El stream termina al borrarse la sesión o al cerrarse la conexión.
func (h *DashboardHandler) StreamEvents(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	// Suscribirse antes de comprobar la sesión para no perder cambios intermedios.
	ch := h.events.Subscribe(streamBuffer)
	defer h.events.Unsubscribe(ch)

	ctx := c.Request.Context()
	if _, err := h.service.GetSession(ctx, id); err != nil {
		h.sendError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	key := id.String()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			c.Writer.Flush()
		case msg, open := <-ch:
			if !open {
				return
			}
			payload, ok := msg.([]byte)
			if !ok {
				continue
			}
			evt, err := sharedUtils.DecodeJSON[sharedEvents.IntegrationEvent](payload)
			if err != nil {
				h.log.Debug("Skipping undecodable event", zap.Error(err))
				continue
			}
			if evt.Key != key {
				continue
			}

			c.SSEvent(evt.Type, string(evt.Data))
			c.Writer.Flush()
			if evt.Type == skiDomain.SessionDeleted {
				return
			}
		}
	}
}
