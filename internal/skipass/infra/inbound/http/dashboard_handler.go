package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/skidash/internal/skipass/application"
	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
	"github.com/davicafu/skidash/pkg/utils"
)

// Subscriber es el bus en memoria del que se alimentan los streams SSE.
type Subscriber interface {
	Subscribe(bufferSize int) <-chan interface{}
	Unsubscribe(ch <-chan interface{})
}

// DashboardHandler encapsula los endpoints HTTP del tablero.
type DashboardHandler struct {
	service *application.DashboardService
	events  Subscriber
	log     *zap.Logger
}

// NewDashboardHandler crea un nuevo DashboardHandler. events puede ser nil:
// entonces el stream de eventos no se registra.
func NewDashboardHandler(service *application.DashboardService, events Subscriber, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: service, events: events, log: log}
}

// ---------------- Dataset y vista sin estado ----------------

// GetDataset endpoint GET /api/v1/dataset
func (h *DashboardHandler) GetDataset(c *gin.Context) {
	utils.SendSuccess(c, http.StatusOK, h.service.Dataset())
}

// rangeParams asocia cada extremo de rango con su parámetro de query.
var rangeParams = []struct {
	field    skiDomain.FilterField
	min, max string
}{
	{skiDomain.FilterAgeRange, "age_min", "age_max"},
	{skiDomain.FilterPriceRange, "prix_min", "prix_max"},
}

// GetDashboard endpoint GET /api/v1/dashboard
// Parte de los filtros por defecto y aplica solo los parámetros presentes.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	filters := h.service.DefaultFilters()

	// --- Filtros categóricos desde query params ---
	for _, field := range []skiDomain.FilterField{skiDomain.FilterSaison, skiDomain.FilterNiveau, skiDomain.FilterCompte, skiDomain.FilterPasse} {
		value, ok := c.GetQuery(string(field))
		if !ok {
			continue
		}
		next, err := filters.Apply(skiDomain.FilterUpdate{Field: field, Value: value})
		if err != nil {
			utils.SendBadRequest(c, err.Error())
			return
		}
		filters = next
	}

	// --- Rangos: cada extremo se puede omitir ---
	for _, p := range rangeParams {
		r := filters.AgeRange
		if p.field == skiDomain.FilterPriceRange {
			r = filters.PriceRange
		}
		var err error
		if r.Min, err = floatQuery(c, p.min, r.Min); err != nil {
			utils.SendBadRequest(c, err.Error())
			return
		}
		if r.Max, err = floatQuery(c, p.max, r.Max); err != nil {
			utils.SendBadRequest(c, err.Error())
			return
		}
		if filters, err = filters.Apply(skiDomain.FilterUpdate{Field: p.field, Range: r}); err != nil {
			utils.SendBadRequest(c, err.Error())
			return
		}
	}

	criteria, err := skiDomain.ParseCriteria(c.DefaultQuery("criteria", string(skiDomain.CriteriaNiveau)))
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	page := 1
	if raw, ok := c.GetQuery("page"); ok {
		if page, err = strconv.Atoi(raw); err != nil {
			utils.SendBadRequest(c, "invalid page")
			return
		}
	}

	view := h.service.View(c.Request.Context(), application.ViewQuery{Filters: filters, Criteria: criteria, Page: page})
	utils.SendSuccess(c, http.StatusOK, view)
}

func floatQuery(c *gin.Context, name string, fallback float64) (float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return v, nil
}

// ---------------- Sesiones ----------------

// CreateSession endpoint POST /api/v1/sessions
func (h *DashboardHandler) CreateSession(c *gin.Context) {
	view, err := h.service.CreateSession(c.Request.Context())
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.Header("Location", "/api/v1/sessions/"+view.SessionID)
	utils.SendSuccess(c, http.StatusCreated, view)
}

// GetSession endpoint GET /api/v1/sessions/:id
func (h *DashboardHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	view, err := h.service.GetSession(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, view)
}

// UpdateFilter endpoint PATCH /api/v1/sessions/:id/filters
func (h *DashboardHandler) UpdateFilter(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req struct {
		Field string          `json:"field" binding:"required"`
		Value json.RawMessage `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	update, err := skiDomain.DecodeFilterUpdate(req.Field, req.Value)
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	view, err := h.service.UpdateFilter(c.Request.Context(), id, update)
	if err != nil {
		h.sendError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, view)
}

// SelectCriteria endpoint PUT /api/v1/sessions/:id/criteria
func (h *DashboardHandler) SelectCriteria(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req struct {
		Criteria string `json:"criteria" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	view, err := h.service.SelectCriteria(c.Request.Context(), id, skiDomain.BreakdownCriteria(req.Criteria))
	if err != nil {
		h.sendError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, view)
}

// ChangePage endpoint PUT /api/v1/sessions/:id/page
// Una página fuera de rango no es un error: responde changed=false.
func (h *DashboardHandler) ChangePage(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req struct {
		Page *int `json:"page" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	view, changed, err := h.service.ChangePage(c.Request.Context(), id, *req.Page)
	if err != nil {
		h.sendError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{"view": view, "changed": changed})
}

// DeleteSession endpoint DELETE /api/v1/sessions/:id
func (h *DashboardHandler) DeleteSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteSession(c.Request.Context(), id); err != nil {
		h.sendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------------- Helpers ----------------

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

// sendError traduce errores de dominio a códigos HTTP.
func (h *DashboardHandler) sendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, skiDomain.ErrInvalidFilter), errors.Is(err, skiDomain.ErrInvalidCriteria):
		utils.SendBadRequest(c, err.Error())
	case errors.Is(err, skiDomain.ErrSessionNotFound):
		utils.SendNotFound(c, "session not found")
	default:
		h.log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		utils.SendInternalServerError(c, "internal error")
	}
}
