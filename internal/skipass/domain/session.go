package domain

import (
	"time"

	"github.com/google/uuid"

	sharedBus "github.com/davicafu/skidash/internal/shared/infra/platform/bus"
)

// Session es el estado de un tablero abierto: filtros, página y criterio de reparto.
// Tiene un único dueño y solo cambia a través de sus métodos.
type Session struct {
	ID            uuid.UUID         `json:"id"`
	Filters       FilterState       `json:"filters"`
	Page          int               `json:"page"`
	Criteria      BreakdownCriteria `json:"criteria"`
	LimitsApplied bool              `json:"limitsApplied"`
	Version       int64             `json:"version"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// NewSession arranca con los rangos por defecto; ApplyLimits los ajusta
// cuando el dataset está disponible.
func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New(),
		Filters:   NewFilterState(Limits{Age: DefaultAgeRange, Prix: DefaultPriceRange}),
		Page:      1,
		Criteria:  DefaultCriteria,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) PartitionKey() string {
	return s.ID.String()
}

// --- Métodos de dominio ---

// ApplyLimits inicializa los dos rangos a los límites del dataset.
// Solo ocurre una vez por sesión; después los rangos no se reajustan nunca.
func (s *Session) ApplyLimits(l Limits) bool {
	if s.LimitsApplied {
		return false
	}
	s.Filters.AgeRange = l.Age
	s.Filters.PriceRange = l.Prix
	s.LimitsApplied = true
	s.touch()
	return true
}

// UpdateFilter aplica un único campo y vuelve siempre a la página 1,
// aunque la página anterior siguiera siendo válida.
func (s *Session) UpdateFilter(u FilterUpdate) error {
	next, err := s.Filters.Apply(u)
	if err != nil {
		return err
	}
	s.Filters = next
	s.Page = 1
	s.touch()
	return nil
}

// SelectCriteria cambia el atributo del reparto. No toca la página.
func (s *Session) SelectCriteria(c BreakdownCriteria) {
	s.Criteria = c
	s.touch()
}

// SetPage es un no-op si n está fuera de [1, totalPages]. Devuelve si se aceptó.
func (s *Session) SetPage(n, totalPages int) bool {
	if !ValidPage(n, totalPages) {
		return false
	}
	s.Page = n
	s.touch()
	return true
}

func (s *Session) touch() {
	s.Version++
	s.UpdatedAt = time.Now().UTC()
}

// Verificación estática para asegurar que Session implementa la interfaz
var _ sharedBus.Keyer = (*Session)(nil)
