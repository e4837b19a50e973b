package domain

import (
	"encoding/json"
	"fmt"

	shared "github.com/davicafu/skidash/internal/shared/domain"
)

// CompteFilter es el filtro tri-estado sobre el booleano "compte".
// Se compara directamente con el booleano del registro, no con su texto.
type CompteFilter string

const (
	CompteAll   CompteFilter = All
	CompteTrue  CompteFilter = "true"
	CompteFalse CompteFilter = "false"
)

func (c CompteFilter) IsValid() bool {
	return c == CompteAll || c == CompteTrue || c == CompteFalse
}

// Matches indica si el valor booleano cumple el filtro.
func (c CompteFilter) Matches(v bool) bool {
	switch c {
	case CompteTrue:
		return v
	case CompteFalse:
		return !v
	default:
		return true
	}
}

// FilterState agrupa los predicados activos. Se combinan siempre con AND.
type FilterState struct {
	Saison     string       `json:"saison"`
	Niveau     string       `json:"niveau"`
	Compte     CompteFilter `json:"compte"`
	Passe      string       `json:"passe"`
	AgeRange   Range        `json:"ageRange"`
	PriceRange Range        `json:"priceRange"`
}

// NewFilterState crea el estado inicial: categorías en "all" y rangos en los límites dados.
func NewFilterState(limits Limits) FilterState {
	return FilterState{
		Saison:     All,
		Niveau:     All,
		Compte:     CompteAll,
		Passe:      All,
		AgeRange:   limits.Age,
		PriceRange: limits.Prix,
	}
}

// Matches evalúa el filtro contra un registro.
func (f FilterState) Matches(p SkiPass) bool {
	if active(f.Saison) && string(p.Saison) != f.Saison {
		return false
	}
	if active(f.Niveau) && string(p.Niveau) != f.Niveau {
		return false
	}
	if !f.Compte.Matches(p.Compte) {
		return false
	}
	if active(f.Passe) && string(p.Passe) != f.Passe {
		return false
	}
	return f.AgeRange.Contains(float64(p.Age)) && f.PriceRange.Contains(p.Prix)
}

// active: el valor vacío equivale a "all".
func active(v string) bool {
	return v != "" && v != All
}

// Filter devuelve un nuevo slice con los registros que cumplen el filtro,
// en el mismo orden relativo que la entrada.
func Filter(records []SkiPass, f FilterState) []SkiPass {
	out := make([]SkiPass, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Criteria expresa el filtro como criterios neutrales para los repositorios.
func (f FilterState) Criteria() shared.Criteria {
	var criterias []shared.Criteria
	if active(f.Saison) {
		criterias = append(criterias, SaisonCriteria{Saison: Saison(f.Saison)})
	}
	if active(f.Niveau) {
		criterias = append(criterias, NiveauCriteria{Niveau: Niveau(f.Niveau)})
	}
	if f.Compte == CompteTrue || f.Compte == CompteFalse {
		criterias = append(criterias, CompteCriteria{Compte: f.Compte == CompteTrue})
	}
	if active(f.Passe) {
		criterias = append(criterias, PasseCriteria{Passe: Passe(f.Passe)})
	}
	criterias = append(criterias,
		AgeRangeCriteria{Range: f.AgeRange},
		PriceRangeCriteria{Range: f.PriceRange},
	)
	return shared.And(criterias...)
}

// ---------------- Actualización de un campo ----------------

// FilterField nombra un control de filtro.
type FilterField string

const (
	FilterSaison     FilterField = "saison"
	FilterNiveau     FilterField = "niveau"
	FilterCompte     FilterField = "compte"
	FilterPasse      FilterField = "passe"
	FilterAgeRange   FilterField = "ageRange"
	FilterPriceRange FilterField = "priceRange"
)

func (f FilterField) IsRange() bool {
	return f == FilterAgeRange || f == FilterPriceRange
}

// FilterUpdate es la modificación de un único campo. Value aplica a los campos
// categóricos y Range a los numéricos.
type FilterUpdate struct {
	Field FilterField
	Value string
	Range Range
}

// DecodeFilterUpdate interpreta el valor JSON según el tipo del campo:
// un string para los categóricos y un par [min, max] para los rangos.
func DecodeFilterUpdate(field string, raw json.RawMessage) (FilterUpdate, error) {
	u := FilterUpdate{Field: FilterField(field)}
	if len(raw) == 0 {
		return u, fmt.Errorf("%w: missing value for %q", ErrInvalidFilter, field)
	}

	if u.Field.IsRange() {
		if err := json.Unmarshal(raw, &u.Range); err != nil {
			return u, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		return u, nil
	}

	// compte puede llegar como booleano JSON o como texto
	var b bool
	if u.Field == FilterCompte && json.Unmarshal(raw, &b) == nil {
		u.Value = fmt.Sprint(b)
		return u, nil
	}

	if err := json.Unmarshal(raw, &u.Value); err != nil {
		return u, fmt.Errorf("%w: %s expects a string value", ErrInvalidFilter, field)
	}
	return u, nil
}

// Apply devuelve una copia del estado con el campo actualizado.
// Los valores categóricos se validan contra su dominio; los rangos se aceptan tal cual.
func (f FilterState) Apply(u FilterUpdate) (FilterState, error) {
	next := f
	switch u.Field {
	case FilterSaison:
		if u.Value != All && !Saison(u.Value).IsValid() {
			return f, fmt.Errorf("%w: unknown saison %q", ErrInvalidFilter, u.Value)
		}
		next.Saison = u.Value
	case FilterNiveau:
		if u.Value != All && !Niveau(u.Value).IsValid() {
			return f, fmt.Errorf("%w: unknown niveau %q", ErrInvalidFilter, u.Value)
		}
		next.Niveau = u.Value
	case FilterCompte:
		c := CompteFilter(u.Value)
		if !c.IsValid() {
			return f, fmt.Errorf("%w: unknown compte %q", ErrInvalidFilter, u.Value)
		}
		next.Compte = c
	case FilterPasse:
		if u.Value != All && !Passe(u.Value).IsValid() {
			return f, fmt.Errorf("%w: unknown passe %q", ErrInvalidFilter, u.Value)
		}
		next.Passe = u.Value
	case FilterAgeRange:
		next.AgeRange = u.Range
	case FilterPriceRange:
		next.PriceRange = u.Range
	default:
		return f, fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, u.Field)
	}
	return next, nil
}
