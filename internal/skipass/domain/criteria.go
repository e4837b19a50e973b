package domain

import (
	shared "github.com/davicafu/skidash/internal/shared/domain"
)

// --- Criterios Específicos para el Dominio SkiPass ---

// SaisonCriteria filtra por temporada exacta.
type SaisonCriteria struct {
	Saison Saison
}

// ToConditions implementa la interfaz shared.Criteria.
func (c SaisonCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: FieldSaison, Op: shared.OpEq, Value: string(c.Saison)},
	}
}

// -----------------------------------------------------------

// NiveauCriteria filtra por nivel exacto.
type NiveauCriteria struct {
	Niveau Niveau
}

func (c NiveauCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: FieldNiveau, Op: shared.OpEq, Value: string(c.Niveau)},
	}
}

// -----------------------------------------------------------

// CompteCriteria compara el booleano tal cual.
type CompteCriteria struct {
	Compte bool
}

func (c CompteCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: FieldCompte, Op: shared.OpEq, Value: c.Compte},
	}
}

// -----------------------------------------------------------

// PasseCriteria filtra por tipo de forfait.
type PasseCriteria struct {
	Passe Passe
}

func (c PasseCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: FieldPasse, Op: shared.OpEq, Value: string(c.Passe)},
	}
}

// -----------------------------------------------------------

// AgeRangeCriteria: Min <= age <= Max. Ambos extremos incluidos.
type AgeRangeCriteria struct {
	Range Range
}

func (c AgeRangeCriteria) ToConditions() []shared.Criterion {
	return rangeConditions(FieldAge, c.Range)
}

// PriceRangeCriteria: Min <= prix <= Max.
type PriceRangeCriteria struct {
	Range Range
}

func (c PriceRangeCriteria) ToConditions() []shared.Criterion {
	return rangeConditions(FieldPrix, c.Range)
}

func rangeConditions(field string, r Range) []shared.Criterion {
	return []shared.Criterion{
		{Field: field, Op: shared.OpGte, Value: r.Min},
		{Field: field, Op: shared.OpLte, Value: r.Max},
	}
}
