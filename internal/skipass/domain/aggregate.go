package domain

import (
	"fmt"
	"math"
	"strconv"
)

// ---------------- Precio medio ----------------

// AveragePrice es la media aritmética de prix; 0 para un subconjunto vacío.
func AveragePrice(records []SkiPass) float64 {
	if len(records) == 0 {
		return 0
	}
	var total float64
	for _, r := range records {
		total += r.Prix
	}
	return total / float64(len(records))
}

// RoundTo2 redondea a 2 decimales.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatPrice da el texto mostrado junto al precio medio ("123.45 €").
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + " €"
}

// ---------------- Serie de precios ----------------

// ChartPoint es un punto etiquetado de una serie.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// PriceSeries devuelve un punto por registro, en el orden filtrado,
// etiquetado por posición ("Prix 1", "Prix 2", ...). No agrupa ni agrega.
func PriceSeries(records []SkiPass) []ChartPoint {
	points := make([]ChartPoint, len(records))
	for i, r := range records {
		points[i] = ChartPoint{
			Label: fmt.Sprintf("Prix %d", i+1),
			Value: r.Prix,
		}
	}
	return points
}

// ---------------- Reparto por criterio ----------------

// BreakdownCriteria es el atributo elegido para el gráfico de reparto.
type BreakdownCriteria string

const (
	CriteriaNiveau BreakdownCriteria = "niveau"
	CriteriaPasse  BreakdownCriteria = "passe"
	CriteriaCompte BreakdownCriteria = "compte"
	CriteriaSaison BreakdownCriteria = "saison"
	CriteriaAge    BreakdownCriteria = "age"
)

// DefaultCriteria es el criterio seleccionado al abrir el tablero.
const DefaultCriteria = CriteriaNiveau

// AllCriteria en el orden del selector.
func AllCriteria() []BreakdownCriteria {
	return []BreakdownCriteria{CriteriaNiveau, CriteriaPasse, CriteriaCompte, CriteriaSaison, CriteriaAge}
}

// ParseCriteria valida el nombre del criterio.
func ParseCriteria(s string) (BreakdownCriteria, error) {
	for _, c := range AllCriteria() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCriteria, s)
}

// ValueOf devuelve la forma textual del atributo: "true"/"false" para compte,
// el entero en decimal para age.
func (c BreakdownCriteria) ValueOf(p SkiPass) string {
	switch c {
	case CriteriaNiveau:
		return string(p.Niveau)
	case CriteriaPasse:
		return string(p.Passe)
	case CriteriaCompte:
		return strconv.FormatBool(p.Compte)
	case CriteriaSaison:
		return string(p.Saison)
	case CriteriaAge:
		return strconv.Itoa(p.Age)
	default:
		return ""
	}
}

// Breakdown es la distribución de frecuencias del subconjunto filtrado.
// Labels, Counts y Colors están alineados por índice.
type Breakdown struct {
	Label  string   `json:"label"`
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
	Colors []string `json:"colors"`
}

// BuildBreakdown enumera los valores distintos en orden de primera aparición
// y cuenta cuántos registros tienen cada uno.
func BuildBreakdown(records []SkiPass, c BreakdownCriteria) Breakdown {
	index := make(map[string]int)
	b := Breakdown{
		Label:  "Répartition par " + string(c),
		Labels: []string{},
		Counts: []int{},
	}

	for _, r := range records {
		v := c.ValueOf(r)
		i, ok := index[v]
		if !ok {
			i = len(b.Labels)
			index[v] = i
			b.Labels = append(b.Labels, v)
			b.Counts = append(b.Counts, 0)
		}
		b.Counts[i]++
	}

	b.Colors = make([]string, len(b.Labels))
	for i := range b.Labels {
		b.Colors[i] = HueColor(i, len(b.Labels))
	}
	return b
}

// HueColor reparte los colores a intervalos iguales de tono:
// hue = index * 360 / n, saturación 70%, luminosidad 50%.
func HueColor(index, n int) string {
	if n <= 0 {
		n = 1
	}
	hue := float64(index) * 360 / float64(n)
	return "hsl(" + strconv.FormatFloat(hue, 'f', -1, 64) + ", 70%, 50%)"
}
