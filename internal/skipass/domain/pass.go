package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// All es el valor de filtro que no impone restricción.
const All = "all"

type Saison string

const (
	SaisonPrintemps Saison = "printemps"
	SaisonEte       Saison = "été"
	SaisonAutomne   Saison = "automne"
	SaisonHiver     Saison = "hiver"
)

type Niveau string

const (
	NiveauNovice Niveau = "novice"
	NiveauMoyen  Niveau = "moyen"
	NiveauPro    Niveau = "pro"
)

type Passe string

const (
	PasseSimple   Passe = "simple"
	PasseDouble   Passe = "double"
	PasseIllimite Passe = "illimité"
)

// Saisons, Niveaux y Passes devuelven los dominios en el orden de los selectores.
func Saisons() []Saison { return []Saison{SaisonPrintemps, SaisonEte, SaisonAutomne, SaisonHiver} }
func Niveaux() []Niveau { return []Niveau{NiveauNovice, NiveauMoyen, NiveauPro} }
func Passes() []Passe   { return []Passe{PasseSimple, PasseDouble, PasseIllimite} }

func (s Saison) IsValid() bool {
	for _, v := range Saisons() {
		if v == s {
			return true
		}
	}
	return false
}

func (n Niveau) IsValid() bool {
	for _, v := range Niveaux() {
		if v == n {
			return true
		}
	}
	return false
}

func (p Passe) IsValid() bool {
	for _, v := range Passes() {
		if v == p {
			return true
		}
	}
	return false
}

// Nombres de campo compartidos por el filtrado en memoria y los adaptadores SQL/Mongo.
const (
	FieldID     = "id"
	FieldSaison = "saison"
	FieldPrix   = "prix"
	FieldAge    = "age"
	FieldNiveau = "niveau"
	FieldCompte = "compte"
	FieldPasse  = "passe"
)

// SkiPass es una fila del dataset: una observación de forfait de ski.
type SkiPass struct {
	ID     int     `json:"id"`
	Saison Saison  `json:"saison"`
	Prix   float64 `json:"prix"`
	Age    int     `json:"age"`
	Niveau Niveau  `json:"niveau"`
	Compte bool    `json:"compte"`
	Passe  Passe   `json:"passe"`
}

// ---------------- Range ----------------

// Range es un intervalo cerrado [Min, Max]. En JSON se representa como [min, max].
// No se valida el orden: un rango invertido simplemente no contiene nada.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Min, r.Max})
}

func (r *Range) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("range must be a [min, max] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("range must have exactly 2 bounds, got %d", len(pair))
	}
	if math.IsNaN(pair[0]) || math.IsNaN(pair[1]) {
		return fmt.Errorf("range bounds must be numbers")
	}
	r.Min, r.Max = pair[0], pair[1]
	return nil
}

// ---------------- Limits ----------------

// Limits son las cotas observadas de age y prix en la colección cargada.
type Limits struct {
	Age  Range `json:"age"`
	Prix Range `json:"prix"`
}

// Valores de arranque de los filtros numéricos antes de que el dataset esté cargado.
var (
	DefaultAgeRange   = Range{Min: 0, Max: 100}
	DefaultPriceRange = Range{Min: 0, Max: 1000}
)

// ComputeLimits calcula min/max de age y prix. Una colección vacía da rangos cero.
func ComputeLimits(records []SkiPass) Limits {
	if len(records) == 0 {
		return Limits{}
	}

	l := Limits{
		Age:  Range{Min: float64(records[0].Age), Max: float64(records[0].Age)},
		Prix: Range{Min: records[0].Prix, Max: records[0].Prix},
	}
	for _, r := range records[1:] {
		l.Age.Min = math.Min(l.Age.Min, float64(r.Age))
		l.Age.Max = math.Max(l.Age.Max, float64(r.Age))
		l.Prix.Min = math.Min(l.Prix.Min, r.Prix)
		l.Prix.Max = math.Max(l.Prix.Max, r.Prix)
	}
	return l
}

// ---------------- Dataset ----------------

// Dataset es la colección inmutable cargada al arrancar.
type Dataset struct {
	records []SkiPass
	limits  Limits
}

// NewDataset copia los registros, verifica la unicidad de los ids y calcula Limits.
func NewDataset(records []SkiPass) (*Dataset, error) {
	seen := make(map[int]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	owned := make([]SkiPass, len(records))
	copy(owned, records)

	return &Dataset{records: owned, limits: ComputeLimits(owned)}, nil
}

// Len es seguro sobre un Dataset nil.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

func (d *Dataset) Limits() Limits {
	if d == nil {
		return Limits{}
	}
	return d.limits
}

// Records devuelve una copia; la colección interna nunca se expone.
func (d *Dataset) Records() []SkiPass {
	if d == nil {
		return nil
	}
	out := make([]SkiPass, len(d.records))
	copy(out, d.records)
	return out
}

// Filter aplica el filtro sin copiar la colección completa.
func (d *Dataset) Filter(f FilterState) []SkiPass {
	if d == nil {
		return []SkiPass{}
	}
	return Filter(d.records, f)
}
