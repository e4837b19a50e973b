package application

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
)

// LoadStatus es el estado de la carga única del dataset.
type LoadStatus string

const (
	StatusLoading LoadStatus = "loading"
	StatusReady   LoadStatus = "ready"
	StatusFailed  LoadStatus = "failed"
)

// Configuración fija de la serie de precios para el renderizador.
const (
	PriceSeriesLabel = "Prix"
	PriceSeriesColor = "#36A2EB"
)

// ---------------- Gráficos ----------------

// ChartDataset sigue la forma que espera el renderizador de gráficos.
// BackgroundColor es un color único para barras o uno por porción en el pie.
type ChartDataset struct {
	Label           string      `json:"label"`
	Data            []float64   `json:"data"`
	BackgroundColor interface{} `json:"backgroundColor"`
}

type Chart struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

func newBarChart(points []skiDomain.ChartPoint) Chart {
	labels := make([]string, len(points))
	data := make([]float64, len(points))
	for i, p := range points {
		labels[i] = p.Label
		data[i] = p.Value
	}
	return Chart{
		Labels: labels,
		Datasets: []ChartDataset{{
			Label:           PriceSeriesLabel,
			Data:            data,
			BackgroundColor: PriceSeriesColor,
		}},
	}
}

func newPieChart(b skiDomain.Breakdown) Chart {
	data := make([]float64, len(b.Counts))
	for i, c := range b.Counts {
		data[i] = float64(c)
	}
	return Chart{
		Labels: b.Labels,
		Datasets: []ChartDataset{{
			Label:           b.Label,
			Data:            data,
			BackgroundColor: b.Colors,
		}},
	}
}

// ---------------- Tabla ----------------

// TableRow es una fila de la tabla tal como se muestra.
type TableRow struct {
	skiDomain.SkiPass
	CompteLabel string `json:"compteLabel"`
}

func ouiNon(v bool) string {
	if v {
		return "Oui"
	}
	return "Non"
}

// PageView es la página visible de la tabla más el estado del paginador.
type PageView struct {
	skiDomain.PageInfo
	Rows []TableRow `json:"rows"`
}

// ---------------- Vista completa ----------------

// DashboardView es todo lo que el tablero necesita para pintarse.
type DashboardView struct {
	SessionID         string                      `json:"sessionId,omitempty"`
	Version           int64                       `json:"version,omitempty"`
	Status            LoadStatus                  `json:"status"`
	Error             string                      `json:"error,omitempty"`
	Filters           skiDomain.FilterState       `json:"filters"`
	Limits            skiDomain.Limits            `json:"limits"`
	Criteria          skiDomain.BreakdownCriteria `json:"criteria"`
	FilteredCount     int                         `json:"filteredCount"`
	AveragePrice      float64                     `json:"averagePrice"`
	AveragePriceLabel string                      `json:"averagePriceLabel"`
	PriceSeries       Chart                       `json:"priceSeries"`
	Breakdown         Chart                       `json:"breakdown"`
	Page              PageView                    `json:"page"`
}

// buildView deriva la vista de un subconjunto ya filtrado. records son las
// filas de la página page dentro de subset.
func buildView(info DatasetInfo, f skiDomain.FilterState, c skiDomain.BreakdownCriteria, subset, records []skiDomain.SkiPass, page, size int) DashboardView {
	avg := skiDomain.RoundTo2(skiDomain.AveragePrice(subset))

	rows := make([]TableRow, len(records))
	for i, r := range records {
		rows[i] = TableRow{SkiPass: r, CompteLabel: ouiNon(r.Compte)}
	}

	return DashboardView{
		Status:            info.Status,
		Error:             info.Error,
		Filters:           f,
		Limits:            info.Limits,
		Criteria:          c,
		FilteredCount:     len(subset),
		AveragePrice:      avg,
		AveragePriceLabel: skiDomain.FormatPrice(avg),
		PriceSeries:       newBarChart(skiDomain.PriceSeries(subset)),
		Breakdown:         newPieChart(skiDomain.BuildBreakdown(subset, c)),
		Page: PageView{
			PageInfo: skiDomain.NewPageInfo(len(subset), size, page),
			Rows:     rows,
		},
	}
}

// ---------------- Estado del dataset y opciones ----------------

// Option es una entrada de un selector.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FilterOptions enumera los valores seleccionables de cada control.
type FilterOptions struct {
	Saison   []Option `json:"saison"`
	Niveau   []Option `json:"niveau"`
	Compte   []Option `json:"compte"`
	Passe    []Option `json:"passe"`
	Criteria []Option `json:"criteria"`
}

// DatasetInfo describe el resultado de la carga, distinto de "cero coincidencias".
type DatasetInfo struct {
	Status  LoadStatus       `json:"status"`
	Error   string           `json:"error,omitempty"`
	Count   int              `json:"count"`
	Limits  skiDomain.Limits `json:"limits"`
	Options FilterOptions    `json:"options"`
}

// frenchTitle crea un Caser por llamada: no es seguro compartirlo entre goroutines.
func frenchTitle(s string) string {
	return cases.Title(language.French).String(s)
}

func titled[T ~string](all string, values []T) []Option {
	opts := []Option{{Value: skiDomain.All, Label: all}}
	for _, v := range values {
		opts = append(opts, Option{Value: string(v), Label: frenchTitle(string(v))})
	}
	return opts
}

// NewFilterOptions construye las listas en el orden de los selectores.
func NewFilterOptions() FilterOptions {
	criteria := make([]Option, 0, len(skiDomain.AllCriteria()))
	for _, c := range skiDomain.AllCriteria() {
		label := frenchTitle(string(c))
		if c == skiDomain.CriteriaAge {
			label = "Âge"
		}
		criteria = append(criteria, Option{Value: string(c), Label: label})
	}

	return FilterOptions{
		Saison: titled("Toutes", skiDomain.Saisons()),
		Niveau: titled("Tous", skiDomain.Niveaux()),
		Compte: []Option{
			{Value: string(skiDomain.CompteAll), Label: "Tous"},
			{Value: string(skiDomain.CompteTrue), Label: "Oui"},
			{Value: string(skiDomain.CompteFalse), Label: "Non"},
		},
		Passe:    titled("Tous", skiDomain.Passes()),
		Criteria: criteria,
	}
}
