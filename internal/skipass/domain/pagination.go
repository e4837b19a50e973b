package domain

import (
	"fmt"

	sharedQuery "github.com/davicafu/skidash/internal/shared/infra/platform/query"
)

// DefaultPageSize es el número fijo de filas por página de la tabla.
const DefaultPageSize = 10

// TotalPages = ceil(count / size). Puede ser 0 si no hay filas.
func TotalPages(count, size int) int {
	if size <= 0 || count <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// DisplayPages trata 0 páginas como una página vacía.
func DisplayPages(count, size int) int {
	if n := TotalPages(count, size); n > 0 {
		return n
	}
	return 1
}

// ValidPage indica si SetPage aceptaría n.
func ValidPage(n, totalPages int) bool {
	return n >= 1 && n <= totalPages
}

// Paginate devuelve la página (base 1) como un nuevo slice de como mucho size registros.
// Una página fuera de rango devuelve un slice vacío.
func Paginate(records []SkiPass, size, page int) []SkiPass {
	if size <= 0 || page < 1 {
		return []SkiPass{}
	}
	start, end := sharedQuery.PageToOffset(page, size).Bounds(len(records))
	out := make([]SkiPass, end-start)
	copy(out, records[start:end])
	return out
}

// PageInfo describe el paginador mostrado bajo la tabla.
type PageInfo struct {
	Current      int    `json:"current"`
	TotalPages   int    `json:"totalPages"`
	DisplayPages int    `json:"displayPages"`
	Size         int    `json:"size"`
	HasPrev      bool   `json:"hasPrev"`
	HasNext      bool   `json:"hasNext"`
	Label        string `json:"label"`
}

// NewPageInfo calcula el estado del paginador para count filas filtradas.
func NewPageInfo(count, size, current int) PageInfo {
	total := TotalPages(count, size)
	display := DisplayPages(count, size)
	return PageInfo{
		Current:      current,
		TotalPages:   total,
		DisplayPages: display,
		Size:         size,
		HasPrev:      current > 1,
		HasNext:      current < total,
		Label:        fmt.Sprintf("Page %d sur %d", current, display),
	}
}
