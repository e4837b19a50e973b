package query

// ---------- Tipos de filtrado / paginación / ordenamiento ----------

// OffsetPagination para paginación clásica
type OffsetPagination struct {
	Limit  int
	Offset int
}

// PageToOffset traduce una página (base 1) de tamaño fijo a limit/offset.
// Páginas menores que 1 se tratan como la primera.
func PageToOffset(page, size int) OffsetPagination {
	if page < 1 {
		page = 1
	}
	if size < 0 {
		size = 0
	}
	return OffsetPagination{Limit: size, Offset: (page - 1) * size}
}

// Bounds devuelve los índices [start, end) de la ventana sobre una colección de n elementos.
func (p OffsetPagination) Bounds(n int) (int, int) {
	start := p.Offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := start + p.Limit
	if p.Limit < 0 || end > n {
		end = n
	}
	return start, end
}

// Interfaz genérica para paginación
type Pagination interface{}

// Sort indica campo y dirección.
type Sort struct {
	Field string // ej. "id", "prix", "age"
	Desc  bool
}
