package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// --- Importaciones del dominio y compartidas ---
	sharedDomain "github.com/davicafu/skidash/internal/shared/domain"
	sharedQuery "github.com/davicafu/skidash/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/skidash/internal/shared/infra/utils"
	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
)

const passColumns = "id, saison, prix, age, niveau, compte, passe"

// columns admitidas en filtros y ordenación; el resto se rechaza.
var columns = map[string]bool{
	skiDomain.FieldID:     true,
	skiDomain.FieldSaison: true,
	skiDomain.FieldPrix:   true,
	skiDomain.FieldAge:    true,
	skiDomain.FieldNiveau: true,
	skiDomain.FieldCompte: true,
	skiDomain.FieldPasse:  true,
}

// PassRepo implementa PassRepository sobre la tabla ski_passes.
type PassRepo struct {
	db      *sql.DB
	dialect Dialect
}

var _ skiDomain.PassRepository = (*PassRepo)(nil)

func NewPassRepo(db *sql.DB, dialect Dialect) *PassRepo {
	return &PassRepo{db: db, dialect: dialect}
}

// ------------------ Inicialización del Esquema ------------------

// InitSchema crea la tabla si no existe. El tipo de las columnas es válido en los tres motores.
func (r *PassRepo) InitSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
    CREATE TABLE IF NOT EXISTS ski_passes (
        id INTEGER PRIMARY KEY,
        saison VARCHAR(16) NOT NULL,
        prix DOUBLE PRECISION NOT NULL,
        age INTEGER NOT NULL,
        niveau VARCHAR(16) NOT NULL,
        compte BOOLEAN NOT NULL,
        passe VARCHAR(16) NOT NULL
    )`)
	if err != nil {
		return fmt.Errorf("failed to create ski_passes table: %w", err)
	}
	return nil
}

// ------------------ Escritura ------------------

// InsertBatch inserta los registros en una única transacción.
func (r *PassRepo) InsertBatch(ctx context.Context, records []skiDomain.SkiPass) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	placeholders := make([]string, 7)
	for i := range placeholders {
		placeholders[i] = r.dialect.Placeholder(i + 1)
	}
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO ski_passes (%s) VALUES (%s)", passColumns, strings.Join(placeholders, ", ")))
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range records {
		if _, err := stmt.ExecContext(ctx, p.ID, string(p.Saison), p.Prix, p.Age, string(p.Niveau), p.Compte, string(p.Passe)); err != nil {
			// Si un registro falla, se descarta el lote completo.
			tx.Rollback()
			return fmt.Errorf("failed to insert ski pass %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteAll vacía la tabla antes de una importación completa.
func (r *PassRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM ski_passes")
	return err
}

// ------------------ Lectura ------------------

// Fetch devuelve la colección completa ordenada por id.
func (r *PassRepo) Fetch(ctx context.Context) ([]skiDomain.SkiPass, error) {
	return r.query(ctx, "SELECT "+passColumns+" FROM ski_passes ORDER BY id ASC")
}

// ListByCriteria filtra, ordena y pagina en la base de datos.
func (r *PassRepo) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]skiDomain.SkiPass, error) {
	var args []interface{}
	whereSQL, err := r.where(criteria, &args)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + passColumns + " FROM ski_passes"
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	// Añadir ordenamiento y paginación
	sortField := sort.Field
	if sortField == "" {
		sortField = skiDomain.FieldID
	}
	if !columns[sortField] {
		return nil, fmt.Errorf("%w: unknown sort field %q", skiDomain.ErrInvalidFilter, sortField)
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortField, sharedUtils.Ternary(sort.Desc, "DESC", "ASC"))
	if sortField != skiDomain.FieldID {
		query += ", id ASC"
	}

	if p, ok := pagination.(sharedQuery.OffsetPagination); ok {
		query += fmt.Sprintf(" LIMIT %s OFFSET %s", r.dialect.Placeholder(len(args)+1), r.dialect.Placeholder(len(args)+2))
		args = append(args, p.Limit, p.Offset)
	}

	return r.query(ctx, query, args...)
}

// Count cuenta los registros que cumplen los criterios.
func (r *PassRepo) Count(ctx context.Context, criteria sharedDomain.Criteria) (int, error) {
	var args []interface{}
	whereSQL, err := r.where(criteria, &args)
	if err != nil {
		return 0, err
	}

	query := "SELECT COUNT(*) FROM ski_passes"
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PassRepo) query(ctx context.Context, query string, args ...interface{}) ([]skiDomain.SkiPass, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	passes := []skiDomain.SkiPass{}
	for rows.Next() {
		var p skiDomain.SkiPass
		var saison, niveau, passe string
		if err := rows.Scan(&p.ID, &saison, &p.Prix, &p.Age, &niveau, &p.Compte, &passe); err != nil {
			return nil, err
		}
		p.Saison, p.Niveau, p.Passe = skiDomain.Saison(saison), skiDomain.Niveau(niveau), skiDomain.Passe(passe)
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

// ------------------ Traducción de criterios ------------------

// where traduce criterios neutrales a SQL con AND anidados.
// Devuelve "" cuando no hay condiciones.
func (r *PassRepo) where(criteria sharedDomain.Criteria, args *[]interface{}) (string, error) {
	if criteria == nil {
		return "", nil
	}

	if composite, ok := criteria.(sharedDomain.CompositeCriteria); ok {
		var parts []string
		for _, c := range composite.Criterias {
			part, err := r.where(c, args)
			if err != nil {
				return "", err
			}
			if part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) == 0 {
			return "", nil
		}
		if composite.Operator != sharedDomain.OpAnd {
			return "", fmt.Errorf("%w: unsupported logical operator %q", skiDomain.ErrInvalidFilter, composite.Operator)
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil
	}

	var clauses []string
	for _, c := range criteria.ToConditions() {
		clause, err := r.condition(c, args)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	return strings.Join(clauses, " AND "), nil
}

func (r *PassRepo) condition(c sharedDomain.Criterion, args *[]interface{}) (string, error) {
	if !columns[c.Field] {
		return "", fmt.Errorf("%w: unknown field %q", skiDomain.ErrInvalidFilter, c.Field)
	}

	switch c.Op {
	case sharedDomain.OpEq, sharedDomain.OpGt, sharedDomain.OpGte, sharedDomain.OpLt, sharedDomain.OpLte:
	default:
		return "", fmt.Errorf("%w: unsupported operator %q", skiDomain.ErrInvalidFilter, c.Op)
	}

	*args = append(*args, c.Value)
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, r.dialect.Placeholder(len(*args))), nil
}
