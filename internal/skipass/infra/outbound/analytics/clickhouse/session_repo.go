package clickhouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// SessionAnalyticsRepo implementa SessionAnalyticsRepository para ClickHouse.
type SessionAnalyticsRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionAnalyticsRepo abre la conexión y comprueba que responde.
func NewSessionAnalyticsRepo(ctx context.Context, addr, dbName string) (*SessionAnalyticsRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
	})

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &SessionAnalyticsRepo{db: conn, now: time.Now}, nil
}

// InitSchema crea la tabla en ClickHouse si no existe.
// Particionada por mes y ordenada por tipo de cambio y campo, que es como se consulta.
func (r *SessionAnalyticsRepo) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS skipass_session_log (
			session_id     UUID,
			version        Int64,
			change         LowCardinality(String),
			field          LowCardinality(String),
			saison         LowCardinality(String),
			niveau         LowCardinality(String),
			compte         LowCardinality(String),
			passe          LowCardinality(String),
			age_min        Float64,
			age_max        Float64,
			prix_min       Float64,
			prix_max       Float64,
			criteria       LowCardinality(String),
			page           Int32,
			filtered_count Int32,
			filters_json   String,
			occurred_at    DateTime64(3),
			event_time     DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (change, field, occurred_at);
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// LogBatch inserta un lote de cambios de sesión. ClickHouse funciona mejor con inserciones en lotes.
func (r *SessionAnalyticsRepo) LogBatch(ctx context.Context, changes []skiDomain.SessionChanged) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO skipass_session_log (session_id, version, change, field, saison, niveau, compte, passe, age_min, age_max, prix_min, prix_max, criteria, page, filtered_count, filters_json, occurred_at, event_time)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	eventTime := r.now()
	for _, c := range changes {
		args, err := sessionLogRow(c, eventTime)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			// Si un registro falla, hacemos rollback de todo el lote.
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for session %s: %w", c.SessionID, err)
		}
	}

	return tx.Commit()
}

func (r *SessionAnalyticsRepo) Close() error {
	return r.db.Close()
}

// sessionLogRow aplana el cambio en el orden de las columnas del INSERT.
func sessionLogRow(c skiDomain.SessionChanged, eventTime time.Time) ([]interface{}, error) {
	filters, err := json.Marshal(c.Filters)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filters for session %s: %w", c.SessionID, err)
	}
	f := c.Filters
	return []interface{}{
		c.SessionID,
		c.Version,
		string(c.Change),
		c.Field,
		f.Saison,
		f.Niveau,
		string(f.Compte),
		f.Passe,
		f.AgeRange.Min,
		f.AgeRange.Max,
		f.PriceRange.Min,
		f.PriceRange.Max,
		string(c.Criteria),
		int32(c.Page),
		int32(c.FilteredCount),
		string(filters),
		c.OccurredAt,
		eventTime,
	}, nil
}

// Verificación estática de la interfaz.
var _ skiDomain.SessionAnalyticsRepository = (*SessionAnalyticsRepo)(nil)
