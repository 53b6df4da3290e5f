// Package postgres implements the relational Storage backend (spec §6),
// storing routes and leg configs. Grounded on the teacher's
// app/rtkrcv/rtkrcv.go sqlx.Open usage (there, against a clickhouse DSN; the
// same sqlx.DB handle style is reused here with the pgx stdlib driver) and
// on jordigilh-kubernaut's pkg/datastorage sqlx+pgx repository pattern.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/errs"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS routes (
	id          TEXT PRIMARY KEY,
	version     INTEGER NOT NULL,
	payload     JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS leg_configs (
	leg_id      TEXT PRIMARY KEY,
	payload     JSONB NOT NULL
);
`

// Store is the sqlx-backed RouteStore + LegConfigStore implementation.
type Store struct {
	db *sqlx.DB
}

// Open connects to postgres via the pgx stdlib driver and ensures the
// schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: connect")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errors.Wrap(err, "postgres: migrate schema")
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an already-open *sqlx.DB, letting callers and tests inject
// a go-sqlmock-backed handle without touching a real network connection.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

type routeRow struct {
	ID      string `db:"id"`
	Version int    `db:"version"`
	Payload []byte `db:"payload"`
}

func (s *Store) LoadRoute(ctx context.Context, id string) (model.Route, error) {
	var row routeRow
	err := s.db.GetContext(ctx, &row, `SELECT id, version, payload FROM routes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Route{}, errs.NotFound("postgres.LoadRoute", "route %s not found", id)
	}
	if err != nil {
		return model.Route{}, errs.WrapComputationFailed("postgres.LoadRoute", err)
	}
	var route model.Route
	if err := json.Unmarshal(row.Payload, &route); err != nil {
		return model.Route{}, errs.WrapComputationFailed("postgres.LoadRoute", err)
	}
	route.Version = row.Version
	return route, nil
}

func (s *Store) SaveRoute(ctx context.Context, route model.Route) error {
	payload, err := json.Marshal(route)
	if err != nil {
		return errs.WrapComputationFailed("postgres.SaveRoute", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO routes (id, version, payload) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version, payload = EXCLUDED.payload
	`, route.ID, route.Version, payload)
	if err != nil {
		return errs.WrapComputationFailed("postgres.SaveRoute", err)
	}
	return nil
}

func (s *Store) DeleteRoute(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return errs.WrapComputationFailed("postgres.DeleteRoute", err)
	}
	return nil
}

type legConfigRow struct {
	LegID   string `db:"leg_id"`
	Payload []byte `db:"payload"`
}

func (s *Store) LoadLegConfig(ctx context.Context, legID string) (model.TransportConfig, error) {
	var row legConfigRow
	err := s.db.GetContext(ctx, &row, `SELECT leg_id, payload FROM leg_configs WHERE leg_id = $1`, legID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TransportConfig{}, errs.NotFound("postgres.LoadLegConfig", "leg %s not found", legID)
	}
	if err != nil {
		return model.TransportConfig{}, errs.WrapComputationFailed("postgres.LoadLegConfig", err)
	}
	var cfg model.TransportConfig
	if err := json.Unmarshal(row.Payload, &cfg); err != nil {
		return model.TransportConfig{}, errs.WrapComputationFailed("postgres.LoadLegConfig", err)
	}
	return cfg, nil
}

func (s *Store) SaveLegConfig(ctx context.Context, legID string, cfg model.TransportConfig) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return errs.WrapComputationFailed("postgres.SaveLegConfig", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leg_configs (leg_id, payload) VALUES ($1, $2)
		ON CONFLICT (leg_id) DO UPDATE SET payload = EXCLUDED.payload
	`, legID, payload)
	if err != nil {
		return errs.WrapComputationFailed("postgres.SaveLegConfig", err)
	}
	return nil
}
