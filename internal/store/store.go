// Package store persists analyses and signal dedup keys in an embedded DuckDB
// database, with a Redis alternative for the dedup keys.
package store

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/version"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"go.uber.org/zap"
)

// SchemaVersion is the layout version written to the meta table. Bump the
// minor version when a column is added, the major version when one changes.
const SchemaVersion = "1.0.0"

const schemaVersionKey = "schema_version"

// DB is a DuckDB database holding the journal and the seen keys. One DB is
// shared by both because DuckDB holds an exclusive lock on its file.
type DB struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// Open opens (or creates) the DuckDB file at path. An empty path opens an
// in-memory database.
func Open(ctx context.Context, path string, log *logger.Logger) (*DB, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open database", err)
	}

	s := &DB{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}

	if err := s.initialize(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	log.Debug("Opened store", zap.String("path", dsn))

	return s, nil
}

// Close releases the database.
func (s *DB) Close() error {
	return s.db.Close()
}

func (s *DB) initialize(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
		`CREATE SEQUENCE IF NOT EXISTS analysis_id_seq`,
		`CREATE TABLE IF NOT EXISTS analyses (
			id BIGINT PRIMARY KEY,
			request_id TEXT,
			symbol TEXT,
			kline_interval TEXT,
			computed_at TIMESTAMP,
			price DOUBLE,
			samples INTEGER,
			sma DOUBLE,
			ema DOUBLE,
			rsi DOUBLE,
			macd DOUBLE,
			macd_signal DOUBLE,
			histogram DOUBLE,
			upper_band DOUBLE,
			middle_band DOUBLE,
			lower_band DOUBLE,
			buy_signal BOOLEAN,
			sell_signal BOOLEAN
		)`,
		`CREATE SEQUENCE IF NOT EXISTS seen_seq`,
		`CREATE TABLE IF NOT EXISTS seen_keys (
			key TEXT PRIMARY KEY,
			seq BIGINT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create schema", err)
		}
	}

	return s.checkSchemaVersion(ctx)
}

func (s *DB) checkSchemaVersion(ctx context.Context) error {
	query, args, err := s.sq.
		Select("value").
		From("meta").
		Where(squirrel.Eq{"key": schemaVersionKey}).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var stored string

	err = s.db.QueryRowContext(ctx, query, args...).Scan(&stored)
	if err == sql.ErrNoRows {
		return s.setMeta(ctx, schemaVersionKey, SchemaVersion)
	}

	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to read schema version", err)
	}

	return version.CheckSchemaCompatibility(SchemaVersion, stored)
}

func (s *DB) setMeta(ctx context.Context, key, value string) error {
	_, err := s.sq.
		Insert("meta").
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to write meta", err)
	}

	return nil
}
