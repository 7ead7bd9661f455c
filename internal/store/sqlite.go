package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS exports (
	id             TEXT PRIMARY KEY,
	trip_id        TEXT NOT NULL,
	status         TEXT NOT NULL,
	target         TEXT NOT NULL,
	ref            TEXT NOT NULL DEFAULT '',
	error          TEXT NOT NULL DEFAULT '',
	payload_sha256 TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exports_trip_id ON exports(trip_id);
CREATE INDEX IF NOT EXISTS idx_exports_created_at ON exports(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordExport(ctx context.Context, rec *ExportRecord) error {
	prepareRecord(rec)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exports (id, trip_id, status, target, ref, error, payload_sha256, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TripID, string(rec.Status), rec.Target, rec.Ref, rec.Error, rec.PayloadSHA256, rec.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert export for trip %s", rec.TripID)
}

func (s *SQLiteStore) GetExport(ctx context.Context, id string) (*ExportRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, trip_id, status, target, ref, error, payload_sha256, created_at FROM exports WHERE id = ?`,
		id,
	)
	rec, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get export %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get export %s", id)
	}
	return rec, nil
}

func (s *SQLiteStore) ListExports(ctx context.Context, filter ExportFilter) ([]ExportRecord, error) {
	query := `SELECT id, trip_id, status, target, ref, error, payload_sha256, created_at FROM exports WHERE 1=1`
	var args []any

	if filter.TripID != "" {
		query += ` AND trip_id = ?`
		args = append(args, filter.TripID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limitOf(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list exports")
	}
	defer rows.Close()

	var out []ExportRecord
	for rows.Next() {
		rec, err := scanExport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan export")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list exports iterate")
}

// helpers

func prepareRecord(rec *ExportRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanExport(row scannable) (*ExportRecord, error) {
	var r ExportRecord
	if err := row.Scan(&r.ID, &r.TripID, &r.Status, &r.Target, &r.Ref, &r.Error, &r.PayloadSHA256, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}
