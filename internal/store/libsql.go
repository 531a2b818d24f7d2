package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/rendis/flowscope/pkg/schema"
)

// LibSQLRegistryStore implements RegistryStore using libSQL (embedded SQLite
// fork), the same database the editing layer keeps its configuration in.
type LibSQLRegistryStore struct {
	db *sql.DB
}

// NewLibSQLRegistryStore opens a libSQL database at the given path.
// The path should be a file URI, e.g. "file:/path/to/registries.db".
func NewLibSQLRegistryStore(dbPath string) (*LibSQLRegistryStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLRegistryStore{db: db}, nil
}

// Migrate runs all pending database migrations.
func (s *LibSQLRegistryStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Close closes the database.
func (s *LibSQLRegistryStore) Close() error { return s.db.Close() }

// LoadRegistries reads the full registry snapshot. The returned value is
// detached from the store: later writes never mutate it.
func (s *LibSQLRegistryStore) LoadRegistries(ctx context.Context) (*schema.Registries, error) {
	codes, err := s.readColumn(ctx, `SELECT code FROM error_codes ORDER BY code`)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "load error codes").WithCause(err)
	}
	schemas, err := s.readColumn(ctx, `SELECT name FROM schemas ORDER BY name`)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "load schemas").WithCause(err)
	}
	models, err := s.readColumn(ctx, `SELECT name FROM models ORDER BY name`)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "load models").WithCause(err)
	}
	return schema.NewRegistries(codes, schemas, models), nil
}

func (s *LibSQLRegistryStore) readColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// PutErrorCode registers (or updates) an error code.
func (s *LibSQLRegistryStore) PutErrorCode(ctx context.Context, code, description string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO error_codes (code, description) VALUES (?, ?)
		 ON CONFLICT(code) DO UPDATE SET description = excluded.description`,
		code, description)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "put error code %q", code).WithCause(err)
	}
	return nil
}

// DeleteErrorCode removes an error code.
func (s *LibSQLRegistryStore) DeleteErrorCode(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM error_codes WHERE code = ?`, code)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "delete error code %q", code).WithCause(err)
	}
	return nil
}

// PutSchema registers a schema name.
func (s *LibSQLRegistryStore) PutSchema(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schemas (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "put schema %q", name).WithCause(err)
	}
	return nil
}

// DeleteSchema removes a schema name.
func (s *LibSQLRegistryStore) DeleteSchema(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM schemas WHERE name = ?`, name)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "delete schema %q", name).WithCause(err)
	}
	return nil
}

// PutModel registers a model name.
func (s *LibSQLRegistryStore) PutModel(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO models (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "put model %q", name).WithCause(err)
	}
	return nil
}

// DeleteModel removes a model name.
func (s *LibSQLRegistryStore) DeleteModel(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE name = ?`, name)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "delete model %q", name).WithCause(err)
	}
	return nil
}
