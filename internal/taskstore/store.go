// Package taskstore keeps task-status records in a local SQLite database.
// It backs the host TaskStatuses interface when the host does not provide
// task statuses of its own, and lets the CLI report job state offline.
package taskstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/host"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ host.TaskStatuses = (*Store)(nil)

// Store implements host.TaskStatuses on SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and migrates it.
// Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.NewValidationError("path", path, "database path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	// One connection keeps an in-memory database alive and serializes
	// writers on a file database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WrapIO("open", path, err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// UpdateTaskStatus upserts the record keyed by (entity, task type, key).
// The credential is accepted for interface compatibility; the local store
// has no access control.
func (s *Store) UpdateTaskStatus(ctx context.Context, _ host.Credential, status host.TaskStatus) error {
	if status.EntityID == "" {
		return errors.NewValidationError("entity_id", status.EntityID, "is required")
	}
	if status.EntityType == "" {
		status.EntityType = "resource"
	}
	if status.LastUpdated.IsZero() {
		status.LastUpdated = time.Now().UTC()
	}

	query := `
		INSERT INTO task_status (entity_id, entity_type, task_type, key, state, value, error, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_id, task_type, key) DO UPDATE SET
			entity_type = excluded.entity_type,
			state = excluded.state,
			value = excluded.value,
			error = excluded.error,
			last_updated = excluded.last_updated
	`
	_, err := s.db.ExecContext(ctx, query,
		status.EntityID,
		status.EntityType,
		status.TaskType,
		status.Key,
		string(status.State),
		status.Value,
		status.Error,
		status.LastUpdated.UTC(),
	)
	if err != nil {
		return errors.WrapResource("update", "task status", status.EntityID, err)
	}
	return nil
}

// TaskStatus returns the record for (entity, task type, key).
func (s *Store) TaskStatus(ctx context.Context, _ host.Credential, entityID, taskType, key string) (*host.TaskStatus, error) {
	query := `
		SELECT entity_id, entity_type, task_type, key, state, value, error, last_updated
		FROM task_status
		WHERE entity_id = ? AND task_type = ? AND key = ?
	`
	status, err := scan(s.db.QueryRowContext(ctx, query, entityID, taskType, key))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("task status", entityID)
	}
	if err != nil {
		return nil, errors.WrapResource("show", "task status", entityID, err)
	}
	return status, nil
}

// List returns the records of a task type in the given states, most
// recently updated first. No states means every state.
func (s *Store) List(ctx context.Context, taskType string, states ...host.TaskState) ([]*host.TaskStatus, error) {
	query := `
		SELECT entity_id, entity_type, task_type, key, state, value, error, last_updated
		FROM task_status
		WHERE task_type = ?
	`
	args := []any{taskType}
	if len(states) > 0 {
		query += " AND state IN (?" + strings.Repeat(",?", len(states)-1) + ")"
		for _, st := range states {
			args = append(args, string(st))
		}
	}
	query += " ORDER BY last_updated DESC, entity_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapResource("list", "task status", "", err)
	}
	defer rows.Close()

	var out []*host.TaskStatus
	for rows.Next() {
		status, err := scan(rows)
		if err != nil {
			return nil, errors.WrapResource("list", "task status", "", err)
		}
		out = append(out, status)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*host.TaskStatus, error) {
	var (
		status host.TaskStatus
		state  string
	)
	err := row.Scan(
		&status.EntityID,
		&status.EntityType,
		&status.TaskType,
		&status.Key,
		&state,
		&status.Value,
		&status.Error,
		&status.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	status.State = host.TaskState(state)
	return &status, nil
}
