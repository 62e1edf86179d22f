// Package sqlite implements the store.Store interface backed by an embedded
// SQLite database. It is the default store for single-machine use.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	msqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/alfredjeanlab/flowgraph/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is how timestamps are stored in TEXT columns.
const timeLayout = time.RFC3339Nano

// defaultEventLimit caps ListEvents when the caller passes no limit.
const defaultEventLimit = 100

// SQLiteStore implements store.Store backed by a SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Compile-time check that SQLiteStore implements store.Store.
var _ store.Store = (*SQLiteStore)(nil)

// New opens (creating if needed) the SQLite database at path and runs any
// pending migrations. Use ":memory:" for a throwaway database.
func New(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows one writer, and each ":memory:" connection is its own
	// database, so the pool is a single connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := msqlite.WithInstance(db, &msqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveFlow(ctx context.Context, flow *model.SavedFlow) error {
	return querySaveFlow(ctx, s.db, s.now(), flow)
}

func (s *SQLiteStore) GetFlow(ctx context.Context, key string) (*model.SavedFlow, error) {
	return queryGetFlow(ctx, s.db, key)
}

func (s *SQLiteStore) ListFlows(ctx context.Context) ([]*model.SavedFlow, error) {
	return queryListFlows(ctx, s.db)
}

func (s *SQLiteStore) DeleteFlow(ctx context.Context, key string) error {
	return queryDeleteFlow(ctx, s.db, key)
}

func (s *SQLiteStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.db, s.now(), event)
}

func (s *SQLiteStore) ListEvents(ctx context.Context, flowKey string, afterID int64, limit int) ([]*model.Event, error) {
	return queryListEvents(ctx, s.db, flowKey, afterID, limit)
}

// RunInTransaction runs fn inside a transaction, committing on success and
// rolling back on error.
func (s *SQLiteStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&txStore{tx: tx, now: s.now}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx  *sql.Tx
	now func() time.Time
}

var _ store.Store = (*txStore)(nil)

func (s *txStore) SaveFlow(ctx context.Context, flow *model.SavedFlow) error {
	return querySaveFlow(ctx, s.tx, s.now(), flow)
}

func (s *txStore) GetFlow(ctx context.Context, key string) (*model.SavedFlow, error) {
	return queryGetFlow(ctx, s.tx, key)
}

func (s *txStore) ListFlows(ctx context.Context) ([]*model.SavedFlow, error) {
	return queryListFlows(ctx, s.tx)
}

func (s *txStore) DeleteFlow(ctx context.Context, key string) error {
	return queryDeleteFlow(ctx, s.tx, key)
}

func (s *txStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.tx, s.now(), event)
}

func (s *txStore) ListEvents(ctx context.Context, flowKey string, afterID int64, limit int) ([]*model.Event, error) {
	return queryListEvents(ctx, s.tx, flowKey, afterID, limit)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func querySaveFlow(ctx context.Context, db executor, now time.Time, f *model.SavedFlow) error {
	ts := now.Format(timeLayout)
	var created, updated string
	err := db.QueryRowContext(ctx, `
		INSERT INTO flows (key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		RETURNING created_at, updated_at`,
		f.Key, string(f.Value), ts, ts,
	).Scan(&created, &updated)
	if err != nil {
		return err
	}
	if f.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return fmt.Errorf("parse created_at: %w", err)
	}
	if f.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return fmt.Errorf("parse updated_at: %w", err)
	}
	return nil
}

func queryGetFlow(ctx context.Context, db executor, key string) (*model.SavedFlow, error) {
	row := db.QueryRowContext(ctx, `
		SELECT key, value, created_at, updated_at
		FROM flows WHERE key = ?`, key)
	return scanFlow(row)
}

func queryListFlows(ctx context.Context, db executor) ([]*model.SavedFlow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT key, value, created_at, updated_at
		FROM flows ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flows []*model.SavedFlow
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	return flows, rows.Err()
}

func queryDeleteFlow(ctx context.Context, db executor, key string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM flows WHERE key = ?`, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryRecordEvent(ctx context.Context, db executor, now time.Time, e *model.Event) error {
	var actor sql.NullString
	if e.Actor != "" {
		actor = sql.NullString{String: e.Actor, Valid: true}
	}
	payload := e.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	err := db.QueryRowContext(ctx, `
		INSERT INTO events (topic, flow_key, actor, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		e.Topic, e.FlowKey, actor, string(payload), now.Format(timeLayout),
	).Scan(&e.ID)
	if err != nil {
		return err
	}
	e.Payload = payload
	e.CreatedAt = now
	return nil
}

func queryListEvents(ctx context.Context, db executor, flowKey string, afterID int64, limit int) ([]*model.Event, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, topic, flow_key, actor, payload, created_at
		FROM events
		WHERE flow_key = ? AND id > ?
		ORDER BY id ASC
		LIMIT ?`,
		flowKey, afterID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		var (
			e       model.Event
			actor   sql.NullString
			payload string
			created string
		)
		if err := rows.Scan(&e.ID, &e.Topic, &e.FlowKey, &actor, &payload, &created); err != nil {
			return nil, err
		}
		e.Actor = actor.String
		e.Payload = json.RawMessage(payload)
		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func scanFlow(row scannable) (*model.SavedFlow, error) {
	var (
		f                model.SavedFlow
		value            string
		created, updated string
	)
	if err := row.Scan(&f.Key, &value, &created, &updated); err != nil {
		return nil, err
	}
	f.Value = json.RawMessage(value)
	var err error
	if f.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if f.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &f, nil
}
