// Package postgres stores flow snapshots and their event history in
// PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/alfredjeanlab/flowgraph/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// connectTimeout bounds the initial ping.
const connectTimeout = 10 * time.Second

// PostgresStore is a store.Store over a pooled *sql.DB.
type PostgresStore struct {
	bound
	db *sql.DB
}

var _ store.Store = (*PostgresStore)(nil)

// New connects to databaseURL and applies pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return newStore(db), nil
}

func newStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{bound: bound{db: db}, db: db}
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// RunInTransaction runs fn against a store bound to one transaction. The
// snapshot upsert and its event record commit together or not at all.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(txStore{bound{db: tx}}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore is the store handed to RunInTransaction callbacks. Nested
// transactions reuse it; Close leaves the pool alone.
type txStore struct {
	bound
}

var _ store.Store = txStore{}

func (t txStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(t)
}

func (txStore) Close() error { return nil }

// bound implements the flow and event methods over one executor, either
// the pool or a transaction.
type bound struct {
	db executor
}

func (b bound) SaveFlow(ctx context.Context, flow *model.SavedFlow) error {
	return querySaveFlow(ctx, b.db, flow)
}

func (b bound) GetFlow(ctx context.Context, key string) (*model.SavedFlow, error) {
	return queryGetFlow(ctx, b.db, key)
}

func (b bound) ListFlows(ctx context.Context) ([]*model.SavedFlow, error) {
	return queryListFlows(ctx, b.db)
}

func (b bound) DeleteFlow(ctx context.Context, key string) error {
	return queryDeleteFlow(ctx, b.db, key)
}

func (b bound) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, b.db, event)
}

func (b bound) ListEvents(ctx context.Context, flowKey string, afterID int64, limit int) ([]*model.Event, error) {
	return queryListEvents(ctx, b.db, flowKey, afterID, limit)
}
