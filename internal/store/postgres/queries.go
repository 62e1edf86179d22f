package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alfredjeanlab/flowgraph/internal/model"
)

// defaultEventLimit caps ListEvents when the caller passes no limit.
const defaultEventLimit = 100

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func querySaveFlow(ctx context.Context, db executor, f *model.SavedFlow) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO flows (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
		RETURNING created_at, updated_at`,
		f.Key, []byte(f.Value),
	).Scan(&f.CreatedAt, &f.UpdatedAt)
}

func queryGetFlow(ctx context.Context, db executor, key string) (*model.SavedFlow, error) {
	row := db.QueryRowContext(ctx, `
		SELECT key, value, created_at, updated_at
		FROM flows WHERE key = $1`, key)
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
	return scanFlows(rows)
}

func queryDeleteFlow(ctx context.Context, db executor, key string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM flows WHERE key = $1`, key)
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

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO events (topic, flow_key, actor, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.Topic, e.FlowKey, nullString(e.Actor), []byte(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

func queryListEvents(ctx context.Context, db executor, flowKey string, afterID int64, limit int) ([]*model.Event, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, topic, flow_key, actor, payload, created_at
		FROM events
		WHERE flow_key = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3`,
		flowKey, afterID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}
