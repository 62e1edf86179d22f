package postgres

import (
	"database/sql"
	"encoding/json"

	"github.com/alfredjeanlab/flowgraph/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanFlow scans a single row into a model.SavedFlow.
func scanFlow(row scannable) (*model.SavedFlow, error) {
	var f model.SavedFlow
	var value []byte
	if err := row.Scan(&f.Key, &value, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.Value = json.RawMessage(value)
	return &f, nil
}

// scanFlows scans multiple rows into a slice of model.SavedFlow pointers.
func scanFlows(rows *sql.Rows) ([]*model.SavedFlow, error) {
	var flows []*model.SavedFlow
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return flows, nil
}

// scanEvent scans a single row into a model.Event.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var actor sql.NullString
	var payload []byte
	if err := row.Scan(&e.ID, &e.Topic, &e.FlowKey, &actor, &payload, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Actor = actor.String
	e.Payload = json.RawMessage(payload)
	return &e, nil
}

// scanEvents scans multiple rows into a slice of model.Event pointers.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
