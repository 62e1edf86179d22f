package model

import (
	"encoding/json"
	"time"
)

// SavedFlow is a serialized flow snapshot stored under a persistence key.
// Value holds the persisted JSON form produced by the codec package.
type SavedFlow struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
