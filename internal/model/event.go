package model

import (
	"encoding/json"
	"time"
)

// Event is a persisted record of one settled mutation, mirroring what is
// published to NATS and streamed over SSE.
type Event struct {
	ID        int64           `json:"id"`
	Topic     string          `json:"topic"`
	FlowKey   string          `json:"flow_key"`
	Actor     string          `json:"actor,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}
