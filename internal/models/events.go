// internal/models/events.go
package models

import "time"

// EventStatus classifies a single progress event within a stage.
type EventStatus string

const (
	EventRunning  EventStatus = "running"
	EventComplete EventStatus = "complete"
	EventFailed   EventStatus = "failed"
	EventSkipped  EventStatus = "skipped"
)

// ProgressEvent is the append-only progress trail for one verification
// record. Events are never mutated or deleted; readers observe them in the
// order they were written (Seq is assigned by the store, strictly
// increasing per record).
type ProgressEvent struct {
	ID        string                 `json:"id"`
	RecordID  string                 `json:"recordId"`
	Seq       int64                  `json:"seq"`
	Stage     string                 `json:"stage"`
	Status    EventStatus            `json:"status"`
	Message   string                 `json:"message"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}
