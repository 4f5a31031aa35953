package model

import "time"

// OperationEvent is one append-only observability record. Events are
// written once and never mutated.
type OperationEvent struct {
	EventKind string         `json:"event_kind"`
	Actor     string         `json:"actor"`
	Success   bool           `json:"success"`
	Detail    map[string]any `json:"detail,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
