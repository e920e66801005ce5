// Package telemetry defines the app's telemetry event and emitter seam.
package telemetry

import (
	"context"
	"time"
)

// Event is a single telemetry event. Metadata holds event-specific JSON.
type Event struct {
	OrgID     string
	UserID    string
	SessionID string
	EventType string
	Source    string
	Metadata  []byte
	CreatedAt time.Time
}

// EventEmitter emits telemetry events (e.g. to OTel Logs). Best-effort;
// callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}
