package models

import "time"

// Relay event types.
const (
	EventCommand    = "COMMAND"
	EventSend       = "SEND"
	EventDrop       = "DROP"
	EventPermission = "PERMISSION"
	EventLaunch     = "LAUNCH"
	EventFinish     = "FINISH"
	EventError      = "ERROR"
)

// RelayEvent is a single log entry. Sensor readings are never logged.
type RelayEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // COMMAND | SEND | DROP | PERMISSION | LAUNCH | FINISH | ERROR
	Path        string    `json:"path,omitempty"`
	NodeID      string    `json:"node_id,omitempty"`
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
