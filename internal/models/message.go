package models

import "time"

// MessageEvent is a single path-addressed message received from a node.
type MessageEvent struct {
	SourceNodeID string `json:"source_node_id"`
	Path         string `json:"path"`
	Data         []byte `json:"data,omitempty"`
}

// DataItem is the current value stored under a data-sync path.
type DataItem struct {
	Path      string         `json:"path"`
	Payload   []byte         `json:"-"`      // encoded DataMap
	Values    map[string]any `json:"values"` // decoded payload, filled for API responses
	UpdatedAt time.Time      `json:"updated_at"`
}
