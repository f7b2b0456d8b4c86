// Package metrics holds the relay's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Messaging
var (
	// MessagesSentTotal counts messages handed to the transport, by path.
	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_sent_total",
			Help: "Outbound messages handed to a node, by path",
		},
		[]string{"path"},
	)

	// MessagesDroppedTotal counts outbound messages that never reached the transport
	// or that the transport rejected, by path and reason.
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_dropped_total",
			Help: "Outbound messages dropped, by path and reason",
		},
		[]string{"path", "reason"},
	)

	// CommandsReceivedTotal counts inbound messages seen by the controller, by path.
	CommandsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_commands_received_total",
			Help: "Inbound messages dispatched by the controller, by path",
		},
		[]string{"path"},
	)
)

// Data sync and nodes
var (
	// DataItemsPutTotal counts data-sync upserts by status (ok/error).
	DataItemsPutTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_data_items_put_total",
			Help: "Data-sync upserts by status",
		},
		[]string{"status"},
	)

	// ConnectedNodes tracks live node connections.
	ConnectedNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_connected_nodes",
			Help: "Number of connected handheld nodes",
		},
	)

	// InboundFramesDroppedTotal counts inbound frames rejected by the per-node rate limit.
	InboundFramesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_inbound_frames_dropped_total",
			Help: "Inbound websocket frames dropped by the rate limiter",
		},
	)
)

// Drop reasons.
const (
	DropNoNode    = "no_node"
	DropEncode    = "encode"
	DropSendError = "send_error"
	DropCancelled = "cancelled"
)
