package service

import (
	"context"
	"fmt"

	"wear_relay/internal/logger"
	"wear_relay/internal/metrics"
	"wear_relay/internal/models"
	"wear_relay/internal/platform"
	"wear_relay/internal/protocol"
)

// EventRecorder appends relay events without surfacing failures.
type EventRecorder interface {
	Record(ctx context.Context, e models.RelayEvent)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, models.RelayEvent) {}

// PickBestNode returns the first nearby node, else the first node.
func PickBestNode(nodes []models.Node) (string, bool) {
	for _, n := range nodes {
		if n.Nearby {
			return n.ID, true
		}
	}
	if len(nodes) > 0 {
		return nodes[0].ID, true
	}
	return "", false
}

// Sender delivers one message to the best connected node. Every attempt runs
// on its own goroutine and never reports an error to the caller.
type Sender struct {
	ctx      context.Context
	nodes    platform.NodeClient
	messages platform.MessageClient
	events   EventRecorder
	log      *logger.Logger
}

// NewSender binds sends to ctx. Cancelling ctx abandons sends in flight.
func NewSender(ctx context.Context, nodes platform.NodeClient, messages platform.MessageClient, events EventRecorder, log *logger.Logger) *Sender {
	if events == nil {
		events = nopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Sender{ctx: ctx, nodes: nodes, messages: messages, events: events, log: log}
}

// Send encodes data and hands it to the best node. The returned channel is
// closed once the attempt has finished.
func (s *Sender) Send(path string, data protocol.DataMap) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.send(path, data)
	}()
	return done
}

func (s *Sender) send(path string, data protocol.DataMap) {
	ctx := s.ctx

	payload, err := data.Bytes()
	if err != nil {
		s.log.Errorw("send_encode_failed", "path", path, "err", err)
		s.drop(path, "", metrics.DropEncode, err.Error())
		return
	}

	nodes, err := s.nodes.ConnectedNodes(ctx)
	if err != nil {
		if ctx.Err() != nil {
			metrics.MessagesDroppedTotal.WithLabelValues(path, metrics.DropCancelled).Inc()
			return
		}
		s.log.Errorw("connected_nodes_failed", "path", path, "err", err)
		nodes = nil
	}

	nodeID, ok := PickBestNode(nodes)
	if !ok {
		s.log.Debugw("send_dropped", "path", path, "reason", metrics.DropNoNode)
		s.drop(path, "", metrics.DropNoNode, "no connected node")
		return
	}

	if err := s.messages.SendMessage(ctx, nodeID, path, payload); err != nil {
		if ctx.Err() != nil {
			metrics.MessagesDroppedTotal.WithLabelValues(path, metrics.DropCancelled).Inc()
			return
		}
		s.log.Errorw("send_failed", "path", path, "node_id", nodeID, "err", err)
		s.drop(path, nodeID, metrics.DropSendError, err.Error())
		return
	}

	metrics.MessagesSentTotal.WithLabelValues(path).Inc()
	s.log.Debugw("message_sent", "path", path, "node_id", nodeID)
	ev := models.RelayEvent{
		Type:        models.EventSend,
		Path:        path,
		NodeID:      nodeID,
		Description: fmt.Sprintf("sent %s to %s", path, nodeID),
	}
	if data != nil {
		ev.Metadata = map[string]any(data)
	}
	s.events.Record(context.WithoutCancel(ctx), ev)
}

func (s *Sender) drop(path, nodeID, reason, detail string) {
	metrics.MessagesDroppedTotal.WithLabelValues(path, reason).Inc()
	s.events.Record(context.WithoutCancel(s.ctx), models.RelayEvent{
		Type:        models.EventDrop,
		Path:        path,
		NodeID:      nodeID,
		Description: detail,
		Metadata:    map[string]any{"reason": reason},
	})
}
