package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"wear_relay/internal/logger"
	"wear_relay/internal/metrics"
	"wear_relay/internal/models"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type client struct {
	node    models.Node
	conn    *websocket.Conn
	send    chan Envelope
	done    chan struct{}
	limiter *rate.Limiter

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, node models.Node, buffer int, limiter *rate.Limiter) *client {
	return &client{
		node:    node,
		conn:    conn,
		send:    make(chan Envelope, buffer),
		done:    make(chan struct{}),
		limiter: limiter,
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// enqueue waits for buffer space until ctx is done.
func (c *client) enqueue(ctx context.Context, env Envelope) error {
	select {
	case <-c.done:
		return ErrNodeNotConnected
	default:
	}
	select {
	case c.send <- env:
		return nil
	case <-c.done:
		return ErrNodeNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// offer never blocks.
func (c *client) offer(env Envelope) error {
	select {
	case <-c.done:
		return ErrNodeNotConnected
	case c.send <- env:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (h *Hub) readLoop(c *client, done chan<- struct{}) {
	defer close(done)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			h.log.Debugw("ws_read_closed", "node_id", c.node.ID, "err", err)
			return
		}
		if !c.limiter.Allow() {
			metrics.InboundFramesDroppedTotal.Inc()
			h.log.Debugw("ws_frame_rate_limited", "node_id", c.node.ID)
			continue
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			h.log.Infow("ws_bad_frame", "node_id", c.node.ID, "err", err)
			continue
		}
		if env.Type != FrameMessage || env.Path == "" {
			continue
		}
		h.Deliver(models.MessageEvent{SourceNodeID: c.node.ID, Path: env.Path, Data: env.Data})
	}
}

func (c *client) writeLoop(ctx context.Context, readDone <-chan struct{}, log *logger.Logger) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Infow("ws_ping_failed", "node_id", c.node.ID, "err", err)
				return
			}
		case env := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				log.Infow("ws_write_failed", "node_id", c.node.ID, "path", env.Path, "err", err)
				return
			}
		}
	}
}
