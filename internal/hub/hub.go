package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"wear_relay/internal/logger"
	"wear_relay/internal/metrics"
	"wear_relay/internal/models"
	"wear_relay/internal/platform"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Send/receive timing and size limits per connection.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB

	defaultSendBuffer        = 16
	defaultMessagesPerSecond = 20
	defaultBurst             = 10
)

var (
	ErrNodeNotConnected = errors.New("node not connected")
	ErrSendBufferFull   = errors.New("node send buffer full")
)

// Config tunes per-connection limits. Zero values pick defaults.
type Config struct {
	MessagesPerSecond float64
	Burst             int
	SendBuffer        int
}

// Hub tracks connected nodes. It implements platform.NodeClient and
// platform.MessageClient.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]*client
	order     []string
	listeners []platform.MessageListener

	limit      rate.Limit
	burst      int
	sendBuffer int
	log        *logger.Logger
}

var (
	_ platform.NodeClient    = (*Hub)(nil)
	_ platform.MessageClient = (*Hub)(nil)
)

func New(cfg Config, log *logger.Logger) *Hub {
	if cfg.MessagesPerSecond <= 0 {
		cfg.MessagesPerSecond = defaultMessagesPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaultSendBuffer
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients:    make(map[string]*client),
		limit:      rate.Limit(cfg.MessagesPerSecond),
		burst:      cfg.Burst,
		sendBuffer: cfg.SendBuffer,
		log:        log,
	}
}

// ConnectedNodes returns the live nodes in connection order.
func (h *Hub) ConnectedNodes(ctx context.Context) ([]models.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	nodes := make([]models.Node, 0, len(h.order))
	for _, id := range h.order {
		nodes = append(nodes, h.clients[id].node)
	}
	return nodes, nil
}

// SendMessage queues a message frame for nodeID. It does not wait for delivery.
func (h *Hub) SendMessage(ctx context.Context, nodeID, path string, data []byte) error {
	h.mu.RLock()
	c, ok := h.clients[nodeID]
	h.mu.RUnlock()
	if !ok {
		return ErrNodeNotConnected
	}
	return c.enqueue(ctx, Envelope{Type: FrameMessage, Path: path, Data: data})
}

// PublishDataItem pushes a data item update to every connected node.
// Nodes with a full buffer miss the update.
func (h *Hub) PublishDataItem(path string, payload []byte, values map[string]any) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	env := Envelope{Type: FrameData, Path: path, Data: payload, Values: values}
	for _, c := range targets {
		if err := c.offer(env); err != nil {
			h.log.Debugw("data_item_skipped", "node_id", c.node.ID, "path", path, "err", err)
		}
	}
}

func (h *Hub) AddListener(l platform.MessageListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, existing := range h.listeners {
		if existing == l {
			return
		}
	}
	h.listeners = append(h.listeners, l)
}

func (h *Hub) RemoveListener(l platform.MessageListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.listeners {
		if existing == l {
			h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
			return
		}
	}
}

// Deliver hands an inbound message to every listener.
func (h *Hub) Deliver(ev models.MessageEvent) {
	h.mu.RLock()
	listeners := append([]platform.MessageListener(nil), h.listeners...)
	h.mu.RUnlock()
	for _, l := range listeners {
		l.OnMessageReceived(ev)
	}
}

// Serve runs the connection for node until it closes or ctx is done.
// A node ID that is already connected has its old connection closed.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, node models.Node) {
	c := newClient(conn, node, h.sendBuffer, rate.NewLimiter(h.limit, h.burst))
	h.register(c)
	defer h.unregister(c)

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	readDone := make(chan struct{})
	go h.readLoop(c, readDone)
	c.writeLoop(ctx, readDone, h.log)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	old, replaced := h.clients[c.node.ID]
	h.clients[c.node.ID] = c
	if replaced {
		h.order = removeID(h.order, c.node.ID)
	}
	h.order = append(h.order, c.node.ID)
	count := len(h.clients)
	h.mu.Unlock()

	if replaced {
		old.close()
		h.log.Infow("node_replaced", "node_id", c.node.ID)
	}
	metrics.ConnectedNodes.Set(float64(count))
	h.log.Infow("node_connected", "node_id", c.node.ID, "nearby", c.node.Nearby)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if current, ok := h.clients[c.node.ID]; ok && current == c {
		delete(h.clients, c.node.ID)
		h.order = removeID(h.order, c.node.ID)
	}
	count := len(h.clients)
	h.mu.Unlock()

	c.close()
	metrics.ConnectedNodes.Set(float64(count))
	h.log.Infow("node_disconnected", "node_id", c.node.ID)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
