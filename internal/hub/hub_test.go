package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"wear_relay/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	mu     sync.Mutex
	events []models.MessageEvent
}

func (r *recordingListener) OnMessageReceived(ev models.MessageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingListener) snapshot() []models.MessageEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.MessageEvent(nil), r.events...)
}

var testUpgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

func newTestServer(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		nearby, _ := strconv.ParseBool(r.URL.Query().Get("nearby"))
		h.Serve(r.Context(), conn, models.Node{ID: r.URL.Query().Get("node_id"), Nearby: nearby})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, nodeID string, nearby bool) *websocket.Conn {
	t.Helper()
	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	q := u.Query()
	q.Set("node_id", nodeID)
	q.Set("nearby", strconv.FormatBool(nearby))
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForNodes(t *testing.T, h *Hub, n int) []models.Node {
	t.Helper()
	var nodes []models.Node
	require.Eventually(t, func() bool {
		nodes, _ = h.ConnectedNodes(context.Background())
		return len(nodes) == n
	}, 2*time.Second, 10*time.Millisecond)
	return nodes
}

func TestHub_ConnectedNodesInConnectionOrder(t *testing.T) {
	h := New(Config{}, nil)
	srv := newTestServer(t, h)

	dial(t, srv, "far", false)
	waitForNodes(t, h, 1)
	dial(t, srv, "near", true)
	nodes := waitForNodes(t, h, 2)

	assert.Equal(t, "far", nodes[0].ID)
	assert.False(t, nodes[0].Nearby)
	assert.Equal(t, "near", nodes[1].ID)
	assert.True(t, nodes[1].Nearby)
}

func TestHub_SendMessageReachesNode(t *testing.T) {
	h := New(Config{}, nil)
	srv := newTestServer(t, h)
	conn := dial(t, srv, "phone", true)
	waitForNodes(t, h, 1)

	require.NoError(t, h.SendMessage(context.Background(), "phone", "/started", []byte{1, 2}))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, FrameMessage, env.Type)
	assert.Equal(t, "/started", env.Path)
	assert.Equal(t, []byte{1, 2}, env.Data)
}

func TestHub_SendMessageUnknownNode(t *testing.T) {
	h := New(Config{}, nil)
	err := h.SendMessage(context.Background(), "ghost", "/started", nil)
	assert.ErrorIs(t, err, ErrNodeNotConnected)
}

func TestHub_InboundMessagesReachListeners(t *testing.T) {
	h := New(Config{}, nil)
	l := &recordingListener{}
	h.AddListener(l)
	h.AddListener(l) // duplicate registration is ignored
	srv := newTestServer(t, h)
	conn := dial(t, srv, "phone", false)
	waitForNodes(t, h, 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteJSON(Envelope{Type: FrameData, Path: "/ignored"}))
	require.NoError(t, conn.WriteJSON(Envelope{Type: FrameMessage, Path: "/start"}))

	require.Eventually(t, func() bool { return len(l.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	ev := l.snapshot()[0]
	assert.Equal(t, "phone", ev.SourceNodeID)
	assert.Equal(t, "/start", ev.Path)

	h.RemoveListener(l)
	h.Deliver(models.MessageEvent{Path: "/stop"})
	assert.Len(t, l.snapshot(), 1)
}

func TestHub_InboundRateLimit(t *testing.T) {
	h := New(Config{MessagesPerSecond: 0.001, Burst: 2}, nil)
	l := &recordingListener{}
	h.AddListener(l)
	srv := newTestServer(t, h)
	conn := dial(t, srv, "phone", false)
	waitForNodes(t, h, 1)

	for i := 0; i < 5; i++ {
		require.NoError(t, conn.WriteJSON(Envelope{Type: FrameMessage, Path: "/start"}))
	}
	require.Eventually(t, func() bool { return len(l.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, l.snapshot(), 2)
}

func TestHub_ReconnectReplacesOldConnection(t *testing.T) {
	h := New(Config{}, nil)
	srv := newTestServer(t, h)

	old := dial(t, srv, "phone", false)
	waitForNodes(t, h, 1)
	fresh := dial(t, srv, "phone", true)

	require.Eventually(t, func() bool {
		nodes, _ := h.ConnectedNodes(context.Background())
		return len(nodes) == 1 && nodes[0].Nearby
	}, 2*time.Second, 10*time.Millisecond)

	_ = old.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := old.ReadMessage()
	assert.Error(t, err, "old connection should be closed")

	require.NoError(t, h.SendMessage(context.Background(), "phone", "/stopped", nil))
	_ = fresh.SetReadDeadline(time.Now().Add(time.Second))
	var env Envelope
	require.NoError(t, fresh.ReadJSON(&env))
	assert.Equal(t, "/stopped", env.Path)
}

func TestHub_DisconnectRemovesNode(t *testing.T) {
	h := New(Config{}, nil)
	srv := newTestServer(t, h)
	conn := dial(t, srv, "phone", false)
	waitForNodes(t, h, 1)

	require.NoError(t, conn.Close())
	waitForNodes(t, h, 0)
}

func TestHub_PublishDataItem(t *testing.T) {
	h := New(Config{}, nil)
	srv := newTestServer(t, h)
	a := dial(t, srv, "a", false)
	b := dial(t, srv, "b", false)
	waitForNodes(t, h, 2)

	h.PublishDataItem("/heart-rate", []byte{5}, map[string]any{"/heart-rate": 71.0})

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		assert.Equal(t, FrameData, env.Type)
		assert.Equal(t, 71.0, env.Values["/heart-rate"])
	}
}

func TestHub_ConnectedNodesCancelledContext(t *testing.T) {
	h := New(Config{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.ConnectedNodes(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
