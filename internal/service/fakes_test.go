package service

import (
	"context"
	"sync"

	"wear_relay/internal/models"
	"wear_relay/internal/platform"
	"wear_relay/internal/protocol"
)

type sentMessage struct {
	nodeID string
	path   string
	data   []byte
}

// fakeTransport stands in for the hub.
type fakeTransport struct {
	mu        sync.Mutex
	nodes     []models.Node
	nodesErr  error
	sendErr   error
	sent      []sentMessage
	listeners []platform.MessageListener
	published []string
}

func (f *fakeTransport) ConnectedNodes(ctx context.Context) ([]models.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Node(nil), f.nodes...), f.nodesErr
}

func (f *fakeTransport) SendMessage(ctx context.Context, nodeID, path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{nodeID: nodeID, path: path, data: data})
	return f.sendErr
}

func (f *fakeTransport) AddListener(l platform.MessageListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, l)
}

func (f *fakeTransport) RemoveListener(l platform.MessageListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.listeners {
		if existing == l {
			f.listeners = append(f.listeners[:i], f.listeners[i+1:]...)
			return
		}
	}
}

func (f *fakeTransport) PublishDataItem(path string, payload []byte, values map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, path)
}

// deliver fans ev out to the current listeners.
func (f *fakeTransport) deliver(path string) {
	f.mu.Lock()
	ls := append([]platform.MessageListener(nil), f.listeners...)
	f.mu.Unlock()
	for _, l := range ls {
		l.OnMessageReceived(models.MessageEvent{SourceNodeID: "phone", Path: path})
	}
}

func (f *fakeTransport) sentPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.path
	}
	return out
}

func (f *fakeTransport) lastSent() (sentMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMessage{}, false
	}
	return f.sent[len(f.sent)-1], true
}

func (f *fakeTransport) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// fakeSensors tracks registrations of a single heart-rate sensor.
type fakeSensors struct {
	mu         sync.Mutex
	missing    bool
	registered map[platform.SensorEventListener]int
	unregs     int
}

func newFakeSensors() *fakeSensors {
	return &fakeSensors{registered: make(map[platform.SensorEventListener]int)}
}

func (f *fakeSensors) DefaultSensor(sensorType int) (platform.Sensor, bool) {
	if f.missing || sensorType != platform.SensorTypeHeartRate {
		return platform.Sensor{}, false
	}
	return platform.Sensor{Type: platform.SensorTypeHeartRate, Name: "hr"}, true
}

func (f *fakeSensors) RegisterListener(l platform.SensorEventListener, s platform.Sensor, delay int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered[l] = delay
	return true
}

func (f *fakeSensors) UnregisterListener(l platform.SensorEventListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.registered, l)
	f.unregs++
}

func (f *fakeSensors) isRegistered(l platform.SensorEventListener) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.registered[l]
	return ok
}

// fakePermissions grants or withholds the body-sensor permission.
type fakePermissions struct {
	mu       sync.Mutex
	granted  bool
	requests []int
}

func (f *fakePermissions) CheckSelfPermission(string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.granted
}

func (f *fakePermissions) RequestPermissions(l platform.PermissionResultListener, perms []string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, code)
}

func (f *fakePermissions) requestCodes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.requests...)
}

type putCall struct {
	path    string
	payload []byte
}

// fakeData records data item puts.
type fakeData struct {
	mu   sync.Mutex
	puts []putCall
	err  error
}

func (f *fakeData) PutDataItem(ctx context.Context, path string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, putCall{path: path, payload: payload})
	return f.err
}

func (f *fakeData) calls() []putCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]putCall(nil), f.puts...)
}

// fakeRecorder keeps recorded events in memory.
type fakeRecorder struct {
	mu     sync.Mutex
	events []models.RelayEvent
}

func (f *fakeRecorder) Record(ctx context.Context, e models.RelayEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeRecorder) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

func (f *fakeRecorder) byType(typ string) []models.RelayEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RelayEvent
	for _, e := range f.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// decodePayload parses a sent payload for assertions.
func decodePayload(b []byte) protocol.DataMap {
	m, err := protocol.ParseDataMap(b)
	if err != nil {
		panic(err)
	}
	return m
}
