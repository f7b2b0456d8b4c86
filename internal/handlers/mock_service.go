package handlers

import (
	"context"
	"net/http"
	"time"

	"wear_relay/internal/models"
	"wear_relay/internal/permission"
	"wear_relay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       string
	parseErr      error

	lastSignUpNodeID string
	lastSignUpSecret string
	lastGenNodeID    string
	lastGenSecret    string
	lastParseToken   string
}

func (m *mockAuth) SignUp(nodeID, secret string) (int, error) {
	m.lastSignUpNodeID = nodeID
	m.lastSignUpSecret = secret
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(nodeID, secret string) (string, error) {
	m.lastGenNodeID = nodeID
	m.lastGenSecret = secret
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockScreen struct {
	open        bool
	status      service.ControllerStatus
	created     bool
	pressCalls  int
	launchCalls int
	finishCalls int
}

func (m *mockScreen) Status() (service.ControllerStatus, error) {
	if !m.open {
		return service.ControllerStatus{}, service.ErrNoScreen
	}
	return m.status, nil
}
func (m *mockScreen) PressStart() error {
	if !m.open {
		return service.ErrNoScreen
	}
	m.pressCalls++
	return nil
}
func (m *mockScreen) LaunchScreen() (service.ControllerStatus, bool) {
	m.launchCalls++
	m.open = true
	return m.status, m.created
}
func (m *mockScreen) Finish() error {
	if !m.open {
		return service.ErrNoScreen
	}
	m.finishCalls++
	m.open = false
	return nil
}

type mockPermissions struct {
	snapshot   permission.Snapshot
	answerErr  error
	lastCode   int
	lastGrant  bool
	answerCall int
}

func (m *mockPermissions) Snapshot() permission.Snapshot { return m.snapshot }
func (m *mockPermissions) Answer(code int, granted bool) error {
	m.answerCall++
	m.lastCode = code
	m.lastGrant = granted
	return m.answerErr
}

type mockDataItems struct {
	item     models.DataItem
	err      error
	lastPath string
}

func (m *mockDataItems) Get(ctx context.Context, path string) (models.DataItem, error) {
	m.lastPath = path
	return m.item, m.err
}

type mockNodes struct {
	nodes []models.Node
	err   error
}

func (m *mockNodes) ConnectedNodes(ctx context.Context) ([]models.Node, error) {
	return m.nodes, m.err
}

type mockEventLog struct {
	resp     []models.RelayEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.RelayEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}
func (m *mockEventLog) Record(ctx context.Context, e models.RelayEvent) {}

// mockNodeServer echoes the node it was given and closes.
type mockNodeServer struct {
	served chan models.Node
}

func (m *mockNodeServer) Serve(ctx context.Context, conn *websocket.Conn, node models.Node) {
	_ = conn.WriteJSON(node)
	m.served <- node
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
