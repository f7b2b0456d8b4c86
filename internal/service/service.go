package service

import (
	"context"

	"wear_relay/internal/logger"
	"wear_relay/internal/models"
	"wear_relay/internal/permission"
	"wear_relay/internal/platform"
	"wear_relay/internal/repository"

	"github.com/jonboulle/clockwork"
)

type Authorization interface {
	SignUp(nodeID, secret string) (int, error)
	GenerateToken(nodeID, secret string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// EventLog exposes the append-only relay log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.RelayEvent, error)
	Record(ctx context.Context, e models.RelayEvent)
}

// Screen drives the foreground screen from the API.
type Screen interface {
	Status() (ControllerStatus, error)
	PressStart() error
	LaunchScreen() (ControllerStatus, bool)
	Finish() error
}

// Permissions exposes the permission prompt to the API.
type Permissions interface {
	Snapshot() permission.Snapshot
	Answer(requestCode int, granted bool) error
}

// DataItems reads the data-sync store.
type DataItems interface {
	Get(ctx context.Context, path string) (models.DataItem, error)
}

// Service aggregates everything the handlers need.
type Service struct {
	Authorization
	EventLog
	Screen
	Permissions
	DataItems
	Nodes platform.NodeClient

	host     *Host
	listener *Listener
}

// Transport is the node-facing side of the relay.
type Transport interface {
	platform.NodeClient
	platform.MessageClient
	DataPublisher
}

type Config struct {
	Auth     AuthConfig
	Revision Revision
}

// Deps are the concrete capabilities the relay runs on.
type Deps struct {
	Transport   Transport
	Sensors     platform.SensorManager
	Permissions *permission.Store
	// DataItems overrides repos.DataItems when set.
	DataItems repository.DataItemRepo
	Clock     clockwork.Clock
	Log       *logger.Logger
}

// NewService wires repositories and relay capabilities into services. Sends
// and data puts are bound to ctx.
func NewService(ctx context.Context, repos *repository.Repository, cfg Config, d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	items := d.DataItems
	if items == nil {
		items = repos.DataItems
	}

	events := NewEventLogService(repos.EventRepo, d.Clock, log)
	data := NewDataSyncService(items, d.Transport, d.Clock, log)
	sender := NewSender(ctx, d.Transport, d.Transport, events, log)

	host := NewHost(ctx, ControllerDeps{
		Sensors:     d.Sensors,
		Messages:    d.Transport,
		Data:        data,
		Permissions: d.Permissions,
		Sender:      sender,
		Events:      events,
		Revision:    cfg.Revision,
		Log:         log,
	})
	listener := NewListener(d.Transport, host, log)

	return &Service{
		Authorization: NewAuthService(repos.Auth, cfg.Auth),
		EventLog:      events,
		Screen:        host,
		Permissions:   d.Permissions,
		DataItems:     data,
		Nodes:         d.Transport,
		host:          host,
		listener:      listener,
	}
}

// Close unsubscribes the background listener and closes the open screen.
func (s *Service) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
	if s.host != nil {
		s.host.Shutdown()
	}
}
