package service

import (
	"wear_relay/internal/logger"
	"wear_relay/internal/models"
	"wear_relay/internal/platform"
	"wear_relay/internal/protocol"
)

// Launcher brings up the foreground screen.
type Launcher interface {
	Launch()
}

// Listener is the background message listener. It stays subscribed for the
// life of the process and only reacts to /start-activity.
type Listener struct {
	messages platform.MessageClient
	launcher Launcher
	log      *logger.Logger
}

var _ platform.MessageListener = (*Listener)(nil)

// NewListener subscribes the listener to messages.
func NewListener(messages platform.MessageClient, launcher Launcher, log *logger.Logger) *Listener {
	if log == nil {
		log = logger.Nop()
	}
	l := &Listener{messages: messages, launcher: launcher, log: log.With("component", "listener")}
	messages.AddListener(l)
	return l
}

func (l *Listener) OnMessageReceived(ev models.MessageEvent) {
	if ev.Path != protocol.PathStartActivity {
		return
	}
	l.log.Infow("start_activity_received", "node_id", ev.SourceNodeID)
	l.launcher.Launch()
}

// Close unsubscribes the listener.
func (l *Listener) Close() {
	l.messages.RemoveListener(l)
}
