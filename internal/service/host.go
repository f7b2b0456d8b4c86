package service

import (
	"context"
	"errors"
	"sync"

	"wear_relay/internal/logger"
	"wear_relay/internal/models"
)

var ErrNoScreen = errors.New("no screen is open")

// Host owns the single foreground controller task.
type Host struct {
	ctx  context.Context
	deps ControllerDeps
	log  *logger.Logger

	mu       sync.Mutex
	current  *Controller
	launches int
}

var _ Launcher = (*Host)(nil)

// NewHost creates controllers from deps. deps.OnFinish is replaced by the host.
func NewHost(ctx context.Context, deps ControllerDeps) *Host {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	if deps.Events == nil {
		deps.Events = nopRecorder{}
	}
	return &Host{ctx: ctx, deps: deps, log: log.With("component", "host")}
}

// Launch creates and starts a controller unless one is already open.
func (h *Host) Launch() {
	h.Open()
}

// Open returns the open controller, creating it first when none is open.
// The bool reports whether a new controller was created.
func (h *Host) Open() (*Controller, bool) {
	h.mu.Lock()
	if h.current != nil {
		c := h.current
		h.mu.Unlock()
		h.log.Debugw("screen_already_open")
		return c, false
	}
	deps := h.deps
	deps.OnFinish = h.finished
	c := NewController(h.ctx, deps)
	h.current = c
	h.launches++
	h.mu.Unlock()

	c.OnCreate()
	h.log.Infow("screen_launched")
	h.deps.Events.Record(h.ctx, models.RelayEvent{Type: models.EventLaunch, Description: "screen launched"})
	return c, true
}

// Current returns the open controller.
func (h *Host) Current() (*Controller, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current, h.current != nil
}

// Launches reports how many controllers were created.
func (h *Host) Launches() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.launches
}

func (h *Host) Status() (ControllerStatus, error) {
	c, ok := h.Current()
	if !ok {
		return ControllerStatus{}, ErrNoScreen
	}
	return c.Status(), nil
}

// PressStart presses the start button on the open screen.
func (h *Host) PressStart() error {
	c, ok := h.Current()
	if !ok {
		return ErrNoScreen
	}
	c.StartButton()
	return nil
}

// Finish closes the open screen.
func (h *Host) Finish() error {
	c, ok := h.Current()
	if !ok {
		return ErrNoScreen
	}
	c.Finish()
	return nil
}

// Shutdown closes the open screen, if any, and waits for its work to drain.
func (h *Host) Shutdown() {
	c, ok := h.Current()
	if !ok {
		return
	}
	c.Finish()
	c.Wait()
}

func (h *Host) finished(c *Controller) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == c {
		h.current = nil
	}
}

// LaunchScreen opens the screen and reports its status and whether it was
// newly created.
func (h *Host) LaunchScreen() (ControllerStatus, bool) {
	c, created := h.Open()
	return c.Status(), created
}
