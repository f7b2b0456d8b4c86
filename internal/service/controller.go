package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"wear_relay/internal/logger"
	"wear_relay/internal/metrics"
	"wear_relay/internal/models"
	"wear_relay/internal/platform"
	"wear_relay/internal/protocol"
)

// Revision selects which inbound commands the controller honours.
type Revision string

const (
	RevisionAuthorize Revision = "authorize"
	RevisionBasic     Revision = "basic"
)

var ErrUnknownRevision = errors.New("unknown controller revision")

// ParseRevision accepts authorize or basic. Empty means authorize.
func ParseRevision(s string) (Revision, error) {
	switch Revision(s) {
	case "", RevisionAuthorize:
		return RevisionAuthorize, nil
	case RevisionBasic:
		return RevisionBasic, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRevision, s)
}

// MessageSender is the fire-and-forget outbound send.
type MessageSender interface {
	Send(path string, data protocol.DataMap) <-chan struct{}
}

// ControllerDeps are the capabilities a controller is created with.
type ControllerDeps struct {
	Sensors     platform.SensorManager
	Messages    platform.MessageClient
	Data        platform.DataClient
	Permissions platform.PermissionChecker
	Sender      MessageSender
	Events      EventRecorder
	Revision    Revision
	// OnFinish is called once when the controller closes.
	OnFinish func(*Controller)
	Log      *logger.Logger
}

// ControllerStatus is a point-in-time view of a controller.
type ControllerStatus struct {
	Created          bool     `json:"created"`
	Finished         bool     `json:"finished"`
	SensorRegistered bool     `json:"sensor_registered"`
	Permission       string   `json:"permission"`
	Revision         Revision `json:"revision"`
}

// Controller is the foreground screen: it owns the sensor subscription and
// answers commands from the handheld.
type Controller struct {
	ctx  context.Context
	deps ControllerDeps
	log  *logger.Logger

	mu         sync.Mutex
	sensor     platform.Sensor
	hasSensor  bool
	created    bool
	finished   bool
	registered bool

	pending sync.WaitGroup
}

var (
	_ platform.MessageListener          = (*Controller)(nil)
	_ platform.SensorEventListener      = (*Controller)(nil)
	_ platform.PermissionResultListener = (*Controller)(nil)
	_ platform.AmbientCallbackProvider  = (*Controller)(nil)
)

func NewController(ctx context.Context, deps ControllerDeps) *Controller {
	if deps.Events == nil {
		deps.Events = nopRecorder{}
	}
	if deps.Revision == "" {
		deps.Revision = RevisionAuthorize
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{ctx: ctx, deps: deps, log: log.With("component", "controller")}
}

// OnCreate acquires the heart-rate sensor and subscribes to inbound messages.
func (c *Controller) OnCreate() {
	s, ok := c.deps.Sensors.DefaultSensor(platform.SensorTypeHeartRate)

	c.mu.Lock()
	if c.created {
		c.mu.Unlock()
		return
	}
	c.sensor, c.hasSensor, c.created = s, ok, true
	c.mu.Unlock()

	if !ok {
		c.log.Warnw("heart_rate_sensor_missing")
	}
	c.deps.Messages.AddListener(c)
	c.log.Infow("controller_created", "revision", c.deps.Revision)
}

// StartButton asks for the body-sensor permission when it is missing,
// otherwise starts streaming.
func (c *Controller) StartButton() {
	if !c.permissionGranted() {
		c.requestPermission()
		return
	}
	c.registerListener()
}

func (c *Controller) OnMessageReceived(ev models.MessageEvent) {
	if c.isFinished() {
		return
	}

	label := ev.Path
	if !protocol.IsInbound(label) {
		label = "other"
	}
	metrics.CommandsReceivedTotal.WithLabelValues(label).Inc()

	switch ev.Path {
	case protocol.PathStop:
		c.unregisterListener()
	case protocol.PathStart:
		c.registerListener()
	case protocol.PathFinish:
		c.Finish()
	case protocol.PathAuthorize:
		if c.deps.Revision != RevisionAuthorize {
			c.log.Debugw("command_ignored", "path", ev.Path, "revision", c.deps.Revision)
			return
		}
		if !c.permissionGranted() {
			c.requestPermission()
		} else {
			c.send(protocol.PathPermission, protocol.PermissionPayload(protocol.PermissionStateGranted))
		}
	default:
		c.log.Debugw("command_ignored", "path", ev.Path, "node_id", ev.SourceNodeID)
		return
	}

	c.deps.Events.Record(c.ctx, models.RelayEvent{
		Type:        models.EventCommand,
		Path:        ev.Path,
		NodeID:      ev.SourceNodeID,
		Description: "received " + ev.Path,
	})
}

// OnSensorChanged forwards a heart-rate reading to the data-sync store.
func (c *Controller) OnSensorChanged(ev platform.SensorEvent) {
	if ev.Sensor.Type != platform.SensorTypeHeartRate || len(ev.Values) == 0 {
		return
	}
	payload, err := protocol.HeartRatePayload(ev.Values[0]).Bytes()
	if err != nil {
		c.log.Errorw("heart_rate_encode_failed", "err", err)
		return
	}

	if !c.track() {
		return
	}
	go func() {
		defer c.pending.Done()
		if err := c.deps.Data.PutDataItem(c.ctx, protocol.PathHeartRate, payload); err != nil && c.ctx.Err() == nil {
			c.log.Errorw("put_data_item_failed", "path", protocol.PathHeartRate, "err", err)
		}
	}()
}

func (c *Controller) OnAccuracyChanged(platform.Sensor, int) {}

func (c *Controller) OnFlushCompleted(platform.Sensor) {}

func (c *Controller) OnRequestPermissionsResult(requestCode int, permissions []string, grantResults []int) {
	if requestCode != protocol.PermissionsRequestCode || c.isFinished() {
		return
	}
	state := protocol.PermissionResultCode(grantResults)
	c.send(protocol.PathPermission, protocol.PermissionPayload(state))
	c.deps.Events.Record(c.ctx, models.RelayEvent{
		Type:        models.EventPermission,
		Path:        protocol.PathPermission,
		Description: "permission " + state.String(),
		Metadata:    map[string]any{"request_code": requestCode, "state": int(state)},
	})
}

// AmbientCallback returns a callback that ignores ambient transitions.
func (c *Controller) AmbientCallback() platform.AmbientCallback {
	return ambientNoop{}
}

type ambientNoop struct{}

func (ambientNoop) OnEnterAmbient(map[string]any) {}
func (ambientNoop) OnExitAmbient()                {}

// Finish closes the screen. The sensor is released without an
// acknowledgment to the handheld. Calling Finish again is a no-op.
func (c *Controller) Finish() {
	c.mu.Lock()
	if c.finished {
		c.mu.Unlock()
		return
	}
	c.finished = true
	c.registered = false
	c.mu.Unlock()

	c.deps.Messages.RemoveListener(c)
	c.deps.Sensors.UnregisterListener(c)
	c.log.Infow("controller_finished")
	c.deps.Events.Record(c.ctx, models.RelayEvent{Type: models.EventFinish, Description: "screen closed"})

	if c.deps.OnFinish != nil {
		c.deps.OnFinish(c)
	}
}

// Wait blocks until every send and data put started so far has finished.
func (c *Controller) Wait() {
	c.pending.Wait()
}

func (c *Controller) Status() ControllerStatus {
	perm := c.permissionState()

	c.mu.Lock()
	defer c.mu.Unlock()
	return ControllerStatus{
		Created:          c.created,
		Finished:         c.finished,
		SensorRegistered: c.registered,
		Permission:       perm.String(),
		Revision:         c.deps.Revision,
	}
}

func (c *Controller) registerListener() {
	c.mu.Lock()
	s, ok := c.sensor, c.hasSensor
	c.mu.Unlock()

	registered := ok && c.deps.Sensors.RegisterListener(c, s, platform.SensorDelayNormal)
	if !registered {
		c.log.Warnw("sensor_register_failed", "sensor_type", platform.SensorTypeHeartRate)
	}
	c.mu.Lock()
	c.registered = registered
	c.mu.Unlock()

	c.send(protocol.PathStarted, nil)
}

func (c *Controller) unregisterListener() {
	c.deps.Sensors.UnregisterListener(c)
	c.mu.Lock()
	c.registered = false
	c.mu.Unlock()

	c.send(protocol.PathStopped, nil)
}

func (c *Controller) requestPermission() {
	c.deps.Permissions.RequestPermissions(c, []string{protocol.PermissionBodySensors}, protocol.PermissionsRequestCode)
}

func (c *Controller) permissionGranted() bool {
	return c.deps.Permissions.CheckSelfPermission(protocol.PermissionBodySensors)
}

// permissionState reports the body-sensor state. Checkers that only answer
// granted or not report NotRequested for anything short of granted.
func (c *Controller) permissionState() protocol.PermissionState {
	if st, ok := c.deps.Permissions.(interface {
		State(string) protocol.PermissionState
	}); ok {
		return st.State(protocol.PermissionBodySensors)
	}
	if c.permissionGranted() {
		return protocol.PermissionStateGranted
	}
	return protocol.PermissionNotRequested
}

func (c *Controller) isFinished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}

// track counts one pending operation unless the controller has finished.
// Finish takes the same lock, so Wait never races a late Add.
func (c *Controller) track() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return false
	}
	c.pending.Add(1)
	return true
}

func (c *Controller) send(path string, data protocol.DataMap) {
	done := c.deps.Sender.Send(path, data)
	if !c.track() {
		return
	}
	go func() {
		defer c.pending.Done()
		<-done
	}()
}
