package sensor

import (
	"context"
	"sync"
	"time"

	"wear_relay/internal/logger"
	"wear_relay/internal/platform"
)

// Source produces heart-rate values until ctx is done.
type Source interface {
	Run(ctx context.Context, period time.Duration, emit func(bpm float32)) error
}

// HeartRateSensor is the only sensor the manager exposes.
var HeartRateSensor = platform.Sensor{Type: platform.SensorTypeHeartRate, Name: "heart_rate"}

// samplingPeriod maps a sensor delay to a source period.
func samplingPeriod(delay int) time.Duration {
	switch delay {
	case platform.SensorDelayFastest:
		return 20 * time.Millisecond
	case platform.SensorDelayGame:
		return 20 * time.Millisecond
	case platform.SensorDelayUI:
		return 66 * time.Millisecond
	default:
		return 200 * time.Millisecond
	}
}

// Manager implements platform.SensorManager over a single heart-rate source.
// The source runs only while at least one listener is registered.
type Manager struct {
	mu        sync.Mutex
	source    Source
	listeners map[platform.SensorEventListener]struct{}
	cancel    context.CancelFunc
	// stopped is closed when the latest run exits.
	stopped   chan struct{}
	running   sync.WaitGroup
	log       *logger.Logger
}

var _ platform.SensorManager = (*Manager)(nil)

func NewManager(source Source, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		source:    source,
		listeners: make(map[platform.SensorEventListener]struct{}),
		log:       log,
	}
}

func (m *Manager) DefaultSensor(sensorType int) (platform.Sensor, bool) {
	if sensorType != platform.SensorTypeHeartRate || m.source == nil {
		return platform.Sensor{}, false
	}
	return HeartRateSensor, true
}

// RegisterListener registers l for s. Registering an already registered
// listener is a no-op that reports success.
func (m *Manager) RegisterListener(l platform.SensorEventListener, s platform.Sensor, delay int) bool {
	if l == nil || s.Type != platform.SensorTypeHeartRate || m.source == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listeners[l]; ok {
		return true
	}
	m.listeners[l] = struct{}{}
	if m.cancel == nil {
		m.startLocked(samplingPeriod(delay))
	}
	return true
}

// UnregisterListener removes l. Unknown listeners are ignored.
func (m *Manager) UnregisterListener(l platform.SensorEventListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listeners[l]; !ok {
		return
	}
	delete(m.listeners, l)
	if len(m.listeners) == 0 && m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Registered reports whether l currently receives readings.
func (m *Manager) Registered(l platform.SensorEventListener) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.listeners[l]
	return ok
}

// Active reports whether the source is running.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Close stops the source and waits for it to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	clear(m.listeners)
	m.mu.Unlock()
	m.running.Wait()
}

// startLocked starts a run once the previous one has exited, so at most one
// run is inside the source at a time.
func (m *Manager) startLocked(period time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	prev, stopped := m.stopped, make(chan struct{})
	m.cancel, m.stopped = cancel, stopped
	m.running.Add(1)
	go func() {
		defer m.running.Done()
		defer close(stopped)
		if prev != nil {
			<-prev
		}
		if ctx.Err() != nil {
			return
		}
		m.log.Infow("sensor_started", "sensor", HeartRateSensor.Name, "period", period)
		if err := m.source.Run(ctx, period, m.dispatch); err != nil && ctx.Err() == nil {
			m.log.Errorw("sensor_source_failed", "sensor", HeartRateSensor.Name, "err", err)
		}
		m.log.Infow("sensor_stopped", "sensor", HeartRateSensor.Name)
	}()
}

func (m *Manager) dispatch(bpm float32) {
	m.mu.Lock()
	targets := make([]platform.SensorEventListener, 0, len(m.listeners))
	for l := range m.listeners {
		targets = append(targets, l)
	}
	m.mu.Unlock()

	ev := platform.SensorEvent{Sensor: HeartRateSensor, Values: []float32{bpm}}
	for _, l := range targets {
		if m.Registered(l) {
			l.OnSensorChanged(ev)
		}
	}
}
