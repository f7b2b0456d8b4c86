package sensor

import (
	"context"
	"sync"
	"testing"
	"time"

	"wear_relay/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanSource emits whatever is pushed on feed.
type chanSource struct {
	feed    chan float32
	mu      sync.Mutex
	runs    int
	periods []time.Duration
}

func newChanSource() *chanSource { return &chanSource{feed: make(chan float32)} }

func (s *chanSource) Run(ctx context.Context, period time.Duration, emit func(float32)) error {
	s.mu.Lock()
	s.runs++
	s.periods = append(s.periods, period)
	s.mu.Unlock()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v := <-s.feed:
			emit(v)
		}
	}
}

type countingListener struct {
	mu     sync.Mutex
	values []float32
}

func (l *countingListener) OnSensorChanged(ev platform.SensorEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values = append(l.values, ev.Values[0])
}
func (l *countingListener) OnAccuracyChanged(platform.Sensor, int) {}
func (l *countingListener) OnFlushCompleted(platform.Sensor)       {}

func (l *countingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.values)
}

func TestManager_DefaultSensor(t *testing.T) {
	m := NewManager(newChanSource(), nil)
	s, ok := m.DefaultSensor(platform.SensorTypeHeartRate)
	require.True(t, ok)
	assert.Equal(t, HeartRateSensor, s)

	_, ok = m.DefaultSensor(platform.SensorTypeAccelerometer)
	assert.False(t, ok)

	_, ok = NewManager(nil, nil).DefaultSensor(platform.SensorTypeHeartRate)
	assert.False(t, ok)
}

func TestManager_RegisterDeliversAndUnregisterStops(t *testing.T) {
	src := newChanSource()
	m := NewManager(src, nil)
	t.Cleanup(m.Close)
	l := &countingListener{}

	require.True(t, m.RegisterListener(l, HeartRateSensor, platform.SensorDelayNormal))
	require.True(t, m.RegisterListener(l, HeartRateSensor, platform.SensorDelayNormal))
	assert.True(t, m.Active())

	src.feed <- 80
	require.Eventually(t, func() bool { return l.count() == 1 }, time.Second, 5*time.Millisecond)

	m.UnregisterListener(l)
	assert.False(t, m.Registered(l))
	assert.False(t, m.Active())

	// stop after stop is harmless
	m.UnregisterListener(l)

	src.mu.Lock()
	assert.Equal(t, 1, src.runs, "duplicate registration must not start a second source")
	assert.Equal(t, []time.Duration{200 * time.Millisecond}, src.periods)
	src.mu.Unlock()
}

func TestManager_RejectsOtherSensors(t *testing.T) {
	m := NewManager(newChanSource(), nil)
	t.Cleanup(m.Close)
	l := &countingListener{}

	assert.False(t, m.RegisterListener(l, platform.Sensor{Type: platform.SensorTypeAccelerometer}, platform.SensorDelayNormal))
	assert.False(t, m.RegisterListener(nil, HeartRateSensor, platform.SensorDelayNormal))
	assert.False(t, m.Active())
}

func TestManager_SourceRunsWhileAnyListenerRemains(t *testing.T) {
	src := newChanSource()
	m := NewManager(src, nil)
	t.Cleanup(m.Close)
	a, b := &countingListener{}, &countingListener{}

	m.RegisterListener(a, HeartRateSensor, platform.SensorDelayNormal)
	m.RegisterListener(b, HeartRateSensor, platform.SensorDelayUI)
	m.UnregisterListener(a)
	assert.True(t, m.Active())

	src.feed <- 90
	require.Eventually(t, func() bool { return b.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, a.count())
}

func TestSamplingPeriod(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, samplingPeriod(platform.SensorDelayNormal))
	assert.Equal(t, 66*time.Millisecond, samplingPeriod(platform.SensorDelayUI))
	assert.Equal(t, 20*time.Millisecond, samplingPeriod(platform.SensorDelayFastest))
	assert.Equal(t, 200*time.Millisecond, samplingPeriod(99))
}

// Fails under -race if a restarted run overlaps the previous one.
func TestManager_RestartCycleWithSimulator(t *testing.T) {
	m := NewManager(NewSimulator(nil, 1), nil)
	defer m.Close()
	l := &countingListener{}

	for i := 0; i < 60; i++ {
		require.True(t, m.RegisterListener(l, HeartRateSensor, platform.SensorDelayFastest))
		time.Sleep(time.Duration(i%25) * time.Millisecond)
		m.UnregisterListener(l)
	}
	assert.False(t, m.Active())
}

func TestManager_RestartWaitsForPreviousRun(t *testing.T) {
	src := &blockingSource{entered: make(chan struct{}, 4), release: make(chan struct{})}
	m := NewManager(src, nil)
	l := &countingListener{}

	require.True(t, m.RegisterListener(l, HeartRateSensor, platform.SensorDelayNormal))
	<-src.entered
	m.UnregisterListener(l)
	require.True(t, m.RegisterListener(l, HeartRateSensor, platform.SensorDelayNormal))

	select {
	case <-src.entered:
		t.Fatal("second run started before the first exited")
	case <-time.After(50 * time.Millisecond):
	}

	close(src.release)
	select {
	case <-src.entered:
	case <-time.After(time.Second):
		t.Fatal("second run never started")
	}
	m.Close()
	assert.Equal(t, 1, src.maxActive())
}

// blockingSource ignores cancellation until release is closed.
type blockingSource struct {
	entered chan struct{}
	release chan struct{}

	mu     sync.Mutex
	active int
	peak   int
}

func (s *blockingSource) Run(ctx context.Context, _ time.Duration, _ func(float32)) error {
	s.mu.Lock()
	s.active++
	s.peak = max(s.peak, s.active)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	s.entered <- struct{}{}
	<-s.release
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingSource) maxActive() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}
