package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulator_EmitsOnEachTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sim := NewSimulator(clock, 42)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan float32, 8)
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx, time.Second, func(v float32) { got <- v }) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		select {
		case v := <-got:
			assert.GreaterOrEqual(t, v, float32(MinBPM))
			assert.LessOrEqual(t, v, float32(MaxBPM))
		case <-time.After(time.Second):
			t.Fatalf("no reading after tick %d", i)
		}
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestSimulator_StepStaysInBounds(t *testing.T) {
	sim := NewSimulator(clockwork.NewFakeClock(), 7)
	for i := 0; i < 10_000; i++ {
		v := sim.step()
		if v < MinBPM || v > MaxBPM {
			t.Fatalf("step %d out of bounds: %v", i, v)
		}
	}
}

func TestSimulator_DeterministicForSeed(t *testing.T) {
	a := NewSimulator(clockwork.NewFakeClock(), 1)
	b := NewSimulator(clockwork.NewFakeClock(), 1)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.step(), b.step())
	}
}

func TestParseHeartRateMeasurement(t *testing.T) {
	cases := []struct {
		name    string
		buf     []byte
		want    uint16
		wantErr bool
	}{
		{"uint8", []byte{0x00, 72}, 72, false},
		{"uint8 with contact bits", []byte{0x06, 101}, 101, false},
		{"uint16", []byte{0x01, 0x2c, 0x01}, 300, false},
		{"uint16 truncated", []byte{0x01, 0x2c}, 0, true},
		{"empty", nil, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseHeartRateMeasurement(tc.buf)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSimulator_ConcurrentRunsShareState(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sim := NewSimulator(clock, 3)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan float32, 64)
	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_ = sim.Run(ctx, time.Second, func(v float32) { got <- v })
			done <- struct{}{}
		}()
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 2))

	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		for j := 0; j < 2; j++ {
			select {
			case v := <-got:
				assert.GreaterOrEqual(t, v, float32(MinBPM))
				assert.LessOrEqual(t, v, float32(MaxBPM))
			case <-time.After(time.Second):
				t.Fatalf("tick %d: missing reading", i)
			}
		}
	}
	cancel()
	<-done
	<-done
}
