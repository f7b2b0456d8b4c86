package sensor

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Simulation bounds in beats per minute.
const (
	RestingBPM = 72.0
	MinBPM     = 45.0
	MaxBPM     = 185.0
	MaxStepBPM = 3.0
)

// Simulator is a random-walk heart-rate source.
// It is safe to share between runs.
type Simulator struct {
	clock clockwork.Clock

	mu  sync.Mutex
	rng *rand.Rand
	bpm float64
}

func NewSimulator(clock clockwork.Clock, seed uint64) *Simulator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Simulator{
		clock: clock,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		bpm:   RestingBPM,
	}
}

// Run emits one reading per period until ctx is done.
func (s *Simulator) Run(ctx context.Context, period time.Duration, emit func(bpm float32)) error {
	t := s.clock.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.Chan():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			emit(float32(s.step()))
		}
	}
}

func (s *Simulator) step() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bpm += (s.rng.Float64()*2 - 1) * MaxStepBPM
	// pull back toward resting so the walk does not wander off
	s.bpm += (RestingBPM - s.bpm) * 0.05
	s.bpm = min(max(s.bpm, MinBPM), MaxBPM)
	return s.bpm
}
