package feed

import (
	"context"
	"math/rand/v2"
	"sync"
)

// Upper bounds (exclusive) of simulated readings.
const (
	SimulatedProcessedMax = 100
	SimulatedExportedMax  = 50
)

// Simulator stands in for a real throughput feed: every Start emits one
// sample with processed in [0,100) and exported in [0,50).
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator creates a simulator. A nil rng uses a randomly seeded one.
func NewSimulator(rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Simulator{rng: rng}
}

// Next draws one sample.
func (s *Simulator) Next() Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Sample{
		Processed: float64(s.rng.IntN(SimulatedProcessedMax)),
		Exported:  float64(s.rng.IntN(SimulatedExportedMax)),
	}
}

// Start emits a single sample.
func (s *Simulator) Start(_ context.Context, emit func(Sample)) (func(), error) {
	emit(s.Next())
	return func() {}, nil
}
