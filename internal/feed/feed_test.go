package feed

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatorRanges(t *testing.T) {
	sim := NewSimulator(rand.New(rand.NewPCG(1, 2)))

	for i := 0; i < 500; i++ {
		s := sim.Next()
		assert.GreaterOrEqual(t, s.Processed, 0.0)
		assert.Less(t, s.Processed, float64(SimulatedProcessedMax))
		assert.GreaterOrEqual(t, s.Exported, 0.0)
		assert.Less(t, s.Exported, float64(SimulatedExportedMax))
		assert.Equal(t, float64(int(s.Processed)), s.Processed, "simulated values are whole kilograms")
	}
}

func TestSimulatorDeterministicWithSeed(t *testing.T) {
	a := NewSimulator(rand.New(rand.NewPCG(7, 7)))
	b := NewSimulator(rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a.Next(), b.Next())
}

func TestSimulatorEmitsOncePerStart(t *testing.T) {
	sim := NewSimulator(nil)
	var got []Sample

	stop, err := sim.Start(context.Background(), func(s Sample) { got = append(got, s) })
	require.NoError(t, err)
	stop()
	assert.Len(t, got, 1)

	stop, err = sim.Start(context.Background(), func(s Sample) { got = append(got, s) })
	require.NoError(t, err)
	stop()
	assert.Len(t, got, 2)
}

func TestStatic(t *testing.T) {
	want := Sample{Processed: 80, Exported: 20}
	var got Sample
	stop, err := Static(want).Start(context.Background(), func(s Sample) { got = s })
	require.NoError(t, err)
	stop()
	assert.Equal(t, want, got)
}

func TestSampleString(t *testing.T) {
	assert.Equal(t, "processed=64kg exported=31.5kg", Sample{Processed: 64, Exported: 31.5}.String())
}
