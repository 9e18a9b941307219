package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queuenet-sim/queuenet-sim/sim/rngs"
)

func newTestGenerator(t *testing.T, rate float64) (*ArrivalsGenerator, *Scheduler) {
	t.Helper()
	s := NewScheduler()
	rng, err := rngs.New(12345)
	require.NoError(t, err)
	g := NewArrivalsGenerator(s, rngs.NewSampler(rng, 0), rate, Key{Node: "A", Class: 1})
	return g, s
}

func TestArrivalsGenerator_FirstArrivalAtZero(t *testing.T) {
	g, s := newTestGenerator(t, 2)
	require.True(t, s.HasNext())

	ev, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, 0.0, ev.Time)
	assert.Equal(t, Arrival, ev.Kind)
	assert.True(t, ev.External)
	assert.Equal(t, NoJob, ev.Job)
	assert.Equal(t, ClassID(1), ev.Class)

	// THEN observing it renewed the source
	assert.True(t, s.HasNext())
	assert.Equal(t, int64(2), g.Generated())
}

func TestArrivalsGenerator_MeanInterarrival(t *testing.T) {
	// GIVEN rate 2 and 20000 arrivals
	_, s := newTestGenerator(t, 2)
	const n = 20000
	for i := 0; i < n; i++ {
		_, ok := s.Next()
		require.True(t, ok)
	}

	// THEN the last arrival time is close to n/rate
	assert.InDelta(t, 0.5, s.Now()/float64(n-1), 0.02)
}

func TestArrivalsGenerator_StopHaltsAdmissions(t *testing.T) {
	g, s := newTestGenerator(t, 1)
	for i := 0; i < 5; i++ {
		s.Next()
	}
	require.True(t, g.Active())

	g.Stop()
	g.Stop()

	assert.False(t, g.Active())
	assert.False(t, s.HasNext(), "the pending external arrival must be cancelled")
	assert.Equal(t, int64(5), g.Generated())
	_, ok := s.Next()
	assert.False(t, ok)
}

func TestArrivalsGenerator_IgnoresInternalAndForeignArrivals(t *testing.T) {
	g, s := newTestGenerator(t, 1)
	s.Next() // external arrival at 0, schedules the next
	before := g.Generated()

	internal := s.NewEvent(Arrival, "A", 7, 1)
	s.Schedule(internal, 0)
	elsewhere := s.NewEvent(Arrival, "B", NoJob, 1)
	elsewhere.External = true
	s.Schedule(elsewhere, 0)

	s.Next()
	s.Next()
	assert.Equal(t, before, g.Generated())
}
