package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// newTestNode returns a node whose departures are handled by the scheduler.
func newTestNode(d Discipline) (*Node, *Scheduler, *[]*Job) {
	s := NewScheduler()
	n := newNode("A", NodeConfig{Discipline: d, ServiceMeans: map[ClassID]float64{1: 1, 2: 2}}, s)
	var departed []*Job
	s.Subscribe(Departure, func(ev *Event) {
		if job, ok := n.Departure(ev); ok {
			departed = append(departed, job)
		}
	})
	return n, s, &departed
}

func TestNode_PS_SingleJobDepartsAfterItsService(t *testing.T) {
	n, s, departed := newTestNode(PS)
	job := s.NewJob(1, 2)
	require.NoError(t, n.Arrival(job, 0))

	require.NotNil(t, n.Pending())
	assert.Equal(t, 2.0, n.Pending().Time)
	assert.Equal(t, job.ID, n.Pending().Job)

	drain(s)
	require.Len(t, *departed, 1)
	assert.Equal(t, 0, n.Len())
	assert.Nil(t, n.Pending())
	assert.Equal(t, 2.0, s.Now())
}

func TestNode_PS_SharesCapacityAmongResidents(t *testing.T) {
	// GIVEN job1 needing 2 arriving at 0 and job2 needing 0.5 arriving at 1
	n, s, departed := newTestNode(PS)
	j1 := s.NewJob(1, 2)
	j2 := s.NewJob(1, 0.5)
	require.NoError(t, n.Arrival(j1, 0))
	first := n.Pending()
	require.NoError(t, n.Arrival(j2, 1))

	// THEN job1 received 1 unit alone, and job2 finishes at 1 + 0.5*2
	assert.InDelta(t, 1.0, j1.Remaining, 1e-12)
	assert.True(t, first.Cancelled(), "previous departure must be cancelled")
	assert.Equal(t, j2.ID, n.Pending().Job)
	assert.InDelta(t, 2.0, n.Pending().Time, 1e-12)

	// WHEN drained
	drain(s)

	// THEN job2 leaves at 2 and job1 (0.5 left) leaves alone at 2.5
	require.Len(t, *departed, 2)
	assert.Equal(t, j2.ID, (*departed)[0].ID)
	assert.Equal(t, j1.ID, (*departed)[1].ID)
	assert.InDelta(t, 2.5, s.Now(), 1e-12)
}

func TestNode_PS_TieBrokenByLowestJobID(t *testing.T) {
	n, s, _ := newTestNode(PS)
	j1 := s.NewJob(1, 1)
	j2 := s.NewJob(1, 1)
	require.NoError(t, n.Arrival(j2, 0))
	require.NoError(t, n.Arrival(j1, 0))

	assert.Equal(t, j1.ID, n.Pending().Job)
	assert.InDelta(t, 2.0, n.Pending().Time, 1e-12)
}

func TestNode_FIFO_ServesHeadOnly(t *testing.T) {
	// GIVEN the same arrivals as the PS case under FIFO
	n, s, departed := newTestNode(FIFO)
	j1 := s.NewJob(1, 2)
	j2 := s.NewJob(1, 0.5)
	require.NoError(t, n.Arrival(j1, 0))
	require.NoError(t, n.Arrival(j2, 1))

	// THEN job2 receives nothing while job1 is in service
	assert.InDelta(t, 1.0, j1.Remaining, 1e-12)
	assert.InDelta(t, 0.5, j2.Remaining, 1e-12)
	assert.Equal(t, j1.ID, n.Pending().Job)
	assert.InDelta(t, 2.0, n.Pending().Time, 1e-12)

	drain(s)
	require.Len(t, *departed, 2)
	assert.Equal(t, j1.ID, (*departed)[0].ID)
	assert.InDelta(t, 2.5, s.Now(), 1e-12)
}

func TestNode_ArrivalWithoutServiceMeanRejected(t *testing.T) {
	n, s, _ := newTestNode(PS)
	err := n.Arrival(s.NewJob(9, 1), 0)
	assert.ErrorIs(t, err, ErrMissingService)
	assert.Equal(t, 0, n.Len())
}

func TestNode_StaleDepartureIgnored(t *testing.T) {
	// GIVEN a resident job and a departure event for a job that is not resident
	n, s, _ := newTestNode(PS)
	job := s.NewJob(1, 1)
	require.NoError(t, n.Arrival(job, 0))
	pending := n.Pending()

	stale := s.NewEvent(Departure, "A", job.ID+100, 1)
	stale.Time = 0.5

	// WHEN the node handles it
	_, ok := n.Departure(stale)

	// THEN nothing changes
	assert.False(t, ok)
	assert.Equal(t, 1, n.Len())
	assert.Same(t, pending, n.Pending())
	assert.Equal(t, 1.0, job.Remaining)
	assert.Equal(t, 0.0, n.LastUpdate())
}

func TestNode_CancelledDepartureIgnored(t *testing.T) {
	n, s, _ := newTestNode(PS)
	job := s.NewJob(1, 1)
	require.NoError(t, n.Arrival(job, 0))
	pending := n.Pending()
	s.Cancel(pending)

	_, ok := n.Departure(pending)
	assert.False(t, ok)
	assert.True(t, n.Contains(job.ID))
}

func TestNode_RecomputeClampsAtZero(t *testing.T) {
	n, s, _ := newTestNode(PS)
	job := s.NewJob(1, 1)
	require.NoError(t, n.Arrival(job, 0))
	n.Recompute(10)
	assert.Equal(t, 0.0, job.Remaining)
	assert.Equal(t, 10.0, n.LastUpdate())
}

// TestNode_WorkConservationProperty checks that between recomputations the
// resident work never grows and never goes negative, and that every admitted
// job eventually leaves.
func TestNode_WorkConservationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := rapid.SampledFrom([]Discipline{PS, FIFO}).Draw(t, "discipline")
		n, s, departed := newTestNode(d)
		admitted := 0

		t.Repeat(map[string]func(*rapid.T){
			"arrive": func(t *rapid.T) {
				base := max(s.Now(), n.LastUpdate())
				horizon := base + 2
				if p := n.Pending(); p != nil {
					// arrivals may not overtake the due departure
					horizon = p.Time
				}
				now := base + rapid.Float64Range(0, 1).Draw(t, "frac")*(horizon-base)
				before := n.RemainingWork()
				n.Recompute(now)
				if after := n.RemainingWork(); after > before+1e-9 {
					t.Fatalf("work grew from %v to %v", before, after)
				}
				job := s.NewJob(1, rapid.Float64Range(0.01, 5).Draw(t, "service"))
				if err := n.Arrival(job, now); err != nil {
					t.Fatal(err)
				}
				admitted++
			},
			"depart": func(t *rapid.T) {
				if !s.HasNext() {
					t.Skip("idle")
				}
				before := n.RemainingWork()
				s.Next()
				if after := n.RemainingWork(); after > before+1e-9 {
					t.Fatalf("work grew from %v to %v", before, after)
				}
			},
			"": func(t *rapid.T) {
				for i := 0; i < n.Len(); i++ {
					if r := n.jobs.At(i).Remaining; r < 0 {
						t.Fatalf("negative remaining %v", r)
					}
				}
				if (n.Len() > 0) != (n.Pending() != nil) {
					t.Fatalf("%d residents with pending=%v", n.Len(), n.Pending())
				}
			},
		})

		drain(s)
		if len(*departed) != admitted {
			t.Fatalf("%d admitted, %d departed", admitted, len(*departed))
		}
	})
}
