package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelford_KnownSequence(t *testing.T) {
	// GIVEN observations 1..5
	var w Welford
	for _, x := range []float64{1, 2, 3, 4, 5} {
		w.Add(x)
	}

	// THEN mean=3, stddev=sqrt(2.5)
	assert.Equal(t, int64(5), w.Count())
	assert.InDelta(t, 3.0, w.Mean(), 1e-12)
	assert.InDelta(t, math.Sqrt(2.5), w.StdDev(), 1e-12)
	assert.InDelta(t, 1.581, w.StdDev(), 1e-3)
	assert.Equal(t, 1.0, w.Min())
	assert.Equal(t, 5.0, w.Max())
}

func TestWelford_DegenerateCounts(t *testing.T) {
	var w Welford
	assert.Equal(t, 0.0, w.Mean())
	assert.Equal(t, 0.0, w.Variance())

	w.Add(7)
	assert.Equal(t, 7.0, w.Mean())
	assert.Equal(t, 0.0, w.Variance(), "variance with n=1 is 0")
	assert.Equal(t, 7.0, w.Min())
	assert.Equal(t, 7.0, w.Max())
}

func TestWelford_LargeOffsetStable(t *testing.T) {
	// Values around 1e9 with unit spread lose precision in the naive sum-of-squares formula.
	var w Welford
	for _, x := range []float64{1e9 + 4, 1e9 + 7, 1e9 + 13, 1e9 + 16} {
		w.Add(x)
	}
	assert.InDelta(t, 30.0, w.Variance(), 1e-6)
}

func TestTimeWeighted_MeanAndStdDev(t *testing.T) {
	// GIVEN level 0 on [0,1), 2 on [1,3), 1 on [3,4)
	tw := NewTimeWeighted(0)
	tw.Tick(1)
	tw.Add(2)
	tw.Tick(3)
	tw.Add(-1)
	tw.Tick(4)

	// THEN area = 0*1 + 2*2 + 1*1 = 5 over 4 time units
	assert.InDelta(t, 5.0, tw.Area(), 1e-12)
	assert.InDelta(t, 1.25, tw.Mean(), 1e-12)
	// E[N^2] = (0 + 8 + 1)/4 = 2.25, var = 2.25 - 1.5625
	assert.InDelta(t, math.Sqrt(0.6875), tw.StdDev(), 1e-12)
	assert.Equal(t, int64(2), tw.Peak())
	assert.Equal(t, int64(1), tw.Level())
}

func TestTimeWeighted_TickBackwardsIgnored(t *testing.T) {
	tw := NewTimeWeighted(10)
	tw.Add(1)
	tw.Tick(12)
	tw.Tick(11)
	assert.InDelta(t, 2.0, tw.Area(), 1e-12)
	assert.InDelta(t, 2.0, tw.Elapsed(), 1e-12)
}

func TestTimeWeighted_EmptyIsZero(t *testing.T) {
	tw := NewTimeWeighted(5)
	assert.Equal(t, 0.0, tw.Mean())
	assert.Equal(t, 0.0, tw.StdDev())
}

func TestBusyTime_Intervals(t *testing.T) {
	var b BusyTime
	b.Arrive(1)
	b.Arrive(2)
	b.Depart(3)
	assert.True(t, b.Busy())
	b.Depart(4) // closes [1,4]
	assert.False(t, b.Busy())
	b.Arrive(6)
	b.Depart(7) // closes [6,7]
	assert.InDelta(t, 4.0, b.Total(), 1e-12)
}

func TestBusyTime_FinalizeClosesOpenIntervalOnce(t *testing.T) {
	var b BusyTime
	b.Arrive(2)
	b.Finalize(5)
	b.Finalize(9)
	assert.InDelta(t, 3.0, b.Total(), 1e-12)
	assert.True(t, b.Finalized())
}

func TestBusyTime_DepartWhenIdleIgnored(t *testing.T) {
	var b BusyTime
	b.Depart(1)
	b.Arrive(2)
	b.Depart(3)
	assert.InDelta(t, 1.0, b.Total(), 1e-12)
}

func TestConfidenceInterval_KnownSample(t *testing.T) {
	iv, err := SampleInterval([]float64{1, 2, 3, 4, 5}, 0.95)
	require.NoError(t, err)

	// t_{0.975,4} = 2.776445
	want := 2.776445 * math.Sqrt(2.5) / math.Sqrt(5)
	assert.InDelta(t, 3.0, iv.Mean, 1e-12)
	assert.InDelta(t, want, iv.HalfWidth, 1e-4)
	assert.True(t, iv.Contains(3.0))
	assert.False(t, iv.Contains(6.0))
}

func TestConfidenceInterval_SingleObservationUnbounded(t *testing.T) {
	iv, err := SampleInterval([]float64{4}, 0.9)
	require.NoError(t, err)
	assert.True(t, math.IsInf(iv.HalfWidth, 1))
}

func TestConfidenceInterval_RejectsBadLevel(t *testing.T) {
	for _, level := range []float64{0, 1, -0.5, 1.5} {
		_, err := SampleInterval([]float64{1, 2}, level)
		assert.Error(t, err, "level %v", level)
	}
}

func TestBatchMeans_GroupsObservations(t *testing.T) {
	// GIVEN batches of 3 over 1..10
	b := NewBatchMeans(3)
	for i := 1; i <= 10; i++ {
		b.Add(float64(i))
	}

	// THEN three closed batches with means 2, 5, 8; the partial batch {10} is excluded
	assert.Equal(t, 3, b.Batches())
	assert.Equal(t, []float64{2, 5, 8}, b.Means())
	assert.InDelta(t, 5.0, b.Summary().Mean(), 1e-12)

	iv, err := b.Interval(0.95)
	require.NoError(t, err)
	assert.Equal(t, int64(3), iv.N)
}
