package stats

import "math"

// TimeWeighted integrates a piecewise-constant level over time.
// Callers Tick to the current time before changing the level.
type TimeWeighted struct {
	start float64
	last  float64
	level int64
	area  float64
	area2 float64
	peak  int64
}

// NewTimeWeighted starts the integral at time start with level 0.
func NewTimeWeighted(start float64) *TimeWeighted {
	return &TimeWeighted{start: start, last: start}
}

// Tick advances the integral to now without changing the level.
// Times earlier than the last tick are ignored.
func (tw *TimeWeighted) Tick(now float64) {
	dt := now - tw.last
	if dt <= 0 {
		return
	}
	l := float64(tw.level)
	tw.area += l * dt
	tw.area2 += l * l * dt
	tw.last = now
}

// Add changes the level by delta. Call Tick first.
func (tw *TimeWeighted) Add(delta int64) {
	tw.level += delta
	if tw.level > tw.peak {
		tw.peak = tw.level
	}
}

// Level returns the current level.
func (tw *TimeWeighted) Level() int64 { return tw.level }

// Peak returns the highest level seen.
func (tw *TimeWeighted) Peak() int64 { return tw.peak }

// Area returns the integral of the level since start.
func (tw *TimeWeighted) Area() float64 { return tw.area }

// Elapsed returns the integrated time span.
func (tw *TimeWeighted) Elapsed() float64 { return tw.last - tw.start }

// Mean returns area / elapsed, 0 before any time has passed.
func (tw *TimeWeighted) Mean() float64 {
	el := tw.Elapsed()
	if el <= 0 {
		return 0
	}
	return tw.area / el
}

// StdDev returns the time-weighted standard deviation of the level.
func (tw *TimeWeighted) StdDev() float64 {
	el := tw.Elapsed()
	if el <= 0 {
		return 0
	}
	m := tw.area / el
	v := tw.area2/el - m*m
	if v < 0 {
		// rounding on near-constant levels
		return 0
	}
	return math.Sqrt(v)
}
