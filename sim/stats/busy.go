package stats

// BusyTime accumulates the total time a population is non-zero.
// Intervals open on a 0→1 transition and close on a 1→0 transition.
type BusyTime struct {
	population int64
	busy       bool
	openedAt   float64
	total      float64
	finalized  bool
}

// Arrive records one entry at time now.
func (b *BusyTime) Arrive(now float64) {
	if b.population == 0 {
		b.busy = true
		b.openedAt = now
	}
	b.population++
}

// Depart records one exit at time now. Departures from an empty population
// are ignored.
func (b *BusyTime) Depart(now float64) {
	if b.population == 0 {
		return
	}
	b.population--
	if b.population == 0 && b.busy {
		b.total += now - b.openedAt
		b.busy = false
	}
}

// Finalize closes a still-open interval at now. Only the first call has an effect.
func (b *BusyTime) Finalize(now float64) {
	if b.finalized {
		return
	}
	b.finalized = true
	if b.busy {
		b.total += now - b.openedAt
		b.busy = false
	}
}

// Busy reports whether an interval is currently open.
func (b *BusyTime) Busy() bool { return b.busy }

// Total returns the accumulated busy time.
func (b *BusyTime) Total() float64 { return b.total }

// Finalized reports whether Finalize has run.
func (b *BusyTime) Finalized() bool { return b.finalized }
