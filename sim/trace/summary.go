package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents        int
	Arrivals           int
	ExternalArrivals   int
	Departures         int
	Exits              int
	DrawnRoutes        int // routing decisions that consumed a draw
	UniqueTargets      int
	TargetDistribution map[string]int // node name → count of jobs routed there
	FirstClock         float64
	LastClock          float64
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TargetDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	// event counts cover records dropped by Limit
	c := st.Counts
	summary.TotalEvents = c.Total
	summary.Arrivals = c.Arrivals
	summary.ExternalArrivals = c.ExternalArrivals
	summary.Departures = c.Departures
	summary.FirstClock = c.FirstClock
	summary.LastClock = c.LastClock

	for _, r := range st.Routes {
		if r.Drawn {
			summary.DrawnRoutes++
		}
		if r.Exit {
			summary.Exits++
			continue
		}
		summary.TargetDistribution[r.To]++
	}

	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}
