// Package trace provides event-trace recording for post-run analysis of a
// queueing-network simulation.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// EventRecord captures a single dispatched event.
type EventRecord struct {
	EventID  uint64
	Clock    float64
	Kind     string // "ARRIVAL" or "DEPARTURE"
	Node     string
	JobID    uint64 // 0 for an external arrival not yet admitted
	Class    int
	External bool
}

// RoutingRecord captures where a job went after leaving a node.
type RoutingRecord struct {
	JobID     uint64
	Clock     float64
	From      string
	FromClass int
	To        string // empty when Exit is true
	ToClass   int
	Exit      bool
	Drawn     bool // decided by a routing draw
}
