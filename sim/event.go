package sim

import "fmt"

// EventKind discriminates the two occurrences that drive the network.
type EventKind int

const (
	Arrival EventKind = iota
	Departure
	numKinds
)

func (k EventKind) String() string {
	switch k {
	case Arrival:
		return "ARRIVAL"
	case Departure:
		return "DEPARTURE"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// NodeID names a server in the network.
type NodeID string

// ClassID tags a job with the class that selects its service mean and route.
type ClassID int

// JobID identifies a live job. NoJob marks an external arrival not yet admitted.
type JobID uint64

const NoJob JobID = 0

// Event is a timestamped arrival or departure at one node.
// Ordering is (Time, ID); ID is assigned from the owning scheduler's sequence.
type Event struct {
	ID    uint64
	Time  float64
	Kind  EventKind
	Node  NodeID
	Job   JobID
	Class ClassID
	// External is set on arrivals produced by the arrivals generator and
	// survives the handler binding Job to the admitted job.
	External bool

	cancelled bool
	queued    bool
	ignored   bool
	exited    bool
}

// Cancelled reports whether the event was cancelled before dispatch.
func (e *Event) Cancelled() bool { return e.cancelled }

// Ignored reports whether a domain handler discarded the event as stale.
// Subscribers registered after the domain handlers skip ignored events.
func (e *Event) Ignored() bool { return e.ignored }

// Exited reports whether a departure routed its job out of the network.
func (e *Event) Exited() bool { return e.exited }

func (e *Event) String() string {
	return fmt.Sprintf("#%d %s t=%.6f node=%s job=%d class=%d", e.ID, e.Kind, e.Time, e.Node, e.Job, e.Class)
}

// queuedEvent wraps an event for the priority heap.
type queuedEvent struct {
	ev *Event
}

// Cmp orders by time, then by creation id.
func (a *queuedEvent) Cmp(b *queuedEvent) int {
	switch {
	case a.ev.Time < b.ev.Time:
		return -1
	case a.ev.Time > b.ev.Time:
		return 1
	case a.ev.ID < b.ev.ID:
		return -1
	case a.ev.ID > b.ev.ID:
		return 1
	}
	return 0
}
