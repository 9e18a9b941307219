package sim

import (
	"fmt"

	"github.com/gammazero/deque"
)

// Discipline selects how a node shares its capacity among residents.
type Discipline string

const (
	// PS splits capacity equally among all residents.
	PS Discipline = "ps"
	// FIFO serves only the head-of-line job.
	FIFO Discipline = "fifo"
)

// IsValidDiscipline reports whether d names a known discipline. Empty means PS.
func IsValidDiscipline(d string) bool {
	switch Discipline(d) {
	case PS, FIFO, "":
		return true
	}
	return false
}

// Node is a single server. Residents are kept in admission order.
//
// Service progress is brought current lazily: every membership change first
// calls Recompute for the change time, then mutates the resident set, then
// replaces the pending departure.
type Node struct {
	name         NodeID
	discipline   Discipline
	serviceMeans map[ClassID]float64

	jobs       deque.Deque[*Job]
	lastUpdate float64
	pending    *Event

	sched *Scheduler
}

func newNode(name NodeID, nc NodeConfig, sched *Scheduler) *Node {
	d := nc.Discipline
	if d == "" {
		d = PS
	}
	means := make(map[ClassID]float64, len(nc.ServiceMeans))
	for c, m := range nc.ServiceMeans {
		means[c] = m
	}
	return &Node{
		name:         name,
		discipline:   d,
		serviceMeans: means,
		sched:        sched,
	}
}

// Name returns the node name.
func (n *Node) Name() NodeID { return n.name }

// Discipline returns the service discipline.
func (n *Node) Discipline() Discipline { return n.discipline }

// ServiceMean returns the mean service time of class at this node.
func (n *Node) ServiceMean(class ClassID) (float64, bool) {
	m, ok := n.serviceMeans[class]
	return m, ok
}

// Len returns the number of resident jobs.
func (n *Node) Len() int { return n.jobs.Len() }

// Contains reports whether job id is resident.
func (n *Node) Contains(id JobID) bool { return n.index(id) >= 0 }

// Pending returns the scheduled departure, nil when idle.
func (n *Node) Pending() *Event { return n.pending }

// LastUpdate returns the time service progress was last brought current.
func (n *Node) LastUpdate() float64 { return n.lastUpdate }

// RemainingWork sums the remaining service of all residents as of LastUpdate.
func (n *Node) RemainingWork() float64 {
	var sum float64
	for i := 0; i < n.jobs.Len(); i++ {
		sum += n.jobs.At(i).Remaining
	}
	return sum
}

func (n *Node) index(id JobID) int {
	return n.jobs.Index(func(j *Job) bool { return j.ID == id })
}

// Recompute charges the service delivered since the last update.
// Under PS each of the N residents received (now-lastUpdate)/N; under FIFO
// the head received all of it.
func (n *Node) Recompute(now float64) {
	dt := now - n.lastUpdate
	if dt <= 0 {
		return
	}
	if k := n.jobs.Len(); k > 0 {
		switch n.discipline {
		case FIFO:
			n.jobs.Front().consume(dt)
		default:
			share := dt / float64(k)
			for i := 0; i < k; i++ {
				n.jobs.At(i).consume(share)
			}
		}
	}
	n.lastUpdate = now
}

// Arrival admits job at time now and reschedules the departure.
func (n *Node) Arrival(job *Job, now float64) error {
	if _, ok := n.serviceMeans[job.Class]; !ok {
		return fmt.Errorf("node %s class %d: %w", n.name, job.Class, ErrMissingService)
	}
	n.Recompute(now)
	job.VisitStart = now
	n.jobs.PushBack(job)
	n.reschedule(now)
	return nil
}

// Departure removes the job referenced by ev. It returns false, leaving the
// node untouched, when ev is cancelled, is not this node's pending departure,
// or references a job that is no longer resident.
func (n *Node) Departure(ev *Event) (*Job, bool) {
	if ev.Cancelled() || ev != n.pending {
		return nil, false
	}
	i := n.index(ev.Job)
	if i < 0 {
		return nil, false
	}
	n.Recompute(ev.Time)
	job := n.jobs.Remove(i)
	job.Remaining = 0
	n.pending = nil
	n.reschedule(ev.Time)
	return job, true
}

// reschedule replaces the pending departure after a membership change.
func (n *Node) reschedule(now float64) {
	if n.pending != nil {
		n.sched.Cancel(n.pending)
		n.pending = nil
	}
	k := n.jobs.Len()
	if k == 0 {
		return
	}

	var next *Job
	var delay float64
	switch n.discipline {
	case FIFO:
		next = n.jobs.Front()
		delay = next.Remaining
	default:
		for i := 0; i < k; i++ {
			j := n.jobs.At(i)
			if next == nil || j.Remaining < next.Remaining ||
				(j.Remaining == next.Remaining && j.ID < next.ID) {
				next = j
			}
		}
		delay = next.Remaining * float64(k)
	}

	ev := n.sched.NewEvent(Departure, n.name, next.ID, next.Class)
	ev.Time = now + delay
	n.sched.Schedule(ev, 0)
	n.pending = ev
}
