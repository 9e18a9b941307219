// sim/scheduler.go
package sim

import (
	"fmt"

	"github.com/addrummond/heap"
)

// Sequence hands out monotonically increasing ids starting at 1.
// Each scheduler owns its own sequences so ids never leak across runs.
type Sequence struct {
	last uint64
}

// Next returns the next id.
func (s *Sequence) Next() uint64 {
	s.last++
	return s.last
}

// Last returns the most recently issued id, 0 if none.
func (s *Sequence) Last() uint64 { return s.last }

// Handler reacts to a dispatched event.
type Handler func(ev *Event)

// Scheduler is the time-ordered event queue that drives a run.
//
// Events are popped in (time, id) order. Cancellation is lazy: a cancelled
// event stays in the heap until popped, then it is discarded without reaching
// any handler. Dead entries are bounded because every node cancels its single
// pending departure before scheduling the next one.
//
// Dispatch runs interceptors (pre-effect hooks) then subscribers, each in
// registration order. Domain handlers subscribe before estimators so that
// estimators observe post-effect state.
type Scheduler struct {
	now   float64
	queue heap.Heap[queuedEvent, heap.Min]
	live  int // queued and not cancelled

	events Sequence
	jobIDs Sequence

	interceptors [numKinds][]Handler
	subscribers  [numKinds][]Handler

	jobs        map[JobID]*Job
	dispatching bool
	releases    []JobID
	dispatched  uint64
}

// NewScheduler returns an empty scheduler at time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{jobs: make(map[JobID]*Job)}
}

// Now returns the time of the most recently dispatched event.
func (s *Scheduler) Now() float64 { return s.now }

// Dispatched returns how many events reached the handlers.
func (s *Scheduler) Dispatched() uint64 { return s.dispatched }

// Pending returns the number of queued, non-cancelled events.
func (s *Scheduler) Pending() int { return s.live }

// NewEvent creates an event stamped with the current time and the next id.
func (s *Scheduler) NewEvent(kind EventKind, node NodeID, job JobID, class ClassID) *Event {
	return &Event{
		ID:    s.events.Next(),
		Time:  s.now,
		Kind:  kind,
		Node:  node,
		Job:   job,
		Class: class,
	}
}

// Schedule queues ev. A positive delay sets ev.Time to Now()+delay; otherwise
// ev.Time is used as is. Scheduling into the past or scheduling an event that
// is already queued is a programming error and panics.
func (s *Scheduler) Schedule(ev *Event, delay float64) {
	if ev.queued {
		panic(fmt.Sprintf("event %d scheduled twice", ev.ID))
	}
	if delay > 0 {
		ev.Time = s.now + delay
	}
	if ev.Time < s.now {
		panic(fmt.Sprintf("event %d scheduled at %f, before clock %f", ev.ID, ev.Time, s.now))
	}
	ev.queued = true
	ev.cancelled = false
	heap.PushOrderable(&s.queue, queuedEvent{ev: ev})
	s.live++
}

// Cancel marks a queued event so it is skipped when popped.
// Cancelling an event that is not queued, or already cancelled, does nothing.
func (s *Scheduler) Cancel(ev *Event) {
	if ev == nil || !ev.queued || ev.cancelled {
		return
	}
	ev.cancelled = true
	s.live--
}

// HasNext reports whether at least one non-cancelled event remains.
func (s *Scheduler) HasNext() bool { return s.live > 0 }

// Next pops the earliest live event, advances the clock to it and dispatches
// it. It returns false once the queue is drained.
func (s *Scheduler) Next() (*Event, bool) {
	for {
		q, ok := heap.PopOrderable(&s.queue)
		if !ok {
			return nil, false
		}
		ev := q.ev
		ev.queued = false
		if ev.cancelled {
			continue
		}
		s.live--
		if ev.Time < s.now {
			panic(fmt.Sprintf("clock went backwards: event %d at %f, clock %f", ev.ID, ev.Time, s.now))
		}
		s.now = ev.Time
		s.dispatch(ev)
		return ev, true
	}
}

func (s *Scheduler) dispatch(ev *Event) {
	s.dispatching = true
	for _, h := range s.interceptors[ev.Kind] {
		h(ev)
	}
	for _, h := range s.subscribers[ev.Kind] {
		h(ev)
	}
	s.dispatching = false
	s.dispatched++
	for _, id := range s.releases {
		delete(s.jobs, id)
	}
	s.releases = s.releases[:0]
}

// Intercept registers a pre-effect hook for kind.
func (s *Scheduler) Intercept(kind EventKind, h Handler) {
	s.interceptors[kind] = append(s.interceptors[kind], h)
}

// Subscribe registers a post-effect handler for kind.
func (s *Scheduler) Subscribe(kind EventKind, h Handler) {
	s.subscribers[kind] = append(s.subscribers[kind], h)
}

// NewJob creates a job with the next job id and records it in the job table.
func (s *Scheduler) NewJob(class ClassID, remaining float64) *Job {
	j := &Job{
		ID:          JobID(s.jobIDs.Next()),
		Class:       class,
		ArrivalTime: s.now,
		VisitStart:  s.now,
		Remaining:   remaining,
	}
	s.jobs[j.ID] = j
	return j
}

// Job resolves a job id against the job table.
func (s *Scheduler) Job(id JobID) (*Job, bool) {
	j, ok := s.jobs[id]
	return j, ok
}

// Jobs returns the number of live jobs.
func (s *Scheduler) Jobs() int { return len(s.jobs) }

// JobsCreated counts every job issued by this scheduler, released or not.
func (s *Scheduler) JobsCreated() int { return int(s.jobIDs.Last()) }

// Release drops a job from the job table. During a dispatch the removal is
// deferred until every handler for the current event has run.
func (s *Scheduler) Release(id JobID) {
	if s.dispatching {
		s.releases = append(s.releases, id)
		return
	}
	delete(s.jobs, id)
}
