package sim

import (
	"github.com/queuenet-sim/queuenet-sim/sim/stats"
)

// Scope restricts an Estimator to the events that move jobs into or out of
// one region of the network. System and per-node estimators differ only by
// their Scope.
type Scope struct {
	Name   string
	Enters func(ev *Event) bool
	Leaves func(ev *Event) bool
	// Sojourn is the response time of job leaving the scope at now.
	Sojourn func(job *Job, now float64) float64
}

// SystemScope covers the whole network: external arrivals in, exits out.
func SystemScope() Scope {
	return Scope{
		Name: "overall",
		Enters: func(ev *Event) bool {
			return ev.Kind == Arrival && ev.External
		},
		Leaves: func(ev *Event) bool {
			return ev.Kind == Departure && ev.Exited()
		},
		Sojourn: func(job *Job, now float64) float64 {
			return now - job.ArrivalTime
		},
	}
}

// NodeScope covers the visits to one node.
func NodeScope(name NodeID) Scope {
	return Scope{
		Name: string(name),
		Enters: func(ev *Event) bool {
			return ev.Kind == Arrival && ev.Node == name
		},
		Leaves: func(ev *Event) bool {
			return ev.Kind == Departure && ev.Node == name
		},
		Sojourn: func(job *Job, now float64) float64 {
			return now - job.VisitStart
		},
	}
}

// Estimator is a passive subscriber accumulating response time, time-weighted
// population and busy time for one Scope. It never mutates simulation state.
type Estimator struct {
	scope Scope
	sched *Scheduler

	response    stats.Welford
	population  *stats.TimeWeighted
	busy        stats.BusyTime
	batches     *stats.BatchMeans
	arrivals    int64
	completions int64
	end         float64
}

// NewEstimator subscribes a new estimator for scope to both event kinds.
// Register estimators after the domain handlers.
func NewEstimator(scope Scope, sched *Scheduler) *Estimator {
	e := &Estimator{
		scope:      scope,
		sched:      sched,
		population: stats.NewTimeWeighted(sched.Now()),
	}
	sched.Subscribe(Arrival, e.observe)
	sched.Subscribe(Departure, e.observe)
	return e
}

// WithBatchMeans additionally groups response times into batches of size.
func (e *Estimator) WithBatchMeans(size int) *Estimator {
	e.batches = stats.NewBatchMeans(size)
	return e
}

func (e *Estimator) observe(ev *Event) {
	if ev.Ignored() {
		return
	}
	e.population.Tick(ev.Time)
	switch {
	case e.scope.Enters(ev):
		e.population.Add(1)
		e.busy.Arrive(ev.Time)
		e.arrivals++
	case e.scope.Leaves(ev):
		if job, ok := e.sched.Job(ev.Job); ok {
			rt := e.scope.Sojourn(job, ev.Time)
			e.response.Add(rt)
			if e.batches != nil {
				e.batches.Add(rt)
			}
		}
		e.population.Add(-1)
		e.busy.Depart(ev.Time)
		e.completions++
	}
}

// Finalize closes the integrals at now. Only the first call has an effect.
func (e *Estimator) Finalize(now float64) {
	if e.busy.Finalized() {
		return
	}
	e.population.Tick(now)
	e.busy.Finalize(now)
	e.end = now
}

// Name returns the scope name.
func (e *Estimator) Name() string { return e.scope.Name }

// Arrivals returns the number of jobs that entered the scope.
func (e *Estimator) Arrivals() int64 { return e.arrivals }

// Completions returns the number of jobs that left the scope.
func (e *Estimator) Completions() int64 { return e.completions }

// Population returns the current number of jobs inside the scope.
func (e *Estimator) Population() int64 { return e.population.Level() }

// Response exposes the response-time accumulator.
func (e *Estimator) Response() *stats.Welford { return &e.response }

// Batches returns the batch-means accumulator, nil when disabled.
func (e *Estimator) Batches() *stats.BatchMeans { return e.batches }

// Metrics summarizes the estimator. Call Finalize first.
func (e *Estimator) Metrics() Metrics {
	m := Metrics{
		MeanResponseTime: e.response.Mean(),
		StdResponseTime:  e.response.StdDev(),
		MeanPopulation:   e.population.Mean(),
		StdPopulation:    e.population.StdDev(),
		PeakPopulation:   e.population.Peak(),
		Arrivals:         e.arrivals,
		Completions:      e.completions,
	}
	if el := e.population.Elapsed(); el > 0 {
		m.Throughput = float64(e.completions) / el
		m.Utilization = e.busy.Total() / el
	}
	return m
}
