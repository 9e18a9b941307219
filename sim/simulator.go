// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/queuenet-sim/queuenet-sim/sim/rngs"
	"github.com/queuenet-sim/queuenet-sim/sim/trace"
)

// DefaultConfidence is the level of the batch-means interval.
const DefaultConfidence = 0.95

// Simulator wires the scheduler, the network, the arrivals generator and the
// estimators for one run. Handler registration order is fixed: domain
// arrival, domain departure, arrivals generator, then estimators (overall
// first, nodes in name order).
type Simulator struct {
	cfg  *Config
	seed int64

	sched    *Scheduler
	network  *Network
	rng      *PartitionedRNG
	service  rngs.Sampler
	routing  rngs.Sampler
	arrivals *ArrivalsGenerator

	overall *Estimator
	perNode map[NodeID]*Estimator

	trace     *trace.SimulationTrace
	completed int64
	results   *Results
}

// NewSimulator validates cfg and builds a ready-to-run simulation planted from seed.
func NewSimulator(cfg *Config, seed int64) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	rng, err := NewPartitionedRNG(seed)
	if err != nil {
		return nil, err
	}
	sched := NewScheduler()
	network, err := NewNetwork(cfg, sched)
	if err != nil {
		return nil, fmt.Errorf("building network: %w", err)
	}

	sim := &Simulator{
		cfg:     cfg,
		seed:    seed,
		sched:   sched,
		network: network,
		rng:     rng,
		service: rng.ForSubsystem(SubsystemService),
		routing: rng.ForSubsystem(SubsystemRouting),
		perNode: make(map[NodeID]*Estimator, len(cfg.Nodes)),
	}
	sched.Subscribe(Arrival, sim.onArrival)
	sched.Subscribe(Departure, sim.onDeparture)
	sim.arrivals = NewArrivalsGenerator(sched, rng.ForSubsystem(SubsystemArrivals), cfg.ArrivalRate, cfg.Entry)

	sim.overall = NewEstimator(SystemScope(), sched)
	if cfg.BatchSize > 0 {
		sim.overall.WithBatchMeans(cfg.BatchSize)
	}
	for _, name := range network.Nodes() {
		sim.perNode[name] = NewEstimator(NodeScope(name), sched)
	}

	logrus.Infof("Simulator ready: seed=%d rate=%.4f entry=%s max_events=%d max_time=%.4f",
		seed, cfg.ArrivalRate, cfg.Entry, cfg.MaxEvents, cfg.MaxTime)
	return sim, nil
}

// EnableTrace installs the event-trace interceptors. Call before Run.
func (sim *Simulator) EnableTrace(tc trace.TraceConfig) {
	if !tc.Enabled() || sim.trace != nil {
		return
	}
	sim.trace = trace.NewSimulationTrace(tc)
	record := func(ev *Event) {
		logrus.Tracef("[t=%.6f] %s", ev.Time, ev)
		sim.trace.RecordEvent(trace.EventRecord{
			EventID:  ev.ID,
			Clock:    ev.Time,
			Kind:     ev.Kind.String(),
			Node:     string(ev.Node),
			JobID:    uint64(ev.Job),
			Class:    int(ev.Class),
			External: ev.External,
		})
	}
	sim.sched.Intercept(Arrival, record)
	sim.sched.Intercept(Departure, record)
}

func (sim *Simulator) onArrival(ev *Event) {
	node, ok := sim.network.Node(ev.Node)
	if !ok {
		logrus.Errorf("Arrival %d at unknown node %s discarded", ev.ID, ev.Node)
		ev.ignored = true
		return
	}
	var job *Job
	if ev.Job == NoJob {
		mean, ok := node.ServiceMean(ev.Class)
		if !ok {
			logrus.Errorf("Arrival %d: node %s has no service mean for class %d", ev.ID, ev.Node, ev.Class)
			ev.ignored = true
			return
		}
		job = sim.sched.NewJob(ev.Class, sim.service.Exponential(mean))
		ev.Job = job.ID
	} else if job, ok = sim.sched.Job(ev.Job); !ok {
		logrus.Errorf("Arrival %d references released job %d", ev.ID, ev.Job)
		ev.ignored = true
		return
	}
	if err := node.Arrival(job, ev.Time); err != nil {
		logrus.Errorf("Arrival %d: %v", ev.ID, err)
		ev.ignored = true
	}
}

func (sim *Simulator) onDeparture(ev *Event) {
	node, ok := sim.network.Node(ev.Node)
	if !ok {
		ev.ignored = true
		return
	}
	job, ok := node.Departure(ev)
	if !ok {
		logrus.Debugf("Stale departure %d for job %d at %s ignored", ev.ID, ev.Job, ev.Node)
		ev.ignored = true
		return
	}

	from := Key{Node: ev.Node, Class: job.Class}
	route, err := sim.network.Next(from, sim.routing.Uniform)
	if err != nil {
		logrus.Errorf("Departure %d: %v; job %d leaves the network", ev.ID, err, job.ID)
		route = Route{Exit: true}
	}
	if sim.trace != nil {
		sim.trace.RecordRouting(trace.RoutingRecord{
			JobID:     uint64(job.ID),
			Clock:     ev.Time,
			From:      string(from.Node),
			FromClass: int(from.Class),
			To:        string(route.To.Node),
			ToClass:   int(route.To.Class),
			Exit:      route.Exit,
			Drawn:     sim.network.Probabilistic(from),
		})
	}

	if route.Exit {
		ev.exited = true
		sim.completed++
		sim.sched.Release(job.ID)
		return
	}

	next, _ := sim.network.Node(route.To.Node)
	mean, _ := next.ServiceMean(route.To.Class)
	job.Class = route.To.Class
	job.Remaining = sim.service.Exponential(mean)
	hop := sim.sched.NewEvent(Arrival, route.To.Node, job.ID, route.To.Class)
	sim.sched.Schedule(hop, sim.cfg.HopDelay)
}

// shouldStop reports whether the stop condition has been reached.
func (sim *Simulator) shouldStop() bool {
	if sim.cfg.MaxEvents > 0 && sim.sched.Dispatched() >= uint64(sim.cfg.MaxEvents) {
		return true
	}
	return sim.cfg.MaxTime > 0 && sim.sched.Now() >= sim.cfg.MaxTime
}

// Step dispatches one event. It returns false once the queue is drained.
func (sim *Simulator) Step() bool {
	if _, ok := sim.sched.Next(); !ok {
		return false
	}
	if sim.arrivals.Active() && sim.shouldStop() {
		sim.arrivals.Stop()
	}
	return true
}

// Run dispatches events until the stop condition halts admissions and the
// network drains, then finalizes the estimators. Later calls return the same results.
func (sim *Simulator) Run() *Results {
	if sim.results != nil {
		return sim.results
	}
	for sim.Step() {
	}
	end := sim.sched.Now()
	sim.overall.Finalize(end)
	for _, e := range sim.perNode {
		e.Finalize(end)
	}
	sim.results = sim.collect(end)
	logrus.Infof("[t=%.4f] Simulation ended: %d events, %d jobs created, %d completed", end, sim.results.Events, sim.sched.JobsCreated(), sim.results.TotalCompletedJobs)
	sim.results.warnUnstable()
	return sim.results
}

func (sim *Simulator) collect(end float64) *Results {
	res := &Results{
		Seed:                  sim.seed,
		Overall:               sim.overall.Metrics(),
		PerNode:               make(map[NodeID]Metrics, len(sim.perNode)),
		Nodes:                 sim.network.Nodes(),
		TotalExternalArrivals: sim.overall.Arrivals(),
		TotalCompletedJobs:    sim.completed,
		Elapsed:               end,
		Events:                sim.sched.Dispatched(),
	}
	for name, e := range sim.perNode {
		res.PerNode[name] = e.Metrics()
	}
	if b := sim.overall.Batches(); b != nil && b.Batches() > 0 {
		iv, err := b.Interval(DefaultConfidence)
		if err == nil {
			res.ResponseBatches = &iv
		}
	}
	return res
}

// Scheduler returns the event scheduler.
func (sim *Simulator) Scheduler() *Scheduler { return sim.sched }

// Network returns the network.
func (sim *Simulator) Network() *Network { return sim.network }

// Arrivals returns the arrivals generator.
func (sim *Simulator) Arrivals() *ArrivalsGenerator { return sim.arrivals }

// Trace returns the recorded trace, nil when tracing is disabled.
func (sim *Simulator) Trace() *trace.SimulationTrace { return sim.trace }

// Seed returns the planting seed.
func (sim *Simulator) Seed() int64 { return sim.seed }
