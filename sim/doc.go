// Package sim provides the discrete-event engine for open networks of
// processor-sharing queues.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - event.go: Event types (Arrival, Departure) and their (time, id) ordering
//   - scheduler.go: The future event list, interceptors, subscribers and job table
//   - simulator.go: Handler wiring, routing on departure, and the run loop
//
// # Architecture
//
// The sim package owns the domain model; helpers live in sub-packages:
//   - sim/rngs/: Multi-stream Lehmer generator and exponential variates
//   - sim/stats/: Welford, time-weighted, busy-time, batch-means and Student-t accumulators
//   - sim/trace/: Event and routing trace recording
//   - sim/analytic/: Product-form steady-state solution used to cross-check runs
//
// A Network is a set of Nodes plus a routing table over (node, class) states.
// Each Node shares its server equally among resident jobs (PS) or serves
// them in arrival order (FIFO), and keeps exactly one pending departure.
// Estimators observe dispatched events after the domain handlers and
// accumulate per-scope response time, population, throughput and utilization.
//
// # Handler Order
//
// For every dispatched event, interceptors run first, then subscribers in
// registration order: domain arrival, domain departure, arrivals generator,
// then estimators (overall first, nodes in name order).
package sim
