// Package analytic computes closed-form steady-state metrics of an open
// network of processor-sharing nodes, used to cross-check simulation output.
//
// Visit ratios come from the traffic equations (I - Pᵀ)v = e over the
// (node, class) states, where P holds the routing probabilities and e marks
// the entry state. Each node then behaves as an M/M/1-PS queue with demand
// D = Σ v·S over its states.
package analytic

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/queuenet-sim/queuenet-sim/sim"
)

// NodeMetrics is the analytic prediction for one node.
type NodeMetrics struct {
	Visits        float64 // mean visits per job
	Demand        float64 // total service demand per job
	Utilization   float64 // ρ = λ·D
	Throughput    float64 // visits per unit time
	Residence     float64 // total time per job at the node, D/(1-ρ)
	VisitResponse float64 // time per visit, Residence/Visits
	Population    float64 // ρ/(1-ρ)
	Stable        bool
}

// Solution is the analytic prediction for the whole network.
type Solution struct {
	ArrivalRate  float64
	Nodes        []sim.NodeID
	PerNode      map[sim.NodeID]NodeMetrics
	Visits       map[sim.Key]float64
	ResponseTime float64
	Population   float64
	Throughput   float64
	// Utilization is the probability the network is non-empty,
	// 1 - Π(1-ρ) for independent product-form nodes.
	Utilization float64
	Stable      bool
	// Exact is false when a FIFO node serves classes with different means;
	// the formulas are then an approximation.
	Exact bool
}

// MM1PSResponse is the mean response time of an M/M/1-PS queue, +Inf when ρ ≥ 1.
func MM1PSResponse(lambda, meanService float64) float64 {
	rho := lambda * meanService
	if rho >= 1 {
		return math.Inf(1)
	}
	return meanService / (1 - rho)
}

// Solve computes the analytic solution for a validated config.
func Solve(cfg *sim.Config) (*Solution, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	states, index := enumerate(cfg)
	n := len(states)

	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		a.Set(i, i, 1)
	}
	for _, rc := range cfg.Routing {
		from := index[rc.From]
		for to, p := range transitions(rc) {
			// (I - Pᵀ): row is the target state
			a.Set(index[to], from, a.At(index[to], from)-p)
		}
	}
	e := mat.NewVecDense(n, nil)
	e.SetVec(index[cfg.Entry], 1)

	var v mat.VecDense
	if err := v.SolveVec(a, e); err != nil {
		return nil, fmt.Errorf("solving traffic equations: %w", err)
	}

	sol := &Solution{
		ArrivalRate: cfg.ArrivalRate,
		Nodes:       cfg.NodeNames(),
		PerNode:     make(map[sim.NodeID]NodeMetrics, len(cfg.Nodes)),
		Visits:      make(map[sim.Key]float64, n),
		Throughput:  cfg.ArrivalRate,
		Stable:      true,
		Exact:       true,
	}
	for i, k := range states {
		visits := v.AtVec(i)
		if math.Abs(visits) < 1e-12 {
			visits = 0
		}
		if visits < 0 {
			return nil, fmt.Errorf("negative visit ratio %f for %s", visits, k)
		}
		sol.Visits[k] = visits
	}

	idle := 1.0
	for _, name := range sol.Nodes {
		nc := cfg.Nodes[name]
		var nm NodeMetrics
		means := map[float64]bool{}
		for _, k := range states {
			if k.Node != name || sol.Visits[k] == 0 {
				continue
			}
			mean, ok := nc.ServiceMeans[k.Class]
			if !ok {
				return nil, fmt.Errorf("state %s: %w", k, sim.ErrMissingService)
			}
			nm.Visits += sol.Visits[k]
			nm.Demand += sol.Visits[k] * mean
			means[mean] = true
		}
		if nc.Discipline == sim.FIFO && len(means) > 1 {
			sol.Exact = false
		}
		nm.Utilization = cfg.ArrivalRate * nm.Demand
		nm.Throughput = cfg.ArrivalRate * nm.Visits
		nm.Stable = nm.Utilization < 1
		if nm.Stable {
			nm.Residence = nm.Demand / (1 - nm.Utilization)
			nm.Population = nm.Utilization / (1 - nm.Utilization)
			if nm.Visits > 0 {
				nm.VisitResponse = nm.Residence / nm.Visits
			}
			idle *= 1 - nm.Utilization
		} else {
			nm.Residence = math.Inf(1)
			nm.VisitResponse = math.Inf(1)
			nm.Population = math.Inf(1)
			sol.Stable = false
		}
		sol.PerNode[name] = nm
		sol.ResponseTime += nm.Residence
		sol.Population += nm.Population
	}
	if sol.Stable {
		sol.Utilization = 1 - idle
	} else {
		sol.Utilization = 1
	}
	return sol, nil
}

// enumerate lists every state named by the config in a fixed order.
func enumerate(cfg *sim.Config) ([]sim.Key, map[sim.Key]int) {
	index := map[sim.Key]int{}
	add := func(k sim.Key) {
		if _, ok := index[k]; !ok {
			index[k] = -1
		}
	}
	add(cfg.Entry)
	for _, rc := range cfg.Routing {
		add(rc.From)
		for to := range transitions(rc) {
			add(to)
		}
	}
	states := make([]sim.Key, 0, len(index))
	for k := range index {
		states = append(states, k)
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].Node != states[j].Node {
			return states[i].Node < states[j].Node
		}
		return states[i].Class < states[j].Class
	})
	for i, k := range states {
		index[k] = i
	}
	return states, index
}

// transitions returns the non-exit successors of a routing entry with their probabilities.
func transitions(rc sim.RouteConfig) map[sim.Key]float64 {
	out := map[sim.Key]float64{}
	switch {
	case rc.To != nil:
		out[*rc.To] = 1
	case len(rc.Arcs) > 0:
		for _, a := range rc.Arcs {
			if !a.Exit {
				out[sim.Key{Node: a.Node, Class: a.Class}] += a.P
			}
		}
	}
	return out
}
