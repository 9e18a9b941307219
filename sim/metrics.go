// Tracks system-wide and per-node performance metrics such as:
// response time, population, throughput and utilization.

package sim

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/queuenet-sim/queuenet-sim/sim/stats"
)

// UnstableUtilization is the measured utilization above which a node is
// reported as likely unstable.
const UnstableUtilization = 0.99

// Metrics is the summary of one scope (the whole network or one node).
type Metrics struct {
	MeanResponseTime float64
	StdResponseTime  float64
	MeanPopulation   float64
	StdPopulation    float64
	PeakPopulation   int64
	Throughput       float64
	Utilization      float64
	Arrivals         int64
	Completions      int64
}

// Results is the output of one run.
type Results struct {
	Seed                  int64
	Overall               Metrics
	PerNode               map[NodeID]Metrics
	Nodes                 []NodeID // PerNode keys in sorted order
	TotalExternalArrivals int64
	TotalCompletedJobs    int64
	Elapsed               float64 // simulated time at the last event
	Events                uint64  // dispatched events
	// ResponseBatches is the batch-means interval on system response time,
	// nil when batch means are disabled.
	ResponseBatches *stats.Interval
}

// Unstable returns the nodes whose measured utilization reached UnstableUtilization.
func (r *Results) Unstable() []NodeID {
	var out []NodeID
	for _, n := range r.Nodes {
		if r.PerNode[n].Utilization >= UnstableUtilization {
			out = append(out, n)
		}
	}
	return out
}

// Print writes a human-readable report.
func (r *Results) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Seed                 : %d\n", r.Seed)
	fmt.Fprintf(w, "Events               : %d\n", r.Events)
	fmt.Fprintf(w, "Simulated Time       : %.4f\n", r.Elapsed)
	fmt.Fprintf(w, "External Arrivals    : %d\n", r.TotalExternalArrivals)
	fmt.Fprintf(w, "Completed Jobs       : %d\n", r.TotalCompletedJobs)
	printScope(w, "overall", r.Overall)
	for _, n := range r.Nodes {
		printScope(w, string(n), r.PerNode[n])
	}
	if r.ResponseBatches != nil {
		fmt.Fprintf(w, "Batch Means Response : %s\n", r.ResponseBatches)
	}
}

func printScope(w io.Writer, name string, m Metrics) {
	fmt.Fprintf(w, "--- %s ---\n", name)
	fmt.Fprintf(w, "Mean Response Time   : %.4f (std %.4f)\n", m.MeanResponseTime, m.StdResponseTime)
	fmt.Fprintf(w, "Mean Population      : %.4f (std %.4f, peak %d)\n", m.MeanPopulation, m.StdPopulation, m.PeakPopulation)
	fmt.Fprintf(w, "Throughput           : %.4f\n", m.Throughput)
	fmt.Fprintf(w, "Utilization          : %.4f\n", m.Utilization)
}

// warnUnstable flags nodes that look saturated. Instability is a modeling
// concern, never a runtime error.
func (r *Results) warnUnstable() {
	for _, n := range r.Unstable() {
		logrus.Warnf("Node %s utilization %.4f >= %.2f: population may grow without bound", n, r.PerNode[n].Utilization, UnstableUtilization)
	}
}
