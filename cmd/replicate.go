package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/queuenet-sim/queuenet-sim/sim"
	"github.com/queuenet-sim/queuenet-sim/sim/stats"
	"github.com/queuenet-sim/queuenet-sim/sim/trace"
)

// runReplications runs one independent simulation per seed. Traces are
// returned only when tc is enabled, one per replication.
func runReplications(cfg *sim.Config, seeds []int64, tc trace.TraceConfig) ([]*sim.Results, []*trace.SimulationTrace, error) {
	results := make([]*sim.Results, 0, len(seeds))
	var traces []*trace.SimulationTrace
	for i, s := range seeds {
		simulator, err := sim.NewSimulator(cfg, s)
		if err != nil {
			return nil, nil, fmt.Errorf("replication %d: %w", i, err)
		}
		simulator.EnableTrace(tc)
		res := simulator.Run()
		logrus.Debugf("Replication %d (seed %d): %d events, W=%.4f", i, s, res.Events, res.Overall.MeanResponseTime)
		results = append(results, res)
		if simulator.Trace() != nil {
			traces = append(traces, simulator.Trace())
		}
	}
	return results, traces, nil
}

// ScopeSummary holds across-replication intervals for one scope.
type ScopeSummary struct {
	Name           string
	ResponseTime   stats.Interval
	Population     stats.Interval
	Throughput     stats.Interval
	Utilization    stats.Interval
	CompletionsSum int64
}

// ReplicationSummary is the Student-t summary of independent replications.
type ReplicationSummary struct {
	Replications int
	Confidence   float64
	Scopes       []ScopeSummary // overall first, then nodes in name order
}

// summarizeReplications builds per-scope confidence intervals over the
// replication means. Every replication must share the same node set.
func summarizeReplications(results []*sim.Results, level float64) (*ReplicationSummary, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no replications to summarize")
	}
	out := &ReplicationSummary{Replications: len(results), Confidence: level}

	overall, err := summarizeScope("overall", results, func(r *sim.Results) sim.Metrics { return r.Overall }, level)
	if err != nil {
		return nil, err
	}
	out.Scopes = append(out.Scopes, overall)
	for _, n := range results[0].Nodes {
		n := n
		s, err := summarizeScope(string(n), results, func(r *sim.Results) sim.Metrics { return r.PerNode[n] }, level)
		if err != nil {
			return nil, err
		}
		out.Scopes = append(out.Scopes, s)
	}
	return out, nil
}

func summarizeScope(name string, results []*sim.Results, pick func(*sim.Results) sim.Metrics, level float64) (ScopeSummary, error) {
	n := len(results)
	w, l, x, u := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	s := ScopeSummary{Name: name}
	for i, r := range results {
		m := pick(r)
		w[i], l[i], x[i], u[i] = m.MeanResponseTime, m.MeanPopulation, m.Throughput, m.Utilization
		s.CompletionsSum += m.Completions
	}
	var err error
	if s.ResponseTime, err = stats.SampleInterval(w, level); err != nil {
		return s, err
	}
	if s.Population, err = stats.SampleInterval(l, level); err != nil {
		return s, err
	}
	if s.Throughput, err = stats.SampleInterval(x, level); err != nil {
		return s, err
	}
	if s.Utilization, err = stats.SampleInterval(u, level); err != nil {
		return s, err
	}
	return s, nil
}

// Print writes the replication summary in the same layout as sim.Results.Print.
func (rs *ReplicationSummary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Replication Summary ===")
	fmt.Fprintf(w, "Replications         : %d\n", rs.Replications)
	fmt.Fprintf(w, "Confidence           : %.0f%%\n", rs.Confidence*100)
	for _, s := range rs.Scopes {
		fmt.Fprintf(w, "--- %s ---\n", s.Name)
		fmt.Fprintf(w, "Mean Response Time   : %s\n", s.ResponseTime)
		fmt.Fprintf(w, "Mean Population      : %s\n", s.Population)
		fmt.Fprintf(w, "Throughput           : %s\n", s.Throughput)
		fmt.Fprintf(w, "Utilization          : %s\n", s.Utilization)
		fmt.Fprintf(w, "Completions (total)  : %d\n", s.CompletionsSum)
	}
}

// csvHeader is the column layout of --csv output.
var csvHeader = []string{
	"replication", "seed", "scope",
	"mean_response_time", "std_response_time",
	"mean_population", "std_population", "peak_population",
	"throughput", "utilization", "arrivals", "completions",
}

// writeReplicationsCSV writes one row per replication and scope.
func writeReplicationsCSV(w io.Writer, results []*sim.Results) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i, r := range results {
		if err := cw.Write(csvRow(i, r.Seed, "overall", r.Overall)); err != nil {
			return err
		}
		for _, n := range r.Nodes {
			if err := cw.Write(csvRow(i, r.Seed, string(n), r.PerNode[n])); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(rep int, seed int64, scope string, m sim.Metrics) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', 10, 64) }
	return []string{
		strconv.Itoa(rep), strconv.FormatInt(seed, 10), scope,
		f(m.MeanResponseTime), f(m.StdResponseTime),
		f(m.MeanPopulation), f(m.StdPopulation), strconv.FormatInt(m.PeakPopulation, 10),
		f(m.Throughput), f(m.Utilization),
		strconv.FormatInt(m.Arrivals, 10), strconv.FormatInt(m.Completions, 10),
	}
}

// saveReplicationsCSV creates path and writes the replication rows to it.
func saveReplicationsCSV(path string, results []*sim.Results) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeReplicationsCSV(file, results); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// printTraceSummary reports the event-trace summary of one replication.
func printTraceSummary(w io.Writer, rep int, s *trace.TraceSummary) {
	fmt.Fprintf(w, "=== Trace Summary (replication %d) ===\n", rep)
	fmt.Fprintf(w, "Total Events         : %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Arrivals             : %d (external %d)\n", s.Arrivals, s.ExternalArrivals)
	fmt.Fprintf(w, "Departures           : %d\n", s.Departures)
	fmt.Fprintf(w, "Exits                : %d\n", s.Exits)
	fmt.Fprintf(w, "Drawn Routes         : %d\n", s.DrawnRoutes)
	fmt.Fprintf(w, "Clock Span           : [%.4f, %.4f]\n", s.FirstClock, s.LastClock)
	fmt.Fprintf(w, "Unique Targets       : %d\n", s.UniqueTargets)
}
