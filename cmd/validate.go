package cmd

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/queuenet-sim/queuenet-sim/sim"
	"github.com/queuenet-sim/queuenet-sim/sim/analytic"
)

var plotPath string // Optional SVG/PNG chart of simulated vs analytic response time

// Comparison pairs one simulated metric with its analytic prediction.
type Comparison struct {
	Scope     string
	Metric    string
	Simulated float64
	Analytic  float64
}

// RelativeError returns |sim - analytic| / analytic, +Inf when the
// prediction is zero or infinite.
func (c Comparison) RelativeError() float64 {
	if c.Analytic == 0 || math.IsInf(c.Analytic, 0) {
		return math.Inf(1)
	}
	return math.Abs(c.Simulated-c.Analytic) / c.Analytic
}

// compare lines up the simulation results with the analytic solution,
// overall first and then each node in name order.
func compare(res *sim.Results, sol *analytic.Solution) []Comparison {
	out := []Comparison{
		{"overall", "response_time", res.Overall.MeanResponseTime, sol.ResponseTime},
		{"overall", "population", res.Overall.MeanPopulation, sol.Population},
		{"overall", "throughput", res.Overall.Throughput, sol.Throughput},
		{"overall", "utilization", res.Overall.Utilization, sol.Utilization},
	}
	for _, n := range sol.Nodes {
		m, a := res.PerNode[n], sol.PerNode[n]
		out = append(out,
			Comparison{string(n), "response_time", m.MeanResponseTime, a.VisitResponse},
			Comparison{string(n), "population", m.MeanPopulation, a.Population},
			Comparison{string(n), "throughput", m.Throughput, a.Throughput},
			Comparison{string(n), "utilization", m.Utilization, a.Utilization},
		)
	}
	return out
}

func printComparisons(w io.Writer, sol *analytic.Solution, cs []Comparison) {
	fmt.Fprintln(w, "=== Analytic Cross-Check ===")
	if !sol.Exact {
		fmt.Fprintln(w, "note: FIFO node with class-dependent means; analytic values are approximate")
	}
	fmt.Fprintf(w, "%-12s %-14s %12s %12s %9s\n", "scope", "metric", "simulated", "analytic", "rel.err")
	for _, c := range cs {
		fmt.Fprintf(w, "%-12s %-14s %12.4f %12.4f %8.2f%%\n", c.Scope, c.Metric, c.Simulated, c.Analytic, c.RelativeError()*100)
	}
}

// validateCmd runs one replication and compares it with the product-form solution
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compare a simulation run with the analytic steady-state solution",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, baseSeed, err := resolveConfig(cmd, configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		sol, err := analytic.Solve(cfg)
		if err != nil {
			logrus.Fatalf("Analytic solution: %v", err)
		}
		if !sol.Stable {
			logrus.Fatalf("Network is unstable at arrival rate %.4f: no steady state to compare against", cfg.ArrivalRate)
		}

		simulator, err := sim.NewSimulator(cfg, baseSeed)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		res := simulator.Run()
		cs := compare(res, sol)
		printComparisons(os.Stdout, sol, cs)

		if plotPath != "" {
			if err := saveResponsePlot(plotPath, res, sol); err != nil {
				logrus.Fatalf("Writing plot: %v", err)
			}
			logrus.Infof("Wrote %s", plotPath)
		}
	},
}

func init() {
	registerCommonFlags(validateCmd)
	validateCmd.Flags().StringVar(&plotPath, "plot", "", "Write a response-time bar chart (.svg, .png or .pdf)")
	rootCmd.AddCommand(validateCmd)
}
