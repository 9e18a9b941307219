package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/queuenet-sim/queuenet-sim/sim"
	"github.com/queuenet-sim/queuenet-sim/sim/trace"
)

var (
	// CLI flags shared by run and validate
	configPath string  // Path to the network YAML config
	seed       int64   // Base seed; overrides the config seed when set
	maxEvents  int64   // Overrides max_events when set
	maxTime    float64 // Overrides max_time when set
	logLevel   string  // Log verbosity level

	// CLI flags for run
	replications int     // Number of independent replications
	confidence   float64 // Confidence level for replication intervals
	csvPath      string  // Optional per-replication CSV output
	traceLevel   string  // Event trace level: none, events
	traceLimit   int     // Max event records kept by the trace (0 = all)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "queuenet-sim",
	Short: "Discrete-event simulator for open networks of processor-sharing queues",
}

// setLogLevel parses --log and applies it to the package-level logger.
func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runCmd executes one or more replications of the simulation
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the queueing network simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level %q; valid: none, events", traceLevel)
		}
		if replications < 1 {
			logrus.Fatalf("--replications must be at least 1, got %d", replications)
		}

		cfg, baseSeed, err := resolveConfig(cmd, configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		seeds, err := sim.ReplicationSeeds(baseSeed, replications)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Starting %d replication(s) from base seed %d", replications, baseSeed)

		tc := trace.TraceConfig{Level: trace.TraceLevel(traceLevel), Limit: traceLimit}
		results, traces, err := runReplications(cfg, seeds, tc)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		if len(results) == 1 {
			results[0].Print(os.Stdout)
		} else {
			summary, err := summarizeReplications(results, confidence)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			summary.Print(os.Stdout)
		}
		for i, st := range traces {
			printTraceSummary(os.Stdout, i, trace.Summarize(st))
		}

		if csvPath != "" {
			if err := saveReplicationsCSV(csvPath, results); err != nil {
				logrus.Fatalf("Writing CSV: %v", err)
			}
			logrus.Infof("Wrote %s", csvPath)
		}

		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerCommonFlags adds the config, seed, stop-condition and log flags to c.
func registerCommonFlags(c *cobra.Command) {
	c.Flags().StringVar(&configPath, "config", "", "Path to network config YAML")
	c.Flags().Int64Var(&seed, "seed", 0, "Base seed in [1, 2^31-2]; overrides the config seed")
	c.Flags().Int64Var(&maxEvents, "max-events", 0, "Stop admissions after this many events; overrides the config")
	c.Flags().Float64Var(&maxTime, "max-time", 0, "Stop admissions once the clock reaches this time; overrides the config")
	c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	_ = c.MarkFlagRequired("config")
}

// init sets up CLI flags and subcommands
func init() {
	registerCommonFlags(runCmd)
	runCmd.Flags().IntVar(&replications, "replications", 1, fmt.Sprintf("Number of independent replications (at most %d)", sim.MaxReplications))
	runCmd.Flags().Float64Var(&confidence, "confidence", 0.95, "Confidence level for replication intervals")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "Write one row per replication and scope to this CSV file")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Event trace level (none, events)")
	runCmd.Flags().IntVar(&traceLimit, "trace-limit", 0, "Max event records kept per replication (0 = all)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
