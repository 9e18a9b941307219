package cmd

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queuenet-sim/queuenet-sim/sim"
	"github.com/queuenet-sim/queuenet-sim/sim/analytic"
)

func TestComparison_RelativeError(t *testing.T) {
	assert.InDelta(t, 0.1, Comparison{Simulated: 1.1, Analytic: 1}.RelativeError(), 1e-12)
	assert.InDelta(t, 0.25, Comparison{Simulated: 3, Analytic: 4}.RelativeError(), 1e-12)
	assert.True(t, math.IsInf(Comparison{Simulated: 1, Analytic: 0}.RelativeError(), 1))
	assert.True(t, math.IsInf(Comparison{Simulated: 1, Analytic: math.Inf(1)}.RelativeError(), 1))
}

// validatedRun simulates cfg and solves it analytically.
func validatedRun(t *testing.T, cfg *sim.Config) (*sim.Results, *analytic.Solution) {
	t.Helper()
	sol, err := analytic.Solve(cfg)
	require.NoError(t, err)
	s, err := sim.NewSimulator(cfg, 12345)
	require.NoError(t, err)
	return s.Run(), sol
}

func TestCompare_OrderAndAgreement(t *testing.T) {
	// GIVEN a long tandem run
	cfg := twoNodeConfig()
	cfg.MaxEvents = 200000
	res, sol := validatedRun(t, cfg)

	// WHEN compared with the analytic solution
	cs := compare(res, sol)

	// THEN overall metrics come first, then each node, four metrics per scope
	require.Len(t, cs, 12)
	assert.Equal(t, "overall", cs[0].Scope)
	assert.Equal(t, "A", cs[4].Scope)
	assert.Equal(t, "B", cs[8].Scope)
	assert.Equal(t, "utilization", cs[7].Metric)

	// AND utilization matches ρ_A = 0.4, ρ_B = 0.2 closely
	assert.InDelta(t, 0.4, cs[7].Simulated, 0.02)
	assert.InDelta(t, 0.2, cs[11].Simulated, 0.02)
	for _, c := range cs {
		if c.Metric == "throughput" {
			assert.Less(t, c.RelativeError(), 0.05, "%s %s", c.Scope, c.Metric)
		}
	}

	var buf bytes.Buffer
	printComparisons(&buf, sol, cs)
	assert.Contains(t, buf.String(), "=== Analytic Cross-Check ===")
	assert.NotContains(t, buf.String(), "approximate")
}

func TestPrintComparisons_FlagsApproximateSolution(t *testing.T) {
	var buf bytes.Buffer
	printComparisons(&buf, &analytic.Solution{Exact: false}, nil)
	assert.Contains(t, buf.String(), "approximate")
}

func TestSaveResponsePlot_WritesSVG(t *testing.T) {
	res, sol := validatedRun(t, twoNodeConfig())
	path := filepath.Join(t.TempDir(), "response.svg")

	require.NoError(t, saveResponsePlot(path, res, sol))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "validate", "check-rng"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
