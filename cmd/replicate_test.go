package cmd

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queuenet-sim/queuenet-sim/sim"
	"github.com/queuenet-sim/queuenet-sim/sim/rngs"
	"github.com/queuenet-sim/queuenet-sim/sim/trace"
)

// twoNodeConfig is a tandem A -> B -> exit.
func twoNodeConfig() *sim.Config {
	return &sim.Config{
		ArrivalRate: 0.4,
		Entry:       sim.Key{Node: "A", Class: 1},
		MaxEvents:   3000,
		Nodes: map[sim.NodeID]sim.NodeConfig{
			"A": {ServiceMeans: map[sim.ClassID]float64{1: 1}},
			"B": {ServiceMeans: map[sim.ClassID]float64{1: 0.5}},
		},
		Routing: []sim.RouteConfig{
			{From: sim.Key{Node: "A", Class: 1}, To: &sim.Key{Node: "B", Class: 1}},
			{From: sim.Key{Node: "B", Class: 1}, Exit: true},
		},
	}
}

func TestRunReplications_IndependentAndReproducible(t *testing.T) {
	// GIVEN three replication seeds derived from one base seed
	seeds, err := sim.ReplicationSeeds(11, 3)
	require.NoError(t, err)

	// WHEN the replications run twice
	first, traces, err := runReplications(twoNodeConfig(), seeds, trace.TraceConfig{})
	require.NoError(t, err)
	second, _, err := runReplications(twoNodeConfig(), seeds, trace.TraceConfig{})
	require.NoError(t, err)

	// THEN reruns agree exactly and replications differ from each other
	require.Len(t, first, 3)
	assert.Empty(t, traces, "no traces without --trace")
	for i := range first {
		assert.Equal(t, seeds[i], first[i].Seed)
		assert.Equal(t, first[i].Overall, second[i].Overall)
	}
	assert.NotEqual(t, first[0].Overall.MeanResponseTime, first[1].Overall.MeanResponseTime)

	// AND no replication plants a stream state used by another
	states := make(map[int64]int)
	for i, seed := range seeds {
		planted := rngs.MustNew(seed)
		for j := 0; j < 3; j++ {
			s := planted.StreamSeed(j)
			if prev, dup := states[s]; dup {
				t.Errorf("replication %d stream %d shares its state with replication %d", i, j, prev)
			}
			states[s] = i
		}
	}
}

func TestRunReplications_TracePerReplication(t *testing.T) {
	seeds, err := sim.ReplicationSeeds(3, 2)
	require.NoError(t, err)

	_, traces, err := runReplications(twoNodeConfig(), seeds, trace.TraceConfig{Level: trace.TraceLevelEvents, Limit: 10})
	require.NoError(t, err)
	require.Len(t, traces, 2)
	for _, st := range traces {
		assert.Len(t, st.Events, 10)
		assert.Positive(t, st.Dropped)
	}
}

func TestRunReplications_InvalidConfig(t *testing.T) {
	cfg := twoNodeConfig()
	cfg.ArrivalRate = 0
	_, _, err := runReplications(cfg, []int64{1}, trace.TraceConfig{})
	assert.Error(t, err)
}

func TestSummarizeReplications_ScopesAndIntervals(t *testing.T) {
	seeds, err := sim.ReplicationSeeds(5, 4)
	require.NoError(t, err)
	results, _, err := runReplications(twoNodeConfig(), seeds, trace.TraceConfig{})
	require.NoError(t, err)

	summary, err := summarizeReplications(results, 0.9)
	require.NoError(t, err)

	require.Len(t, summary.Scopes, 3)
	assert.Equal(t, "overall", summary.Scopes[0].Name)
	assert.Equal(t, "A", summary.Scopes[1].Name)
	assert.Equal(t, "B", summary.Scopes[2].Name)

	var mean float64
	var completions int64
	for _, r := range results {
		mean += r.Overall.MeanResponseTime
		completions += r.Overall.Completions
	}
	mean /= float64(len(results))
	overall := summary.Scopes[0]
	assert.InDelta(t, mean, overall.ResponseTime.Mean, 1e-12)
	assert.Equal(t, int64(4), overall.ResponseTime.N)
	assert.Equal(t, 0.9, overall.ResponseTime.Level)
	assert.Positive(t, overall.ResponseTime.HalfWidth)
	assert.Equal(t, completions, overall.CompletionsSum)

	var buf bytes.Buffer
	summary.Print(&buf)
	assert.Contains(t, buf.String(), "=== Replication Summary ===")
	assert.Contains(t, buf.String(), "--- B ---")
}

func TestSummarizeReplications_Errors(t *testing.T) {
	_, err := summarizeReplications(nil, 0.95)
	assert.Error(t, err)

	res := &sim.Results{}
	_, err = summarizeReplications([]*sim.Results{res, res}, 1.5)
	assert.Error(t, err, "confidence outside (0,1)")
}

func TestWriteReplicationsCSV_OneRowPerScope(t *testing.T) {
	// GIVEN two replications over a two-node network
	seeds, err := sim.ReplicationSeeds(9, 2)
	require.NoError(t, err)
	results, _, err := runReplications(twoNodeConfig(), seeds, trace.TraceConfig{})
	require.NoError(t, err)

	// WHEN written as CSV
	var buf bytes.Buffer
	require.NoError(t, writeReplicationsCSV(&buf, results))

	// THEN header plus (overall + 2 nodes) rows per replication
	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1+2*3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"0", "overall"}, []string{rows[1][0], rows[1][2]})
	assert.Equal(t, "A", rows[2][2])
	assert.Equal(t, "1", rows[4][0])
	for _, row := range rows[1:] {
		assert.Len(t, row, len(csvHeader))
	}
}

func TestPrintTraceSummary_NilTrace(t *testing.T) {
	var buf bytes.Buffer
	printTraceSummary(&buf, 0, trace.Summarize(nil))
	assert.Contains(t, buf.String(), "Total Events         : 0")
}
