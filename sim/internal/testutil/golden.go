// Package testutil provides shared test infrastructure for the simulator.
// It holds the golden dataset of reference networks with their closed-form
// steady-state metrics, and tolerance-based assertion helpers.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one reference network. Config is relative to the repo root.
type GoldenTestCase struct {
	Name      string        `json:"name"`
	Config    string        `json:"config"`
	Seed      int64         `json:"seed"`
	MaxEvents int64         `json:"max_events"`
	SimRelTol float64       `json:"sim_rel_tol"` // tolerance for simulated vs golden values
	Metrics   GoldenMetrics `json:"metrics"`
}

// GoldenMetrics are the expected steady-state metrics of a network.
type GoldenMetrics struct {
	ResponseTime float64                     `json:"response_time"`
	Population   float64                     `json:"population"`
	Throughput   float64                     `json:"throughput"`
	Utilization  float64                     `json:"utilization"`
	Nodes        map[string]GoldenNodeMetric `json:"nodes"`
}

// GoldenNodeMetric are the expected metrics of one node. VisitResponse is
// the mean time per visit.
type GoldenNodeMetric struct {
	Visits        float64 `json:"visits"`
	Utilization   float64 `json:"utilization"`
	Throughput    float64 `json:"throughput"`
	VisitResponse float64 `json:"visit_response"`
	Population    float64 `json:"population"`
}

// repoRoot resolves the repository root relative to this source file.
func repoRoot(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to the repo root
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..")
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	path := filepath.Join(repoRoot(t), "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// ConfigPath returns the absolute path of a golden case's network config.
func (tc GoldenTestCase) ConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(repoRoot(t), tc.Config)
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
