package sim

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrNoStopCondition is returned when neither max_events nor max_time is set.
var ErrNoStopCondition = errors.New("no stop condition: set max_events or max_time")

// probabilityTolerance bounds the deviation of arc probabilities from 1.
const probabilityTolerance = 1e-9

// Config is the validated input of one simulation run.
type Config struct {
	ArrivalRate float64               `yaml:"arrival_rate"`
	Entry       Key                   `yaml:"entry"`
	Seed        int64                 `yaml:"seed,omitempty"`
	MaxEvents   int64                 `yaml:"max_events,omitempty"`
	MaxTime     float64               `yaml:"max_time,omitempty"`
	HopDelay    float64               `yaml:"hop_delay,omitempty"`
	BatchSize   int                   `yaml:"batch_size,omitempty"` // 0 disables batch means
	Nodes       map[NodeID]NodeConfig `yaml:"nodes"`
	Routing     []RouteConfig         `yaml:"routing"`
}

// NodeConfig describes one server.
type NodeConfig struct {
	Discipline   Discipline          `yaml:"discipline,omitempty"` // "ps" (default) or "fifo"
	ServiceMeans map[ClassID]float64 `yaml:"service_means"`
}

// RouteConfig maps one (node, class) to exactly one of: a next state, exit,
// or a list of probabilistic arcs.
type RouteConfig struct {
	From Key         `yaml:"from"`
	To   *Key        `yaml:"to,omitempty"`
	Exit bool        `yaml:"exit,omitempty"`
	Arcs []ArcConfig `yaml:"arcs,omitempty"`
}

// ArcConfig is one probabilistic branch: a next state or exit.
type ArcConfig struct {
	Node  NodeID  `yaml:"node,omitempty"`
	Class ClassID `yaml:"class,omitempty"`
	Exit  bool    `yaml:"exit,omitempty"`
	P     float64 `yaml:"p"`
}

// LoadConfig reads and strictly decodes a YAML config file. Unknown fields are errors.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig strictly decodes a YAML config document.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Validate checks field-level constraints. Graph-level checks (routing
// totality, reachability of exit) happen in NewNetwork.
func (c *Config) Validate() error {
	if c.ArrivalRate <= 0 || math.IsNaN(c.ArrivalRate) || math.IsInf(c.ArrivalRate, 0) {
		return fmt.Errorf("arrival_rate must be a finite positive number, got %f", c.ArrivalRate)
	}
	if c.MaxEvents < 0 {
		return fmt.Errorf("max_events must be non-negative, got %d", c.MaxEvents)
	}
	if c.MaxTime < 0 || math.IsNaN(c.MaxTime) || math.IsInf(c.MaxTime, 0) {
		return fmt.Errorf("max_time must be a finite non-negative number, got %f", c.MaxTime)
	}
	if c.MaxEvents == 0 && c.MaxTime == 0 {
		return ErrNoStopCondition
	}
	if c.HopDelay < 0 || math.IsNaN(c.HopDelay) || math.IsInf(c.HopDelay, 0) {
		return fmt.Errorf("hop_delay must be a finite non-negative number, got %f", c.HopDelay)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must be non-negative, got %d", c.BatchSize)
	}
	if c.Entry.Node == "" {
		return fmt.Errorf("entry node is required")
	}
	if len(c.Nodes) == 0 {
		return fmt.Errorf("at least one node is required")
	}
	for _, name := range c.NodeNames() {
		if err := validateNode(name, c.Nodes[name]); err != nil {
			return err
		}
	}
	seen := make(map[Key]bool, len(c.Routing))
	for i, rc := range c.Routing {
		if seen[rc.From] {
			return fmt.Errorf("routing[%d]: duplicate entry for %s", i, rc.From)
		}
		seen[rc.From] = true
		if err := validateRoute(&rc); err != nil {
			return fmt.Errorf("routing[%d]: %w", i, err)
		}
	}
	return nil
}

// NodeNames returns the configured node names in sorted order.
func (c *Config) NodeNames() []NodeID {
	names := make([]NodeID, 0, len(c.Nodes))
	for n := range c.Nodes {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func validateNode(name NodeID, nc NodeConfig) error {
	if !IsValidDiscipline(string(nc.Discipline)) {
		return fmt.Errorf("node %s: unknown discipline %q; valid: ps, fifo", name, nc.Discipline)
	}
	if len(nc.ServiceMeans) == 0 {
		return fmt.Errorf("node %s: %w", name, ErrMissingService)
	}
	for class, mean := range nc.ServiceMeans {
		if mean <= 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
			return fmt.Errorf("node %s class %d: service mean must be a finite positive number, got %f", name, class, mean)
		}
	}
	return nil
}

func validateRoute(rc *RouteConfig) error {
	choices := 0
	if rc.To != nil {
		choices++
	}
	if rc.Exit {
		choices++
	}
	if len(rc.Arcs) > 0 {
		choices++
	}
	if choices != 1 {
		return fmt.Errorf("%s: exactly one of to, exit, arcs is required", rc.From)
	}
	if len(rc.Arcs) == 0 {
		return nil
	}
	var sum float64
	for j, a := range rc.Arcs {
		if a.Exit == (a.Node != "") {
			return fmt.Errorf("%s arc %d: exactly one of node, exit is required", rc.From, j)
		}
		if !(a.P > 0 && a.P <= 1) {
			return fmt.Errorf("%s arc %d: probability must be in (0,1], got %f", rc.From, j, a.P)
		}
		sum += a.P
	}
	if math.Abs(sum-1) > probabilityTolerance {
		return fmt.Errorf("%s: arc probabilities sum to %f, want 1", rc.From, sum)
	}
	return nil
}
