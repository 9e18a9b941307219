package trace

// TraceLevel controls the verbosity of event tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures every dispatched event and every routing decision.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
	Limit int // max event records kept; 0 keeps all
}

// Enabled reports whether anything should be recorded.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelEvents
}

// SimulationTrace collects event and routing records during a run.
// Counts is updated for every event, including those beyond Limit.
type SimulationTrace struct {
	Config  TraceConfig
	Events  []EventRecord
	Routes  []RoutingRecord
	Dropped int // event records beyond Limit
	Counts  EventCounts
}

// EventCounts tallies every recorded event whether or not it was kept.
type EventCounts struct {
	Total            int
	Arrivals         int
	ExternalArrivals int
	Departures       int
	FirstClock       float64
	LastClock        float64
}

func (c *EventCounts) add(record EventRecord) {
	if c.Total == 0 {
		c.FirstClock = record.Clock
	}
	c.Total++
	c.LastClock = record.Clock
	switch record.Kind {
	case "ARRIVAL":
		c.Arrivals++
		if record.External {
			c.ExternalArrivals++
		}
	case "DEPARTURE":
		c.Departures++
	}
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config: config,
		Events: make([]EventRecord, 0),
		Routes: make([]RoutingRecord, 0),
	}
}

// RecordEvent appends a dispatched-event record, honoring Limit.
func (st *SimulationTrace) RecordEvent(record EventRecord) {
	st.Counts.add(record)
	if st.Config.Limit > 0 && len(st.Events) >= st.Config.Limit {
		st.Dropped++
		return
	}
	st.Events = append(st.Events, record)
}

// RecordRouting appends a routing decision record.
func (st *SimulationTrace) RecordRouting(record RoutingRecord) {
	st.Routes = append(st.Routes, record)
}
