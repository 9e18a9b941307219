package sim

import (
	"fmt"

	"github.com/queuenet-sim/queuenet-sim/sim/rngs"
)

// === Subsystem Streams ===

const (
	// SubsystemArrivals draws external inter-arrival times.
	SubsystemArrivals = "arrivals"
	// SubsystemService draws service requirements.
	SubsystemService = "service"
	// SubsystemRouting draws probabilistic routing decisions.
	SubsystemRouting = "routing"
)

// subsystemStreams pins each subsystem to one Lehmer stream. Adding draws to
// one subsystem never shifts the sequence seen by another.
var subsystemStreams = map[string]int{
	SubsystemArrivals: 0,
	SubsystemService:  1,
	SubsystemRouting:  2,
}

// === PartitionedRNG ===

// PartitionedRNG hands out samplers bound to fixed streams of one StreamRNG.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	seed int64
	rng  *rngs.StreamRNG
}

// NewPartitionedRNG plants all streams from seed, which must lie in [1, m-1].
func NewPartitionedRNG(seed int64) (*PartitionedRNG, error) {
	rng, err := rngs.New(seed)
	if err != nil {
		return nil, fmt.Errorf("seeding streams: %w", err)
	}
	return &PartitionedRNG{seed: seed, rng: rng}, nil
}

// ForSubsystem returns a sampler for the named subsystem.
// Unknown names panic: the set of subsystems is fixed at compile time.
func (p *PartitionedRNG) ForSubsystem(name string) rngs.Sampler {
	id, ok := subsystemStreams[name]
	if !ok {
		panic(fmt.Sprintf("unknown RNG subsystem %q", name))
	}
	return rngs.NewSampler(p.rng, id)
}

// Seed returns the planting seed.
func (p *PartitionedRNG) Seed() int64 { return p.seed }

// MaxReplications is the number of replications whose stream sets fit in one
// StreamRNG without sharing a stream.
var MaxReplications = rngs.Streams / len(subsystemStreams)

// ReplicationSeeds derives n seeds for independent replications from base.
// Every run plants streams 0..k-1 from its seed, one per subsystem, so seed i
// is the state of stream i*k after planting base. Stream j of replication i is
// then stream i*k+j of the base generator and no two replications share one.
func ReplicationSeeds(base int64, n int) ([]int64, error) {
	if n > MaxReplications {
		return nil, fmt.Errorf("at most %d replications, got %d", MaxReplications, n)
	}
	rng, err := rngs.New(base)
	if err != nil {
		return nil, fmt.Errorf("seeding replications: %w", err)
	}
	k := len(subsystemStreams)
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = rng.StreamSeed(i * k)
	}
	return seeds, nil
}
