// Package rngs provides a multi-stream Lehmer (Park–Miller) generator and
// inverse-CDF variate helpers built on top of it.
//
// The generator keeps 256 independent 31-bit states. Plant derives all of them
// from a single seed using the jump multiplier a^8367782 mod m, so the streams
// never overlap within one run.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
package rngs

import (
	"errors"
	"fmt"
)

const (
	// Modulus is the Mersenne prime 2^31 - 1.
	Modulus int64 = 2147483647
	// Multiplier is the full-period Lehmer multiplier.
	Multiplier int64 = 48271
	// Check is the state of a stream seeded with 1 after 10000 draws.
	Check int64 = 399268537
	// Streams is the number of independent streams.
	Streams = 256
	// A256 is the jump multiplier separating consecutive planted streams.
	A256 int64 = 22925
	// DefaultSeed plants all streams when no seed is given.
	DefaultSeed int64 = 123456789
)

// ErrSeedOutOfRange is returned for seeds outside [1, Modulus-1].
var ErrSeedOutOfRange = errors.New("seed out of range")

// StreamRNG is a 256-stream Lehmer generator.
type StreamRNG struct {
	seeds  [Streams]int64
	stream int
}

// New returns a generator planted from seed.
func New(seed int64) (*StreamRNG, error) {
	r := &StreamRNG{}
	if err := r.Plant(seed); err != nil {
		return nil, err
	}
	return r, nil
}

// MustNew is New for seeds known to be valid; it panics otherwise.
func MustNew(seed int64) *StreamRNG {
	r, err := New(seed)
	if err != nil {
		panic(err)
	}
	return r
}

func validSeed(seed int64) error {
	if seed <= 0 || seed >= Modulus {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrSeedOutOfRange, seed, Modulus-1)
	}
	return nil
}

// step advances s by multiplier a using Schrage's factoring, which keeps every
// intermediate product inside 32-bit signed range.
func step(s, a int64) int64 {
	q := Modulus / a
	r := Modulus % a
	t := a*(s%q) - r*(s/q)
	if t > 0 {
		return t
	}
	return t + Modulus
}

// Plant seeds stream 0 with seed and derives streams 1..255 by repeated
// application of A256. The selected stream is left unchanged.
func (r *StreamRNG) Plant(seed int64) error {
	if err := validSeed(seed); err != nil {
		return err
	}
	r.seeds[0] = seed
	for j := 1; j < Streams; j++ {
		r.seeds[j] = step(r.seeds[j-1], A256)
	}
	return nil
}

// PutSeed sets the state of the selected stream only.
func (r *StreamRNG) PutSeed(seed int64) error {
	if err := validSeed(seed); err != nil {
		return err
	}
	r.seeds[r.stream] = seed
	return nil
}

// Seed returns the state of the selected stream.
func (r *StreamRNG) Seed() int64 {
	return r.seeds[r.stream]
}

// StreamSeed returns the state of stream id without selecting it.
func (r *StreamRNG) StreamSeed(id int) int64 {
	return r.seeds[index(id)]
}

// Select makes id (mod 256) the active stream. No state changes.
func (r *StreamRNG) Select(id int) {
	r.stream = index(id)
}

// Stream returns the active stream index.
func (r *StreamRNG) Stream() int {
	return r.stream
}

// Random draws from the active stream.
func (r *StreamRNG) Random() float64 {
	return r.Uniform(r.stream)
}

// Uniform draws a value in (0,1) from stream id, advancing only that stream.
func (r *StreamRNG) Uniform(id int) float64 {
	i := index(id)
	r.seeds[i] = step(r.seeds[i], Multiplier)
	return float64(r.seeds[i]) / float64(Modulus)
}

func index(id int) int {
	i := id % Streams
	if i < 0 {
		i += Streams
	}
	return i
}

// SelfTest runs the canonical arithmetic check on a scratch generator:
// stream 0 seeded with 1 must reach Check after 10000 draws, and stream 1
// planted from 1 must equal A256.
func SelfTest() error {
	r := &StreamRNG{}
	r.Select(0)
	if err := r.PutSeed(1); err != nil {
		return err
	}
	for i := 0; i < 10000; i++ {
		r.Random()
	}
	if got := r.Seed(); got != Check {
		return fmt.Errorf("stream 0 after 10000 draws = %d, want %d", got, Check)
	}
	r.Select(1)
	if err := r.Plant(1); err != nil {
		return err
	}
	if got := r.Seed(); got != A256 {
		return fmt.Errorf("stream 1 after planting 1 = %d, want %d", got, A256)
	}
	return nil
}
