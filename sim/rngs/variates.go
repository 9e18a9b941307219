package rngs

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// Exponential maps a uniform draw u in (0,1) to an exponential variate with
// the given mean by inverting its CDF.
func Exponential(mean, u float64) float64 {
	return distuv.Exponential{Rate: 1 / mean}.Quantile(u)
}

// UniformRange maps a uniform draw u in (0,1) onto (a,b).
func UniformRange(a, b, u float64) float64 {
	return distuv.Uniform{Min: a, Max: b}.Quantile(u)
}

// Sampler binds a StreamRNG stream to variate generation.
type Sampler struct {
	rng    *StreamRNG
	stream int
}

// NewSampler returns a sampler drawing from stream id of rng.
func NewSampler(rng *StreamRNG, id int) Sampler {
	return Sampler{rng: rng, stream: index(id)}
}

// Uniform draws one uniform from the bound stream.
func (s Sampler) Uniform() float64 {
	return s.rng.Uniform(s.stream)
}

// Exponential draws one exponential variate with the given mean.
func (s Sampler) Exponential(mean float64) float64 {
	return Exponential(mean, s.Uniform())
}

// Stream returns the bound stream index.
func (s Sampler) Stream() int {
	return s.stream
}
