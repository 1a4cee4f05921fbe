// Package prng provides the seeded pseudo-random source used by the
// simulation engine: uniform, exponential, Poisson, and geometric draws,
// reproducible given a fixed seed and transition topology.
package prng

import (
	"math"
	"math/rand"
	"time"
)

// Source owns a *rand.Rand instance. State is owned by the simulator
// instance that constructs it; it must not be shared across goroutines.
type Source struct {
	rng *rand.Rand
}

// New returns a Source seeded with seed. A nil seed seeds from a
// high-resolution clock reading.
func New(seed *int64) *Source {
	var s int64
	if seed != nil {
		s = *seed
	} else {
		s = time.Now().UnixNano()
	}
	return &Source{rng: rand.New(rand.NewSource(s))}
}

// Uniform draws from Uniform(0,1).
func (s *Source) Uniform() float64 {
	return s.rng.Float64()
}

// UniformRange draws from Uniform(lo, hi).
func (s *Source) UniformRange(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}

// Exponential draws from an exponential distribution with the given mean
// (i.e. rate = 1/mean). mean <= 0 is a degenerate case and returns +Inf,
// matching a zero-hazard wait time that never fires.
func (s *Source) Exponential(mean float64) float64 {
	if mean <= 0 {
		return math.Inf(1)
	}
	return s.rng.ExpFloat64() * mean
}

// Poisson draws from Poisson(mu). mu <= 0 always returns 0.
//
// For small mu this uses Knuth's direct multiplication algorithm; for large
// mu (>= 30) it switches to Atkinson's rejection method with a logistic
// proposal, which avoids the O(mu) cost of the direct method.
func (s *Source) Poisson(mu float64) int64 {
	if mu <= 0 {
		return 0
	}
	if mu < 30 {
		return s.poissonKnuth(mu)
	}
	return s.poissonLargeMu(mu)
}

func (s *Source) poissonKnuth(mu float64) int64 {
	l := math.Exp(-mu)
	k := int64(0)
	p := 1.0
	for {
		k++
		p *= s.rng.Float64()
		if p <= l {
			return k - 1
		}
	}
}

// poissonLargeMu uses rejection sampling from a logistic proposal
// dominating the Poisson mass (Atkinson's method PA), avoiding the O(mu)
// loop count of Knuth's method for large mu.
func (s *Source) poissonLargeMu(mu float64) int64 {
	c := 0.767 - 3.36/mu
	beta := math.Pi / math.Sqrt(3*mu)
	alpha := beta * mu
	k := math.Log(c) - mu - math.Log(beta)

	for {
		u := s.rng.Float64()
		x := (alpha - math.Log((1-u)/u)) / beta
		n := math.Floor(x + 0.5)
		if n < 0 {
			continue
		}
		v := s.rng.Float64()
		y := alpha - beta*x
		lhs := y + math.Log(v/math.Pow(1+math.Exp(y), 2))
		rhs := k + n*math.Log(mu) - logFactorial(n)
		if lhs <= rhs {
			return int64(n)
		}
	}
}

func logFactorial(n float64) float64 {
	// lgamma(n+1) == log(n!)
	v, _ := math.Lgamma(n + 1)
	return v
}

// Geometric draws the number of failures before the first success, for
// success probability p in (0,1], via inversion sampling.
func (s *Source) Geometric(p float64) int64 {
	if p <= 0 {
		return math.MaxInt64
	}
	if p >= 1 {
		return 0
	}
	u := s.rng.Float64()
	return int64(math.Floor(math.Log(1-u) / math.Log(1-p)))
}
