// Package offspring implements the update/offspring specifications applied
// when a transition fires: either a fixed integer delta vector, or a
// parent-slot-wise random draw from a named distribution.
package offspring

import (
	"fmt"

	"gmbp/prng"
)

// Distribution names a random offspring distribution.
type Distribution int

const (
	Poisson Distribution = iota
	Geometric
)

func ParseDistribution(s string) (Distribution, error) {
	switch s {
	case "poisson":
		return Poisson, nil
	case "geometric":
		return Geometric, nil
	default:
		return 0, fmt.Errorf("offspring: unknown distribution %q", s)
	}
}

// Spec is a tagged union: either a Fixed delta vector, or a Random
// per-component draw. Exactly one of the two is meaningful, selected by
// IsRandom (set by NewRandom).
type Spec struct {
	// Fixed is a fixed integer delta vector of length K. Nil if this is a
	// Random spec.
	Fixed []int64

	// Mask, Dist, and Params describe a random offspring draw; Mask[j]
	// selects whether component j receives a draw (true) or stays 0
	// (false). Only meaningful when this Spec represents a random update
	// (i.e. IsRandom reports true).
	Mask   []bool
	Dist   Distribution
	Params []float64
	random bool
}

// NewFixed constructs a fixed-delta update spec.
func NewFixed(delta []int64) Spec {
	return Spec{Fixed: delta}
}

// NewRandom constructs a random-offspring update spec.
func NewRandom(mask []bool, dist Distribution, params []float64) Spec {
	return Spec{Mask: mask, Dist: dist, Params: params, random: true}
}

// IsRandom reports whether spec describes a random offspring draw.
func (s Spec) IsRandom() bool { return s.random }

// Validate checks that spec is dimensionally consistent with a system of k
// population types.
func Validate(s Spec, k int) error {
	if s.IsRandom() {
		if len(s.Mask) != k {
			return fmt.Errorf("offspring: random mask has length %d, want %d", len(s.Mask), k)
		}
		return nil
	}
	if len(s.Fixed) != k {
		return fmt.Errorf("offspring: fixed delta has length %d, want %d", len(s.Fixed), k)
	}
	return nil
}

// Draw produces the integer delta vector of length k for a firing
// transition whose parent type is from. Draws for distinct masked
// components are independent. The caller is responsible for subsequently
// decrementing delta[from] to model the firing parent's departure from its
// own type.
func Draw(s Spec, k int, src *prng.Source) []int64 {
	delta := make([]int64, k)
	if !s.IsRandom() {
		copy(delta, s.Fixed)
		return delta
	}

	var param float64
	if len(s.Params) > 0 {
		param = s.Params[0]
	}

	for j, on := range s.Mask {
		if !on {
			continue
		}
		switch s.Dist {
		case Poisson:
			delta[j] = src.Poisson(param)
		case Geometric:
			delta[j] = src.Geometric(param)
		}
	}
	return delta
}
