// Package envelope builds a piecewise-constant upper bound of a rate
// function over [0, T], used by the inhomogeneous simulator's Ogata
// thinning loop: Table[b] >= sup_{t in bin b} lambda(t) * (1+margin).
package envelope

import (
	"math"

	"gmbp/rate"
)

// DefaultMargin is the safety factor applied on top of the maximiser's
// estimate.
const DefaultMargin = 0.01

// goldenSectionIters bounds the number of bracket-narrowing iterations the
// maximiser performs per bin; the bracket shrinks by a factor of ~0.618
// per iteration, so 40 iterations narrow it to about 4e-9 of the bin width
// (the loop also stops once the bracket is narrower than 1e-12).
const goldenSectionIters = 40

const invPhi = 0.6180339887498949 // (sqrt(5)-1)/2

// Build computes the per-bin envelope for r over [0, totalTime], split into
// nBins equal intervals, with the given safety margin. Constant and Switch
// rates bypass the numerical maximiser (closed-form envelopes); all other
// variants use a bracketed golden-section maximisation over two interior
// probe points, whose best value is then compared with both bin endpoints.
func Build(r rate.Rate, totalTime float64, nBins int, margin float64) []float64 {
	table := make([]float64, nBins)
	if nBins <= 0 || totalTime <= 0 {
		return table
	}
	width := totalTime / float64(nBins)

	for b := 0; b < nBins; b++ {
		lo := float64(b) * width
		hi := lo + width

		var peak float64
		if r.Bypass() {
			peak = closedFormMax(r, lo, hi)
		} else {
			peak = maximize(r, lo, hi)
		}

		v := peak * (1 + margin)
		if v < 0 || math.IsNaN(v) {
			v = 0
		}
		table[b] = v
	}
	return table
}

// closedFormMax evaluates the rate at both bin endpoints and takes the max;
// valid for Constant (flat) and Switch (monotone step, so its extremum on
// any sub-interval is at an endpoint).
func closedFormMax(r rate.Rate, lo, hi float64) float64 {
	return math.Max(r.Eval(lo), r.Eval(hi))
}

// maximize runs a bounded golden-section search for the maximiser of
// r.Eval over [lo, hi], then returns the max of the maximiser's value and
// both endpoint evaluations, guarding against a search that fails to find
// a sharp interior peak.
func maximize(r rate.Rate, lo, hi float64) float64 {
	a, b := lo, hi
	// Interior seed points, golden-ratio placed within the bracket.
	x1 := b - invPhi*(b-a)
	x2 := a + invPhi*(b-a)
	f1 := r.Eval(x1)
	f2 := r.Eval(x2)

	for i := 0; i < goldenSectionIters && b-a > 1e-12; i++ {
		// Golden-section search for a MAXIMUM: keep the side with the
		// larger function value.
		if f1 < f2 {
			a = x1
			x1 = x2
			f1 = f2
			x2 = a + invPhi*(b-a)
			f2 = r.Eval(x2)
		} else {
			b = x2
			x2 = x1
			f2 = f1
			x1 = b - invPhi*(b-a)
			f1 = r.Eval(x1)
		}
	}

	interior := math.Max(f1, f2)
	return math.Max(interior, math.Max(r.Eval(lo), r.Eval(hi)))
}

// Bin returns the bin index for time t within [0, totalTime) split into
// nBins equal intervals, clamped to the last bin for t >= totalTime (the
// envelope is only ever consulted for t within the simulation horizon).
func Bin(t, totalTime float64, nBins int) int {
	if nBins <= 0 {
		return 0
	}
	b := int(math.Floor(t / totalTime * float64(nBins)))
	if b < 0 {
		b = 0
	}
	if b >= nBins {
		b = nBins - 1
	}
	return b
}
