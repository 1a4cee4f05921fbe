package envelope

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"gmbp/rate"
)

func TestBuildConstantRateIsFlatAcrossBins(t *testing.T) {
	r := rate.Constant{Value: 3.0}
	table := Build(r, 10, 5, 0)
	for _, v := range table {
		assert.InDelta(t, 3.0, v, 1e-9)
	}
}

func TestBuildAppliesMargin(t *testing.T) {
	r := rate.Constant{Value: 10.0}
	table := Build(r, 10, 1, 0.05)
	assert.InDelta(t, 10.5, table[0], 1e-9)
}

func TestBuildDominatesLinearRateAcrossBin(t *testing.T) {
	r := rate.Linear{Intercept: 0, Slope: 1}
	totalTime := 10.0
	nBins := 20
	table := Build(r, totalTime, nBins, 0.01)

	// Sample many points per bin and confirm the table entry dominates.
	const samples = 50
	width := totalTime / float64(nBins)
	for b := 0; b < nBins; b++ {
		lo := float64(b) * width
		for i := 0; i < samples; i++ {
			t0 := lo + width*float64(i)/float64(samples)
			assert.LessOrEqual(t, r.Eval(t0), table[b])
		}
	}
}

func TestBuildDominatesPulseRateAcrossBin(t *testing.T) {
	r := rate.Pulse{Period: 3, LowLen: 1, Low: 0, High: 20}
	totalTime := 9.0
	nBins := 9
	table := Build(r, totalTime, nBins, 0.01)

	const samples = 50
	width := totalTime / float64(nBins)
	for b := 0; b < nBins; b++ {
		lo := float64(b) * width
		for i := 0; i < samples; i++ {
			t0 := lo + width*float64(i)/float64(samples)
			assert.LessOrEqual(t, r.Eval(t0), table[b])
		}
	}
}

func TestBuildDegenerateInputsReturnZeroTable(t *testing.T) {
	r := rate.Constant{Value: 5}
	assert.Equal(t, []float64{0, 0, 0}, Build(r, 0, 3, 0))
	assert.Len(t, Build(r, 10, 0, 0), 0)
}

func TestBinClampsToRange(t *testing.T) {
	assert.Equal(t, 0, Bin(-1, 10, 5))
	assert.Equal(t, 0, Bin(0, 10, 5))
	assert.Equal(t, 4, Bin(9.999, 10, 5))
	assert.Equal(t, 4, Bin(10, 10, 5))
	assert.Equal(t, 4, Bin(100, 10, 5))
}

func TestBinZeroBinsReturnsZero(t *testing.T) {
	assert.Equal(t, 0, Bin(5, 10, 0))
}

func TestMaximizeFindsInteriorPeak(t *testing.T) {
	// A custom rate shaped like an inverted parabola peaking at t=5 within
	// the bin [0,10]; the golden-section search must find it without
	// relying on endpoint evaluation.
	r := rate.Custom{Fn: func(t float64) float64 {
		return 100 - math.Pow(t-5, 2)
	}}
	table := Build(r, 10, 1, 0)
	assert.InDelta(t, 100, table[0], 1e-6)
}
