package offspring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFixed(t *testing.T) {
	spec, err := Compile(WireSpec{Kind: "fixed", Delta: []int64{-1, 1}})
	require.NoError(t, err)
	assert.False(t, spec.IsRandom())
	assert.Equal(t, []int64{-1, 1}, spec.Fixed)
}

func TestCompileRandom(t *testing.T) {
	spec, err := Compile(WireSpec{
		Kind:         "random",
		Mask:         []bool{true, false},
		Distribution: "poisson",
		Params:       []float64{2.0},
	})
	require.NoError(t, err)
	assert.True(t, spec.IsRandom())
	assert.Equal(t, Poisson, spec.Dist)
}

func TestCompileRandomUnknownDistribution(t *testing.T) {
	_, err := Compile(WireSpec{Kind: "random", Distribution: "bogus"})
	assert.Error(t, err)
}

func TestCompileUnknownKind(t *testing.T) {
	_, err := Compile(WireSpec{Kind: "bogus"})
	assert.Error(t, err)
}
