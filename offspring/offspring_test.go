package offspring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmbp/prng"
)

func TestParseDistribution(t *testing.T) {
	d, err := ParseDistribution("poisson")
	require.NoError(t, err)
	assert.Equal(t, Poisson, d)

	d, err = ParseDistribution("geometric")
	require.NoError(t, err)
	assert.Equal(t, Geometric, d)

	_, err = ParseDistribution("bogus")
	assert.Error(t, err)
}

func TestFixedSpecDrawReturnsDelta(t *testing.T) {
	spec := NewFixed([]int64{1, -1, 0})
	require.NoError(t, Validate(spec, 3))
	assert.False(t, spec.IsRandom())

	delta := Draw(spec, 3, prng.New(nil))
	assert.Equal(t, []int64{1, -1, 0}, delta)
}

func TestFixedSpecValidateRejectsWrongLength(t *testing.T) {
	spec := NewFixed([]int64{1, -1})
	err := Validate(spec, 3)
	assert.Error(t, err)
}

func TestRandomSpecValidateRejectsWrongMaskLength(t *testing.T) {
	spec := NewRandom([]bool{true}, Poisson, []float64{2.0})
	err := Validate(spec, 3)
	assert.Error(t, err)
}

func TestRandomSpecDrawOnlyTouchesMaskedComponents(t *testing.T) {
	spec := NewRandom([]bool{true, false, true}, Poisson, []float64{5.0})
	require.NoError(t, Validate(spec, 3))
	assert.True(t, spec.IsRandom())

	seed := int64(11)
	src := prng.New(&seed)
	delta := Draw(spec, 3, src)
	assert.Len(t, delta, 3)
	assert.Equal(t, int64(0), delta[1])
}

func TestRandomSpecGeometricDraw(t *testing.T) {
	spec := NewRandom([]bool{true}, Geometric, []float64{0.5})
	seed := int64(2)
	src := prng.New(&seed)
	delta := Draw(spec, 1, src)
	assert.GreaterOrEqual(t, delta[0], int64(0))
}
