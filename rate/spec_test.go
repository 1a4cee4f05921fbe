package rate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileConstant(t *testing.T) {
	r, release, err := Compile(Spec{Type: "constant", Params: []float64{3}})
	require.NoError(t, err)
	require.NoError(t, release())
	assert.Equal(t, 3.0, r.Eval(0))
	assert.Equal(t, KindConstant, r.Kind())
}

func TestCompileLinearWrongParamCount(t *testing.T) {
	_, _, err := Compile(Spec{Type: "linear", Params: []float64{1}})
	assert.Error(t, err)
}

func TestCompileSwitch(t *testing.T) {
	r, _, err := Compile(Spec{Type: "switch", Params: []float64{1, 5, 10}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.Eval(0))
	assert.Equal(t, 5.0, r.Eval(10))
}

func TestCompilePulse(t *testing.T) {
	r, _, err := Compile(Spec{Type: "pulse", Params: []float64{10, 4, 0, 9}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Eval(0))
	assert.Equal(t, 9.0, r.Eval(5))
}

func TestCompileCustomRequiresPathAndSymbol(t *testing.T) {
	_, _, err := Compile(Spec{Type: "custom"})
	assert.Error(t, err)
}

func TestCompileUnknownType(t *testing.T) {
	_, _, err := Compile(Spec{Type: "bogus"})
	assert.Error(t, err)
}
