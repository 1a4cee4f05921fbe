package stopping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComparator(t *testing.T) {
	cases := map[string]Comparator{
		"<": LT, "<=": LE, ">": GT, ">=": GE, "==": EQ, "!=": NE,
	}
	for s, want := range cases {
		got, err := ParseComparator(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseComparator("~=")
	assert.Error(t, err)
}

func TestCheckSumsIndexedComponents(t *testing.T) {
	state := []int64{10, 20, 30}

	c := Criterion{Indices: []int{0, 2}, Comparator: GE, Value: 40}
	assert.True(t, Check(c, state))

	c = Criterion{Indices: []int{0, 2}, Comparator: GT, Value: 40}
	assert.False(t, Check(c, state))
}

func TestCheckSingleIndexEquality(t *testing.T) {
	state := []int64{0, 5, 0}
	c := Criterion{Indices: []int{1}, Comparator: EQ, Value: 5}
	assert.True(t, Check(c, state))

	c = Criterion{Indices: []int{1}, Comparator: NE, Value: 5}
	assert.False(t, Check(c, state))
}

func TestCompile(t *testing.T) {
	spec := Spec{Indices: []int{0}, Comparator: ">=", Value: 100}
	c, err := Compile(spec)
	require.NoError(t, err)
	assert.Equal(t, GE, c.Comparator)
	assert.Equal(t, 100.0, c.Value)

	_, err = Compile(Spec{Comparator: "bogus"})
	assert.Error(t, err)
}
