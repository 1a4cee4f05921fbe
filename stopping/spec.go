package stopping

// Spec is the wire/config representation of a Criterion, decoded from YAML
// by internal/config.
type Spec struct {
	Indices    []int   `mapstructure:"indices" yaml:"indices"`
	Comparator string  `mapstructure:"comparator" yaml:"comparator"`
	Value      float64 `mapstructure:"value" yaml:"value"`
}

// Compile turns a Spec into a concrete Criterion.
func Compile(spec Spec) (Criterion, error) {
	cmp, err := ParseComparator(spec.Comparator)
	if err != nil {
		return Criterion{}, err
	}
	return Criterion{Indices: spec.Indices, Comparator: cmp, Value: spec.Value}, nil
}
