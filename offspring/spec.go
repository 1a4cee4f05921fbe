package offspring

import "fmt"

// WireSpec is the wire/config representation of a Spec, decoded from YAML
// by internal/config and compiled into a concrete Spec by Compile.
type WireSpec struct {
	// Kind is "fixed" or "random".
	Kind string `mapstructure:"kind" yaml:"kind"`

	// Fixed delta vector, used when Kind == "fixed".
	Delta []int64 `mapstructure:"delta" yaml:"delta"`

	// Random fields, used when Kind == "random".
	Mask         []bool    `mapstructure:"mask" yaml:"mask"`
	Distribution string    `mapstructure:"distribution" yaml:"distribution"`
	Params       []float64 `mapstructure:"params" yaml:"params"`
}

// Compile turns a WireSpec into a concrete Spec.
func Compile(w WireSpec) (Spec, error) {
	switch w.Kind {
	case "fixed":
		return NewFixed(w.Delta), nil
	case "random":
		dist, err := ParseDistribution(w.Distribution)
		if err != nil {
			return Spec{}, err
		}
		return NewRandom(w.Mask, dist, w.Params), nil
	default:
		return Spec{}, fmt.Errorf("offspring: unknown kind %q", w.Kind)
	}
}
