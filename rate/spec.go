package rate

import "fmt"

// Spec is the wire/config representation of a Rate, decoded from YAML by
// internal/config and compiled into a concrete Rate by Compile.
type Spec struct {
	Type   string    `mapstructure:"type" yaml:"type"`
	Params []float64 `mapstructure:"params" yaml:"params"`
	// Path and Symbol are only consulted when Type == "custom".
	Path   string `mapstructure:"path" yaml:"path"`
	Symbol string `mapstructure:"symbol" yaml:"symbol"`
}

// Compile turns a Spec into a concrete Rate. For Type == "custom" it loads
// the plugin and returns a release func the caller must invoke on every
// exit path; for the built-in variants release is a no-op.
func Compile(spec Spec) (r Rate, release func() error, err error) {
	noop := func() error { return nil }

	switch spec.Type {
	case "constant":
		if len(spec.Params) != 1 {
			return nil, nil, fmt.Errorf("rate: constant expects 1 param, got %d", len(spec.Params))
		}
		return Constant{Value: spec.Params[0]}, noop, nil

	case "linear":
		if len(spec.Params) != 2 {
			return nil, nil, fmt.Errorf("rate: linear expects 2 params [intercept, slope], got %d", len(spec.Params))
		}
		return Linear{Intercept: spec.Params[0], Slope: spec.Params[1]}, noop, nil

	case "switch":
		if len(spec.Params) != 3 {
			return nil, nil, fmt.Errorf("rate: switch expects 3 params [pre, post, t_s], got %d", len(spec.Params))
		}
		return Switch{Pre: spec.Params[0], Post: spec.Params[1], TSwitch: spec.Params[2]}, noop, nil

	case "pulse":
		if len(spec.Params) != 4 {
			return nil, nil, fmt.Errorf("rate: pulse expects 4 params [period, low_len, low, high], got %d", len(spec.Params))
		}
		return Pulse{Period: spec.Params[0], LowLen: spec.Params[1], Low: spec.Params[2], High: spec.Params[3]}, noop, nil

	case "custom":
		if spec.Path == "" || spec.Symbol == "" {
			return nil, nil, fmt.Errorf("rate: custom requires path and symbol")
		}
		custom, release, err := LoadCustom(spec.Path, spec.Symbol)
		if err != nil {
			return nil, nil, err
		}
		return custom, release, nil

	default:
		return nil, nil, fmt.Errorf("rate: unknown type %q", spec.Type)
	}
}
