package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"gmbp/engine"
	"gmbp/offspring"
	"gmbp/rate"
	"gmbp/stopping"
	"gmbp/system"
)

// Load reads a System specification from path via a two-step
// read-then-remarshal: viper tolerates a config file embedded under an
// arbitrary top-level key or fragment, and re-marshalling the decoded map
// through yaml.v3 gives a strict, tag-driven unmarshal into SystemSpec.
func Load(path string) (SystemSpec, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return SystemSpec{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	raw := map[string]interface{}{}
	if err := vp.Unmarshal(&raw); err != nil {
		return SystemSpec{}, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	buf, err := yaml.Marshal(raw)
	if err != nil {
		return SystemSpec{}, fmt.Errorf("config: re-marshalling %s: %w", path, err)
	}

	spec := SystemSpec{}
	if err := yaml.Unmarshal(buf, &spec); err != nil {
		return SystemSpec{}, fmt.Errorf("config: unmarshalling %s: %w", path, err)
	}
	return spec, nil
}

// Compile turns a SystemSpec into an engine.Config ready for engine.Simulate.
// Every Compile'd rate.Rate that owns a resource (a loaded custom-rate
// plugin) contributes its release func to the corresponding
// system.Transition, so system.System.Close releases it along with
// everything else System owns.
func Compile(spec SystemSpec) (engine.Config, error) {
	transitions := make([]system.Transition, 0, len(spec.Transitions))
	for i, ts := range spec.Transitions {
		r, release, err := rate.Compile(ts.Rate)
		if err != nil {
			return engine.Config{}, fmt.Errorf("config: transition %d: %w", i, err)
		}
		upd, err := offspring.Compile(ts.Update)
		if err != nil {
			return engine.Config{}, fmt.Errorf("config: transition %d: %w", i, err)
		}
		transitions = append(transitions, system.NewTransitionWithRelease(ts.From, r, upd, release))
	}

	stops := make([]stopping.Criterion, 0, len(spec.Stops))
	for i, ss := range spec.Stops {
		c, err := stopping.Compile(ss)
		if err != nil {
			return engine.Config{}, fmt.Errorf("config: stop %d: %w", i, err)
		}
		stops = append(stops, c)
	}

	return engine.Config{
		Initial:     system.State(spec.InitialState),
		Transitions: transitions,
		Stops:       stops,
		Grid:        spec.Grid,
		GridSize:    spec.GridSize,
		SinkPath:    spec.SinkPath,
		Silent:      spec.Silent,
		Seed:        spec.Seed,
		NBins:       spec.NBins,
		Margin:      spec.Margin,
	}, nil
}

// NewSystem builds a fresh, unfrozen *system.System from spec. Unlike
// Compile, which builds a single reusable engine.Config, this is meant to
// be called once per replicate (see engine.Factory): a custom rate's
// loaded plugin handle must not be shared across concurrently running
// replicates, so each replicate compiles its own transitions and owns its
// own release funcs via system.System.Close.
func NewSystem(spec SystemSpec) (*system.System, error) {
	sys := system.New(system.State(spec.InitialState))
	for i, ts := range spec.Transitions {
		r, release, err := rate.Compile(ts.Rate)
		if err != nil {
			return nil, fmt.Errorf("config: transition %d: %w", i, err)
		}
		upd, err := offspring.Compile(ts.Update)
		if err != nil {
			return nil, fmt.Errorf("config: transition %d: %w", i, err)
		}
		sys.AddTransition(system.NewTransitionWithRelease(ts.From, r, upd, release))
	}
	for i, ss := range spec.Stops {
		c, err := stopping.Compile(ss)
		if err != nil {
			return nil, fmt.Errorf("config: stop %d: %w", i, err)
		}
		sys.AddStop(c)
	}
	return sys, nil
}
