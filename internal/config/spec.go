// Package config loads a System specification from a YAML file: viper
// reads the raw document, then the decoded map is re-marshalled through
// gopkg.in/yaml.v3 into concrete Go structs, which this package then
// compiles into the engine's runtime types.
package config

import (
	"gmbp/offspring"
	"gmbp/rate"
	"gmbp/stopping"
)

// TransitionSpec is the wire representation of one system.Transition.
type TransitionSpec struct {
	From   int                `mapstructure:"from" yaml:"from"`
	Rate   rate.Spec          `mapstructure:"rate" yaml:"rate"`
	Update offspring.WireSpec `mapstructure:"update" yaml:"update"`
}

// SystemSpec is the wire representation of an entire System plus the run
// parameters the simulation entry point needs. The yaml tags are lower-case
// because viper lower-cases every key before Load re-marshals the document;
// the file itself may spell keys in any case (e.g. initialState).
type SystemSpec struct {
	// InitialState is s_0.
	InitialState []int64 `mapstructure:"initialState" yaml:"initialstate"`

	Transitions []TransitionSpec `mapstructure:"transitions" yaml:"transitions"`
	Stops       []stopping.Spec  `mapstructure:"stops" yaml:"stops"`

	// Grid is the explicit observation grid; GridSize implies tau_k = k
	// when Grid is empty.
	Grid     []float64 `mapstructure:"grid" yaml:"grid"`
	GridSize int       `mapstructure:"gridSize" yaml:"gridsize"`

	SinkPath string `mapstructure:"sinkPath" yaml:"sinkpath"`
	Silent   bool   `mapstructure:"silent" yaml:"silent"`
	Seed     *int64 `mapstructure:"seed" yaml:"seed"`

	NBins  int     `mapstructure:"nBins" yaml:"nbins"`
	Margin float64 `mapstructure:"margin" yaml:"margin"`

	Replicates int `mapstructure:"replicates" yaml:"replicates"`
	Workers    int `mapstructure:"workers" yaml:"workers"`
}
