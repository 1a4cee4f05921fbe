package engine

import (
	"context"
	"fmt"

	"gmbp/prng"
	"gmbp/sink"
	"gmbp/stopping"
	"gmbp/system"
)

// Config is the host-callable simulation entry point's input: initial
// state, transitions, stopping criteria, an observation grid (or an
// integer M implying tau_k = k), an output sink path, a silent flag, and an
// optional PRNG seed.
type Config struct {
	Initial     system.State
	Transitions []system.Transition
	Stops       []stopping.Criterion

	// Grid is the explicit observation grid; if nil, GridSize is used to
	// build a uniform grid 0,1,...,GridSize.
	Grid     []float64
	GridSize int

	SinkPath string
	Silent   bool
	Seed     *int64

	// NBins/Margin parameterize the envelope builder for inhomogeneous
	// systems; zero selects DefaultNBins and a margin of 0.01.
	NBins  int
	Margin float64

	Replicate int64
}

// DefaultNBins is a reasonable envelope bin count when the caller does not
// specify one.
const DefaultNBins = 100

// UniformGrid builds the grid 0,1,...,m implied by an integer M.
func UniformGrid(m int) []float64 {
	grid := make([]float64, m+1)
	for i := range grid {
		grid[i] = float64(i)
	}
	return grid
}

// resolvedGrid returns cfg.Grid if non-empty, else the uniform grid implied
// by cfg.GridSize.
func (cfg Config) resolvedGrid() ([]float64, error) {
	if len(cfg.Grid) > 0 {
		for i := 1; i < len(cfg.Grid); i++ {
			if cfg.Grid[i] <= cfg.Grid[i-1] {
				return nil, fmt.Errorf("%w: observation grid is not strictly increasing at index %d", ErrInvalidConfig, i)
			}
		}
		return cfg.Grid, nil
	}
	if cfg.GridSize <= 0 {
		return nil, fmt.Errorf("%w: empty observation grid and GridSize <= 0", ErrInvalidConfig)
	}
	return UniformGrid(cfg.GridSize), nil
}

// Simulate is the host-callable simulation entry point: given a fully
// populated Config, it builds the System, opens the sink, runs one
// replicate to completion or termination, and returns the termination
// reason. Every acquired resource (sink, custom-rate plugin handles) is
// released on every exit path, including error and cancellation.
func Simulate(ctx context.Context, cfg Config) (Reason, error) {
	grid, err := cfg.resolvedGrid()
	if err != nil {
		return 0, err
	}

	sys := system.New(cfg.Initial)
	for _, t := range cfg.Transitions {
		sys.AddTransition(t)
	}
	for _, c := range cfg.Stops {
		sys.AddStop(c)
	}
	if err := sys.Freeze(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	defer func() { _ = sys.Close() }()

	snk, err := sink.OpenFile(cfg.SinkPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = snk.Close() }()

	nBins := cfg.NBins
	if nBins <= 0 {
		nBins = DefaultNBins
	}
	margin := cfg.Margin
	if margin <= 0 {
		margin = 0.01
	}

	src := prng.New(cfg.Seed)
	sim := NewSimulator(sys, src, snk, cfg.Replicate, cfg.Silent)
	return sim.Simulate(ctx, grid, nBins, margin)
}
