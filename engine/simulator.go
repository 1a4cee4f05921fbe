// Package engine implements the event-driven scheduler: the homogeneous
// Gillespie loop, the inhomogeneous Ogata-thinning loop, and the
// cross-replicate fan-out built on top of them.
package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gmbp/envelope"
	"gmbp/offspring"
	"gmbp/prng"
	"gmbp/sink"
	"gmbp/system"
)

// Simulator advances a single replicate's state in strict sequential order,
// recording observations to Sink and logging via the global zerolog
// logger. One Simulator must be used by exactly one goroutine at a time:
// it owns its own System, PRNG source, and sink.
type Simulator struct {
	Sys        *system.System
	Src        *prng.Source
	Sink       sink.Sink
	Replicate  int64
	Silent     bool

	// Envelope state, lazily built by BuildEnvelopes before the first call
	// to RunInhomogeneous. Read-only for the duration of the run once built.
	nBins     int
	margin    float64
	totalTime float64
	envelopes [][]float64 // per-transition envelope table
}

// NewSimulator constructs a Simulator bound to a single replicate number.
// sys must already be frozen (system.System.Freeze).
func NewSimulator(sys *system.System, src *prng.Source, snk sink.Sink, replicate int64, silent bool) *Simulator {
	return &Simulator{Sys: sys, Src: src, Sink: snk, Replicate: replicate, Silent: silent}
}

// BuildEnvelopes computes the per-transition envelope tables over
// [0, totalTime] split into nBins bins with the given safety margin. It
// must be called once, before RunInhomogeneous; envelope tables depend only
// on totalTime and the rate functions, never on state, so Simulate skips
// rebuilding them when called again with the same parameters.
func (s *Simulator) BuildEnvelopes(totalTime float64, nBins int, margin float64) {
	s.totalTime = totalTime
	s.nBins = nBins
	s.margin = margin
	s.envelopes = make([][]float64, len(s.Sys.Transitions))
	for i, t := range s.Sys.Transitions {
		s.envelopes[i] = envelope.Build(t.Rate, totalTime, nBins, margin)
	}
}

// Simulate dispatches to the homogeneous or inhomogeneous loop depending on
// whether every transition rate is time-independent. For the inhomogeneous
// case it builds envelopes using nBins/margin if they have not already been
// built for this totalTime, nBins and margin.
func (s *Simulator) Simulate(ctx context.Context, grid []float64, nBins int, margin float64) (Reason, error) {
	if len(grid) == 0 {
		return 0, fmt.Errorf("%w: empty observation grid", ErrInvalidConfig)
	}
	if s.Sys.Homogeneous() {
		return s.RunHomogeneous(ctx, grid)
	}
	totalTime := grid[len(grid)-1]
	if s.envelopes == nil || s.totalTime != totalTime || s.nBins != nBins || s.margin != margin {
		s.BuildEnvelopes(totalTime, nBins, margin)
	}
	return s.RunInhomogeneous(ctx, grid)
}

// logger returns a disabled logger when Silent, else the global logger.
func (s *Simulator) logger() *zerolog.Logger {
	if s.Silent {
		nop := zerolog.Nop()
		return &nop
	}
	return &log.Logger
}

// flush emits one observation row per grid point in [obsIdx, ...) whose
// time has been crossed by curTime, advancing obsIdx past them. It returns
// the updated obsIdx and whether the grid has been exhausted.
func flush(snk sink.Sink, rep int64, grid []float64, obsIdx int, curTime float64, state system.State) (int, bool, error) {
	for obsIdx < len(grid) && curTime > grid[obsIdx] {
		if err := snk.WriteRow(sink.Row{Replicate: rep, Time: grid[obsIdx], State: state}); err != nil {
			return obsIdx, false, err
		}
		obsIdx++
		if obsIdx >= len(grid) {
			return obsIdx, true, nil
		}
	}
	return obsIdx, false, nil
}

// applyFiring draws (if random) the offspring delta for transition i,
// subtracts the firing parent (its departure from its own type), and
// applies the result to state.
func applyFiring(sys *system.System, i int, src *prng.Source, state system.State) {
	tr := sys.Transitions[i]
	delta := offspring.Draw(tr.Update, len(state), src)
	delta[tr.From]--
	system.Apply(state, delta)
}

// choose picks an index proportional to weights, by linear scan over
// cumulative weights against a uniform draw in [0, total). total must
// equal the sum of weights and be > 0.
func choose(weights []float64, total float64, src *prng.Source) int {
	u := src.UniformRange(0, total)
	cum := 0.0
	for i, w := range weights {
		cum += w
		if u < cum {
			return i
		}
	}
	return len(weights) - 1
}

// RunHomogeneous implements the Gillespie SSA loop for systems whose
// transition rates are all constant: draw the holding time from
// Exponential(H), choose the firing transition by cumulative hazard weight,
// apply its offspring update, and repeat until the grid, a stopping
// criterion, or extinction ends the replicate.
func (s *Simulator) RunHomogeneous(ctx context.Context, grid []float64) (Reason, error) {
	sys := s.Sys
	state := sys.State
	curTime := 0.0
	obsIdx := 0
	hazards := make([]float64, len(sys.Transitions))
	totalTime := grid[len(grid)-1]

	for curTime <= totalTime {
		select {
		case <-ctx.Done():
			if err := s.Sink.WriteRow(sink.Row{Replicate: s.Replicate, Time: curTime, State: state}); err != nil {
				return ReasonCancelled, err
			}
			return ReasonCancelled, ErrCancelled
		default:
		}

		hazards = sys.Hazards(curTime, hazards)
		total := system.Total(hazards)

		if total == 0 {
			if err := s.Sink.WriteRow(sink.Row{Replicate: s.Replicate, Time: curTime, State: state}); err != nil {
				return ReasonExtinct, err
			}
			s.logger().Debug().Int64("replicate", s.Replicate).Msg("zero hazard, extinct")
			return ReasonExtinct, nil
		}

		dt := s.Src.Exponential(1 / total)

		var done bool
		var err error
		obsIdx, done, err = flush(s.Sink, s.Replicate, grid, obsIdx, curTime+dt, state)
		if err != nil {
			return 0, err
		}
		if done {
			return ReasonGridComplete, nil
		}

		idx := choose(hazards, total, s.Src)
		applyFiring(sys, idx, s.Src, state)
		curTime += dt

		if sys.AnyStopped(state) {
			if err := s.Sink.WriteRow(sink.Row{Replicate: s.Replicate, Time: curTime, State: state}); err != nil {
				return ReasonStopped, err
			}
			s.logger().Debug().Int64("replicate", s.Replicate).Msg("stopping criterion met")
			return ReasonStopped, nil
		}

		if state.Extinct() {
			if err := s.Sink.WriteRow(sink.Row{Replicate: s.Replicate, Time: curTime, State: state}); err != nil {
				return ReasonExtinct, err
			}
			return ReasonExtinct, nil
		}
	}

	return ReasonGridComplete, nil
}
