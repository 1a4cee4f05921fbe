package engine

import (
	"context"
	"fmt"

	"gmbp/envelope"
	"gmbp/sink"
	"gmbp/system"
)

// RunInhomogeneous implements Ogata thinning over time-dependent rates,
// using the envelope tables built by BuildEnvelopes. Candidate inter-event
// times are proposed from the piecewise-constant envelope hazard, accepted
// with probability true-hazard/envelope-hazard. Bin boundaries crossed while
// accumulating the candidate time are treated as memoryless restarts; the
// accumulated delta is not reused across a bin boundary, consistent with
// the piecewise-constant envelope.
func (s *Simulator) RunInhomogeneous(ctx context.Context, grid []float64) (Reason, error) {
	sys := s.Sys
	state := sys.State
	curTime := 0.0
	obsIdx := 0
	totalTime := grid[len(grid)-1]
	hazards := make([]float64, len(sys.Transitions))
	envHazards := make([]float64, len(sys.Transitions))

	for curTime <= totalTime {
		select {
		case <-ctx.Done():
			if err := s.Sink.WriteRow(sink.Row{Replicate: s.Replicate, Time: curTime, State: state}); err != nil {
				return ReasonCancelled, err
			}
			return ReasonCancelled, ErrCancelled
		default:
		}

		dt, status, err := s.nextCandidateTime(ctx, curTime, totalTime, envHazards, hazards)
		if err != nil {
			return 0, err
		}
		if status == candidateExtinct {
			if err := s.Sink.WriteRow(sink.Row{Replicate: s.Replicate, Time: curTime, State: state}); err != nil {
				return ReasonExtinct, err
			}
			return ReasonExtinct, nil
		}
		if status == candidateCancelled {
			if err := s.Sink.WriteRow(sink.Row{Replicate: s.Replicate, Time: curTime, State: state}); err != nil {
				return ReasonCancelled, err
			}
			return ReasonCancelled, ErrCancelled
		}

		var done bool
		obsIdx, done, err = flush(s.Sink, s.Replicate, grid, obsIdx, curTime+dt, state)
		if err != nil {
			return 0, err
		}
		if done {
			return ReasonGridComplete, nil
		}

		// Event selection: sample proportional to the TRUE hazard at the
		// accepted candidate time (point evaluation, not an integral over
		// the accepted interval).
		acceptTime := curTime + dt
		hazards = sys.Hazards(acceptTime, hazards)
		total := system.Total(hazards)
		if total <= 0 {
			// Degenerate: thinning accepted a candidate whose true hazard
			// collapsed to 0 between proposal and acceptance evaluation.
			// Treat as NumericDegenerate: drop this event, advance time,
			// continue.
			curTime = acceptTime
			continue
		}
		idx := choose(hazards, total, s.Src)
		applyFiring(sys, idx, s.Src, state)
		curTime = acceptTime

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

// candidateStatus reports the outcome of nextCandidateTime's search, kept
// distinct from Reason since "accepted" and "reached the horizon" are both
// ordinary, non-terminal outcomes from the search's point of view.
type candidateStatus int

const (
	candidateAccepted candidateStatus = iota
	candidateExtinct
	candidateCancelled
)

// nextCandidateTime repeatedly draws a candidate inter-event time from the
// piecewise-constant envelope hazard, re-reading the envelope bin as the
// accumulated candidate time crosses bin boundaries, and accepts it against
// the true hazard with probability H/H-bar. Returns the accepted delta-t
// (dt, measured from curTime).
func (s *Simulator) nextCandidateTime(
	ctx context.Context,
	curTime, totalTime float64,
	envHazards, trueHazards []float64,
) (float64, candidateStatus, error) {
	sys := s.Sys
	deltaCum := 0.0
	bin := envelope.Bin(curTime, totalTime, s.nBins)
	binWidth := totalTime / float64(s.nBins)

	for {
		select {
		case <-ctx.Done():
			return 0, candidateCancelled, nil
		default:
		}

		envTotal := 0.0
		for i, t := range sys.Transitions {
			h := s.envelopes[i][bin] * float64(sys.State[t.From])
			envHazards[i] = h
			envTotal += h
		}

		if envTotal <= 0 {
			return 0, candidateExtinct, nil
		}

		// Memoryless restart at the current bin's envelope rate: each
		// iteration re-samples from Exponential(envTotal) rather than
		// reusing any remainder from a prior bin.
		deltaCum += s.Src.Exponential(1 / envTotal)

		candidate := curTime + deltaCum
		if candidate >= totalTime {
			return deltaCum, candidateAccepted, nil
		}
		if binEnd := float64(bin+1) * binWidth; bin < s.nBins-1 && candidate >= binEnd {
			// The draw overshot this bin: restart at the boundary with the
			// next bin's envelope rate; the overshoot is discarded.
			deltaCum = binEnd - curTime
			bin++
			continue
		}

		trueHazards = sys.Hazards(candidate, trueHazards)
		trueTotal := system.Total(trueHazards)

		if trueTotal > envTotal {
			// The envelope failed to dominate the true hazard. Logged and
			// raised; this replicate's result is invalid.
			s.logger().Error().
				Int64("replicate", s.Replicate).
				Float64("true_hazard", trueTotal).
				Float64("envelope_hazard", envTotal).
				Msg("envelope violated during thinning")
			return 0, candidateAccepted, fmt.Errorf("%w: true hazard %g exceeds envelope %g at t=%g",
				ErrEnvelopeViolated, trueTotal, envTotal, candidate)
		}

		accept := trueTotal / envTotal
		if s.Src.Uniform() <= accept {
			return deltaCum, candidateAccepted, nil
		}
		// Rejected: continue the search, carrying deltaCum forward.
	}
}

