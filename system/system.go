// Package system holds the data model shared by the simulation engine: the
// population state vector, transitions, and the System that groups them
// together with the stopping criteria evaluated after every event.
package system

import (
	"fmt"

	"gmbp/offspring"
	"gmbp/rate"
	"gmbp/stopping"
)

// State is an ordered vector of non-negative integer population counts,
// one per type. Invariant: every component is >= 0 always; Clamp enforces
// this after an update is applied.
type State []int64

// Clone returns an independent copy of s.
func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// Extinct reports whether every component of s is zero.
func (s State) Extinct() bool {
	for _, v := range s {
		if v != 0 {
			return false
		}
	}
	return true
}

// Clamp drives any negative component to 0 in place — the documented
// StateUnderflow policy: never error, never log, clamp silently.
func Clamp(s State) {
	for i, v := range s {
		if v < 0 {
			s[i] = 0
		}
	}
}

// Apply adds delta to s in place, then clamps. len(delta) must equal len(s).
func Apply(s State, delta []int64) {
	for i, d := range delta {
		s[i] += d
	}
	Clamp(s)
}

// Transition is a record (from, rate, update): the parent type whose count
// multiplies the per-individual rate, the rate function itself, and the
// offspring/update rule applied when the transition fires.
type Transition struct {
	From   int
	Rate   rate.Rate
	Update offspring.Spec

	// release is invoked by System.Close for transitions whose Rate owns an
	// external resource (a loaded custom-rate plugin).
	release func() error
}

// NewTransition constructs a Transition with no external resource to
// release on Close.
func NewTransition(from int, r rate.Rate, u offspring.Spec) Transition {
	return Transition{From: from, Rate: r, Update: u}
}

// NewTransitionWithRelease constructs a Transition whose Rate was loaded
// from an external resource (e.g. rate.LoadCustom); release is invoked by
// System.Close.
func NewTransitionWithRelease(from int, r rate.Rate, u offspring.Spec, release func() error) Transition {
	return Transition{From: from, Rate: r, Update: u, release: release}
}

// System groups an initial state, its transitions, and its stopping
// criteria. Transitions and stops are immutable once Freeze is called;
// state is mutated only by the engine's simulation loop.
type System struct {
	State       State
	Transitions []Transition
	Stops       []stopping.Criterion

	frozen bool
}

// New constructs a System from an initial state. Transitions and stops are
// added with AddTransition/AddStop before calling Freeze.
func New(initial State) *System {
	return &System{State: initial.Clone()}
}

// AddTransition appends a transition. Panics if the System is frozen.
func (s *System) AddTransition(t Transition) {
	if s.frozen {
		panic("system: AddTransition after Freeze")
	}
	s.Transitions = append(s.Transitions, t)
}

// AddStop appends a stopping criterion. Panics if the System is frozen.
func (s *System) AddStop(c stopping.Criterion) {
	if s.frozen {
		panic("system: AddStop after Freeze")
	}
	s.Stops = append(s.Stops, c)
}

// Freeze validates dimensional consistency and marks the System immutable
// for the rest of the simulation's lifetime.
func (s *System) Freeze() error {
	k := len(s.State)
	for i, v := range s.State {
		if v < 0 {
			return fmt.Errorf("system: initial state[%d] = %d is negative", i, v)
		}
	}
	for i, t := range s.Transitions {
		if t.From < 0 || t.From >= k {
			return fmt.Errorf("system: transition %d: from index %d out of range [0,%d)", i, t.From, k)
		}
		if err := offspring.Validate(t.Update, k); err != nil {
			return fmt.Errorf("system: transition %d: %w", i, err)
		}
	}
	for i, st := range s.Stops {
		for _, idx := range st.Indices {
			if idx < 0 || idx >= k {
				return fmt.Errorf("system: stop %d: index %d out of range [0,%d)", i, idx, k)
			}
		}
	}
	s.frozen = true
	return nil
}

// Homogeneous reports whether every transition's rate is time-independent,
// i.e. the engine may use the Gillespie loop instead of thinning.
func (s *System) Homogeneous() bool {
	for _, t := range s.Transitions {
		if t.Rate.Kind() != rate.KindConstant {
			return false
		}
	}
	return true
}

// Hazards computes h_i(t,s) = λ_i(t) * s[from_i] for every transition.
func (s *System) Hazards(t float64, dst []float64) []float64 {
	if cap(dst) < len(s.Transitions) {
		dst = make([]float64, len(s.Transitions))
	}
	dst = dst[:len(s.Transitions)]
	for i, tr := range s.Transitions {
		dst[i] = tr.Rate.Eval(t) * float64(s.State[tr.From])
	}
	return dst
}

// Total sums hazards into H(t,s).
func Total(hazards []float64) float64 {
	var h float64
	for _, v := range hazards {
		h += v
	}
	return h
}

// AnyStopped evaluates every stopping criterion against s, returning true
// if any fires (the "stopped" termination reason).
func (s *System) AnyStopped(state State) bool {
	for _, c := range s.Stops {
		if stopping.Check(c, state) {
			return true
		}
	}
	return false
}

// Close releases every transition's external resources (loaded custom-rate
// plugins). It is safe to call multiple times and on a partially built
// System; errors are collected but do not stop the release of the rest.
func (s *System) Close() error {
	var firstErr error
	for _, t := range s.Transitions {
		if t.release == nil {
			continue
		}
		if err := t.release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
