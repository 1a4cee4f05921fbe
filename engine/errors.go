package engine

import "errors"

// Sentinel errors for the simulator's failure modes. Wrapped with fmt.Errorf
// and %w so callers can still distinguish them with errors.Is.
var (
	// ErrInvalidConfig covers dimension mismatch, negative initial count,
	// bad comparator, empty grid, and similar malformed input. The
	// simulator fails fast, before the loop starts.
	ErrInvalidConfig = errors.New("engine: invalid configuration")

	// ErrCancelled is returned when the host's cancellation context fires;
	// the replicate has already flushed its last observation.
	ErrCancelled = errors.New("engine: simulation cancelled")

	// ErrEnvelopeViolated indicates the envelope failed to dominate the
	// true hazard during thinning (H > H-bar): logged and raised, the
	// replicate's output is invalid.
	ErrEnvelopeViolated = errors.New("engine: envelope violated during thinning")
)

// Reason is the termination reason recorded for a completed replicate.
type Reason int

const (
	ReasonGridComplete Reason = iota
	ReasonExtinct
	ReasonStopped
	ReasonCancelled
)

func (r Reason) String() string {
	switch r {
	case ReasonGridComplete:
		return "grid_complete"
	case ReasonExtinct:
		return "extinct"
	case ReasonStopped:
		return "stopped"
	case ReasonCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
