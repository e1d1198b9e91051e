package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for the error-kind taxonomy in the engine's error handling
// design. Callers should compare with errors.Is; wrapped errors carry
// additional context via fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidInput marks bad shape, non-finite samples, or a dimension
	// mismatch. Fail-fast: propagated directly to the caller.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLengthMismatch marks a dequantize call whose code length does not
	// match the requested dimension.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrDimensionMismatch marks an insert or search against a store/index
	// whose fixed dimension differs from the vector's.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrUnsupportedMethod marks use of a reserved or unimplemented
	// embedding method or RL algorithm (e.g. method "learned").
	ErrUnsupportedMethod = errors.New("unsupported method")

	// ErrEmptySequence marks a sequence too short to extract features from.
	ErrEmptySequence = errors.New("empty sequence")

	// ErrDeadlineExceeded is not normally returned as an error: the
	// orchestrator turns a deadline overrun into a ProcessedEvent verdict.
	// It exists so callers that want to test for it via errors.Is can.
	ErrDeadlineExceeded = errors.New("deadline exceeded")

	// ErrCorruption marks a persisted-state import that failed a version or
	// integrity check. The caller decides whether to discard the state.
	ErrCorruption = errors.New("corrupted state")

	// ErrNotFound marks a lookup against a pattern id that is absent,
	// whether never inserted or already evicted.
	ErrNotFound = errors.New("pattern not found")

	// ErrTransient marks a storage write that failed after exhausting its
	// retry budget. The store degrades to search-only mode when this
	// happens; callers decide whether to surface it or keep serving reads.
	ErrTransient = errors.New("transient storage error")
)

// InvalidInputf wraps ErrInvalidInput with a formatted message, matching the
// fmt.Errorf("...: %w", err) wrapping style used throughout the engine.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}
