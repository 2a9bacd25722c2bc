package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrStaleTick    = errors.New("stale tick")
	ErrInvalidSetup = errors.New("invalid match setup")
)

// Rejection reasons recorded in MatchRecord.Rejected. The strings are part of
// the sealed record; do not rename.
const (
	ReasonStaleTick      = "stale-tick"
	ReasonFutureTick     = "future-tick"
	ReasonUnknownActor   = "unknown-actor"
	ReasonEliminated     = "actor-eliminated"
	ReasonUnknownAction  = "unknown-action"
	ReasonMalformed      = "malformed"
	ReasonOutOfRange     = "out-of-range"
	ReasonBeyondDuration = "beyond-duration"
)

// InvalidInputError is a malformed or out-of-range input. The simulator
// recovers by treating the input as a no-op.
type InvalidInputError struct {
	Tick    uint64
	ActorID string
	Reason  string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: tick=%d actor=%s: %s", ErrInvalidInput, e.Tick, e.ActorID, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// StaleTickError is an input for a tick that has already been processed.
type StaleTickError struct {
	Tick    uint64
	Current uint64
	ActorID string
}

func (e *StaleTickError) Error() string {
	return fmt.Sprintf("%s: input for tick %d arrived at tick %d (actor=%s)", ErrStaleTick, e.Tick, e.Current, e.ActorID)
}

func (e *StaleTickError) Unwrap() error { return ErrStaleTick }

func setupErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSetup, fmt.Sprintf(format, args...))
}
