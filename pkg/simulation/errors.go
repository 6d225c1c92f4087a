package simulation

import (
	"errors"
	"fmt"
)

var (
	// ErrTickFailed wraps every error returned by a tick that produced no snapshot.
	ErrTickFailed = errors.New("tick failed")
	// ErrInvalidTimestep is returned for a non-finite or non-positive dt.
	ErrInvalidTimestep = errors.New("timestep must be a finite value > 0")
	// ErrUnknownFlock is returned by World lookups.
	ErrUnknownFlock = errors.New("unknown flock")
	// ErrLengthMismatch is returned when parallel input slices differ in length.
	ErrLengthMismatch = errors.New("positions and velocities differ in length")
	// ErrDimensionMismatch is returned when data of one dimension meets vectors of another.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// AgentError is the failure of one agent's work item during a tick.
type AgentError struct {
	Index int
	Phase string
	Cause error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent %d (%s): %v", e.Index, e.Phase, e.Cause)
}

func (e *AgentError) Unwrap() error { return e.Cause }
