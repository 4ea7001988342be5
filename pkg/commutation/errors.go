package commutation

import (
	"errors"
	"fmt"
)

var (
	// ErrHalted indicates the sequencer stopped after a fatal driver failure.
	ErrHalted = errors.New("sequencer halted")
)

// DriverCommandFailure is returned when the driver rejects a command.
// It is fatal to the sequencer.
type DriverCommandFailure struct {
	Step    Step
	Command Command
	Err     error
}

// Error implements error.
func (e *DriverCommandFailure) Error() string {
	return fmt.Sprintf("step %s: %s rejected: %v", e.Step, e.Command, e.Err)
}

// Unwrap returns the error reported by the driver.
func (e *DriverCommandFailure) Unwrap() error {
	return e.Err
}
