package worker

import (
	"errors"
	"fmt"
)

var (
	ErrLaunch         = errors.New("cannot launch miner")
	ErrTermination    = errors.New("cannot terminate miner")
	ErrAlreadyRunning = errors.New("miner is already running")
)

// LaunchError is returned when the miner process could not be started
type LaunchError struct {
	Exe    string
	Target string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("%s %s for %s: %s", ErrLaunch, e.Exe, e.Target, e.Err)
}

func (e *LaunchError) Unwrap() []error {
	return []error{ErrLaunch, e.Err}
}

// TerminationError is returned when the OS refused to kill the miner process
// or it did not exit in time. The process may be left running
type TerminationError struct {
	PID int
	Err error
}

func (e *TerminationError) Error() string {
	return fmt.Sprintf("%s (pid %d): %s", ErrTermination, e.PID, e.Err)
}

func (e *TerminationError) Unwrap() []error {
	return []error{ErrTermination, e.Err}
}
