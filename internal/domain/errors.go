package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInput           = errors.New("invalid input")
	ErrVersionNotFound = errors.New("version not found")
	ErrIO              = errors.New("i/o failure")
	ErrSerialization   = errors.New("serialization failure")
	ErrJavaNotFound    = errors.New("java not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrAccountNotFound = errors.New("account not found")
)

// SpawnError is returned when an external process could not be started or waited on
type SpawnError struct {
	Process string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("process %s: %v", e.Process, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ExitError carries the exit code of a hook or game process that did not exit cleanly.
// Code is -1 when the process ended without an exit code (e.g. killed by a signal).
type ExitError struct {
	Process string
	Code    int
}

func (e *ExitError) Error() string {
	if e.Process == "" {
		return fmt.Sprintf("process exited with code %d", e.Code)
	}
	return fmt.Sprintf("%s exited with code %d", e.Process, e.Code)
}

// ExitCode returns the code of the first ExitError in err's chain, and whether one was found
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
