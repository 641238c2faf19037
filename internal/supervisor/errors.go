package supervisor

import (
	"errors"
	"fmt"
)

// Exit codes of the supervisor. On a successful handoff the supervisor has
// no exit code: the application's becomes the container's.
const (
	// ExitConfig is a configuration or usage error.
	ExitConfig = 1
	// ExitLaunch means the daemon could not be started.
	ExitLaunch = 2
	// ExitNotReady means readiness was exhausted and the policy forbids
	// handing off.
	ExitNotReady = 3
	// ExitHandoff means the application could not be started.
	ExitHandoff = 4
	// ExitInterrupted means SIGINT or SIGTERM arrived before the handoff.
	ExitInterrupted = 130
)

// ErrNotReady is wrapped by the error of an ExitNotReady exit.
var ErrNotReady = errors.New("tor did not become ready")

// ExitError carries the exit code of a failed run.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the underlying error's message with the exit code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return fmt.Sprintf("%v (exit status %d)", e.Err, e.Code)
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code for err: 0 for nil, the code of an
// *ExitError in its chain, or ExitConfig otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitConfig
}
