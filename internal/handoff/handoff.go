package handoff

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

var (
	// ErrNoCommand is returned for an empty argv.
	ErrNoCommand = errors.New("application command is empty")

	// ErrAppNotFound is returned when argv[0] cannot be resolved to an executable.
	ErrAppNotFound = errors.New("application executable not found")

	// ErrExecFailed is returned when the executable was found but could not
	// replace the supervisor.
	ErrExecFailed = errors.New("failed to start application")
)

// Process is the application the supervisor hands off to.
type Process struct {
	// Argv is the command line; Argv[0] is looked up in PATH.
	Argv []string

	// Env is the application's environment. Nil means the supervisor's
	// own environment, unmodified.
	Env []string
}

// New creates a Process that inherits the supervisor's environment.
func New(argv []string) *Process {
	return &Process{Argv: argv}
}

// Resolve returns the absolute path of Argv[0].
func (p *Process) Resolve() (string, error) {
	if len(p.Argv) == 0 || p.Argv[0] == "" {
		return "", ErrNoCommand
	}
	path, err := exec.LookPath(p.Argv[0])
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrAppNotFound, p.Argv[0], err)
	}
	return path, nil
}

// Exec hands off to the application. On success it does not return.
// An error means the supervisor is still running and the application
// never started.
func (p *Process) Exec() error {
	path, err := p.Resolve()
	if err != nil {
		return err
	}
	env := p.Env
	if env == nil {
		env = os.Environ()
	}

	if err := execFn(path, p.Argv, env); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExecFailed, path, err)
	}
	return nil
}
