package handoff

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// exitFn is replaced in tests.
var exitFn = os.Exit

// runAndExit emulates an exec where the platform has none: it runs the
// application with the supervisor's stdio, forwards SIGINT and SIGTERM to
// it, and exits with its exit code once it is gone.
func runAndExit(path string, argv, env []string) error {
	cmd := &exec.Cmd{
		Path:   path,
		Args:   argv,
		Env:    env,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigCh:
				_ = cmd.Process.Signal(sig) //nolint:errcheck // child may be exiting
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	signal.Stop(sigCh)
	close(done)

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("wait: %w", err)
		}
		code = exitErr.ExitCode()
		if code < 0 {
			// Killed by a signal.
			code = 1
		}
	}
	exitFn(code)
	return nil
}
