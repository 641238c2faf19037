package tor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Launcher starts the Tor daemon. It is the only operation the supervisor
// needs from the daemon: everything after that is observed from the
// outside through the SOCKS listener.
type Launcher interface {
	Start(ctx context.Context) (*DaemonHandle, error)
}

// DaemonHandle represents a launched daemon.
//
// The supervisor never stops the daemon in the normal path: after the
// handoff the daemon lives on as a child of the application and dies with
// the container.
type DaemonHandle struct {
	// PID is the daemon's process ID, or 0 when the process is owned by a
	// library that does not expose it.
	PID int

	// StartedAt is when the launch call returned.
	StartedAt time.Time

	// SocksAddr is the SOCKS5 listener the daemon was configured with.
	SocksAddr string

	stop func(timeout time.Duration) error
}

// NewDaemonHandle creates a handle for a daemon started outside this
// package. stop may be nil when the daemon cannot be stopped.
func NewDaemonHandle(pid int, socksAddr string, startedAt time.Time, stop func(timeout time.Duration) error) *DaemonHandle {
	return &DaemonHandle{
		PID:       pid,
		StartedAt: startedAt,
		SocksAddr: socksAddr,
		stop:      stop,
	}
}

// Stop terminates the daemon, killing it if it has not exited within
// timeout. It is safe to call on a nil handle or more than once.
func (h *DaemonHandle) Stop(timeout time.Duration) error {
	if h == nil || h.stop == nil {
		return nil
	}
	stop := h.stop
	h.stop = nil
	return stop(timeout)
}

// ExecLauncher runs the daemon binary with "-f <torrc>" in the background.
type ExecLauncher struct {
	// Binary is the daemon executable, looked up in PATH.
	Binary string

	// Torrc is the daemon configuration file.
	Torrc string

	// SocksAddr is recorded in the handle. It must match the torrc.
	SocksAddr string

	// now is replaced in tests.
	now func() time.Time
}

// NewExecLauncher creates an ExecLauncher.
func NewExecLauncher(binary, torrc, socksAddr string) *ExecLauncher {
	return &ExecLauncher{
		Binary:    binary,
		Torrc:     torrc,
		SocksAddr: socksAddr,
		now:       time.Now,
	}
}

// Start launches the daemon and returns without waiting for it.
//
// The daemon shares the supervisor's stdout and stderr file descriptors so
// its log appears in the container output, and it runs in its own session
// so terminal signals aimed at the supervisor do not reach it.
//
// A missing binary or torrc is reported as ErrDaemonNotFound or
// ErrTorrcNotFound. A daemon that starts and then exits on a bad torrc is
// not detected here.
func (l *ExecLauncher) Start(_ context.Context) (*DaemonHandle, error) {
	path, err := exec.LookPath(l.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDaemonNotFound, l.Binary, err)
	}
	if _, err := os.Stat(l.Torrc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTorrcNotFound, l.Torrc, err)
	}

	// exec.CommandContext is not used: the daemon must outlive ctx and the
	// supervisor itself.
	cmd := exec.Command(path, "-f", l.Torrc) //nolint:gosec // operator-provided daemon path
	// *os.File values are passed to the child as-is; no copying goroutine
	// is involved, so the streams survive the handoff.
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = detachedProcAttr()

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start tor daemon: %w", err)
	}

	now := l.now
	if now == nil {
		now = time.Now
	}
	return NewDaemonHandle(cmd.Process.Pid, l.SocksAddr, now(), func(timeout time.Duration) error {
		return stopProcess(cmd, timeout)
	}), nil
}

// stopProcess sends SIGTERM, waits up to timeout, then kills.
func stopProcess(cmd *exec.Cmd, timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		// The exit status is irrelevant: we asked the daemon to stop.
		_ = cmd.Wait() //nolint:errcheck // exit status of a terminated daemon
		close(done)
	}()

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			<-done
			return nil
		}
		// SIGTERM is not deliverable everywhere (Windows); kill instead.
		_ = cmd.Process.Kill() //nolint:errcheck // best effort
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		_ = cmd.Process.Kill() //nolint:errcheck // best effort
		<-done
		return ErrStopTimeout
	}
}
