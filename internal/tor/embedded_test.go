package tor

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeEmbeddedProcess struct {
	addr    string
	stopped int
}

func (f *fakeEmbeddedProcess) SocksAddr() string { return f.addr }

func (f *fakeEmbeddedProcess) Stop() error {
	f.stopped++
	return nil
}

// TestNewEmbeddedLauncher tests EmbeddedLauncher construction.
func TestNewEmbeddedLauncher(t *testing.T) {
	t.Parallel()

	t.Run("creates with default timeout", func(t *testing.T) {
		t.Parallel()

		e := NewEmbeddedLauncher("127.0.0.1:9050")
		if e.startupTimeout != 3*time.Minute {
			t.Errorf("expected default timeout 3m, got %v", e.startupTimeout)
		}
	})

	t.Run("applies WithStartupTimeout", func(t *testing.T) {
		t.Parallel()

		e := NewEmbeddedLauncher("127.0.0.1:9050", WithStartupTimeout(5*time.Minute))
		if e.startupTimeout != 5*time.Minute {
			t.Errorf("expected timeout 5m, got %v", e.startupTimeout)
		}
	})
}

// TestEmbeddedLauncherStart tests Start with a fake tornago process.
func TestEmbeddedLauncherStart(t *testing.T) {
	t.Parallel()

	t.Run("returns a handle bound to the daemon's SOCKS address", func(t *testing.T) {
		t.Parallel()

		proc := &fakeEmbeddedProcess{addr: "127.0.0.1:9050"}
		e := NewEmbeddedLauncher("127.0.0.1:9050", WithStartupTimeout(time.Minute))
		var gotAddr string
		var gotTimeout time.Duration
		e.startFn = func(addr string, timeout time.Duration) (embeddedProcess, error) {
			gotAddr, gotTimeout = addr, timeout
			return proc, nil
		}

		handle, err := e.Start(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotAddr != "127.0.0.1:9050" || gotTimeout != time.Minute {
			t.Errorf("startFn called with %q, %v", gotAddr, gotTimeout)
		}
		if handle.SocksAddr != "127.0.0.1:9050" {
			t.Errorf("SocksAddr = %q", handle.SocksAddr)
		}
		if handle.PID != 0 {
			t.Errorf("expected PID 0 for a tornago-owned daemon, got %d", handle.PID)
		}

		if err := handle.Stop(time.Second); err != nil {
			t.Fatalf("Stop: %v", err)
		}
		if err := handle.Stop(time.Second); err != nil {
			t.Fatalf("second Stop: %v", err)
		}
		if proc.stopped != 1 {
			t.Errorf("expected one Stop on the process, got %d", proc.stopped)
		}
	})

	t.Run("wraps start errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		e := NewEmbeddedLauncher("127.0.0.1:9050")
		e.startFn = func(string, time.Duration) (embeddedProcess, error) {
			return nil, boom
		}

		if _, err := e.Start(context.Background()); !errors.Is(err, boom) {
			t.Errorf("expected wrapped start error, got %v", err)
		}
	})

	t.Run("stops the daemon when ctx was cancelled during start", func(t *testing.T) {
		t.Parallel()

		proc := &fakeEmbeddedProcess{addr: "127.0.0.1:9050"}
		e := NewEmbeddedLauncher("127.0.0.1:9050")
		e.startFn = func(string, time.Duration) (embeddedProcess, error) {
			return proc, nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := e.Start(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if proc.stopped != 1 {
			t.Errorf("expected the daemon to be stopped, got %d stops", proc.stopped)
		}
	})
}

// TestDaemonHandleStopNil tests Stop on nil and hook-less handles.
func TestDaemonHandleStopNil(t *testing.T) {
	t.Parallel()

	var h *DaemonHandle
	if err := h.Stop(time.Second); err != nil {
		t.Errorf("nil handle Stop: %v", err)
	}
	if err := (&DaemonHandle{}).Stop(time.Second); err != nil {
		t.Errorf("empty handle Stop: %v", err)
	}
}
