package tor

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/tornago"
)

// embeddedProcess is the part of *tornago.TorProcess the launcher uses.
type embeddedProcess interface {
	SocksAddr() string
	Stop() error
}

// EmbeddedLauncher starts Tor through tornago instead of a torrc-driven
// binary. tornago writes its own configuration and blocks until the daemon
// has bootstrapped or startupTimeout elapsed, so Start takes as long as the
// bootstrap does. The readiness loop still runs afterwards.
type EmbeddedLauncher struct {
	socksAddr      string
	startupTimeout time.Duration

	// startFn is replaced in tests.
	startFn func(socksAddr string, startupTimeout time.Duration) (embeddedProcess, error)
}

// EmbeddedOption configures an EmbeddedLauncher.
type EmbeddedOption func(*EmbeddedLauncher)

// WithStartupTimeout sets the maximum time tornago waits for the bootstrap.
func WithStartupTimeout(timeout time.Duration) EmbeddedOption {
	return func(e *EmbeddedLauncher) {
		e.startupTimeout = timeout
	}
}

// NewEmbeddedLauncher creates a launcher whose daemon listens for SOCKS on
// socksAddr. The address is fixed rather than OS-assigned because the
// application expects the proxy on a well-known port.
func NewEmbeddedLauncher(socksAddr string, opts ...EmbeddedOption) *EmbeddedLauncher {
	e := &EmbeddedLauncher{
		socksAddr:      socksAddr,
		startupTimeout: 3 * time.Minute,
		startFn:        startTornago,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// startTornago launches the daemon. The control port is OS-assigned since
// nothing here talks to it.
func startTornago(socksAddr string, startupTimeout time.Duration) (embeddedProcess, error) {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(socksAddr),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(startupTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return nil, err
	}
	return process, nil
}

// Start launches the embedded daemon. The returned handle has PID 0:
// tornago owns the process.
func (e *EmbeddedLauncher) Start(ctx context.Context) (*DaemonHandle, error) {
	process, err := e.startFn(e.socksAddr, e.startupTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}

	// tornago's start cannot be interrupted; honour cancellation afterwards.
	if err := ctx.Err(); err != nil {
		_ = process.Stop() //nolint:errcheck // best effort cleanup
		return nil, err
	}

	socksAddr := process.SocksAddr()
	if socksAddr == "" {
		socksAddr = e.socksAddr
	}
	return NewDaemonHandle(0, socksAddr, time.Now(), func(time.Duration) error {
		return process.Stop()
	}), nil
}
