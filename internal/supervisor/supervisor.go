package supervisor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/onionentry/internal/config"
	"github.com/nao1215/onionentry/internal/readiness"
	"github.com/nao1215/onionentry/internal/tor"
)

// Waiter runs one readiness loop. *readiness.Loop implements it.
type Waiter interface {
	Run(ctx context.Context) readiness.Result
}

// Handoff replaces the supervisor with the application. Exec returns only
// on failure. *handoff.Process implements it.
type Handoff interface {
	Exec() error
}

// Supervisor runs launch, readiness and handoff in sequence.
type Supervisor struct {
	launcher tor.Launcher
	waiter   Waiter
	handoff  Handoff

	policy      config.ExhaustionPolicy
	maxCycles   int
	stopTimeout time.Duration

	// out receives the human-readable status lines.
	out    io.Writer
	logger *slog.Logger
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithPolicy sets the exhaustion policy. The default is PolicyProceed.
func WithPolicy(policy config.ExhaustionPolicy) Option {
	return func(s *Supervisor) {
		s.policy = policy
	}
}

// WithMaxCycles sets the number of launch cycles under PolicyRestart.
func WithMaxCycles(n int) Option {
	return func(s *Supervisor) {
		s.maxCycles = n
	}
}

// WithStopTimeout sets the grace period of a daemon stopped for a restart.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		s.stopTimeout = d
	}
}

// WithOutput sets where status lines are written. The default discards them.
func WithOutput(w io.Writer) Option {
	return func(s *Supervisor) {
		s.out = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// New creates a Supervisor.
func New(launcher tor.Launcher, waiter Waiter, handoff Handoff, opts ...Option) *Supervisor {
	s := &Supervisor{
		launcher:    launcher,
		waiter:      waiter,
		handoff:     handoff,
		policy:      config.PolicyProceed,
		maxCycles:   config.DefaultMaxCycles,
		stopTimeout: config.DefaultStopTimeout,
		out:         io.Discard,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the entry sequence. It returns only when the handoff did
// not happen or failed; the error is always an *ExitError.
//
// ctx is the supervisor's signal context: once it is done no further step
// starts and Run returns ExitInterrupted. The daemon is left running in
// that case, as it is after a handoff.
func (s *Supervisor) Run(ctx context.Context) error {
	cycles := 1
	if s.policy == config.PolicyRestart && s.maxCycles > 1 {
		cycles = s.maxCycles
	}

	for cycle := 1; ; cycle++ {
		s.status("Starting Tor...")
		handle, err := s.launcher.Start(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return s.interrupted(ctx.Err())
			}
			s.logger.Error("failed to launch tor", "error", err)
			return &ExitError{Code: ExitLaunch, Err: fmt.Errorf("failed to launch tor: %w", err)}
		}
		s.logger.Info("tor daemon launched",
			"pid", handle.PID,
			"socks", handle.SocksAddr,
			"cycle", cycle)

		s.status("Waiting for Tor to be ready...")
		result := s.waiter.Run(ctx)
		if result.Interrupted() {
			return s.interrupted(result.Err)
		}
		if result.Ready() {
			s.logger.Info("tor is ready",
				"attempts", result.Count(),
				"elapsed", result.Elapsed)
			s.status("Tor is ready.")
			break
		}

		notReady := notReadyError(result)
		switch s.policy {
		case config.PolicyAbort:
			s.logger.Error("giving up", "error", notReady)
			s.status("Tor is not ready; giving up.")
			return &ExitError{Code: ExitNotReady, Err: notReady}

		case config.PolicyRestart:
			if cycle >= cycles {
				s.logger.Error("giving up", "cycles", cycle, "error", notReady)
				s.status("Tor is not ready after %d launches; giving up.", cycle)
				return &ExitError{Code: ExitNotReady, Err: notReady}
			}
			s.logger.Warn("restarting tor", "cycle", cycle, "max_cycles", cycles, "error", notReady)
			s.status("Tor is not ready; restarting it.")
			if err := handle.Stop(s.stopTimeout); err != nil {
				s.logger.Warn("tor daemon did not stop cleanly", "pid", handle.PID, "error", err)
			}
			continue

		default:
			s.logger.Warn("tor is not ready; starting the application anyway",
				"attempts", result.Count(),
				"error", notReady)
			s.status("Tor is not ready; starting the application anyway.")
		}
		break
	}

	if err := ctx.Err(); err != nil {
		return s.interrupted(err)
	}
	s.status("Starting application...")
	if err := s.handoff.Exec(); err != nil {
		s.logger.Error("handoff failed", "error", err)
		return &ExitError{Code: ExitHandoff, Err: err}
	}
	return nil
}

func notReadyError(result readiness.Result) error {
	if last := result.LastError(); last != nil {
		return fmt.Errorf("%w after %d attempts: %w", ErrNotReady, result.Count(), last)
	}
	return fmt.Errorf("%w after %d attempts", ErrNotReady, result.Count())
}

func (s *Supervisor) interrupted(err error) error {
	s.status("Interrupted.")
	return &ExitError{Code: ExitInterrupted, Err: err}
}

func (s *Supervisor) status(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...) //nolint:errcheck // status output is best effort
}
