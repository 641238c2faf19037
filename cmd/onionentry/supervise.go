package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/onionentry/internal/config"
	"github.com/nao1215/onionentry/internal/handoff"
	"github.com/nao1215/onionentry/internal/log"
	"github.com/nao1215/onionentry/internal/readiness"
	"github.com/nao1215/onionentry/internal/supervisor"
	"github.com/nao1215/onionentry/internal/tor"
)

// runSuperviseCmd runs launch, readiness and handoff.
func runSuperviseCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	warnSlowProbe(logger, cfg)

	prober, err := newProber(cfg)
	if err != nil {
		return &supervisor.ExitError{Code: supervisor.ExitConfig, Err: err}
	}

	// SIGINT and SIGTERM before the handoff cancel the wait. After the
	// handoff they go to the application.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("supervising",
		"config", cfg.ConfigFilePath,
		"socks", cfg.SocksAddress,
		"check_url", cfg.CheckURL,
		"probe", cfg.Probe,
		"max_attempts", cfg.MaxAttempts,
		"on_timeout", cfg.OnTimeout,
		"argv", cfg.AppCommand)

	sup := supervisor.New(
		newLauncher(cfg),
		newLoop(cfg, prober, logger),
		handoff.New(cfg.AppCommand),
		supervisor.WithPolicy(cfg.OnTimeout),
		supervisor.WithMaxCycles(cfg.MaxCycles),
		supervisor.WithStopTimeout(cfg.StopTimeout),
		supervisor.WithOutput(cmd.OutOrStdout()),
		supervisor.WithLogger(logger),
	)
	return sup.Run(ctx)
}

// warnSlowProbe warns when an attempt can outlast the interval. Attempts
// run at a fixed rate; an overlong one delays the next, which then starts
// at once, so the loop can take longer than max-attempts intervals.
func warnSlowProbe(logger *slog.Logger, cfg *config.Config) {
	if !cfg.ProbeExceedsInterval() {
		return
	}
	logger.Warn("probe timeout is not below the interval; a slow attempt delays the next one past its scheduled start",
		"probe_timeout", cfg.ProbeTimeout,
		"interval", cfg.Interval,
		"max_wait", time.Duration(cfg.MaxAttempts)*cfg.ProbeTimeout)
}

// loadConfig builds and validates the configuration. Errors carry
// ExitConfig.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return nil, &supervisor.ExitError{Code: supervisor.ExitConfig, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &supervisor.ExitError{Code: supervisor.ExitConfig, Err: fmt.Errorf("configuration error: %w", err)}
	}
	return cfg, nil
}

// setupLogger creates the redacting logger on stderr.
func setupLogger(cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return log.NewSecureJSONLogger(os.Stderr, cfg.Verbose)
	}
	return log.NewSecureLogger(os.Stderr, cfg.Verbose)
}

// newLauncher selects the daemon launcher.
func newLauncher(cfg *config.Config) tor.Launcher {
	if cfg.Embedded {
		return tor.NewEmbeddedLauncher(cfg.SocksAddress, tor.WithStartupTimeout(cfg.EmbeddedStartupTimeout))
	}
	return tor.NewExecLauncher(cfg.TorBinary, cfg.TorrcPath, cfg.SocksAddress)
}

// newProber creates the configured readiness probe.
func newProber(cfg *config.Config) (readiness.Prober, error) {
	client, err := tor.NewClient(cfg.SocksAddress, cfg.ProbeTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tor client: %w", err)
	}
	if cfg.Probe == config.ProbeSOCKS {
		p, err := readiness.NewSOCKSProber(client, cfg.CheckURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	p, err := readiness.NewHTTPSProber(client, cfg.CheckURL)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func newLoop(cfg *config.Config, prober readiness.Prober, logger *slog.Logger) *readiness.Loop {
	return &readiness.Loop{
		Prober:         prober,
		MaxAttempts:    cfg.MaxAttempts,
		Interval:       cfg.Interval,
		AttemptTimeout: cfg.ProbeTimeout,
		Logger:         logger,
	}
}
