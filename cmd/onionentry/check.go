package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/onionentry/internal/report"
	"github.com/nao1215/onionentry/internal/supervisor"
)

// errInvalidAttempts is returned when --attempts is not positive.
var errInvalidAttempts = errors.New("--attempts must be at least 1")

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a running Tor daemon is usable",
		Long: `Check runs the readiness probe against an already running Tor daemon and
reports the result. It neither starts Tor nor the application, which makes it
suitable as a container HEALTHCHECK.

The exit status is 0 when Tor is ready and 3 when it is not.

Examples:
  # One attempt with the configured probe
  onionentry check

  # Up to 10 attempts, JSON report
  onionentry check -n 10 --json

  # CONNECT-only probe against a custom SOCKS port
  onionentry check --probe socks --socks 127.0.0.1:9150`,
		Args: cobra.NoArgs,
		RunE: runCheckCmd,
	}

	addReadinessFlags(cmd)
	cmd.Flags().IntP("attempts", "n", 1, "Attempts before reporting not ready")
	cmd.Flags().BoolP("json", "j", false, "Output the report as JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Output the report as Markdown")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	attempts, err := cmd.Flags().GetInt("attempts")
	if err != nil {
		return err
	}
	if attempts < 1 {
		return &supervisor.ExitError{Code: supervisor.ExitConfig, Err: errInvalidAttempts}
	}
	cfg.MaxAttempts = attempts

	logger := setupLogger(cfg)
	prober, err := newProber(cfg)
	if err != nil {
		return &supervisor.ExitError{Code: supervisor.ExitConfig, Err: err}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := newLoop(cfg, prober, logger).Run(ctx)

	rep := report.NewCheckReport(report.CheckTarget{
		SocksAddress: cfg.SocksAddress,
		CheckURL:     cfg.CheckURL,
		Probe:        string(cfg.Probe),
		MaxAttempts:  cfg.MaxAttempts,
	}, result)
	if _, err := report.NewWriter(reportFormat(cmd), cmd.OutOrStdout(), cfg.Verbose).Write(rep); err != nil {
		return err
	}

	switch {
	case result.Interrupted():
		return &supervisor.ExitError{Code: supervisor.ExitInterrupted}
	case !result.Ready():
		return &supervisor.ExitError{Code: supervisor.ExitNotReady}
	}
	return nil
}

// reportFormat returns the format selected by --json or --markdown.
func reportFormat(cmd *cobra.Command) report.Format {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON { //nolint:errcheck // flag is registered above
		return report.FormatJSON
	}
	if asMarkdown, _ := cmd.Flags().GetBool("markdown"); asMarkdown { //nolint:errcheck // flag is registered above
		return report.FormatMarkdown
	}
	return report.FormatText
}
