package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/onionentry/internal/supervisor"
)

// NewRootCmd creates the root command. Run without a subcommand, it
// supervises the container start.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onionentry [flags] [-- command [args...]]",
		Short: "Start Tor, wait until it is usable, then run the application",
		Long: `onionentry is a container entry process for applications that reach the
network through Tor.

It launches the Tor daemon in the background, polls a check URL through the
daemon's SOCKS proxy until a request succeeds, and then replaces itself with
the application, which inherits PID 1, the environment and the standard
streams.

The application defaults to "python main.py". Arguments after "--" replace it.

What happens when Tor never becomes usable is set with --on-timeout:
  proceed  start the application anyway (default)
  abort    exit with status 3
  restart  restart Tor up to --max-cycles times, then exit with status 3

Exit status: 1 configuration error, 2 Tor launch failure, 3 Tor not ready,
4 application could not be started, 130 interrupted.`,
		Version:       getVersion(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSuperviseCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Path to the configuration file (default: ./onionentry.yaml, then the XDG config directories)")

	addLaunchFlags(cmd)
	addReadinessFlags(cmd)
	cmd.Flags().Int("max-attempts", 0, "Readiness attempts per launch (default 60)")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with the supervisor's exit code
// on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		var exitErr *supervisor.ExitError
		if !errors.As(err, &exitErr) || exitErr.Err != nil {
			fmt.Fprintln(os.Stderr, "onionentry:", err)
		}
		os.Exit(supervisor.ExitCode(err))
	}
}
