package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nao1215/onionentry/internal/config"
)

// Flag defaults are left at zero values: the effective defaults live in
// config.NewConfig, and only flags set on the command line override the
// configuration file.

// addLaunchFlags registers the flags that configure the Tor daemon.
func addLaunchFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.String("tor-binary", "", "Tor executable, looked up in PATH (default \"tor\")")
	fs.String("torrc", "", "Tor configuration file (default \"/etc/tor/torrc\")")
	fs.Bool("embedded", false, "Start Tor through the embedded launcher instead of the tor binary and torrc")
	fs.Duration("embedded-timeout", 0, "Bootstrap timeout of the embedded launcher (default 3m)")
	fs.String("on-timeout", "", "What to do when Tor never becomes ready: proceed, abort or restart (default \"proceed\")")
	fs.Int("max-cycles", 0, "Launch cycles for --on-timeout restart (default 3)")
	fs.Duration("stop-timeout", 0, "Grace period of a daemon stopped for a restart (default 10s)")
}

// addReadinessFlags registers the flags that configure how readiness is
// checked. They are shared by the root and check commands.
func addReadinessFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.String("socks", "", "Tor SOCKS5 listener (default \"127.0.0.1:9050\")")
	fs.String("check-url", "", "URL fetched through Tor to check readiness (default \"https://check.torproject.org/\")")
	fs.String("probe", "", "Readiness probe: https (full request) or socks (CONNECT only) (default \"https\")")
	fs.Duration("interval", 0, "Delay between readiness attempts (default 1s)")
	fs.Duration("probe-timeout", 0, "Timeout of one readiness attempt (default 900ms)")
}

// buildConfig merges defaults, the configuration file and the flags set on
// the command line, in that order. Positional arguments replace the
// application command.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	fs := cmd.Flags()

	configPath, err := fs.GetString("config")
	if err != nil {
		return nil, err
	}
	if path := config.FindConfigFile(configPath); path != "" {
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		if err := file.Apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
		cfg.ConfigFilePath = path
	} else if configPath != "" {
		// An explicitly named file must exist.
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
	}

	setString(fs, "tor-binary", &cfg.TorBinary)
	setString(fs, "torrc", &cfg.TorrcPath)
	setString(fs, "socks", &cfg.SocksAddress)
	setBool(fs, "embedded", &cfg.Embedded)
	setDuration(fs, "embedded-timeout", &cfg.EmbeddedStartupTimeout)
	setString(fs, "check-url", &cfg.CheckURL)
	setInt(fs, "max-attempts", &cfg.MaxAttempts)
	setDuration(fs, "interval", &cfg.Interval)
	setDuration(fs, "probe-timeout", &cfg.ProbeTimeout)
	setInt(fs, "max-cycles", &cfg.MaxCycles)
	setDuration(fs, "stop-timeout", &cfg.StopTimeout)
	setBool(fs, "verbose", &cfg.Verbose)
	setBool(fs, "log-json", &cfg.LogJSON)

	if changed(fs, "probe") {
		raw, _ := fs.GetString("probe") //nolint:errcheck // flag is registered as a string
		if cfg.Probe, err = config.ParseProbeKind(raw); err != nil {
			return nil, err
		}
	}
	if changed(fs, "on-timeout") {
		raw, _ := fs.GetString("on-timeout") //nolint:errcheck // flag is registered as a string
		if cfg.OnTimeout, err = config.ParseExhaustionPolicy(raw); err != nil {
			return nil, err
		}
	}

	if len(args) > 0 {
		cfg.AppCommand = args
	}
	return cfg, nil
}

func changed(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}

func setString(fs *pflag.FlagSet, name string, dst *string) {
	if changed(fs, name) {
		*dst, _ = fs.GetString(name) //nolint:errcheck // type checked by registration
	}
}

func setBool(fs *pflag.FlagSet, name string, dst *bool) {
	if changed(fs, name) {
		*dst, _ = fs.GetBool(name) //nolint:errcheck // type checked by registration
	}
}

func setInt(fs *pflag.FlagSet, name string, dst *int) {
	if changed(fs, name) {
		*dst, _ = fs.GetInt(name) //nolint:errcheck // type checked by registration
	}
}

func setDuration(fs *pflag.FlagSet, name string, dst *time.Duration) {
	if changed(fs, name) {
		*dst, _ = fs.GetDuration(name) //nolint:errcheck // type checked by registration
	}
}
