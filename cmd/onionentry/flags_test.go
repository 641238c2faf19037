package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/onionentry/internal/config"
)

// writeConfig writes a YAML configuration file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "onionentry.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// parseRoot parses args with the root command and builds its config.
func parseRoot(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	cmd := NewRootCmd()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return buildConfig(cmd, cmd.Flags().Args())
}

// TestBuildConfig tests the precedence of defaults, file and flags.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty file keeps the defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "")
		cfg, err := parseRoot(t, "-c", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.MaxAttempts != 60 || cfg.Interval != time.Second || cfg.ProbeTimeout != 900*time.Millisecond {
			t.Errorf("loop settings = %d/%s/%s", cfg.MaxAttempts, cfg.Interval, cfg.ProbeTimeout)
		}
		if cfg.OnTimeout != config.PolicyProceed || cfg.Probe != config.ProbeHTTPS {
			t.Errorf("policy/probe = %s/%s", cfg.OnTimeout, cfg.Probe)
		}
		if strings.Join(cfg.AppCommand, " ") != "python main.py" {
			t.Errorf("AppCommand = %v", cfg.AppCommand)
		}
		if cfg.ConfigFilePath != path {
			t.Errorf("ConfigFilePath = %q, expected %q", cfg.ConfigFilePath, path)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
tor:
  socksAddress: 127.0.0.1:9150
readiness:
  maxAttempts: 10
  interval: 2s
  onTimeout: abort
app:
  command: ["./bot", "--serve"]
`)
		cfg, err := parseRoot(t, "-c", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.SocksAddress != "127.0.0.1:9150" || cfg.MaxAttempts != 10 || cfg.Interval != 2*time.Second {
			t.Errorf("file settings not applied: %+v", cfg)
		}
		if cfg.OnTimeout != config.PolicyAbort {
			t.Errorf("OnTimeout = %s", cfg.OnTimeout)
		}
		if strings.Join(cfg.AppCommand, " ") != "./bot --serve" {
			t.Errorf("AppCommand = %v", cfg.AppCommand)
		}
	})

	t.Run("flags override the file", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
readiness:
  maxAttempts: 10
  probe: socks
  onTimeout: abort
`)
		cfg, err := parseRoot(t, "-c", path,
			"--max-attempts", "3",
			"--probe", "HTTPS",
			"--on-timeout", "restart",
			"--max-cycles", "5",
			"--probe-timeout", "500ms",
			"--embedded",
			"-v",
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxAttempts != 3 || cfg.Probe != config.ProbeHTTPS || cfg.OnTimeout != config.PolicyRestart {
			t.Errorf("flags not applied: attempts=%d probe=%s policy=%s", cfg.MaxAttempts, cfg.Probe, cfg.OnTimeout)
		}
		if cfg.MaxCycles != 5 || cfg.ProbeTimeout != 500*time.Millisecond || !cfg.Embedded || !cfg.Verbose {
			t.Errorf("flags not applied: %+v", cfg)
		}
	})

	t.Run("unset flags do not override the file", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "tor:\n  binary: /usr/sbin/tor\n")
		cfg, err := parseRoot(t, "-c", path, "--socks", "127.0.0.1:9150")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.TorBinary != "/usr/sbin/tor" {
			t.Errorf("TorBinary = %q, expected the file value", cfg.TorBinary)
		}
	})

	t.Run("positional arguments replace the application", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "app:\n  command: [\"./bot\"]\n")
		cfg, err := parseRoot(t, "-c", path, "--", "node", "index.js", "--port", "8080")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := strings.Join(cfg.AppCommand, " "); got != "node index.js --port 8080" {
			t.Errorf("AppCommand = %q", got)
		}
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		t.Parallel()

		_, err := parseRoot(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed config file is an error", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "readiness: [unclosed\n")
		if _, err := parseRoot(t, "-c", path); err == nil {
			t.Error("expected error for malformed YAML")
		}
	})

	t.Run("unknown policy in the file is an error", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "readiness:\n  onTimeout: retry-forever\n")
		if _, err := parseRoot(t, "-c", path); !errors.Is(err, config.ErrUnknownPolicy) {
			t.Errorf("expected ErrUnknownPolicy, got %v", err)
		}
	})

	t.Run("unknown flag values are errors", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "")
		if _, err := parseRoot(t, "-c", path, "--probe", "icmp"); !errors.Is(err, config.ErrUnknownProbe) {
			t.Errorf("expected ErrUnknownProbe, got %v", err)
		}
		if _, err := parseRoot(t, "-c", path, "--on-timeout", "wait"); !errors.Is(err, config.ErrUnknownPolicy) {
			t.Errorf("expected ErrUnknownPolicy, got %v", err)
		}
	})
}
