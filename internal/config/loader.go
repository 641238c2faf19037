package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the file name looked up in the working directory.
const DefaultConfigFile = "onionentry.yaml"

// xdgConfigFile is the path looked up relative to the XDG config directories.
var xdgConfigFile = filepath.Join(AppName, "config.yaml")

// File represents the structure of the YAML configuration file.
// Zero values mean "not set" and leave the current setting untouched.
type File struct {
	Tor       TorSection       `yaml:"tor,omitempty"`
	Readiness ReadinessSection `yaml:"readiness,omitempty"`
	App       AppSection       `yaml:"app,omitempty"`
}

// TorSection configures the daemon launch.
type TorSection struct {
	Binary                 string        `yaml:"binary,omitempty"`
	Torrc                  string        `yaml:"torrc,omitempty"`
	SocksAddress           string        `yaml:"socksAddress,omitempty"`
	Embedded               bool          `yaml:"embedded,omitempty"`
	EmbeddedStartupTimeout time.Duration `yaml:"embeddedStartupTimeout,omitempty"`
	StopTimeout            time.Duration `yaml:"stopTimeout,omitempty"`
}

// ReadinessSection configures the readiness loop.
type ReadinessSection struct {
	CheckURL     string        `yaml:"checkURL,omitempty"`
	Probe        string        `yaml:"probe,omitempty"`
	MaxAttempts  int           `yaml:"maxAttempts,omitempty"`
	Interval     time.Duration `yaml:"interval,omitempty"`
	ProbeTimeout time.Duration `yaml:"probeTimeout,omitempty"`
	OnTimeout    string        `yaml:"onTimeout,omitempty"`
	MaxCycles    int           `yaml:"maxCycles,omitempty"`
}

// AppSection configures the handoff target.
type AppSection struct {
	Command []string `yaml:"command,omitempty"`
}

// LoadConfigFile reads and parses a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-provided config path is intentional
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. configPath, if specified
//  2. onionentry.yaml in the current directory
//  3. onionentry/config.yaml in $XDG_CONFIG_HOME, then in $XDG_CONFIG_DIRS
//
// It returns an empty string when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if path, err := xdg.SearchConfigFile(xdgConfigFile); err == nil {
		return path
	}
	return ""
}

// XDGConfigDir returns the per-user configuration directory of onionentry.
// On Linux: ~/.config/onionentry
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Apply merges the file's settings into c. Unset fields are skipped.
func (f *File) Apply(c *Config) error {
	t := f.Tor
	if t.Binary != "" {
		c.TorBinary = t.Binary
	}
	if t.Torrc != "" {
		c.TorrcPath = t.Torrc
	}
	if t.SocksAddress != "" {
		c.SocksAddress = t.SocksAddress
	}
	if t.Embedded {
		c.Embedded = true
	}
	if t.EmbeddedStartupTimeout != 0 {
		c.EmbeddedStartupTimeout = t.EmbeddedStartupTimeout
	}
	if t.StopTimeout != 0 {
		c.StopTimeout = t.StopTimeout
	}

	r := f.Readiness
	if r.CheckURL != "" {
		c.CheckURL = r.CheckURL
	}
	if r.Probe != "" {
		kind, err := ParseProbeKind(r.Probe)
		if err != nil {
			return err
		}
		c.Probe = kind
	}
	if r.MaxAttempts != 0 {
		c.MaxAttempts = r.MaxAttempts
	}
	if r.Interval != 0 {
		c.Interval = r.Interval
	}
	if r.ProbeTimeout != 0 {
		c.ProbeTimeout = r.ProbeTimeout
	}
	if r.OnTimeout != "" {
		policy, err := ParseExhaustionPolicy(r.OnTimeout)
		if err != nil {
			return err
		}
		c.OnTimeout = policy
	}
	if r.MaxCycles != 0 {
		c.MaxCycles = r.MaxCycles
	}

	if len(f.App.Command) > 0 {
		c.AppCommand = append([]string(nil), f.App.Command...)
	}
	return nil
}
