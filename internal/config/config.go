package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/onionentry/internal/tor"
)

// Default configuration values.
// They describe the container image the supervisor ships in: Tor installed
// from the distribution package, torrc at the package's path, and a
// single-module Python application as the dependent process.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "onionentry"

	// DefaultTorBinary is looked up in PATH when the daemon is launched.
	DefaultTorBinary = "tor"

	// DefaultTorrcPath is the configuration file handed to the daemon with -f.
	DefaultTorrcPath = "/etc/tor/torrc"

	// DefaultSocksAddress is the Tor SOCKS5 listener.
	// We use 127.0.0.1 instead of localhost to avoid resolving localhost
	// to an IPv6 address the daemon does not listen on.
	DefaultSocksAddress = "127.0.0.1:9050"

	// DefaultCheckURL is the verification endpoint fetched through Tor.
	// Only reachability matters; the page content is ignored.
	DefaultCheckURL = "https://check.torproject.org/"

	// DefaultMaxAttempts bounds the readiness loop.
	DefaultMaxAttempts = 60

	// DefaultInterval is the delay between two readiness attempts.
	DefaultInterval = 1 * time.Second

	// DefaultProbeTimeout bounds a single attempt. It is kept below
	// DefaultInterval so every attempt starts on schedule and the last one
	// ends within MaxAttempts intervals of the first.
	DefaultProbeTimeout = 900 * time.Millisecond

	// DefaultMaxCycles is the number of launch cycles for PolicyRestart.
	DefaultMaxCycles = 3

	// DefaultStopTimeout is how long a daemon gets to exit after SIGTERM
	// before it is killed. Only the restart policy stops the daemon.
	DefaultStopTimeout = 10 * time.Second

	// DefaultEmbeddedStartupTimeout is the maximum time tornago waits for
	// the embedded daemon to bootstrap.
	DefaultEmbeddedStartupTimeout = 3 * time.Minute
)

// DefaultAppCommand is the dependent application: a single entry module
// run by the Python interpreter, without extra arguments.
func DefaultAppCommand() []string {
	return []string{"python", "main.py"}
}

// Config holds every setting of the supervisor.
// It is populated from defaults, an optional YAML file and CLI flags, in
// that order, and passed to the components that need it.
type Config struct {
	// TorBinary is the daemon executable, resolved through PATH.
	TorBinary string

	// TorrcPath is the daemon's configuration file.
	TorrcPath string

	// SocksAddress is the daemon's SOCKS5 listener in "host:port" format.
	SocksAddress string

	// Embedded starts Tor through tornago instead of TorBinary.
	Embedded bool

	// EmbeddedStartupTimeout is only used when Embedded is true.
	EmbeddedStartupTimeout time.Duration

	// CheckURL is fetched through the proxy by the https probe.
	CheckURL string

	// Probe selects how a readiness attempt is performed.
	Probe ProbeKind

	// MaxAttempts is the number of readiness attempts per launch cycle.
	MaxAttempts int

	// Interval is the delay between two attempts.
	Interval time.Duration

	// ProbeTimeout bounds one attempt.
	ProbeTimeout time.Duration

	// OnTimeout decides what happens when every attempt failed.
	OnTimeout ExhaustionPolicy

	// MaxCycles is the number of launch cycles under PolicyRestart.
	MaxCycles int

	// StopTimeout is the grace period given to a daemon being restarted.
	StopTimeout time.Duration

	// AppCommand is the process the supervisor is replaced with.
	AppCommand []string

	// ConfigFilePath is the YAML file the settings were read from, if any.
	ConfigFilePath string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches the log handler to JSON.
	LogJSON bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		TorBinary:              DefaultTorBinary,
		TorrcPath:              DefaultTorrcPath,
		SocksAddress:           DefaultSocksAddress,
		EmbeddedStartupTimeout: DefaultEmbeddedStartupTimeout,
		CheckURL:               DefaultCheckURL,
		Probe:                  ProbeHTTPS,
		MaxAttempts:            DefaultMaxAttempts,
		Interval:               DefaultInterval,
		ProbeTimeout:           DefaultProbeTimeout,
		OnTimeout:              PolicyProceed,
		MaxCycles:              DefaultMaxCycles,
		StopTimeout:            DefaultStopTimeout,
		AppCommand:             DefaultAppCommand(),
	}
}

// Validate checks the configuration and returns the first problem found.
// It is called once, after flags and the config file have been merged.
func (c *Config) Validate() error {
	if len(c.AppCommand) == 0 || strings.TrimSpace(c.AppCommand[0]) == "" {
		return ErrNoAppCommand
	}
	if !c.Embedded {
		if c.TorBinary == "" {
			return ErrNoTorBinary
		}
		if c.TorrcPath == "" {
			return ErrNoTorrc
		}
	} else if c.EmbeddedStartupTimeout <= 0 {
		return ErrInvalidStartupTimeout
	}
	if !isValidSocksAddress(c.SocksAddress) {
		return ErrInvalidSocksAddress
	}
	if err := validateCheckURL(c.CheckURL); err != nil {
		return err
	}
	if !c.Probe.IsValid() {
		return ErrUnknownProbe
	}
	if c.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	// Zero is allowed: attempts then run back to back.
	if c.Interval < 0 {
		return ErrInvalidInterval
	}
	if c.ProbeTimeout <= 0 {
		return ErrInvalidProbeTimeout
	}
	if !c.OnTimeout.IsValid() {
		return ErrUnknownPolicy
	}
	if c.OnTimeout == PolicyRestart && c.MaxCycles <= 0 {
		return ErrInvalidMaxCycles
	}
	if c.StopTimeout <= 0 {
		return ErrInvalidStopTimeout
	}
	return nil
}

// ProbeExceedsInterval reports whether one attempt may outlast the delay
// between attempts. Such an attempt pushes the next one past its scheduled
// start, so the worst-case wait grows beyond MaxAttempts intervals. It is a
// warning, not a validation error.
func (c *Config) ProbeExceedsInterval() bool {
	return c.ProbeTimeout >= c.Interval
}

// isValidSocksAddress accepts "host:port" with a non-empty host and a port
// in 1..65535. IPv6 literals must be bracketed.
func isValidSocksAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

func validateCheckURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ErrInvalidCheckURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidCheckURL
	}
	host := strings.ToLower(u.Hostname())
	if strings.HasSuffix(host, tor.OnionSuffix) && !tor.IsValidV3Address(host) {
		return ErrInvalidOnionCheckURL
	}
	return nil
}
