package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// They are sentinels so the CLI can match them with errors.Is.
var (
	// ErrNoAppCommand is returned when there is no application to hand off to.
	ErrNoAppCommand = errors.New("no application command: set app.command or pass it after --")

	// ErrNoTorBinary is returned when the daemon executable name is empty.
	ErrNoTorBinary = errors.New("no tor binary configured")

	// ErrNoTorrc is returned when the daemon configuration path is empty.
	ErrNoTorrc = errors.New("no torrc path configured")

	// ErrInvalidStartupTimeout is returned when the embedded startup timeout is not positive.
	ErrInvalidStartupTimeout = errors.New("invalid embedded startup timeout: must be positive")

	// ErrInvalidSocksAddress is returned when the SOCKS address is not "host:port".
	ErrInvalidSocksAddress = errors.New("invalid SOCKS address: expected host:port")

	// ErrInvalidCheckURL is returned when the check URL is not an absolute http(s) URL.
	ErrInvalidCheckURL = errors.New("invalid check URL: expected an absolute http or https URL")

	// ErrInvalidOnionCheckURL is returned when the check URL points to a
	// malformed or non-v3 .onion address.
	ErrInvalidOnionCheckURL = errors.New("invalid check URL: not a valid v3 onion address")

	// ErrUnknownProbe is returned for a probe kind other than https or socks.
	ErrUnknownProbe = errors.New("unknown probe: expected https or socks")

	// ErrInvalidMaxAttempts is returned when the attempt count is not positive.
	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be positive")

	// ErrInvalidInterval is returned when the delay between attempts is negative.
	ErrInvalidInterval = errors.New("invalid interval: must be non-negative")

	// ErrInvalidProbeTimeout is returned when the per-attempt timeout is not positive.
	ErrInvalidProbeTimeout = errors.New("invalid probe timeout: must be positive")

	// ErrUnknownPolicy is returned for an unknown exhaustion policy.
	ErrUnknownPolicy = errors.New("unknown timeout policy: expected proceed, abort or restart")

	// ErrInvalidMaxCycles is returned when the restart policy has no cycle to run.
	ErrInvalidMaxCycles = errors.New("invalid max cycles: must be positive")

	// ErrInvalidStopTimeout is returned when the daemon stop grace period is not positive.
	ErrInvalidStopTimeout = errors.New("invalid stop timeout: must be positive")

	// ErrConfigNotFound is returned when an explicitly requested file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
