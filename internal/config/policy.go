package config

import (
	"fmt"
	"strings"
)

// ExhaustionPolicy decides what the supervisor does when the readiness
// loop ran out of attempts without a single success.
type ExhaustionPolicy string

const (
	// PolicyProceed logs a warning and hands off anyway. The application
	// may start against a proxy that does not work yet.
	PolicyProceed ExhaustionPolicy = "proceed"

	// PolicyAbort exits without handing off.
	PolicyAbort ExhaustionPolicy = "abort"

	// PolicyRestart stops the daemon, launches it again and reruns the
	// loop, up to MaxCycles launch cycles. It aborts after the last one.
	PolicyRestart ExhaustionPolicy = "restart"
)

// IsValid reports whether p is a known policy.
func (p ExhaustionPolicy) IsValid() bool {
	switch p {
	case PolicyProceed, PolicyAbort, PolicyRestart:
		return true
	default:
		return false
	}
}

// ParseExhaustionPolicy parses a policy name, case-insensitively.
func ParseExhaustionPolicy(s string) (ExhaustionPolicy, error) {
	p := ExhaustionPolicy(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
	return p, nil
}

// ProbeKind selects the readiness check.
type ProbeKind string

const (
	// ProbeHTTPS fetches the check URL through the SOCKS listener.
	ProbeHTTPS ProbeKind = "https"

	// ProbeSOCKS only asks the SOCKS listener to open a connection to the
	// check URL's host and port.
	ProbeSOCKS ProbeKind = "socks"
)

// IsValid reports whether k is a known probe kind.
func (k ProbeKind) IsValid() bool {
	return k == ProbeHTTPS || k == ProbeSOCKS
}

// ParseProbeKind parses a probe kind name, case-insensitively.
func ParseProbeKind(s string) (ProbeKind, error) {
	k := ProbeKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProbe, s)
	}
	return k, nil
}
