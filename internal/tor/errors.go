package tor

import "errors"

// Launch errors. A launch error means no daemon process exists, so the
// supervisor aborts instead of waiting for a proxy that cannot appear.
var (
	// ErrDaemonNotFound is returned when the daemon executable is not in PATH.
	ErrDaemonNotFound = errors.New("tor daemon binary not found")

	// ErrTorrcNotFound is returned when the daemon configuration file is missing.
	ErrTorrcNotFound = errors.New("torrc not found")

	// ErrStopTimeout is returned when a daemon ignored SIGTERM and had to be killed.
	ErrStopTimeout = errors.New("timed out waiting for tor daemon to exit")
)

// SOCKS errors reported by CheckConnection through ProxyStatus.Error.
var (
	// ErrProxyNotSOCKS5 is returned when the listener answers but does not
	// speak unauthenticated SOCKS5.
	ErrProxyNotSOCKS5 = errors.New("proxy is not an unauthenticated SOCKS5 proxy")

	// ErrProxyCannotConnect is returned when no TCP connection to the
	// listener can be made. Tor is not listening yet, or not at all.
	ErrProxyCannotConnect = errors.New("cannot connect to SOCKS proxy")

	// ErrProxyTimeout is returned when the listener or the proxied
	// connection did not answer in time.
	ErrProxyTimeout = errors.New("timeout talking to SOCKS proxy")

	// ErrProxyUnreachable is returned when the proxy answered the CONNECT
	// request with a failure reply. While Tor is bootstrapping this is the
	// expected answer.
	ErrProxyUnreachable = errors.New("proxy could not reach the target")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// ProxyStatus is the outcome of CheckConnection.
type ProxyStatus int

const (
	// ProxyStatusOK means the proxy opened a connection to the target.
	ProxyStatusOK ProxyStatus = iota

	// ProxyStatusWrongType means the listener does not speak SOCKS5 without auth.
	ProxyStatusWrongType

	// ProxyStatusCannotConnect means nothing accepted the TCP connection.
	ProxyStatusCannotConnect

	// ProxyStatusTimeout means the exchange did not finish in time.
	ProxyStatusTimeout

	// ProxyStatusUnreachable means the proxy refused or failed the CONNECT.
	ProxyStatusUnreachable
)

// String returns a human-readable description of the proxy status.
func (s ProxyStatus) String() string {
	switch s {
	case ProxyStatusOK:
		return "OK"
	case ProxyStatusWrongType:
		return "wrong type (not SOCKS5)"
	case ProxyStatusCannotConnect:
		return "cannot connect"
	case ProxyStatusTimeout:
		return "timeout"
	case ProxyStatusUnreachable:
		return "target unreachable"
	default:
		return "unknown"
	}
}

// Error returns the error for this status, or nil if OK.
func (s ProxyStatus) Error() error {
	switch s {
	case ProxyStatusOK:
		return nil
	case ProxyStatusWrongType:
		return ErrProxyNotSOCKS5
	case ProxyStatusCannotConnect:
		return ErrProxyCannotConnect
	case ProxyStatusTimeout:
		return ErrProxyTimeout
	case ProxyStatusUnreachable:
		return ErrProxyUnreachable
	default:
		return errors.New("unknown proxy status")
	}
}
