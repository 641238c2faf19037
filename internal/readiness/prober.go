package readiness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/nao1215/onionentry/internal/tor"
)

// ErrInvalidCheckURL is returned when a prober is given an unusable URL.
var ErrInvalidCheckURL = errors.New("invalid check URL")

// Prober performs one readiness attempt. A nil error means the proxy is
// usable. Probe must return once ctx is done.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context) error

// Probe calls f(ctx).
func (f ProberFunc) Probe(ctx context.Context) error {
	return f(ctx)
}

// HTTPSProber fetches a URL through the proxy. The hostname is resolved by
// the proxy, so a success shows that both name resolution and connections
// work through Tor. Any HTTP response counts as success; only transport
// errors are failures.
type HTTPSProber struct {
	checkURL string
	client   *http.Client
}

// NewHTTPSProber creates a prober for checkURL using client's proxy.
// Certificate verification stays on unless the host is an onion service.
func NewHTTPSProber(client *tor.Client, checkURL string) (*HTTPSProber, error) {
	u, err := parseCheckURL(checkURL)
	if err != nil {
		return nil, err
	}
	return &HTTPSProber{
		checkURL: u.String(),
		client:   client.NewHTTPClient(tor.IsOnionHost(u.Hostname())),
	}, nil
}

// Probe sends one GET request.
func (p *HTTPSProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.checkURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is not actionable

	// The body is not needed; a bounded drain is enough to end the exchange cleanly.
	_, _ = io.CopyN(io.Discard, resp.Body, 64<<10) //nolint:errcheck // drain only
	return nil
}

// SOCKSProber asks the proxy to connect to the check URL's host and port
// without sending anything over the connection. It needs no TLS or HTTP
// from the check endpoint.
type SOCKSProber struct {
	target string
	client *tor.Client
}

// NewSOCKSProber creates a prober for checkURL's host. The port defaults
// to the scheme's.
func NewSOCKSProber(client *tor.Client, checkURL string) (*SOCKSProber, error) {
	u, err := parseCheckURL(checkURL)
	if err != nil {
		return nil, err
	}
	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	return &SOCKSProber{
		target: net.JoinHostPort(u.Hostname(), port),
		client: client,
	}, nil
}

// Target returns the "host:port" the prober connects to.
func (p *SOCKSProber) Target() string {
	return p.target
}

// Probe performs one SOCKS5 CONNECT.
func (p *SOCKSProber) Probe(ctx context.Context) error {
	status := p.client.CheckConnection(ctx, p.target)
	if err := status.Error(); err != nil {
		return fmt.Errorf("%s: %w", p.target, err)
	}
	return nil
}

func parseCheckURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCheckURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCheckURL, raw)
	}
	return u, nil
}
