package tor

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// Client routes connections through the daemon's SOCKS5 listener.
//
// Hostnames are handed to the proxy unresolved, so name resolution happens
// inside Tor as well as the TCP connection (socks5h semantics).
type Client struct {
	// proxyAddress is the SOCKS5 listener in "host:port" format.
	proxyAddress string

	// dialer is created once; x/net/proxy dialers are safe for reuse.
	dialer proxy.Dialer

	// timeout bounds every HTTP request made by clients from NewHTTPClient.
	timeout time.Duration
}

// NewClient creates a Client for the SOCKS5 listener at proxyAddress.
// It does not connect; a daemon that is still bootstrapping is the normal
// case when the client is created.
func NewClient(proxyAddress string, timeout time.Duration) (*Client, error) {
	if !isValidProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}

	// Tor's SOCKS port does not require authentication.
	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	return &Client{
		proxyAddress: proxyAddress,
		dialer:       dialer,
		timeout:      timeout,
	}, nil
}

// isValidProxyAddress checks for "host:port" with a port in 1..65535.
func isValidProxyAddress(address string) bool {
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

// ProxyAddress returns the configured SOCKS5 listener address.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// DialContext opens a connection to address through the proxy.
func (c *Client) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if cd, ok := c.dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, address)
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan dialResult, 1)
	go func() {
		conn, err := c.dialer.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case result := <-resultCh:
		return result.conn, result.err
	case <-ctx.Done():
		// The dial goroutine may still finish; close what it returns.
		go func() {
			if result := <-resultCh; result.conn != nil {
				_ = result.conn.Close() //nolint:errcheck // abandoned connection
			}
		}()
		return nil, ctx.Err()
	}
}

// NewHTTPClient creates an HTTP client whose every connection goes through
// the proxy.
//
// Keep-alives are disabled: each readiness attempt must build its own
// connection, otherwise a connection opened by an earlier attempt could
// report success for a circuit that no longer exists.
//
// insecureTLS disables certificate verification. It is meant for onion
// services, whose address already authenticates the server.
func (c *Client) NewHTTPClient(insecureTLS bool) *http.Client {
	transport := &http.Transport{
		DialContext:       c.DialContext,
		DisableKeepAlives: true,
		// Disable compression to avoid size side channels on Tor traffic.
		DisableCompression:  true,
		TLSHandshakeTimeout: c.timeout,
	}
	if insecureTLS {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // onion services authenticate by address
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
		// A redirect means the endpoint answered; that is all we need.
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
