package tor

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
)

// SOCKS5 protocol constants (RFC 1928).
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5CmdConnect   = 0x01
	socks5AddrTypeFQDN = 0x03
	socks5ReplySuccess = 0x00
)

// CheckConnection asks the proxy to open a connection to target
// ("host:port") and reports how far the exchange got.
//
// Unlike an HTTP request this stops at the SOCKS reply, so it does not
// depend on the target's TLS or HTTP behaviour. Tor answers a CONNECT with
// a failure reply until it has circuits, so ProxyStatusOK means the daemon
// resolved the name and reached the target through the network.
//
// The exchange is bounded by ctx, or by the client timeout when ctx has no
// deadline.
func (c *Client) CheckConnection(ctx context.Context, target string) ProxyStatus {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil || host == "" || len(host) > 255 {
		return ProxyStatusUnreachable
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return ProxyStatusUnreachable
	}

	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return ProxyStatusCannotConnect
		}
	}

	// Greeting: offer "no authentication" only.
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}
	authResp := make([]byte, 2)
	if _, err := io.ReadFull(conn, authResp); err != nil {
		return readFailure(err)
	}
	if authResp[0] != socks5Version || authResp[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}

	// CONNECT with the unresolved name so resolution happens in the proxy.
	req := []byte{socks5Version, socks5CmdConnect, 0x00, socks5AddrTypeFQDN, byte(len(host))}
	req = append(req, host...)
	req = append(req, byte(port>>8), byte(port&0xFF))
	if _, err := conn.Write(req); err != nil {
		return ProxyStatusCannotConnect
	}

	// Only the fixed part of the reply is needed.
	reply := make([]byte, 4)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return readFailure(err)
	}
	if reply[0] != socks5Version {
		return ProxyStatusWrongType
	}
	if reply[1] != socks5ReplySuccess {
		return ProxyStatusUnreachable
	}
	return ProxyStatusOK
}

// readFailure classifies a failed read during the handshake.
func readFailure(err error) ProxyStatus {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ProxyStatusTimeout
	}
	return ProxyStatusWrongType
}
