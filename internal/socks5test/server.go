// Package socks5test provides a SOCKS5 listener that behaves like a Tor
// SOCKS port for tests: CONNECT requests fail until the server is marked
// bootstrapped, then they are proxied to a dialer chosen by the test.
package socks5test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
)

const (
	socks5Version  = uint8(5)
	noAuth         = uint8(0)
	noAcceptable   = uint8(0xFF)
	connectCommand = uint8(1)
	ipv4Address    = uint8(1)
	fqdnAddress    = uint8(3)
	ipv6Address    = uint8(4)
	successReply   = uint8(0)
	generalFailure = uint8(1)
	hostUnreach    = uint8(4)
)

// Server is a SOCKS5 listener on 127.0.0.1 with an OS-assigned port.
type Server struct {
	dial         DialFunc
	listener     net.Listener
	bootstrapped atomic.Bool

	mu       sync.Mutex
	requests []string
	wg       sync.WaitGroup
}

// DialFunc opens the upstream connection for a CONNECT request.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// NewServer starts a server that is not bootstrapped yet. dial opens
// upstream connections; nil means a plain net.Dialer.
func NewServer(dial DialFunc) (*Server, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}
	s := &Server{dial: dial, listener: l}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.serve()
	}()
	return s, nil
}

// Addr returns the listener address in "host:port" format.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// SetBootstrapped switches CONNECT handling between failure replies and
// proxying.
func (s *Server) SetBootstrapped(v bool) {
	s.bootstrapped.Store(v)
}

// Requests returns the destinations of all CONNECT requests so far, as
// the client sent them.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Close stops the listener and waits for the accept loop.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.wg.Wait()
	return err
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go func() {
			_ = s.serveConn(conn) //nolint:errcheck // per-connection errors only matter to the client
		}()
	}
}

func (s *Server) serveConn(conn net.Conn) error {
	defer conn.Close() //nolint:errcheck // best-effort close

	header := make([]byte, 2)
	if _, err := io.ReadFull(conn, header); err != nil {
		return err
	}
	if header[0] != socks5Version {
		return fmt.Errorf("unsupported SOCKS version: %d", header[0])
	}
	methods := make([]byte, header[1])
	if _, err := io.ReadFull(conn, methods); err != nil {
		return err
	}
	hasNoAuth := false
	for _, m := range methods {
		if m == noAuth {
			hasNoAuth = true
		}
	}
	if !hasNoAuth {
		_, _ = conn.Write([]byte{socks5Version, noAcceptable})
		return errors.New("no acceptable auth method")
	}
	if _, err := conn.Write([]byte{socks5Version, noAuth}); err != nil {
		return err
	}

	dest, cmd, err := readRequest(conn)
	if err != nil {
		_ = sendReply(conn, generalFailure)
		return err
	}
	s.mu.Lock()
	s.requests = append(s.requests, dest)
	s.mu.Unlock()

	if cmd != connectCommand || !s.bootstrapped.Load() {
		return sendReply(conn, generalFailure)
	}

	upstream, err := s.dial(context.Background(), "tcp", dest)
	if err != nil {
		return sendReply(conn, hostUnreach)
	}
	defer upstream.Close() //nolint:errcheck // best-effort close

	if err := sendReply(conn, successReply); err != nil {
		return err
	}

	done := make(chan struct{}, 2)
	go func() {
		_, _ = io.Copy(upstream, conn)
		done <- struct{}{}
	}()
	go func() {
		_, _ = io.Copy(conn, upstream)
		done <- struct{}{}
	}()
	<-done
	return nil
}

func readRequest(r io.Reader) (dest string, cmd uint8, err error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return "", 0, err
	}
	cmd = header[1]

	var host string
	switch header[3] {
	case ipv4Address:
		ip := make([]byte, 4)
		if _, err := io.ReadFull(r, ip); err != nil {
			return "", 0, err
		}
		host = net.IP(ip).String()
	case ipv6Address:
		ip := make([]byte, 16)
		if _, err := io.ReadFull(r, ip); err != nil {
			return "", 0, err
		}
		host = net.IP(ip).String()
	case fqdnAddress:
		n := make([]byte, 1)
		if _, err := io.ReadFull(r, n); err != nil {
			return "", 0, err
		}
		name := make([]byte, n[0])
		if _, err := io.ReadFull(r, name); err != nil {
			return "", 0, err
		}
		host = string(name)
	default:
		return "", 0, fmt.Errorf("unsupported address type: %d", header[3])
	}

	port := make([]byte, 2)
	if _, err := io.ReadFull(r, port); err != nil {
		return "", 0, err
	}
	return net.JoinHostPort(host, strconv.Itoa(int(port[0])<<8|int(port[1]))), cmd, nil
}

func sendReply(w io.Writer, reply uint8) error {
	// Bound address 0.0.0.0:0; clients ignore it.
	_, err := w.Write([]byte{socks5Version, reply, 0, ipv4Address, 0, 0, 0, 0, 0, 0})
	return err
}

// RedirectTo returns a Dial function that connects every request to addr,
// whatever name the client asked for.
func RedirectTo(addr string) DialFunc {
	return func(ctx context.Context, network, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, addr)
	}
}
