package tor

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nao1215/onionentry/internal/socks5test"
)

// TestNewClient tests the Client constructor.
func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("valid proxy address creates client", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:9050", 30*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.ProxyAddress() != "127.0.0.1:9050" {
			t.Errorf("ProxyAddress() = %q, expected %q", client.ProxyAddress(), "127.0.0.1:9050")
		}
	})

	invalid := []struct {
		name    string
		address string
	}{
		{"empty address", ""},
		{"address without port", "127.0.0.1"},
		{"address with empty host", ":9050"},
		{"address with empty port", "127.0.0.1:"},
		{"address with multiple colons", "127.0.0.1:9050:extra"},
		{"port out of range", "127.0.0.1:65536"},
		{"non-numeric port", "127.0.0.1:tor"},
	}
	for _, tc := range invalid {
		t.Run(tc.name+" returns error", func(t *testing.T) {
			t.Parallel()

			_, err := NewClient(tc.address, 30*time.Second)
			if !errors.Is(err, ErrInvalidProxyAddress) {
				t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
			}
		})
	}
}

// TestNewHTTPClient tests HTTP client configuration.
func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	client, err := NewClient("127.0.0.1:9050", 900*time.Millisecond)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	t.Run("timeout is the client timeout", func(t *testing.T) {
		t.Parallel()
		if got := client.NewHTTPClient(false).Timeout; got != 900*time.Millisecond {
			t.Errorf("Timeout = %v, expected %v", got, 900*time.Millisecond)
		}
	})

	t.Run("keep-alives are disabled", func(t *testing.T) {
		t.Parallel()
		transport, ok := client.NewHTTPClient(false).Transport.(*http.Transport)
		if !ok {
			t.Fatal("expected *http.Transport")
		}
		if !transport.DisableKeepAlives {
			t.Error("expected DisableKeepAlives")
		}
		if transport.TLSClientConfig != nil {
			t.Error("expected default TLS verification")
		}
	})

	t.Run("insecure TLS only on request", func(t *testing.T) {
		t.Parallel()
		transport, ok := client.NewHTTPClient(true).Transport.(*http.Transport)
		if !ok {
			t.Fatal("expected *http.Transport")
		}
		if transport.TLSClientConfig == nil || !transport.TLSClientConfig.InsecureSkipVerify {
			t.Error("expected InsecureSkipVerify")
		}
	})
}

// TestHTTPThroughProxy tests that requests go through the SOCKS listener
// with the hostname unresolved.
func TestHTTPThroughProxy(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer upstream.Close()

	srv, err := socks5test.NewServer(socks5test.RedirectTo(upstream.Listener.Addr().String()))
	if err != nil {
		t.Fatalf("failed to start SOCKS server: %v", err)
	}
	defer srv.Close()
	srv.SetBootstrapped(true)

	client, err := NewClient(srv.Addr(), 5*time.Second)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	resp, err := client.NewHTTPClient(false).Get("http://check.example/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("StatusCode = %d, expected %d", resp.StatusCode, http.StatusTeapot)
	}
	reqs := srv.Requests()
	if len(reqs) != 1 || reqs[0] != "check.example:80" {
		t.Errorf("expected one CONNECT to check.example:80, got %v", reqs)
	}
}

// TestCheckConnection tests the SOCKS5 CONNECT check.
func TestCheckConnection(t *testing.T) {
	t.Parallel()

	target, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = target.Close() })
	go func() {
		for {
			conn, err := target.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	t.Run("bootstrapped proxy reports OK", func(t *testing.T) {
		t.Parallel()

		srv, err := socks5test.NewServer(socks5test.RedirectTo(target.Addr().String()))
		if err != nil {
			t.Fatalf("failed to start SOCKS server: %v", err)
		}
		defer srv.Close()
		srv.SetBootstrapped(true)

		client, err := NewClient(srv.Addr(), 5*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if status := client.CheckConnection(context.Background(), "check.torproject.org:443"); status != ProxyStatusOK {
			t.Errorf("status = %s, expected OK", status)
		}
		if reqs := srv.Requests(); len(reqs) != 1 || reqs[0] != "check.torproject.org:443" {
			t.Errorf("expected the name to be sent unresolved, got %v", reqs)
		}
	})

	t.Run("bootstrapping proxy reports unreachable", func(t *testing.T) {
		t.Parallel()

		srv, err := socks5test.NewServer(nil)
		if err != nil {
			t.Fatalf("failed to start SOCKS server: %v", err)
		}
		defer srv.Close()

		client, err := NewClient(srv.Addr(), 5*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		status := client.CheckConnection(context.Background(), "check.torproject.org:443")
		if status != ProxyStatusUnreachable {
			t.Errorf("status = %s, expected target unreachable", status)
		}
		if !errors.Is(status.Error(), ErrProxyUnreachable) {
			t.Errorf("Error() = %v", status.Error())
		}
	})

	t.Run("closed port reports cannot connect", func(t *testing.T) {
		t.Parallel()

		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		addr := l.Addr().String()
		l.Close()

		client, err := NewClient(addr, 5*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if status := client.CheckConnection(context.Background(), "check.torproject.org:443"); status != ProxyStatusCannotConnect {
			t.Errorf("status = %s, expected cannot connect", status)
		}
	})

	t.Run("non-SOCKS listener reports wrong type", func(t *testing.T) {
		t.Parallel()

		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		defer l.Close()
		go func() {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			_, _ = conn.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
		}()

		client, err := NewClient(l.Addr().String(), 5*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if status := client.CheckConnection(context.Background(), "check.torproject.org:443"); status != ProxyStatusWrongType {
			t.Errorf("status = %s, expected wrong type", status)
		}
	})

	t.Run("silent listener reports timeout", func(t *testing.T) {
		t.Parallel()

		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		defer l.Close()
		go func() {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			time.Sleep(2 * time.Second)
		}()

		client, err := NewClient(l.Addr().String(), 5*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		if status := client.CheckConnection(ctx, "check.torproject.org:443"); status != ProxyStatusTimeout {
			t.Errorf("status = %s, expected timeout", status)
		}
	})

	t.Run("malformed target is unreachable", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:9050", time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if status := client.CheckConnection(context.Background(), "no-port"); status != ProxyStatusUnreachable {
			t.Errorf("status = %s, expected target unreachable", status)
		}
	})
}

// TestProxyStatus tests ProxyStatus String and Error methods.
func TestProxyStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status      ProxyStatus
		expected    string
		expectedErr error
	}{
		{ProxyStatusOK, "OK", nil},
		{ProxyStatusWrongType, "wrong type (not SOCKS5)", ErrProxyNotSOCKS5},
		{ProxyStatusCannotConnect, "cannot connect", ErrProxyCannotConnect},
		{ProxyStatusTimeout, "timeout", ErrProxyTimeout},
		{ProxyStatusUnreachable, "target unreachable", ErrProxyUnreachable},
	}

	for _, tc := range testCases {
		if tc.status.String() != tc.expected {
			t.Errorf("ProxyStatus(%d).String() = %q, expected %q", tc.status, tc.status.String(), tc.expected)
		}
		if err := tc.status.Error(); !errors.Is(err, tc.expectedErr) {
			t.Errorf("ProxyStatus(%d).Error() = %v, expected %v", tc.status, err, tc.expectedErr)
		}
	}

	unknown := ProxyStatus(99)
	if unknown.String() != "unknown" {
		t.Errorf("unknown String() = %q", unknown.String())
	}
	if unknown.Error() == nil {
		t.Error("expected error for unknown status")
	}
}
