// Package fetch downloads release archives over HTTPS with certificate
// verification, proxy support, and a single IP-family fallback retry.
package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/tachyon-css/tachyon-go/internal/logging"
)

const fetchTimeout = 5 * time.Minute

// DialFunc matches net.Dialer.DialContext and is injectable for tests.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// NotFoundError indicates the server has no artifact at the URL. It usually
// means the requested version/target combination was never published.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no artifact published at %s", e.URL)
}

// Error is a terminal download failure. Its message carries remediation
// guidance because it is surfaced directly to the user.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to download %s: %v\n"+
		"Check your network, HTTPS_PROXY settings, and CA certificates. "+
		"You can also download the archive manually, or set path: in .tachyon/config.yaml "+
		"to a system-installed tachyon binary.", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client performs HTTPS GETs with TLS 1.2+, system trust roots, and proxy
// settings from the environment. A connection-level network-family failure
// on the first attempt flips the preferred IP family and retries once.
type Client struct {
	dial   DialFunc
	family string
}

// New returns a Client preferring IPv4 on the first attempt.
func New() *Client {
	d := &net.Dialer{Timeout: 30 * time.Second}
	return &Client{dial: d.DialContext, family: "tcp4"}
}

// NewWithDialer returns a Client using dial for all connections. Tests use
// this to observe which network family each attempt requested.
func NewWithDialer(dial DialFunc) *Client {
	return &Client{dial: dial, family: "tcp4"}
}

// Fetch GETs url and returns the response body. A 404 yields *NotFoundError,
// every other failure yields *Error after at most one family-flip retry.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	log := logging.FromContext(ctx)

	body, err := c.attempt(ctx, url, c.family)
	if err == nil {
		return body, nil
	}

	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nil, err
	}
	if !isFamilyError(err) {
		return nil, &Error{URL: url, Err: err}
	}

	retryFamily := flip(c.family)
	log.Debug().
		Str("component", "fetch").
		Str("url", url).
		Str("family", retryFamily).
		Err(err).
		Msg("connection failed, retrying with flipped IP family")

	body, retryErr := c.attempt(ctx, url, retryFamily)
	if retryErr == nil {
		return body, nil
	}
	if errors.As(retryErr, &nf) {
		return nil, retryErr
	}
	return nil, &Error{URL: url, Err: retryErr}
}

// attempt issues one GET forcing the given network family for new
// connections.
func (c *Client) attempt(ctx context.Context, url, family string) ([]byte, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, _, addr string) (net.Conn, error) {
			return c.dial(ctx, family, addr)
		},
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	client := &http.Client{Transport: transport, Timeout: fetchTimeout}
	defer transport.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("reading response body: %w", readErr)
		}
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{URL: url}
	default:
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
}

func flip(family string) string {
	if family == "tcp4" {
		return "tcp6"
	}
	return "tcp4"
}

// isFamilyError reports whether err is a connection-level failure that a
// different IP family might resolve: unreachable network or host, an
// unsupported address family, or name resolution returning no usable
// addresses.
func isFamilyError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var addrErr *net.AddrError
	if errors.As(err, &addrErr) {
		return true
	}
	for _, errno := range []syscall.Errno{
		syscall.ENETUNREACH,
		syscall.EHOSTUNREACH,
		syscall.EAFNOSUPPORT,
		syscall.EADDRNOTAVAIL,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
