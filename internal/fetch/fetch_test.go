package fetch

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDialer captures the network family of each dial attempt and can
// fail selected attempts with a canned error.
type recordingDialer struct {
	mu       sync.Mutex
	families []string
	failWith func(attempt int) error
}

func (d *recordingDialer) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	d.mu.Lock()
	d.families = append(d.families, network)
	attempt := len(d.families)
	d.mu.Unlock()

	if d.failWith != nil {
		if err := d.failWith(attempt); err != nil {
			return nil, err
		}
	}
	var nd net.Dialer
	return nd.DialContext(ctx, "tcp", addr)
}

func (d *recordingDialer) seen() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.families...)
}

func TestFetch_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("archive bytes"))
	}))
	defer srv.Close()

	dialer := &recordingDialer{}
	client := NewWithDialer(dialer.dial)

	body, err := client.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("archive bytes"), body)
	assert.Equal(t, []string{"tcp4"}, dialer.seen())
}

func TestFetch_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	dialer := &recordingDialer{}
	client := NewWithDialer(dialer.dial)

	body, err := client.Fetch(context.Background(), srv.URL+"/releases/v9.9.9/missing.tar.gz")
	require.Error(t, err)
	assert.Nil(t, body)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Error(), "9.9.9")
	assert.Contains(t, nf.Error(), "missing.tar.gz")

	// A 404 is a definitive answer from the server, never retried.
	assert.Len(t, dialer.seen(), 1)
}

func TestFetch_ServerErrorNotRetried(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dialer := &recordingDialer{}
	client := NewWithDialer(dialer.dial)

	_, err := client.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Error(), "500")
	assert.Len(t, dialer.seen(), 1)
}

func TestFetch_FamilyErrorFlipsAndRetriesOnce(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	dialer := &recordingDialer{
		failWith: func(attempt int) error {
			if attempt == 1 {
				return syscall.ENETUNREACH
			}
			return nil
		},
	}
	client := NewWithDialer(dialer.dial)

	body, err := client.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), body)
	assert.Equal(t, []string{"tcp4", "tcp6"}, dialer.seen())
}

func TestFetch_FamilyErrorOnBothAttempts(t *testing.T) {
	t.Parallel()

	dialer := &recordingDialer{
		failWith: func(_ int) error { return syscall.EHOSTUNREACH },
	}
	client := NewWithDialer(dialer.dial)

	_, err := client.Fetch(context.Background(), "http://releases.invalid/v2.10.0/a.tar.gz")
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, syscall.EHOSTUNREACH)
	assert.Contains(t, fe.Error(), "HTTPS_PROXY")

	// Exactly one retry, never a third attempt.
	assert.Equal(t, []string{"tcp4", "tcp6"}, dialer.seen())
}

func TestFetch_NonFamilyDialErrorNotRetried(t *testing.T) {
	t.Parallel()

	dialer := &recordingDialer{
		failWith: func(_ int) error { return syscall.ECONNREFUSED },
	}
	client := NewWithDialer(dialer.dial)

	_, err := client.Fetch(context.Background(), "http://releases.invalid/a.tar.gz")
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Len(t, dialer.seen(), 1)
}

func TestIsFamilyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network unreachable", syscall.ENETUNREACH, true},
		{"host unreachable", syscall.EHOSTUNREACH, true},
		{"address family unsupported", syscall.EAFNOSUPPORT, true},
		{"address not available", syscall.EADDRNOTAVAIL, true},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "releases.invalid"}, true},
		{"wrapped in op error", &net.OpError{Op: "dial", Err: syscall.ENETUNREACH}, true},
		{"connection refused", syscall.ECONNREFUSED, false},
		{"plain error", assert.AnError, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, isFamilyError(tt.err))
		})
	}
}

func TestError_MessageCarriesGuidance(t *testing.T) {
	t.Parallel()

	err := &Error{URL: "https://releases.invalid/a.tar.gz", Err: assert.AnError}
	msg := err.Error()
	assert.Contains(t, msg, "https://releases.invalid/a.tar.gz")
	assert.True(t, strings.Contains(msg, "manually"))
	assert.Contains(t, msg, "config.yaml")
}
