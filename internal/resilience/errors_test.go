package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
)

func TestIsTransient_ExplicitTransientError(t *testing.T) {
	err := NewTransientError(errors.New("server overloaded"), 503)
	if !IsTransient(err) {
		t.Error("expected TransientError to be transient")
	}
}

func TestIsTransient_WrappedTransientError(t *testing.T) {
	inner := NewTransientError(errors.New("rate limited"), 429)
	wrapped := fmt.Errorf("source: fetch: %w", inner)
	if !IsTransient(wrapped) {
		t.Error("expected wrapped TransientError to be transient")
	}
}

func TestIsTransient_NilError(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
}

func TestIsTransient_RegularError(t *testing.T) {
	err := errors.New("extract: parse leaderboard document")
	if IsTransient(err) {
		t.Error("regular error should not be transient")
	}
}

func TestIsTransient_ConnectionErrors(t *testing.T) {
	for _, errno := range []syscall.Errno{syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ECONNABORTED} {
		err := fmt.Errorf("dial tcp: %w", errno)
		if !IsTransient(err) {
			t.Errorf("%v should be transient", errno)
		}
	}
}

func TestIsTransient_NetworkTimeout(t *testing.T) {
	err := &net.DNSError{IsTimeout: true, Err: "timeout"}
	if !IsTransient(err) {
		t.Error("network timeout should be transient")
	}
}

func TestIsTransient_StringPatterns(t *testing.T) {
	patterns := []string{
		"connection reset by peer",
		"broken pipe",
		"TLS handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"context deadline exceeded (Client.Timeout exceeded while awaiting headers)",
	}
	for _, p := range patterns {
		if !IsTransient(errors.New(p)) {
			t.Errorf("expected %q to be transient", p)
		}
	}
}

func TestIsTransient_StatusInMessage(t *testing.T) {
	cases := map[string]bool{
		"download: giving up after 1 attempt(s): http 503 from https://tabiturient.ru/globalrating/": true,
		"google: find place: unexpected status 429: quota":                                           true,
		"yandex: search: unexpected status 403: Invalid key":                                         false,
		"download: unexpected status 404 from https://tabiturient.ru/":                               false,
	}
	for msg, want := range cases {
		if got := IsTransient(eris.New(msg)); got != want {
			t.Errorf("IsTransient(%q) = %v, want %v", msg, got, want)
		}
	}
}

func TestStatusCode(t *testing.T) {
	if code, ok := StatusCode(NewTransientError(errors.New("x"), 502)); !ok || code != 502 {
		t.Errorf("expected 502 from TransientError, got %d %v", code, ok)
	}
	if code, ok := StatusCode(errors.New("unexpected status 418: teapot")); !ok || code != 418 {
		t.Errorf("expected 418 from message, got %d %v", code, ok)
	}
	if _, ok := StatusCode(errors.New("no code here")); ok {
		t.Error("expected no status code")
	}
	if _, ok := StatusCode(nil); ok {
		t.Error("nil error has no status code")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected HTTP %d to be transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected HTTP %d to NOT be transient", code)
		}
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	te := NewTransientError(inner, 500)

	if !errors.Is(te, inner) {
		t.Error("TransientError.Unwrap should return the inner error")
	}
	if te.Error() != "root cause" {
		t.Errorf("unexpected message %q", te.Error())
	}
}
