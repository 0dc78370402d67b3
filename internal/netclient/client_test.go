package netclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:9050", true},
		{"localhost:1080", true},
		{"[::1]:1080", true},
		{"127.0.0.1", false},
		{":9050", false},
		{"127.0.0.1:0", false},
		{"127.0.0.1:70000", false},
		{"127.0.0.1:abc", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			if got := isValidProxyAddress(tt.addr); got != tt.want {
				t.Errorf("isValidProxyAddress(%q) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("invalid proxy is rejected", func(t *testing.T) {
		t.Parallel()
		if _, err := New(WithProxy("nope")); !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("timeout option is applied", func(t *testing.T) {
		t.Parallel()
		c, err := New(WithTimeout(5 * time.Second))
		if err != nil {
			t.Fatal(err)
		}
		if c.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v", c.Timeout)
		}
	})

	t.Run("non-positive timeout keeps default", func(t *testing.T) {
		t.Parallel()
		c, err := New(WithTimeout(0))
		if err != nil {
			t.Fatal(err)
		}
		if c.Timeout != DefaultTimeout {
			t.Errorf("Timeout = %v", c.Timeout)
		}
	})

	t.Run("user agent and headers are injected", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("User-Agent") != "schoolcrew-test" {
				t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
			}
			if r.Header.Get("X-Custom") != "override" {
				t.Errorf("X-Custom = %q", r.Header.Get("X-Custom"))
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		c, err := New(WithUserAgent("schoolcrew-test"), WithHeader("X-Custom", "default"))
		if err != nil {
			t.Fatal(err)
		}
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("X-Custom", "override")
		resp, err := c.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	})
}

func TestGetJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			if r.Header.Get("X-Api-Key") != "k" {
				t.Errorf("missing header")
			}
			_, _ = io.WriteString(w, `{"city":"Pune"}`)
		case "/bad":
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, "slow down")
		default:
			_, _ = io.WriteString(w, "not json")
		}
	}))
	t.Cleanup(srv.Close)

	c, err := New()
	if err != nil {
		t.Fatal(err)
	}

	t.Run("decodes body", func(t *testing.T) {
		t.Parallel()
		var out struct {
			City string `json:"city"`
		}
		if err := GetJSON(context.Background(), c, srv.URL+"/ok", map[string]string{"X-Api-Key": "k"}, &out); err != nil {
			t.Fatal(err)
		}
		if out.City != "Pune" {
			t.Errorf("City = %q", out.City)
		}
	})

	t.Run("non-2xx is a StatusError", func(t *testing.T) {
		t.Parallel()
		err := GetJSON(context.Background(), c, srv.URL+"/bad", nil, &struct{}{})
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if se.Code != http.StatusTooManyRequests || se.Body != "slow down" {
			t.Errorf("unexpected StatusError: %+v", se)
		}
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Error("expected errors.Is(err, ErrUnexpectedStatus)")
		}
	})

	t.Run("invalid JSON is reported", func(t *testing.T) {
		t.Parallel()
		if err := GetJSON(context.Background(), c, srv.URL+"/text", nil, &struct{}{}); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestPostJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"q":"schools"}` {
			t.Errorf("body = %s", body)
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c, err := New()
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := PostJSON(context.Background(), c, srv.URL, nil, map[string]string{"q": "schools"}, &out); err != nil {
		t.Fatal(err)
	}
	if !out.OK {
		t.Error("expected ok")
	}
}

// fakeSOCKS5 accepts one connection and answers the method negotiation with reply.
func fakeSOCKS5(t *testing.T, reply []byte) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 3)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		_, _ = conn.Write(reply)
	}()
	return ln.Addr().String()
}

func TestCheckProxy(t *testing.T) {
	t.Parallel()

	t.Run("accepting proxy", func(t *testing.T) {
		t.Parallel()
		addr := fakeSOCKS5(t, []byte{0x05, 0x00})
		if err := CheckProxy(context.Background(), addr); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("proxy requiring auth", func(t *testing.T) {
		t.Parallel()
		addr := fakeSOCKS5(t, []byte{0x05, 0xFF})
		if err := CheckProxy(context.Background(), addr); !errors.Is(err, ErrProxyNotSOCKS5) {
			t.Errorf("expected ErrProxyNotSOCKS5, got %v", err)
		}
	})

	t.Run("not socks at all", func(t *testing.T) {
		t.Parallel()
		addr := fakeSOCKS5(t, []byte("HT"))
		if err := CheckProxy(context.Background(), addr); !errors.Is(err, ErrProxyNotSOCKS5) {
			t.Errorf("expected ErrProxyNotSOCKS5, got %v", err)
		}
	})

	t.Run("invalid address", func(t *testing.T) {
		t.Parallel()
		if err := CheckProxy(context.Background(), "bad"); !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})
}
