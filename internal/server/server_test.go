package server

import (
	"context"
	"testing"
	"time"
)

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":      "",
		"8080":  ":8080",
		":9000": ":9000",
	}
	for in, want := range cases {
		if got := normalizeAddr(in); got != want {
			t.Fatalf("normalizeAddr(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestNewHTTPServer_AppliesLimits(t *testing.T) {
	srv := newHTTPServer(":0", nil)
	if srv.ReadHeaderTimeout != readHeaderTimeout || srv.IdleTimeout != idleTimeout {
		t.Fatalf("unexpected timeouts: %+v", srv)
	}
	if srv.MaxHeaderBytes != maxHeaderBytes {
		t.Fatalf("MaxHeaderBytes=%d", srv.MaxHeaderBytes)
	}
}

func TestShutdown_WithoutRun(t *testing.T) {
	s := &Server{}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown on idle server: %v", err)
	}
}
