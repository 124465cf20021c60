package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"ntfygram/internal/bridge"
	"ntfygram/pkg/logx"
)

func TestIsLoopbackAddr(t *testing.T) {
	t.Parallel()
	tests := []struct {
		addr string
		want bool
	}{
		{addr: "127.0.0.1:6060", want: true},
		{addr: "localhost:0", want: true},
		{addr: "[::1]:9", want: true},
		{addr: "0.0.0.0:6060", want: false},
		{addr: ":6060", want: false},
		{addr: "example.com:80", want: false},
		{addr: "no-port", want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			if got := isLoopbackAddr(tt.addr); got != tt.want {
				t.Fatalf("isLoopbackAddr(%q) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestServeHealthAndPprof(t *testing.T) {
	t.Parallel()
	health := func() Health {
		return Health{Up: true, UptimeSec: 3, Stats: bridge.Stats{Forwarded: 42}}
	}
	s := New(Config{Enabled: true, Addr: "127.0.0.1:0"}, health, logx.Nop())
	s.Start(context.Background())
	defer s.Stop(context.Background())

	addr := s.Addr()
	if addr == "" {
		t.Fatal("debug endpoint did not bind")
	}
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(fmt.Sprintf("http://%s/healthz", addr))
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/healthz status = %d, want 200", resp.StatusCode)
	}
	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if !h.Up || h.Stats.Forwarded != 42 {
		t.Fatalf("health = %+v, want up with 42 forwarded", h)
	}

	presp, err := client.Get(fmt.Sprintf("http://%s/debug/pprof/", addr))
	if err != nil {
		t.Fatalf("GET /debug/pprof/: %v", err)
	}
	defer presp.Body.Close()
	if presp.StatusCode != http.StatusOK {
		t.Fatalf("/debug/pprof/ status = %d, want 200", presp.StatusCode)
	}
}

func TestStartDisabledDoesNotBind(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: false}, nil, logx.Nop())
	s.Start(context.Background())
	if got := s.Addr(); got != "" {
		t.Fatalf("Addr = %q, want no listener while disabled", got)
	}
}

func TestRefusesRemoteBindWithoutOptIn(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, Addr: "0.0.0.0:0"}, nil, logx.Nop())
	s.Start(context.Background())
	defer s.Stop(context.Background())
	if got := s.Addr(); got != "" {
		t.Fatalf("Addr = %q, want refusal of a non-loopback bind without allow_remote", got)
	}
}

func TestApplyTogglesListener(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: false}, nil, logx.Nop())
	s.Start(context.Background())

	s.Apply(Config{Enabled: true, Addr: "127.0.0.1:0"})
	if s.Addr() == "" {
		t.Fatal("listener not started after enabling")
	}
	s.Apply(Config{Enabled: false})
	if got := s.Addr(); got != "" {
		t.Fatalf("Addr = %q, want stopped listener after disabling", got)
	}
}
