// Package debug serves the optional operational endpoint: the stdlib
// pprof handlers plus a JSON health snapshot of the bridge.
package debug

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	hpprof "net/http/pprof"
	"strings"
	"sync"
	"time"

	"ntfygram/internal/bridge"
	"ntfygram/pkg/logx"
)

const defaultAddr = "127.0.0.1:6060"

// Config controls the debug endpoint. Binding beyond loopback needs the
// explicit AllowRemote opt-in: the endpoint is unauthenticated.
type Config struct {
	Enabled     bool
	Addr        string
	AllowRemote bool
}

// Health is the /healthz payload.
type Health struct {
	Up         bool         `json:"up"`
	UptimeSec  int64        `json:"uptime_sec"`
	Stats      bridge.Stats `json:"stats"`
	BusDropped uint64       `json:"bus_dropped"`
}

// Service owns the debug HTTP listener. A dead or refused listener only
// ever costs the endpoint; the bridge itself is never affected.
type Service struct {
	log    logx.Logger
	health func() Health

	runCtx context.Context

	mu  sync.Mutex
	cfg Config
	ln  net.Listener
	srv *http.Server
}

func New(cfg Config, health func() Health, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if health == nil {
		health = func() Health { return Health{} }
	}
	return &Service{log: log, health: health, cfg: cfg}
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Addr returns the bound listen address, or "" while stopped.
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx == nil {
		s.runCtx = ctx
	}
	if s.srv != nil || !s.cfg.Enabled {
		return
	}
	s.startLocked()
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(ctx)
}

// Apply reconfigures the endpoint at runtime, restarting the listener
// when the config changed and the service has been started.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg == s.cfg {
		return
	}
	s.cfg = cfg
	if s.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		s.stopLocked(ctx)
		cancel()
	}
	if cfg.Enabled && s.runCtx != nil {
		s.startLocked()
	}
}

func (s *Service) startLocked() {
	addr := strings.TrimSpace(s.cfg.Addr)
	if addr == "" {
		addr = defaultAddr
	}
	if !s.cfg.AllowRemote && !isLoopbackAddr(addr) {
		s.log.Error("debug endpoint refused to start: non-loopback addr requires allow_remote",
			logx.String("addr", addr))
		return
	}
	if s.cfg.AllowRemote && !isLoopbackAddr(addr) {
		s.log.Warn("debug endpoint bound beyond loopback without auth", logx.String("addr", addr))
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.log.Error("debug listen failed", logx.String("addr", addr), logx.Err(err))
		return
	}

	srv := &http.Server{Handler: s.handler()}
	s.ln = ln
	s.srv = srv

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("debug server exited", logx.Err(err))
		}
	}()

	s.log.Info("debug endpoint started", logx.String("addr", ln.Addr().String()))
}

// stopLocked shuts the server down. Handlers never take s.mu, so holding
// it across Shutdown cannot deadlock.
func (s *Service) stopLocked(ctx context.Context) {
	srv := s.srv
	if srv == nil {
		return
	}
	s.srv = nil
	s.ln = nil

	if ctx == nil {
		ctx = context.Background()
	}
	_ = srv.Shutdown(ctx)
	_ = srv.Close()
	s.log.Info("debug endpoint stopped")
}

func (s *Service) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.health())
	})
	mux.HandleFunc("/debug/pprof/", hpprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", hpprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", hpprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", hpprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", hpprof.Trace)
	return mux
}

// isLoopbackAddr reports whether a host:port bind address stays on
// loopback. An empty host means all interfaces.
func isLoopbackAddr(addr string) bool {
	h, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	h = strings.TrimSpace(h)
	if h == "" {
		return false
	}
	if strings.EqualFold(h, "localhost") {
		return true
	}
	ip := net.ParseIP(h)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}
