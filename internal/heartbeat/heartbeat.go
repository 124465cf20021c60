// Package heartbeat sends a periodic liveness summary to the destination
// chat: uptime plus forwarded/failed counts since the previous beat.
// Disabled unless configured.
package heartbeat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ntfygram/internal/bridge"
	"ntfygram/internal/render"
	"ntfygram/pkg/logx"
)

// DefaultSchedule is used when no schedule is configured.
const DefaultSchedule = "@hourly"

// Standard 5-field crontab specs plus descriptors ("@hourly", "@every 2h").
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule reports whether spec parses in the heartbeat's cron
// dialect. Used by config validation before a reload commits.
func ValidateSchedule(spec string) error {
	_, err := parser.Parse(spec)
	return err
}

type Config struct {
	Enabled  bool
	Schedule string
	Timezone string
}

// StatsSource provides the counters the summary reports.
type StatsSource interface {
	Stats() bridge.Stats
}

// Service owns the cron trigger. Beats go through the same sender and
// rate limiter as forwarded messages.
type Service struct {
	log    logx.Logger
	sender bridge.Sender
	stats  StatsSource

	startedAt time.Time
	runCtx    context.Context

	mu  sync.Mutex // cfg + cron lifecycle
	cfg Config
	c   *cron.Cron

	bmu  sync.Mutex // previous beat snapshot
	last bridge.Stats
}

func New(cfg Config, sender bridge.Sender, stats StatsSource, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{log: log, sender: sender, stats: stats, cfg: cfg, startedAt: time.Now()}
}

// Start begins triggering beats. No-op when disabled or already started.
func (s *Service) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx == nil {
		s.runCtx = ctx
	}
	if s.c != nil || !s.cfg.Enabled {
		return
	}
	s.startLocked()
}

// Stop halts triggering and waits for an in-flight beat to finish.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

// Apply swaps in a new config. A change to any field restarts the cron
// with the new schedule and location.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg == s.cfg {
		return
	}
	s.cfg = cfg

	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}
	if cfg.Enabled && s.runCtx != nil {
		s.startLocked()
	}
}

func (s *Service) startLocked() {
	loc := s.loadLocationLocked()
	spec := strings.TrimSpace(s.cfg.Schedule)
	if spec == "" {
		spec = DefaultSchedule
	}

	c := cron.New(cron.WithParser(parser), cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, s.beat); err != nil {
		s.log.Error("heartbeat schedule rejected", logx.String("schedule", spec), logx.Err(err))
		return
	}
	c.Start()
	s.c = c
	s.log.Info("heartbeat started", logx.String("schedule", spec), logx.String("tz", loc.String()))
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone; falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

// beat runs on the cron goroutine. It must not take s.mu: Stop waits for
// running jobs while holding nothing, but Apply stops the cron under s.mu.
func (s *Service) beat() {
	cur := s.stats.Stats()
	s.bmu.Lock()
	prev := s.last
	s.last = cur
	s.bmu.Unlock()

	text := render.Escape(summary(cur, prev, time.Since(s.startedAt)))
	out := s.sender.Send(s.runCtx, text)
	if !out.OK {
		s.log.Warn("heartbeat delivery failed", logx.Int("status", out.Status), logx.String("reason", out.Reason))
	}
}

func summary(cur, prev bridge.Stats, uptime time.Duration) string {
	return fmt.Sprintf("bridge up %s: %d forwarded, %d failed since last heartbeat (%d forwarded total)",
		uptime.Round(time.Second), cur.Forwarded-prev.Forwarded, cur.Failed-prev.Failed, cur.Forwarded)
}
