// Package app wires the bridge together: config, logging, the stream
// client, the dispatcher, the sender and the optional extras (heartbeat,
// journal). It owns startup order, config hot-reload fan-out and shutdown.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"ntfygram/internal/bridge"
	"ntfygram/internal/config"
	"ntfygram/internal/eventbus"
	"ntfygram/internal/heartbeat"
	"ntfygram/internal/journal"
	"ntfygram/internal/ntfy"
	"ntfygram/internal/observability/debug"
	"ntfygram/internal/render"
	"ntfygram/internal/runtime/supervisor"
	"ntfygram/internal/telegram"
	"ntfygram/pkg/logx"
)

// StopReason is used for structured shutdown tracing.
type StopReason string

const (
	StopUnknown    StopReason = "unknown"
	StopSignal     StopReason = "signal"
	StopFatalError StopReason = "fatal_error"
	StopAppStop    StopReason = "app_stop"
)

type App struct {
	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	sender *telegram.Sender
	disp   *bridge.Dispatcher
	stream *ntfy.Client
	beat   *heartbeat.Service
	dbg    *debug.Service

	store journal.Store
	rec   *journal.Recorder

	startedAt time.Time
}

// NewApp loads and validates the config, then constructs every component.
// A non-nil error here is fatal: the process must not start on a config
// that fails validation.
func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	bus := eventbus.New()

	// Journal (optional)
	var store journal.Store
	if jc, enabled, err := mapJournalConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := journal.Open(jc, log.With(logx.String("comp", "journal")))
		if err != nil {
			return nil, err
		}
		store = st
		log.Info("journal enabled", logx.String("driver", jc.Driver))
	}

	sender, err := telegram.New(mapSenderConfig(cfg), log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	disp := bridge.New(sender, render.Options{
		IncludeTopic:    cfg.Ntfy.IncludeTopic,
		IncludePriority: cfg.Ntfy.IncludePriority,
	}, log.With(logx.String("comp", "bridge")), bus)

	// The stream client re-reads the committed config on every (re)dial,
	// so a kicked connection comes back with fresh settings.
	stream := ntfy.NewClient(func() ntfy.Options {
		return mapStreamOptions(cfgm.Get())
	}, disp, log.With(logx.String("comp", "stream")), bus)

	beat := heartbeat.New(mapHeartbeatConfig(cfg), sender, disp,
		log.With(logx.String("comp", "heartbeat")))

	a := &App{
		cfgm:      cfgm,
		log:       log,
		logs:      logSvc,
		bus:       bus,
		sender:    sender,
		disp:      disp,
		stream:    stream,
		beat:      beat,
		store:     store,
		startedAt: time.Now(),
	}
	a.dbg = debug.New(mapDebugConfig(cfg), func() debug.Health {
		return debug.Health{
			Up:         true,
			UptimeSec:  int64(time.Since(a.startedAt).Seconds()),
			Stats:      disp.Stats(),
			BusDropped: bus.Dropped(),
		}
	}, log.With(logx.String("comp", "debug")))
	if store != nil {
		a.rec = journal.NewRecorder(store, bus, log.With(logx.String("comp", "journal")))
	}
	return a, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validateConfig(cfg)
	})

	// Journal consumer first so it observes the earliest outcomes.
	if a.rec != nil {
		a.sup.Go0("journal.record", a.rec.Run)
	}

	// Debug visibility into lifecycle events. Keep it debug-level: the
	// stream publishes one event per delivery.
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Any("data", e.Data))
			}
		}
	})

	// The subscription lives under a restart-forever loop: clean exits and
	// errors both redial (with jittered backoff) until shutdown.
	a.sup.GoRestart("ntfy.stream", a.stream.Run,
		supervisor.WithStopOnCleanExit(false),
		supervisor.WithPublishFirstError(true),
	)

	a.beat.Start(a.sup.Context())
	a.dbg.Start(a.sup.Context())

	// hot reload config fan-out
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				a.applyReload(lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	a.sup.Go("config.watch", a.cfgm.Watch)

	a.log.Info("app started")
	return nil
}

// applyReload fans a committed config out to the live components. The
// manager has already validated it; nothing here may reject it.
func (a *App) applyReload(oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
	}

	// The bot token and endpoint are bound at construction; everything else
	// applies live.
	if oldCfg != nil && newCfg != nil &&
		(oldCfg.Telegram.Token != newCfg.Telegram.Token || oldCfg.Telegram.APIURL != newCfg.Telegram.APIURL) {
		a.log.Warn("telegram token or endpoint changed; restart required for the change to take effect")
	}
	for _, s := range sections {
		if s == "journal" {
			a.log.Warn("journal config changed; restart required for changes to take effect")
			break
		}
	}

	a.logs.Apply(mapLogConfig(newCfg))
	a.sender.Apply(mapSenderConfig(newCfg))
	a.disp.SetOptions(render.Options{
		IncludeTopic:    newCfg.Ntfy.IncludeTopic,
		IncludePriority: newCfg.Ntfy.IncludePriority,
	})
	a.beat.Apply(mapHeartbeatConfig(newCfg))
	a.dbg.Apply(mapDebugConfig(newCfg))

	// Stream settings only take effect through a reconnect; kick the
	// current connection so the restart loop redials with the new snapshot.
	if config.StreamChanged(oldCfg, newCfg) {
		a.stream.Kick("config changed")
	}

	if len(sections) > 0 {
		fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
		a.log.Info("config reloaded", fields...)
	} else {
		a.log.Info("config reloaded (no changes)")
	}
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		if a.store != nil {
			_ = a.store.Close()
		}
		if a.logs != nil {
			a.logs.Close()
		}
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))

	// Cancel the run context first so loops start unwinding immediately.
	a.sup.Cancel()

	// Bound each shutdown step so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- fn(stepCtx) }()

		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name), logx.Duration("max", max))
		}
	}

	step("heartbeat", 2*time.Second, func(c context.Context) error { a.beat.Stop(c); return nil })
	step("debug", time.Second, func(c context.Context) error { a.dbg.Stop(c); return nil })
	// Runtime errors were already surfaced when they happened; here we only
	// care that the goroutines are gone.
	step("supervisor", 3*time.Second, func(c context.Context) error { _ = a.sup.Wait(c); return nil })
	step("journal", time.Second, func(context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})

	st := a.disp.Stats()
	a.log.Info("stopped",
		logx.Uint64("received", st.Received),
		logx.Uint64("forwarded", st.Forwarded),
		logx.Uint64("failed", st.Failed),
		logx.Uint64("dropped", st.Dropped),
		logx.Uint64("skipped", st.Skipped),
		logx.Uint64("bus_dropped", a.bus.Dropped()),
	)
	if a.logs != nil {
		a.logs.Close()
	}
	return nil
}
