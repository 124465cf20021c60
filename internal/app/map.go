package app

import (
	"fmt"
	"net"
	"strings"
	"time"

	"ntfygram/internal/config"
	"ntfygram/internal/heartbeat"
	"ntfygram/internal/journal"
	"ntfygram/internal/ntfy"
	"ntfygram/internal/observability/debug"
	"ntfygram/internal/telegram"
	"ntfygram/pkg/logx"
)

// validateConfig is the startup and reload gate: the shared config rules
// plus the checks that need component knowledge (cron grammar, journal
// driver shape). A config that passes here is safe to commit.
func validateConfig(cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if s := strings.TrimSpace(cfg.Heartbeat.Schedule); s != "" {
		if err := heartbeat.ValidateSchedule(s); err != nil {
			return fmt.Errorf("heartbeat.schedule: %w", err)
		}
	}
	if tz := strings.TrimSpace(cfg.Heartbeat.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("heartbeat.timezone: invalid %q: %w", tz, err)
		}
	}
	if _, _, err := mapJournalConfig(cfg); err != nil {
		return err
	}
	if cfg.Debug.Enabled {
		if l := strings.TrimSpace(cfg.Debug.Listen); l != "" {
			if _, _, err := net.SplitHostPort(l); err != nil {
				return fmt.Errorf("debug.listen: invalid address %q: %w", l, err)
			}
		}
	}
	return nil
}

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapSenderConfig(cfg *config.Config) telegram.Config {
	return telegram.Config{
		Token:      cfg.Telegram.Token,
		ChatID:     cfg.Telegram.ChatID,
		ThreadID:   cfg.Telegram.ThreadID,
		RatePerSec: cfg.Telegram.RatePerSec,
		APIURL:     cfg.Telegram.APIURL,
	}
}

// mapStreamOptions resolves the stream section into a dial snapshot.
// Durations were validated at commit time; parse failures cannot happen here.
func mapStreamOptions(cfg *config.Config) ntfy.Options {
	if cfg == nil {
		return ntfy.Options{}
	}
	connect, _ := config.ParseDurationOrDefault("ntfy.connect_timeout", cfg.Ntfy.ConnectTimeout, config.DefaultConnectTimeout)
	read, _ := config.ParseDurationField("ntfy.read_timeout", cfg.Ntfy.ReadTimeout)
	return ntfy.Options{
		Protocol:       cfg.Ntfy.Protocol,
		Server:         cfg.Ntfy.Server,
		Topics:         append([]string(nil), cfg.Ntfy.Topics...),
		Username:       cfg.Ntfy.Username,
		Password:       cfg.Ntfy.Password,
		Token:          cfg.Ntfy.Token,
		ConnectTimeout: connect,
		ReadTimeout:    read,
	}
}

func mapHeartbeatConfig(cfg *config.Config) heartbeat.Config {
	return heartbeat.Config{
		Enabled:  cfg.Heartbeat.Enabled,
		Schedule: cfg.Heartbeat.Schedule,
		Timezone: cfg.Heartbeat.Timezone,
	}
}

func mapDebugConfig(cfg *config.Config) debug.Config {
	return debug.Config{
		Enabled:     cfg.Debug.Enabled,
		Addr:        cfg.Debug.Listen,
		AllowRemote: cfg.Debug.AllowRemote,
	}
}

func mapJournalConfig(cfg *config.Config) (journal.Config, bool, error) {
	if cfg == nil || cfg.Journal == nil {
		return journal.Config{}, false, nil
	}
	jc := cfg.Journal
	driver := strings.ToLower(strings.TrimSpace(jc.Driver))
	if driver == "" || driver == "none" {
		return journal.Config{}, false, nil
	}
	path := strings.TrimSpace(jc.Path)

	switch driver {
	case "file":
		if path == "" {
			return journal.Config{}, false, fmt.Errorf("journal.path is required when journal.driver=file")
		}
		return journal.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return journal.Config{}, false, fmt.Errorf("journal.path is required when journal.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("journal.busy_timeout", jc.BusyTimeout, time.Second)
		if err != nil {
			return journal.Config{}, false, err
		}
		return journal.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return journal.Config{}, false, fmt.Errorf("unknown journal.driver: %s", jc.Driver)
	}
}
