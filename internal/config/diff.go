package config

import (
	"reflect"
	"sort"
	"strings"

	"ntfygram/pkg/logx"
)

// SummarizeChange returns (1) a compact list of changed sections and
// (2) safe structured attrs for logging. Secrets (tokens, passwords)
// never appear in the attrs, only "is set" booleans.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 16)

	// Ntfy (never log credentials)
	o, n := oldCfg.Ntfy, newCfg.Ntfy
	if o.Protocol != n.Protocol ||
		o.Server != n.Server ||
		!reflect.DeepEqual(o.Topics, n.Topics) ||
		o.Username != n.Username || o.Password != n.Password || o.Token != n.Token ||
		o.IncludeTopic != n.IncludeTopic || o.IncludePriority != n.IncludePriority ||
		strings.TrimSpace(o.ConnectTimeout) != strings.TrimSpace(n.ConnectTimeout) ||
		strings.TrimSpace(o.ReadTimeout) != strings.TrimSpace(n.ReadTimeout) {
		changed = append(changed, "ntfy")
		attrs = append(attrs,
			logx.String("ntfy.protocol", n.Protocol),
			logx.String("ntfy.server", n.Server),
			logx.Int("ntfy.topic_count", len(n.Topics)),
			logx.Bool("ntfy.auth_set", n.Token != "" || n.Password != ""),
			logx.Bool("ntfy.include_topic", n.IncludeTopic),
			logx.Bool("ntfy.include_priority", n.IncludePriority),
		)
	}

	// Telegram (never log token)
	if oldCfg.Telegram != newCfg.Telegram {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.chat_id_set", newCfg.Telegram.ChatID != ""),
			logx.Int("telegram.thread_id", newCfg.Telegram.ThreadID),
			logx.Int("telegram.rate_per_sec", newCfg.Telegram.RatePerSec),
		)
	}

	// Logging
	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	// Heartbeat
	if oldCfg.Heartbeat != newCfg.Heartbeat {
		changed = append(changed, "heartbeat")
		attrs = append(attrs,
			logx.Bool("heartbeat.enabled", newCfg.Heartbeat.Enabled),
			logx.String("heartbeat.schedule", strings.TrimSpace(newCfg.Heartbeat.Schedule)),
			logx.String("heartbeat.timezone", strings.TrimSpace(newCfg.Heartbeat.Timezone)),
		)
	}

	// Debug endpoint
	if oldCfg.Debug != newCfg.Debug {
		changed = append(changed, "debug")
		attrs = append(attrs,
			logx.Bool("debug.enabled", newCfg.Debug.Enabled),
			logx.String("debug.listen", strings.TrimSpace(newCfg.Debug.Listen)),
		)
	}

	// Journal (nil means disabled)
	var oj, nj JournalConfig
	if oldCfg.Journal != nil {
		oj = *oldCfg.Journal
	}
	if newCfg.Journal != nil {
		nj = *newCfg.Journal
	}
	if (oldCfg.Journal != nil) != (newCfg.Journal != nil) || oj != nj {
		changed = append(changed, "journal")
		attrs = append(attrs,
			logx.String("journal.driver", strings.TrimSpace(nj.Driver)),
			logx.Bool("journal.path_set", strings.TrimSpace(nj.Path) != ""),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

// StreamChanged reports whether a reload touches fields that only take
// effect through a reconnect (server, topics, credentials, timeouts).
func StreamChanged(oldCfg, newCfg *Config) bool {
	if oldCfg == nil || newCfg == nil {
		return oldCfg != newCfg
	}
	o, n := oldCfg.Ntfy, newCfg.Ntfy
	return o.Protocol != n.Protocol ||
		o.Server != n.Server ||
		!reflect.DeepEqual(o.Topics, n.Topics) ||
		o.Username != n.Username || o.Password != n.Password || o.Token != n.Token ||
		strings.TrimSpace(o.ConnectTimeout) != strings.TrimSpace(n.ConnectTimeout) ||
		strings.TrimSpace(o.ReadTimeout) != strings.TrimSpace(n.ReadTimeout)
}
