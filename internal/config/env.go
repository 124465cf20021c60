package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names. These predate the config file and stay
// supported so container deployments can run without one.
const (
	EnvProtocol        = "NTFY_WS_PROTOCOL"
	EnvServer          = "NTFY_SERVER_ADDRESS"
	EnvTopic           = "NTFY_TOPIC"
	EnvUsername        = "NTFY_USERNAME"
	EnvPassword        = "NTFY_PASSWORD"
	EnvToken           = "NTFY_TOKEN"
	EnvIncludeTopic    = "NTFY_INCLUDE_TOPIC"
	EnvIncludePriority = "NTFY_INCLUDE_PRIORITY"
	EnvChatID          = "TG_CHAT_ID"
	EnvBotToken        = "TG_BOT_TOKEN"
	EnvLogLevel        = "LOG_LEVEL"
)

// ApplyEnv overlays environment variables onto cfg.
// Environment wins over file values. The lookup function is injectable
// for tests; pass os.LookupEnv in production code.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if cfg == nil {
		return
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}

	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				*dst = b
			}
		}
	}

	setString(EnvProtocol, &cfg.Ntfy.Protocol)
	setString(EnvServer, &cfg.Ntfy.Server)
	if v, ok := lookup(EnvTopic); ok {
		cfg.Ntfy.Topics = SplitTopics(v)
	}
	setString(EnvUsername, &cfg.Ntfy.Username)
	setString(EnvPassword, &cfg.Ntfy.Password)
	setString(EnvToken, &cfg.Ntfy.Token)
	setBool(EnvIncludeTopic, &cfg.Ntfy.IncludeTopic)
	setBool(EnvIncludePriority, &cfg.Ntfy.IncludePriority)

	setString(EnvChatID, &cfg.Telegram.ChatID)
	setString(EnvBotToken, &cfg.Telegram.Token)

	setString(EnvLogLevel, &cfg.Logging.Level)
}

// SplitTopics splits a comma-joined topic list, trimming whitespace and
// dropping empty entries.
func SplitTopics(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
