package config

type Config struct {
	Ntfy     NtfyConfig     `json:"ntfy"`
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Heartbeat controls the optional scheduled liveness message.
	Heartbeat HeartbeatConfig `json:"heartbeat,omitempty"`

	// Journal controls the optional delivery journal.
	// If the whole section is omitted, journaling is disabled.
	Journal *JournalConfig `json:"journal,omitempty"`

	// Debug controls the optional pprof/health endpoint.
	Debug DebugConfig `json:"debug,omitempty"`
}

// NtfyConfig describes the subscription stream.
//
// All durations are Go duration strings (e.g. "500ms", "5s", "1m").
type NtfyConfig struct {
	// Protocol is "ws" or "wss". Defaults to "ws".
	Protocol string `json:"protocol,omitempty"`
	// Server is the host (and optional port) of the ntfy server, e.g. "ntfy.sh".
	Server string `json:"server"`
	// Topics to subscribe to. All topics share one connection.
	Topics []string `json:"topics"`

	// Credentials: set a token, or a username+password pair, or only a
	// password holding a pre-encoded basic credential. Never more than one.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`

	// IncludeTopic prefixes each forwarded message with its topic name.
	IncludeTopic bool `json:"include_topic"`
	// IncludePriority appends the priority glyph after the title.
	IncludePriority bool `json:"include_priority"`

	// ConnectTimeout bounds the websocket handshake. Defaults to "5s".
	ConnectTimeout string `json:"connect_timeout,omitempty"`
	// ReadTimeout bounds the wait for the next frame. "0s" (default) disables it;
	// ntfy keepalives normally arrive well under a minute apart.
	ReadTimeout string `json:"read_timeout,omitempty"`
}

// TelegramConfig describes the delivery destination.
type TelegramConfig struct {
	Token string `json:"token"`
	// ChatID accepts a numeric chat id ("-1001234"), or a public
	// "@channelname".
	ChatID string `json:"chat_id"`
	// ThreadID targets a forum topic thread. 0 sends to the main chat.
	ThreadID int `json:"thread_id,omitempty"`
	// RatePerSec caps outbound sends per second. 0 keeps the default (1).
	RatePerSec int `json:"rate_per_sec,omitempty"`
	// APIURL overrides the Bot API endpoint (self-hosted servers).
	// Empty means api.telegram.org.
	APIURL string `json:"api_url,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// HeartbeatConfig controls the scheduled liveness message sent to the
// destination chat. Disabled by default.
type HeartbeatConfig struct {
	Enabled bool `json:"enabled"`
	// Schedule is a standard 5-field cron expression or a descriptor
	// like "@hourly". Defaults to "@hourly".
	Schedule string `json:"schedule,omitempty"`
	// Timezone for the schedule, e.g. "Europe/Rome". Defaults to local time.
	Timezone string `json:"timezone,omitempty"`
}

// JournalConfig controls the delivery journal.
//
// Example:
//
//	"journal": { "driver": "file", "path": "./ntfygram_journal" }
type JournalConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// DebugConfig controls the pprof/health endpoint. Disabled by default.
type DebugConfig struct {
	Enabled bool `json:"enabled"`
	// Listen is the bind address. Defaults to "127.0.0.1:6060".
	Listen string `json:"listen,omitempty"`
	// AllowRemote permits a non-loopback bind. The endpoint carries no
	// auth, so this stays off unless the network is trusted.
	AllowRemote bool `json:"allow_remote,omitempty"`
}
