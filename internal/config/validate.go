package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Default values applied by Normalize.
const (
	DefaultProtocol       = "ws"
	DefaultLogLevel       = "INFO"
	DefaultConnectTimeout = 5 * time.Second
)

var (
	ErrMissingServer   = errors.New("ntfy.server is required")
	ErrMissingTopics   = errors.New("ntfy.topics requires at least one topic")
	ErrMissingBotToken = errors.New("telegram.token is required")
	ErrMissingChatID   = errors.New("telegram.chat_id is required")
)

// Normalize trims fields and fills defaults for omitted values.
// Call it after ApplyEnv and before Validate.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.Ntfy.Protocol = strings.TrimSpace(c.Ntfy.Protocol)
	if c.Ntfy.Protocol == "" {
		c.Ntfy.Protocol = DefaultProtocol
	}
	c.Ntfy.Server = strings.TrimSpace(c.Ntfy.Server)

	topics := make([]string, 0, len(c.Ntfy.Topics))
	for _, t := range c.Ntfy.Topics {
		t = strings.TrimSpace(t)
		if t != "" {
			topics = append(topics, t)
		}
	}
	c.Ntfy.Topics = topics

	c.Telegram.Token = strings.TrimSpace(c.Telegram.Token)
	c.Telegram.ChatID = strings.TrimSpace(c.Telegram.ChatID)

	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = DefaultLogLevel
	}
}

// Validate checks the startup invariants. A non-nil error is fatal:
// the process must not connect with a config that fails here.
func Validate(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Ntfy.Protocol != "ws" && c.Ntfy.Protocol != "wss" {
		return fmt.Errorf("ntfy.protocol: invalid value %q (want ws or wss)", c.Ntfy.Protocol)
	}
	if c.Ntfy.Server == "" {
		return ErrMissingServer
	}
	if len(c.Ntfy.Topics) == 0 {
		return ErrMissingTopics
	}

	// Credential shape: a token, a username+password pair, or a bare
	// password holding a pre-encoded credential. Never a mix.
	hasToken := c.Ntfy.Token != ""
	hasUser := c.Ntfy.Username != ""
	hasPass := c.Ntfy.Password != ""
	if hasToken && (hasUser || hasPass) {
		return errors.New("ntfy: set either token or username/password, not both")
	}
	if hasUser && !hasPass {
		return errors.New("ntfy.username is set but ntfy.password is empty")
	}

	if c.Telegram.Token == "" {
		return ErrMissingBotToken
	}
	if c.Telegram.ChatID == "" {
		return ErrMissingChatID
	}
	if c.Telegram.RatePerSec < 0 {
		return errors.New("telegram.rate_per_sec must be >= 0")
	}
	if c.Telegram.ThreadID < 0 {
		return errors.New("telegram.thread_id must be >= 0")
	}

	if _, err := ParseDurationField("ntfy.connect_timeout", c.Ntfy.ConnectTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("ntfy.read_timeout", c.Ntfy.ReadTimeout); err != nil {
		return err
	}

	if j := c.Journal; j != nil {
		switch strings.ToLower(strings.TrimSpace(j.Driver)) {
		case "", "none", "file", "sqlite", "sqlite3":
		default:
			return fmt.Errorf("journal.driver: unknown driver %q", j.Driver)
		}
		if _, err := ParseDurationField("journal.busy_timeout", j.BusyTimeout); err != nil {
			return err
		}
	}

	return nil
}

// ParseDurationField parses an optional Go duration string. Empty means 0.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// ParseDurationOrDefault parses an optional Go duration string, substituting
// def when the field is empty or zero.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
