// Package journal keeps an optional append-only record of delivery
// attempts.
//
// It is an audit artifact: entries are written after the fact and never
// read back by the bridge itself, so a lost write costs nothing but a
// missing line. It never replays or re-sends anything.
package journal

import (
	"context"
	"errors"
	"strings"
	"time"

	"ntfygram/pkg/logx"
)

var ErrDisabled = errors.New("journal disabled")

// Config configures the journal.
//
// Driver values:
//   - "file": dependency-free JSON Lines file
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", the journal is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Entry records one delivery attempt.
// Keep it compact and schema-stable.
type Entry struct {
	At       time.Time `json:"at"`
	Topic    string    `json:"topic"`
	Title    string    `json:"title,omitempty"`
	EventID  string    `json:"event_id,omitempty"`
	Priority int       `json:"priority"`
	OK       bool      `json:"ok"`
	Status   int       `json:"status,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	TookMS   int64     `json:"took_ms"`
}

// Store is the journal persistence API.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if the journal is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown journal driver: " + driver)
	}
}
