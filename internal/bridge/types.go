package bridge

import (
	"context"

	"ntfygram/internal/telegram"
)

// Sender delivers one formatted message and reports what happened.
// Failures come back as data, never as an error.
type Sender interface {
	Send(ctx context.Context, text string) telegram.Outcome
}

// Stats is a point-in-time snapshot of the bridge counters.
type Stats struct {
	Received  uint64 `json:"received"`  // frames read off the stream
	Forwarded uint64 `json:"forwarded"` // deliveries confirmed by Telegram
	Failed    uint64 `json:"failed"`    // deliveries rejected or errored
	Dropped   uint64 `json:"dropped"`   // malformed frames discarded
	Skipped   uint64 `json:"skipped"`   // non-message events ignored
}

// Delivery is the bus payload published after every send attempt.
type Delivery struct {
	Topic    string `json:"topic"`
	Title    string `json:"title,omitempty"`
	EventID  string `json:"event_id,omitempty"`
	Priority int    `json:"priority"`
	OK       bool   `json:"ok"`
	Status   int    `json:"status,omitempty"`
	Reason   string `json:"reason,omitempty"`
	TookMS   int64  `json:"took_ms"`
}

// Drop is the bus payload for a discarded frame.
type Drop struct {
	Reason string `json:"reason"`
	Size   int    `json:"size"`
}
