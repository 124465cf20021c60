package ntfy

import "encoding/json"

// Event kinds seen on a subscription stream. Only EventMessage is
// forwarded; the rest are protocol chatter.
const (
	EventOpen      = "open"
	EventKeepalive = "keepalive"
	EventMessage   = "message"
	EventPollReq   = "poll_request"
)

// Event is one decoded frame from the subscription stream.
//
// Optional string fields use "" as absent. Constructed per inbound frame
// and discarded after one formatting pass; never persisted.
type Event struct {
	Event    string `json:"event"`
	ID       string `json:"id,omitempty"`
	Time     int64  `json:"time,omitempty"`
	Topic    string `json:"topic,omitempty"`
	Title    string `json:"title,omitempty"`
	Message  string `json:"message,omitempty"`
	Priority int    `json:"priority,omitempty"`

	Tags []string `json:"tags,omitempty"`

	// ContentType "text/markdown" switches body rendering.
	ContentType string `json:"content_type,omitempty"`
	// Click is a URL opened when the notification is tapped.
	Click string `json:"click,omitempty"`

	// Decoded but not rendered.
	Actions    json.RawMessage `json:"actions,omitempty"`
	Attachment json.RawMessage `json:"attachment,omitempty"`
}

// DefaultPriority is assumed when a message carries no priority field.
const DefaultPriority = 3

// DecodeEvent parses one raw frame. Unknown fields are ignored; a missing
// priority defaults to 3 and missing tags to an empty list.
func DecodeEvent(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, err
	}
	if ev.Priority == 0 {
		ev.Priority = DefaultPriority
	}
	if ev.Tags == nil {
		ev.Tags = []string{}
	}
	return ev, nil
}

// Markdown reports whether the body is declared as markdown text.
func (e Event) Markdown() bool { return e.ContentType == "text/markdown" }
