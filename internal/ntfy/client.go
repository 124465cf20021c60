package ntfy

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ntfygram/internal/eventbus"
	"ntfygram/pkg/logx"
)

// Options is the resolved stream configuration for one connection attempt.
type Options struct {
	Protocol string
	Server   string
	Topics   []string

	Username string
	Password string
	Token    string

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// StreamURL builds the subscription endpoint. All topics share one
// connection, comma-joined in configuration order.
func StreamURL(opts Options) string {
	return fmt.Sprintf("%s://%s/%s/ws", opts.Protocol, opts.Server, strings.Join(opts.Topics, ","))
}

// AuthHeader computes the Authorization header value for the stream.
//
// A token wins over basic credentials. With username+password the pair is
// base64-encoded; a bare password is passed through as-is so operators can
// supply a pre-encoded credential without putting the plain pair in the
// environment.
func AuthHeader(opts Options) (string, bool) {
	switch {
	case opts.Token != "":
		return "Bearer " + opts.Token, true
	case opts.Username != "" && opts.Password != "":
		cred := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		return "Basic " + cred, true
	case opts.Password != "":
		return "Basic " + opts.Password, true
	default:
		return "", false
	}
}

// FrameHandler consumes raw frames in arrival order.
//
// For one connection, calls are never concurrent; a slow handler blocks the
// next read, which keeps deliveries ordered with arrivals.
type FrameHandler interface {
	HandleFrame(ctx context.Context, raw []byte)
}

// StreamEvent is the bus payload for stream lifecycle events.
type StreamEvent struct {
	URL    string   `json:"url"`
	Topics []string `json:"topics,omitempty"`
	Code   int      `json:"code,omitempty"`
	Reason string   `json:"reason,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Client holds one live subscription connection.
//
// Run owns a single connection lifetime; host it under a restart-forever
// supervisor loop to keep the subscription alive indefinitely. The options
// provider is consulted on every (re)dial so reloaded stream settings take
// effect on the next connection.
type Client struct {
	provider func() Options
	handler  FrameHandler
	log      logx.Logger
	bus      eventbus.Bus

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient wires a stream client. All arguments are required.
func NewClient(provider func() Options, handler FrameHandler, log logx.Logger, bus eventbus.Bus) *Client {
	return &Client{provider: provider, handler: handler, log: log, bus: bus}
}

// Run dials and reads until the connection breaks or ctx is canceled.
// It returns a non-nil error on any abnormal end so the hosting restart
// loop redials; context cancellation returns ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	opts := c.provider()
	url := StreamURL(opts)

	header := http.Header{}
	if v, ok := AuthHeader(opts); ok {
		header.Set("Authorization", v)
	}

	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: connectTimeout}

	c.log.Info("connecting to stream", logx.String("url", url))
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %s)", url, err, resp.Status)
		}
		return fmt.Errorf("dial %s: %w", url, err)
	}
	c.setConn(conn)
	defer func() {
		c.setConn(nil)
		_ = conn.Close()
	}()

	c.log.Info("stream connected", logx.String("url", url), logx.String("topics", strings.Join(opts.Topics, ",")))
	c.bus.Publish(eventbus.Event{Type: "stream.connected", Data: StreamEvent{URL: url, Topics: opts.Topics}})

	// Unblock the blocking read when ctx ends.
	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down"), deadline)
			_ = conn.Close()
		case <-watcherDone:
		}
	}()

	for {
		if opts.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(opts.ReadTimeout))
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.noteDisconnect(url, err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		// Synchronous dispatch: the next frame is not read until this one
		// is fully handled (formatted, sent, outcome recorded).
		c.handler.HandleFrame(ctx, raw)
	}
}

// Kick closes the current connection so the hosting restart loop redials
// with a fresh options snapshot. No-op while disconnected.
func (c *Client) Kick(reason string) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	c.log.Info("stream kicked; reconnecting", logx.String("reason", reason))
	_ = conn.Close()
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) noteDisconnect(url string, err error) {
	ev := StreamEvent{URL: url}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		ev.Code = ce.Code
		ev.Reason = ce.Text
		c.log.Info("stream closed", logx.String("url", url), logx.Int("code", ce.Code), logx.String("reason", ce.Text))
	} else {
		ev.Error = err.Error()
		c.log.Error("stream read failed", logx.String("url", url), logx.Err(err))
	}
	c.bus.Publish(eventbus.Event{Type: "stream.disconnected", Data: ev})
}
