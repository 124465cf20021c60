// Package telegram delivers formatted messages to one chat over the
// Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"
	"golang.org/x/time/rate"

	"ntfygram/pkg/logx"
)

// TextLimit is Telegram's cap on message text length, in characters.
const TextLimit = 4096

const defaultRatePerSec = 1

// Config carries the sender settings. APIURL overrides the Bot API
// endpoint (self-hosted servers); empty means api.telegram.org.
type Config struct {
	Token      string
	ChatID     string
	ThreadID   int
	RatePerSec int
	APIURL     string
}

// Outcome reports a single delivery attempt. Status and Reason carry the
// Bot API error when Telegram rejected the message.
type Outcome struct {
	OK     bool
	Status int
	Reason string
}

// Recipient is a chat address in the form the Bot API accepts in the
// chat_id slot: a numeric id or an @channel username.
type Recipient string

func (r Recipient) Recipient() string { return string(r) }

// Sender delivers already-formatted MarkdownV2 text to one chat.
//
// Sends are synchronous and paced by a token bucket. A failed send is
// logged and reported through the Outcome, never returned as an error:
// one bad delivery must not stop the inbound stream.
type Sender struct {
	log logx.Logger
	bot *tele.Bot

	mu       sync.Mutex
	to       Recipient
	threadID int
	limiter  *rate.Limiter
}

// New builds the sender. The bot handle is constructed offline: an
// unreachable Bot API at boot is a delivery problem, not a startup error.
func New(cfg Config, log logx.Logger) (*Sender, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if strings.TrimSpace(cfg.ChatID) == "" {
		return nil, errors.New("telegram chat id is empty")
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     cfg.APIURL,
		Token:   cfg.Token,
		Offline: true,
		Client:  &http.Client{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Sender{log: log, bot: b}
	s.Apply(cfg)
	return s, nil
}

// Apply updates the destination and pacing at runtime. The token is fixed
// for the life of the process; Apply ignores it.
func (s *Sender) Apply(cfg Config) {
	r := cfg.RatePerSec
	if r <= 0 {
		r = defaultRatePerSec
	}
	s.mu.Lock()
	s.to = Recipient(strings.TrimSpace(cfg.ChatID))
	s.threadID = cfg.ThreadID
	// Token bucket with burst equal to the per-second rate.
	s.limiter = rate.NewLimiter(rate.Limit(r), r)
	s.mu.Unlock()
}

// Send delivers text as one MarkdownV2 message with link previews off.
// It blocks for pacing and the API round trip. Exactly one attempt; the
// outcome has already been logged when Send returns.
func (s *Sender) Send(ctx context.Context, text string) Outcome {
	s.mu.Lock()
	to := s.to
	threadID := s.threadID
	lim := s.limiter
	s.mu.Unlock()

	if cut, ok := truncate(text, TextLimit); ok {
		s.log.Warn("message text over limit, truncated",
			logx.Int("chars", len([]rune(text))), logx.Int("limit", TextLimit))
		text = cut
	}

	if err := lim.Wait(ctx); err != nil {
		s.log.Error("delivery aborted before send", logx.Err(err))
		return Outcome{Reason: err.Error()}
	}

	start := time.Now()
	_, err := s.bot.Send(to, text, &tele.SendOptions{
		ParseMode:             "MarkdownV2",
		DisableWebPagePreview: true,
		ThreadID:              threadID,
	})
	if err != nil {
		out := classify(err)
		s.log.Error("delivery failed",
			logx.Int("status", out.Status), logx.String("reason", out.Reason),
			logx.Duration("took", time.Since(start)))
		return out
	}
	s.log.Info("message delivered",
		logx.Int("chars", len([]rune(text))), logx.Duration("took", time.Since(start)))
	return Outcome{OK: true}
}

// classify folds a telebot error into an Outcome. Flood errors surface
// the advised delay in the reason; the single-attempt contract still
// applies, so nothing here ever waits it out.
func classify(err error) Outcome {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return Outcome{Status: flood.Code, Reason: fmt.Sprintf("%s (retry after %ds)", flood.Description, flood.RetryAfter)}
	}
	var api *tele.Error
	if errors.As(err, &api) {
		return Outcome{Status: api.Code, Reason: api.Description}
	}
	return Outcome{Reason: err.Error()}
}

// truncate cuts s to at most limit runes.
func truncate(s string, limit int) (string, bool) {
	rs := []rune(s)
	if len(rs) <= limit {
		return s, false
	}
	return string(rs[:limit]), true
}
