package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"ntfygram/internal/config"
)

func baseConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Ntfy.Server = "ntfy.test"
	cfg.Ntfy.Topics = []string{"alerts"}
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.ChatID = "7"
	cfg.Normalize()
	return cfg
}

func TestValidateConfigCrossChecks(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "heartbeat descriptor schedule", mutate: func(c *config.Config) {
			c.Heartbeat.Schedule = "@daily"
		}},
		{name: "bad heartbeat schedule", mutate: func(c *config.Config) {
			c.Heartbeat.Schedule = "61 * * * *"
		}, wantErr: "heartbeat.schedule"},
		{name: "bad heartbeat timezone", mutate: func(c *config.Config) {
			c.Heartbeat.Timezone = "Mars/Olympus"
		}, wantErr: "heartbeat.timezone"},
		{name: "journal sqlite without path", mutate: func(c *config.Config) {
			c.Journal = &config.JournalConfig{Driver: "sqlite"}
		}, wantErr: "journal.path"},
		{name: "journal unknown driver", mutate: func(c *config.Config) {
			c.Journal = &config.JournalConfig{Driver: "redis"}
		}, wantErr: "journal.driver"},
		{name: "journal file with path", mutate: func(c *config.Config) {
			c.Journal = &config.JournalConfig{Driver: "file", Path: "./j.jsonl"}
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := baseConfig()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("validateConfig = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("validateConfig = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMapStreamOptions(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Ntfy.Topics = []string{"alerts", "backups"}
	cfg.Ntfy.ReadTimeout = "45s"

	opts := mapStreamOptions(cfg)
	if opts.ConnectTimeout != 5*time.Second {
		t.Fatalf("ConnectTimeout = %v, want default 5s", opts.ConnectTimeout)
	}
	if opts.ReadTimeout != 45*time.Second {
		t.Fatalf("ReadTimeout = %v, want 45s", opts.ReadTimeout)
	}

	// Dial snapshots must not alias the committed config.
	opts.Topics[0] = "mutated"
	if cfg.Ntfy.Topics[0] != "alerts" {
		t.Fatal("mapStreamOptions aliased the config topic slice")
	}

	if got := mapStreamOptions(nil); got.Server != "" {
		t.Fatalf("mapStreamOptions(nil).Server = %q, want empty", got.Server)
	}
}

func TestMapJournalConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		journal     *config.JournalConfig
		wantEnabled bool
		wantDriver  string
		wantBusy    time.Duration
		wantErr     string
	}{
		{name: "section omitted", journal: nil},
		{name: "driver none", journal: &config.JournalConfig{Driver: "none"}},
		{name: "file without path", journal: &config.JournalConfig{Driver: "file"}, wantErr: "journal.path"},
		{name: "file", journal: &config.JournalConfig{Driver: "file", Path: "./j.jsonl"},
			wantEnabled: true, wantDriver: "file"},
		{name: "sqlite default busy timeout", journal: &config.JournalConfig{Driver: "sqlite", Path: "./j.db"},
			wantEnabled: true, wantDriver: "sqlite", wantBusy: time.Second},
		{name: "sqlite3 mixed case", journal: &config.JournalConfig{Driver: "SQLite3", Path: "./j.db", BusyTimeout: "250ms"},
			wantEnabled: true, wantDriver: "sqlite3", wantBusy: 250 * time.Millisecond},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := baseConfig()
			cfg.Journal = tt.journal

			jc, enabled, err := mapJournalConfig(cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want error containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("mapJournalConfig: %v", err)
			}
			if enabled != tt.wantEnabled {
				t.Fatalf("enabled = %v, want %v", enabled, tt.wantEnabled)
			}
			if jc.Driver != tt.wantDriver {
				t.Fatalf("Driver = %q, want %q", jc.Driver, tt.wantDriver)
			}
			if jc.BusyTimeout != tt.wantBusy {
				t.Fatalf("BusyTimeout = %v, want %v", jc.BusyTimeout, tt.wantBusy)
			}
		})
	}
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	body := `{"ntfy":{"server":"ntfy.test","topics":["alerts"]},"telegram":{"chat_id":"7"}}`
	if err := os.WriteFile(cfgPath, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := NewApp(cfgPath); err == nil {
		t.Fatal("NewApp accepted a config without telegram.token")
	}
}

type botCall struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type botRecorder struct {
	mu    sync.Mutex
	calls []botCall
}

func (r *botRecorder) add(c botCall) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

func (r *botRecorder) list() []botCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]botCall(nil), r.calls...)
}

const botOK = `{"ok":true,"result":{"message_id":1,"chat":{"id":7,"type":"private"},"date":1700000000}}`

func fakeBotAPI(t *testing.T, rec *botRecorder) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			var call botCall
			if err := json.NewDecoder(r.Body).Decode(&call); err == nil {
				rec.add(call)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(botOK))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// fakeStream upgrades one websocket per request, pushes the given frame
// and then holds the connection open so the client has no reason to redial.
func fakeStream(t *testing.T, path, frame string) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAppForwardsStreamEventEndToEnd(t *testing.T) {
	t.Parallel()
	frame := `{"id":"evt1","event":"message","topic":"alerts","title":"Disk Full","message":"Usage at 95%","tags":["warning"],"priority":5}`
	stream := fakeStream(t, "/alerts/ws", frame)

	rec := &botRecorder{}
	api := fakeBotAPI(t, rec)

	dir := t.TempDir()
	journalPath := filepath.Join(dir, "journal.jsonl")
	cfgPath := filepath.Join(dir, "config.json")
	cfgJSON := fmt.Sprintf(`{
  "ntfy": {"server": %q, "topics": ["alerts"]},
  "telegram": {"token": "123:abc", "chat_id": "7", "api_url": %q},
  "logging": {"level": "ERROR", "console": false},
  "journal": {"driver": "file", "path": %q}
}`, strings.TrimPrefix(stream.URL, "http://"), api.URL, journalPath)
	if err := os.WriteFile(cfgPath, []byte(cfgJSON), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	a, err := NewApp(cfgPath)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	var calls []botCall
	for {
		calls = rec.list()
		if len(calls) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no sendMessage call within 5s of the stream frame")
		}
		time.Sleep(10 * time.Millisecond)
	}
	want := "🚨 Disk Full \n\nUsage at 95%"
	if calls[0].Text != want {
		t.Fatalf("sent text = %q, want %q", calls[0].Text, want)
	}
	if calls[0].ChatID != "7" {
		t.Fatalf("chat_id = %q, want %q", calls[0].ChatID, "7")
	}
	if calls[0].ParseMode != "MarkdownV2" {
		t.Fatalf("parse_mode = %q, want MarkdownV2", calls[0].ParseMode)
	}

	// The journal write is asynchronous; wait for it before stopping.
	jdeadline := time.Now().Add(3 * time.Second)
	for {
		b, _ := os.ReadFile(journalPath)
		if strings.Contains(string(b), `"topic":"alerts"`) {
			break
		}
		if time.Now().After(jdeadline) {
			t.Fatal("journal entry not written within 3s of delivery")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := a.Stop(context.Background(), StopAppStop); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
