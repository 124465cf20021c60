package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"ntfygram/internal/eventbus"
	"ntfygram/internal/render"
	"ntfygram/internal/telegram"
	"ntfygram/pkg/logx"
)

type fakeSender struct {
	mu       sync.Mutex
	texts    []string
	outcomes []telegram.Outcome
}

func (f *fakeSender) Send(_ context.Context, text string) telegram.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if len(f.outcomes) > 0 {
		out := f.outcomes[0]
		f.outcomes = f.outcomes[1:]
		return out
	}
	return telegram.Outcome{OK: true}
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func drain(ch <-chan eventbus.Event) []eventbus.Event {
	var out []eventbus.Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func countLevel(buf *bytes.Buffer, level string) int {
	n := 0
	for _, line := range strings.Split(buf.String(), "\n") {
		if line == "" {
			continue
		}
		var rec struct {
			Level string `json:"level"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err == nil && rec.Level == level {
			n++
		}
	}
	return n
}

func TestHandleFrameForwardsMessage(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	bus := eventbus.New()
	ch, unsub := bus.Subscribe(8)
	defer unsub()

	d := New(sender, render.Options{}, logx.Nop(), bus)
	frame := `{"event":"message","id":"k5Zd","topic":"alerts","title":"Disk Full","message":"Usage at 95%","tags":["warning"],"priority":4}`
	d.HandleFrame(context.Background(), []byte(frame))

	sent := sender.sent()
	if len(sent) != 1 {
		t.Fatalf("sender invocations = %d, want 1", len(sent))
	}
	if want := "🚨 Disk Full \n\nUsage at 95%"; sent[0] != want {
		t.Fatalf("sent text = %q, want %q", sent[0], want)
	}

	st := d.Stats()
	if st.Received != 1 || st.Forwarded != 1 || st.Failed != 0 || st.Dropped != 0 {
		t.Fatalf("stats = %+v", st)
	}

	events := drain(ch)
	if len(events) != 1 || events[0].Type != "delivery.ok" {
		t.Fatalf("bus events = %+v, want one delivery.ok", events)
	}
	del, ok := events[0].Data.(Delivery)
	if !ok {
		t.Fatalf("payload type = %T, want Delivery", events[0].Data)
	}
	if del.Topic != "alerts" || del.EventID != "k5Zd" || del.Priority != 4 || !del.OK {
		t.Fatalf("delivery payload = %+v", del)
	}
}

func TestHandleFrameValidationLadder(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		frame       string
		wantDropped uint64
		wantSkipped uint64
		wantWarns   int
	}{
		{name: "unparseable", frame: `{"event":`, wantDropped: 1, wantWarns: 1},
		{name: "missing event field", frame: `{"topic":"alerts","message":"x"}`, wantDropped: 1, wantWarns: 1},
		{name: "keepalive skipped quietly", frame: `{"event":"keepalive","id":"x"}`, wantSkipped: 1},
		{name: "open skipped quietly", frame: `{"event":"open","topic":"alerts"}`, wantSkipped: 1},
		{name: "message without topic", frame: `{"event":"message","message":"x"}`, wantDropped: 1, wantWarns: 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			var buf bytes.Buffer
			d := New(sender, render.Options{}, logx.NewJSON(&buf, "WARN"), eventbus.New())

			d.HandleFrame(context.Background(), []byte(tt.frame))

			if n := len(sender.sent()); n != 0 {
				t.Fatalf("sender invocations = %d, want 0", n)
			}
			st := d.Stats()
			if st.Received != 1 {
				t.Fatalf("received = %d, want 1", st.Received)
			}
			if st.Dropped != tt.wantDropped {
				t.Fatalf("dropped = %d, want %d", st.Dropped, tt.wantDropped)
			}
			if st.Skipped != tt.wantSkipped {
				t.Fatalf("skipped = %d, want %d", st.Skipped, tt.wantSkipped)
			}
			if got := countLevel(&buf, "warn"); got != tt.wantWarns {
				t.Fatalf("warning logs = %d, want %d", got, tt.wantWarns)
			}
		})
	}
}

func TestHandleFrameContinuesAfterFailedSend(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{outcomes: []telegram.Outcome{
		{OK: false, Status: 400, Reason: "Bad Request: can't parse entities"},
		{OK: true},
	}}
	bus := eventbus.New()
	ch, unsub := bus.Subscribe(8)
	defer unsub()

	d := New(sender, render.Options{}, logx.Nop(), bus)
	d.HandleFrame(context.Background(), []byte(`{"event":"message","topic":"alerts","message":"first"}`))
	d.HandleFrame(context.Background(), []byte(`{"event":"message","topic":"alerts","message":"second"}`))

	if n := len(sender.sent()); n != 2 {
		t.Fatalf("sender invocations = %d, want 2", n)
	}
	st := d.Stats()
	if st.Failed != 1 || st.Forwarded != 1 {
		t.Fatalf("stats = %+v, want 1 failed and 1 forwarded", st)
	}

	events := drain(ch)
	if len(events) != 2 {
		t.Fatalf("bus events = %d, want 2", len(events))
	}
	if events[0].Type != "delivery.failed" || events[1].Type != "delivery.ok" {
		t.Fatalf("event order = %s, %s", events[0].Type, events[1].Type)
	}
	del := events[0].Data.(Delivery)
	if del.Status != 400 || del.OK {
		t.Fatalf("failed delivery payload = %+v", del)
	}
}

func TestSetOptionsAppliesToNextFrame(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	d := New(sender, render.Options{}, logx.Nop(), eventbus.New())
	frame := []byte(`{"event":"message","topic":"backups","message":"done"}`)

	d.HandleFrame(context.Background(), frame)
	d.SetOptions(render.Options{IncludeTopic: true})
	d.HandleFrame(context.Background(), frame)

	sent := sender.sent()
	if len(sent) != 2 {
		t.Fatalf("sender invocations = %d, want 2", len(sent))
	}
	if sent[0] != "done" {
		t.Fatalf("first text = %q, want %q", sent[0], "done")
	}
	if sent[1] != "backups\ndone" {
		t.Fatalf("second text = %q, want %q", sent[1], "backups\ndone")
	}
	if !d.Options().IncludeTopic {
		t.Fatal("Options() did not reflect the swap")
	}
}
