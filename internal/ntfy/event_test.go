package ntfy

import (
	"reflect"
	"testing"
)

func TestDecodeEventDefaults(t *testing.T) {
	t.Parallel()
	raw := `{"event":"message","topic":"alerts","message":"hello"}`
	ev, err := DecodeEvent([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeEvent error: %v", err)
	}
	if ev.Priority != 3 {
		t.Fatalf("Priority = %d, want default 3", ev.Priority)
	}
	if ev.Tags == nil || len(ev.Tags) != 0 {
		t.Fatalf("Tags = %#v, want empty non-nil slice", ev.Tags)
	}
	if ev.Markdown() {
		t.Fatal("plain message must not report markdown")
	}
}

func TestDecodeEventExplicitFields(t *testing.T) {
	t.Parallel()
	raw := `{
		"event":"message","id":"k5Zd","time":1700000000,"topic":"alerts",
		"title":"Disk","message":"*90%*","tags":["warning","db1"],
		"priority":5,"content_type":"text/markdown","click":"https://x.test/a",
		"actions":[{"action":"view"}],"attachment":{"name":"a.jpg"},
		"expires":1700003600
	}`
	ev, err := DecodeEvent([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeEvent error: %v", err)
	}
	if ev.Priority != 5 {
		t.Fatalf("Priority = %d, want 5", ev.Priority)
	}
	if want := []string{"warning", "db1"}; !reflect.DeepEqual(ev.Tags, want) {
		t.Fatalf("Tags = %v, want %v", ev.Tags, want)
	}
	if !ev.Markdown() {
		t.Fatal("content_type text/markdown must report markdown")
	}
	if ev.Click != "https://x.test/a" {
		t.Fatalf("Click = %q", ev.Click)
	}
	if len(ev.Actions) == 0 || len(ev.Attachment) == 0 {
		t.Fatal("actions/attachment should be captured raw")
	}
}

func TestDecodeEventMalformed(t *testing.T) {
	t.Parallel()
	if _, err := DecodeEvent([]byte(`{"event":`)); err == nil {
		t.Fatal("expected error for malformed frame")
	}
}
