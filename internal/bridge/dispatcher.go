// Package bridge turns validated stream frames into Telegram deliveries.
//
// The Dispatcher is the stream client's frame handler. Frames are handled
// strictly one at a time (the client reads the next frame only after
// HandleFrame returns), so a message is delivered before its successor is
// even parsed. One valid message event produces exactly one send attempt.
package bridge

import (
	"context"
	"sync/atomic"
	"time"

	"ntfygram/internal/eventbus"
	"ntfygram/internal/ntfy"
	"ntfygram/internal/render"
	"ntfygram/pkg/logx"
)

type Dispatcher struct {
	log    logx.Logger
	sender Sender
	bus    eventbus.Bus

	// opts holds the current display toggles; swapped whole on reload so
	// a render never sees a half-applied pair.
	opts atomic.Pointer[render.Options]

	received  atomic.Uint64
	forwarded atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
	skipped   atomic.Uint64
}

func New(sender Sender, opts render.Options, log logx.Logger, bus eventbus.Bus) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	d := &Dispatcher{log: log, sender: sender, bus: bus}
	d.opts.Store(&opts)
	return d
}

// SetOptions swaps the display toggles. Takes effect from the next frame.
func (d *Dispatcher) SetOptions(opts render.Options) {
	d.opts.Store(&opts)
}

// Options returns the toggles currently in effect.
func (d *Dispatcher) Options() render.Options {
	return *d.opts.Load()
}

// Stats snapshots the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Received:  d.received.Load(),
		Forwarded: d.forwarded.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
		Skipped:   d.skipped.Load(),
	}
}

// HandleFrame validates one frame and forwards it when it is a message
// event. The validation ladder, in order: unparseable or missing event
// field drops with a warning; a non-message event skips quietly; a message
// without a topic drops with a warning. A failed send is recorded and the
// stream moves on.
func (d *Dispatcher) HandleFrame(ctx context.Context, raw []byte) {
	d.received.Add(1)

	ev, err := ntfy.DecodeEvent(raw)
	if err != nil {
		d.drop("unparseable frame", len(raw), logx.Err(err))
		return
	}
	if ev.Event == "" {
		d.drop("missing event field", len(raw))
		return
	}
	if ev.Event != ntfy.EventMessage {
		d.skipped.Add(1)
		d.log.Debug("skipping event", logx.String("event", ev.Event))
		return
	}
	if ev.Topic == "" {
		d.drop("message without topic", len(raw), logx.String("id", ev.ID))
		return
	}

	text := render.Message(ev, *d.opts.Load())
	d.log.Debug("forwarding message",
		logx.String("topic", ev.Topic), logx.String("id", ev.ID), logx.Int("chars", len([]rune(text))))

	start := time.Now()
	out := d.sender.Send(ctx, text)
	took := time.Since(start)

	del := Delivery{
		Topic:    ev.Topic,
		Title:    ev.Title,
		EventID:  ev.ID,
		Priority: ev.Priority,
		OK:       out.OK,
		Status:   out.Status,
		Reason:   out.Reason,
		TookMS:   took.Milliseconds(),
	}
	if out.OK {
		d.forwarded.Add(1)
		d.bus.Publish(eventbus.Event{Type: "delivery.ok", Data: del})
		return
	}
	d.failed.Add(1)
	d.bus.Publish(eventbus.Event{Type: "delivery.failed", Data: del})
}

func (d *Dispatcher) drop(reason string, size int, fields ...logx.Field) {
	d.dropped.Add(1)
	d.log.Warn("dropping frame: "+reason, append(fields, logx.Int("size", size))...)
	d.bus.Publish(eventbus.Event{Type: "frame.dropped", Data: Drop{Reason: reason, Size: size}})
}
