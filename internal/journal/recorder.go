package journal

import (
	"context"
	"time"

	"ntfygram/internal/bridge"
	"ntfygram/internal/eventbus"
	"ntfygram/pkg/logx"
)

// Recorder consumes delivery outcomes from the bus and appends them to the
// store. It runs off the hot path: the dispatcher publishes and moves on,
// and a slow or failing store only ever costs journal lines.
//
// The subscription opens at construction time, so outcomes published
// between NewRecorder and Run are buffered rather than missed.
type Recorder struct {
	store Store
	log   logx.Logger

	ch    <-chan eventbus.Event
	unsub func()
}

func NewRecorder(store Store, bus eventbus.Bus, log logx.Logger) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	ch, unsub := bus.Subscribe(64)
	return &Recorder{store: store, log: log, ch: ch, unsub: unsub}
}

// Run blocks until ctx is canceled, appending one entry per delivery
// outcome seen on the bus.
func (r *Recorder) Run(ctx context.Context) {
	ch := r.ch
	defer r.unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if e.Type != "delivery.ok" && e.Type != "delivery.failed" {
				continue
			}
			del, ok := e.Data.(bridge.Delivery)
			if !ok {
				continue
			}
			entry := Entry{
				At:       e.Time,
				Topic:    del.Topic,
				Title:    del.Title,
				EventID:  del.EventID,
				Priority: del.Priority,
				OK:       del.OK,
				Status:   del.Status,
				Reason:   del.Reason,
				TookMS:   del.TookMS,
			}
			cctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
			if err := r.store.Append(cctx, entry); err != nil {
				r.log.Debug("journal append failed", logx.Err(err))
			}
			cancel()
		}
	}
}
