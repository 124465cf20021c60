// Package systemd integrates the daemon with the host service manager.
// Every call is a no-op when the process is not running under a systemd
// unit (no NOTIFY_SOCKET / watchdog environment).
package systemd

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// NotifyReady reports readiness for Type=notify units. The bool is false
// when notification is unsupported (not running under systemd).
func NotifyReady() (bool, error) {
	return daemon.SdNotify(false, daemon.SdNotifyReady)
}

// NotifyStopping reports that shutdown has begun.
func NotifyStopping() (bool, error) {
	return daemon.SdNotify(false, daemon.SdNotifyStopping)
}

// WatchdogInterval returns the recommended ping interval, half the unit's
// WatchdogSec, or 0 when no watchdog is configured for this process.
func WatchdogInterval() (time.Duration, error) {
	d, err := daemon.SdWatchdogEnabled(false)
	if err != nil || d == 0 {
		return 0, err
	}
	return d / 2, nil
}

// Watchdog pings the service manager every interval until ctx ends.
func Watchdog(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}
