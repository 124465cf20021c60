package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ntfygram/internal/app"
	"ntfygram/pkg/systemd"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to config file (json or yaml); optional when configured from the environment")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	if err := a.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		os.Exit(1)
	}

	_, _ = systemd.NotifyReady()
	if interval, err := systemd.WatchdogInterval(); err == nil && interval > 0 {
		go systemd.Watchdog(ctx, interval)
	}

	reason := app.StopSignal
	select {
	case <-ctx.Done():
	case <-a.Done():
		// The app context derives from the signal context; only an internal
		// cancellation counts as fatal.
		if ctx.Err() == nil {
			reason = app.StopFatalError
		}
	}

	_, _ = systemd.NotifyStopping()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = a.Stop(stopCtx, reason)

	if reason == app.StopFatalError {
		if err := a.Err(); err != nil {
			fmt.Println("fatal:", err)
		}
		os.Exit(1)
	}
}
