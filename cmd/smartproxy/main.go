package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/elsbrock/smartproxy/internal/download"
	"github.com/elsbrock/smartproxy/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		switch {
		case download.IsExhausted(err):
			log.Error("main").Err(err).Msg("Giving up")
		case download.IsCancelled(err):
			log.Info("main").Msg("Interrupted")
		default:
			log.Error("main").Err(err).Msg("Command failed")
		}
		stop()
		os.Exit(1)
	}
}
