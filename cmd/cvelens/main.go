package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lcalzada-xor/cvelens/internal/cli"
	"github.com/lcalzada-xor/cvelens/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Root Context with cancellation on Interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	if err := cli.Execute(ctx, cfg, version); err != nil {
		slog.Error("Command failed", "error", err)
		cancel()
		os.Exit(1)
	}
}
