// Command quiz is a terminal client for the autism-trait quiz API.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/eversols/autismquiz/internal/cli"
	"github.com/eversols/autismquiz/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// stdout belongs to the quiz itself
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	app := cli.NewApp(cli.Deps{
		In:      stdin,
		Out:     stdout,
		Logger:  logger,
		Config:  cfg,
		Connect: cli.Connect(cfg, logger),
	})
	return app.RunContext(ctx, args)
}
