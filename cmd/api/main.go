package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"journal-ai/internal/config"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "journal-api",
		Usage: "Journal analysis and search API",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return serve(ctx, cfg)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP API server",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return serve(ctx, cfg)
				},
			},
			{
				Name:  "import",
				Usage: "Import a directory of markdown journal files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dir",
						Usage:    "directory to scan for .md files",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "user the entries belong to",
						Value: cfg.DefaultUserID,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return importDir(ctx, cfg, cmd.String("dir"), cmd.String("user"))
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		log.Fatal(err)
	}
}
