package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"NotifyNiche/internal/app"
	"NotifyNiche/internal/config"
	"NotifyNiche/internal/logging"
)

func load(ctx context.Context, cmd *cli.Command, dryRun bool) (*app.Application, error) {
	path := cmd.String("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Dry runs print payloads on stdout, so logs go to stderr.
	out := os.Stdout
	if dryRun {
		out = os.Stderr
	}
	logger := logging.NewWithWriter(out, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	opts := []app.Option{
		app.WithLogger(logger),
		app.WithConfigPath(path),
	}
	if dryRun {
		opts = append(opts, app.WithDryRun(os.Stdout))
	}

	return app.New(ctx, cfg, opts...)
}

func run(ctx context.Context, cmd *cli.Command) error {
	a, err := load(ctx, cmd, cmd.Bool("dry-run"))
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	a, err := load(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Serve(ctx)
}

func feeds(ctx context.Context, cmd *cli.Command) error {
	a, err := load(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.ListFeeds(ctx, cmd.String("category"), os.Stdout)
}

func main() {
	cmd := &cli.Command{
		Name:   "notifyniche",
		Usage:  "Collect RSS/Atom feeds per category and post new articles to a Discord webhook",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("NOTIFYNICHE_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the pipeline once",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Print notification payloads instead of sending them; nothing is written to the database",
					},
				},
				Action: run,
			},
			{
				Name:   "serve",
				Usage:  "Run the pipeline on the configured cron schedule and reload config on change",
				Action: serve,
			},
			{
				Name:  "feeds",
				Usage: "List configured feeds",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only list feeds of this category",
					},
				},
				Action: feeds,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
