package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/rosedev/rose2go/internal/config"
)

const defaultConfigPath = "rose2go.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg config.Tool

	app := &cli.App{
		Name:  "rose2go",
		Usage: "inspect, index and export ROSE Online 3DDATA assets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfigPath,
				Usage:   "path to the YAML config file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			loaded, err := config.LoadTool(c.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg = loaded

			level := slog.LevelInfo
			if c.Bool("debug") || cfg.LogLevel == "debug" {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
			return nil
		},
		Commands: []*cli.Command{
			inspectCommand(&cfg),
			terrainCommand(&cfg),
			meshCommand(&cfg),
			catalogCommand(&cfg),
		},
	}

	return app.RunContext(ctx, os.Args)
}
