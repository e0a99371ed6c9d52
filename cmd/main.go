package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/AnthoniusHendriyanto/blogger-auth/config"
	"github.com/AnthoniusHendriyanto/blogger-auth/db"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/logger"
	"github.com/urfave/cli/v3"
)

// Version information (set via ldflags during build)
var Version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "blogger-auth",
		Usage:   "Authentication and device session service for the blogger platform",
		Version: Version,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run migrations and start the HTTP server",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "Apply or roll back database migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "down",
						Usage: "Roll back the last migration instead of applying pending ones",
					},
				},
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

func migrate(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Load()
	logr := logger.New(os.Stdout, cfg.Env, cfg.LogLevel)

	pool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cmd.Bool("down") {
		if err := db.MigrateDown(ctx, pool); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		logr.Info("rolled back last migration")
		return nil
	}

	if err := db.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	logr.Info("migrations applied")
	return nil
}
