// Command cleanup runs the nightly retention job once and exits.
// Intended for external schedulers (cron, a systemd timer) in setups
// where the server's own ticker is disabled.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/inkfill/inkfill/pkg/config"
	"github.com/inkfill/inkfill/pkg/lock"
	"github.com/inkfill/inkfill/pkg/logger"
	"github.com/inkfill/inkfill/pkg/pg"
	"github.com/inkfill/inkfill/pkg/redis"
	"github.com/inkfill/inkfill/svc/maintenance"
)

func main() {
	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg, "inkfill-cleanup")
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("cleanup failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pgCfg pg.Config
	config.MustLoad(&pgCfg)
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	var redisCfg redis.Config
	config.MustLoad(&redisCfg)
	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	job := maintenance.NewCleanupJob(pool, log)
	runner := maintenance.NewRunner(job, lock.NewRedisLocker(redisClient), log)

	if !runner.RunOnce(ctx) {
		log.Info("cleanup skipped")
	}
	return nil
}
