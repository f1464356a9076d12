// Command server runs the inkfill web application: OAuth sign-in,
// cookie sessions, the filled-form workflow, and the nightly retention
// job.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkfill/inkfill/pkg/authtoken"
	"github.com/inkfill/inkfill/pkg/cache"
	"github.com/inkfill/inkfill/pkg/config"
	"github.com/inkfill/inkfill/pkg/cookie"
	"github.com/inkfill/inkfill/pkg/email"
	"github.com/inkfill/inkfill/pkg/lock"
	"github.com/inkfill/inkfill/pkg/logger"
	"github.com/inkfill/inkfill/pkg/pg"
	"github.com/inkfill/inkfill/pkg/redis"
	"github.com/inkfill/inkfill/pkg/session"
	"github.com/inkfill/inkfill/pkg/storage"
	"github.com/inkfill/inkfill/svc/auth"
	"github.com/inkfill/inkfill/svc/forms"
	"github.com/inkfill/inkfill/svc/maintenance"
)

type appConfig struct {
	Env             string        `env:"APP_ENV" envDefault:"development"`
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	Domain          string        `env:"APP_DOMAIN"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func (c appConfig) local() bool {
	return c.Env != "production"
}

func main() {
	var appCfg appConfig
	config.MustLoad(&appCfg)
	var logCfg logger.Config
	config.MustLoad(&logCfg)

	log := logger.NewFromConfig(logCfg, "inkfill-server")
	slog.SetDefault(log)

	if err := run(appCfg, log); err != nil {
		log.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(appCfg appConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pgCfg pg.Config
	config.MustLoad(&pgCfg)
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	var redisCfg redis.Config
	config.MustLoad(&redisCfg)
	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	var sessCfg session.Config
	config.MustLoad(&sessCfg)
	codec, err := authtoken.New(sessCfg.Secret)
	if err != nil {
		return err
	}

	binding := cookie.New(
		cookie.WithName(sessCfg.CookieName),
		cookie.WithDomain(appCfg.Domain),
		cookie.WithLocal(appCfg.local()),
	)

	sessions := auth.NewPostgresSessionStore(pool)
	users := auth.NewPostgresUserStore(pool)
	manager := session.NewManager(codec, binding, sessions, users, sessCfg,
		session.WithLogger(log))

	// Redis is the shared cache; the in-process map keeps reads working
	// through a Redis outage.
	sharedCache := cache.NewFallback(
		cache.NewRedisCache(redisClient, "inkfill"),
		cache.NewMemoryCache(),
		cache.WithFallbackLogger(log),
	)

	states := auth.NewStateStore(sharedCache, 10*time.Minute)
	authService := auth.NewService(
		providerAdapters(log),
		states,
		users,
		manager,
		auth.WithServiceLogger(log),
		auth.WithVerifiedOnly(!appCfg.local()),
	)

	formsService := forms.NewService(
		newUploader(ctx, log),
		sharedCache,
		newSender(log),
		forms.WithLogger(log),
	)

	cleanup := maintenance.NewCleanupJob(pool, log)
	runner := maintenance.NewRunner(cleanup, lock.NewRedisLocker(redisClient), log)
	go runner.Schedule(ctx)

	router := newRouter(manager, authService, formsService, pool, redisClient, log)

	server := &http.Server{
		Addr:              appCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", appCfg.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// providerAdapters builds the configured OAuth adapters. A provider
// with missing credentials is skipped with a warning so a partial
// development setup still boots.
func providerAdapters(log *slog.Logger) []auth.ProviderAdapter {
	var adapters []auth.ProviderAdapter

	var googleCfg auth.GoogleConfig
	if err := config.Load(&googleCfg); err != nil {
		log.Warn("google sign-in disabled", logger.Error(err))
	} else {
		adapters = append(adapters, auth.NewGoogleAdapter(googleCfg))
	}

	var githubCfg auth.GithubConfig
	if err := config.Load(&githubCfg); err != nil {
		log.Warn("github sign-in disabled", logger.Error(err))
	} else {
		adapters = append(adapters, auth.NewGithubAdapter(githubCfg))
	}

	return adapters
}

// newUploader prefers S3 and falls back to the in-process store when
// the bucket is not configured.
func newUploader(ctx context.Context, log *slog.Logger) storage.Uploader {
	var cfg storage.Config
	if err := config.Load(&cfg); err != nil {
		log.Warn("document storage running in-process", logger.Error(err))
		return storage.NewMemoryUploader()
	}

	uploader, err := storage.NewS3Uploader(ctx, cfg)
	if err != nil {
		log.Warn("document storage running in-process", logger.Error(err))
		return storage.NewMemoryUploader()
	}
	return uploader
}

// newSender prefers Postmark and falls back to the disk sender.
func newSender(log *slog.Logger) email.Sender {
	var cfg email.Config
	if err := config.Load(&cfg); err != nil {
		log.Warn("mail delivery writing to disk", logger.Error(err))
		return email.NewDevSender("./tmp/emails")
	}

	sender, err := email.NewPostmarkSender(cfg)
	if err != nil {
		log.Warn("mail delivery writing to disk", logger.Error(err))
		return email.NewDevSender(cfg.DevOutputDir)
	}
	return sender
}
