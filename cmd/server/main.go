package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/gameforge-studio/internal/config"
	"github.com/iliyamo/gameforge-studio/internal/database"
	"github.com/iliyamo/gameforge-studio/internal/logging"
	"github.com/iliyamo/gameforge-studio/internal/middleware"
	"github.com/iliyamo/gameforge-studio/internal/queue"
	"github.com/iliyamo/gameforge-studio/internal/repository"
	"github.com/iliyamo/gameforge-studio/internal/repository/memory"
	"github.com/iliyamo/gameforge-studio/internal/repository/seed"
	"github.com/iliyamo/gameforge-studio/internal/repository/sqldb"
	"github.com/iliyamo/gameforge-studio/internal/router"
	"github.com/iliyamo/gameforge-studio/internal/service"
	"github.com/iliyamo/gameforge-studio/internal/session"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("storage unavailable")
	}
	defer store.Close()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable: sessions in memory, cache and rate limit disabled")
	} else {
		defer rdb.Close()
	}

	pub := service.NewPublisher(cfg.RabbitMQURL, log)
	defer pub.Close()
	if cfg.RabbitMQURL != "" {
		go queue.StartPurchaseConsumer(ctx, cfg.RabbitMQURL, queue.NewDownloadCounter(store), log)
	}

	sessions := middleware.NewSessions(session.NewStore(rdb, cfg.SessionTTL), store, cfg.SessionSecret, cfg.IsProduction(), log)
	e := router.New(router.Deps{
		Config:    cfg,
		Store:     store,
		Sessions:  sessions,
		Publisher: pub,
		Redis:     rdb,
		Log:       log,
	})

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "storage": cfg.StorageDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// openStorage builds the configured repository. A malformed or unreachable
// database stops startup; sample data problems do not. The memory store is
// always seeded; a database only when sample data is enabled.
func openStorage(ctx context.Context, cfg config.Config, log *logrus.Logger) (repository.Storage, error) {
	var fixtures *seed.Dataset
	if cfg.StorageDriver == config.DriverMemory || cfg.SeedEnabled() {
		ds, err := seed.Default(cfg.BcryptCost)
		if err != nil {
			log.WithError(err).Warn("sample data unavailable")
		} else {
			fixtures = &ds
		}
	}

	if cfg.StorageDriver == config.DriverMemory {
		var opts []memory.Option
		if fixtures != nil {
			opts = append(opts, memory.WithFixtures(*fixtures))
		}
		m, err := memory.New(opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	}

	db, dialect, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.WithField("dialect", dialect).Info("database connected")

	opts := []sqldb.Option{
		sqldb.WithLogger(log),
		sqldb.WithRetryPolicy(sqldb.RetryPolicy{Attempts: cfg.RetryAttempts, BaseDelay: cfg.RetryBaseDelay}),
	}
	if fixtures != nil {
		opts = append(opts, sqldb.WithFixtures(*fixtures))
	}
	return sqldb.New(ctx, db, opts...), nil
}
