package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daybook/server/internal/app/activity"
	"github.com/daybook/server/internal/platform/dbpool"
	"github.com/daybook/server/internal/platform/env"
	"github.com/daybook/server/internal/platform/logging"
	"github.com/daybook/server/internal/platform/natsutil"
)

func main() {
	log := logging.New(env.String("LOG_LEVEL", env.DefaultLogLevel), env.String("LOG_FORMAT", env.DefaultLogFormat), os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	natsURL := env.String("NATS_URL", env.DefaultNATSURL)
	pgURL := env.String("DATABASE_URL", env.DefaultDatabaseURL)

	pool, err := dbpool.New(ctx, pgURL, dbpool.ConfigFromEnv())
	if err != nil {
		log.WithError(err).Fatal("open postgres pool")
	}
	defer pool.Close()

	repository := activity.NewPostgresRepository(pool)
	err = dbpool.WaitReady(ctx, 30*time.Second, log, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
		return repository.EnsureSchema(ctx)
	})
	if err != nil {
		log.WithError(err).Fatal("postgres not ready")
	}

	client, err := natsutil.DialWithRetry(ctx, natsURL, 20*time.Second, log.WithField("component", "nats"))
	if err != nil {
		log.WithError(err).Fatal("connect nats")
	}
	defer client.Close()

	sub, err := activity.Subscribe(ctx, client.JS, activity.NewService(repository), log)
	if err != nil {
		log.WithError(err).Fatal("subscribe")
	}
	log.WithField("subject", sub.Subject).Info("activity sink listening")

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		log.WithError(err).Warn("drain subscription")
	}
}
