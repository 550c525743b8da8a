package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daybook/server/internal/app/activity"
	"github.com/daybook/server/internal/app/httpapi"
	"github.com/daybook/server/internal/app/identity"
	"github.com/daybook/server/internal/app/journal"
	"github.com/daybook/server/internal/app/task"
	"github.com/daybook/server/internal/platform/cache"
	"github.com/daybook/server/internal/platform/dbpool"
	"github.com/daybook/server/internal/platform/env"
	"github.com/daybook/server/internal/platform/logging"
	"github.com/daybook/server/internal/platform/mongodb"
	"github.com/daybook/server/internal/platform/natsutil"
	"github.com/daybook/server/internal/platform/ratelimit"
	"github.com/daybook/server/services/frontend"
	"github.com/sirupsen/logrus"
)

type config struct {
	Addr            string
	FrontendURL     string
	StoreDriver     string
	JWTSecret       string
	TokenTTL        time.Duration
	CookieSecure    bool
	TrustProxy      bool
	Location        *time.Location
	RedisAddr       string
	AnalyticsTTL    time.Duration
	NATSURL         string
	LoginRate       float64
	LoginBurst      int
	ShutdownTimeout time.Duration
}

func loadConfig() config {
	return config{
		Addr:            env.String("API_ADDR", env.DefaultAPIAddr),
		FrontendURL:     env.String("FRONTEND_URL", env.DefaultFrontendURL),
		StoreDriver:     env.String("STORE_DRIVER", env.DefaultStoreDriver),
		JWTSecret:       env.String("JWT_SECRET", env.DefaultJWTSecret),
		TokenTTL:        env.Duration("TOKEN_TTL", env.DefaultTokenTTL),
		CookieSecure:    env.Bool("COOKIE_SECURE", false),
		TrustProxy:      env.Bool("TRUST_PROXY", false),
		Location:        env.Location("APP_TIMEZONE"),
		RedisAddr:       env.String("REDIS_ADDR", ""),
		AnalyticsTTL:    env.Duration("ANALYTICS_CACHE_TTL", 30*time.Second),
		NATSURL:         env.String("NATS_URL", ""),
		LoginRate:       env.Float("LOGIN_RATE_PER_SEC", 1),
		LoginBurst:      env.Int("LOGIN_BURST", 5),
		ShutdownTimeout: env.Duration("SHUTDOWN_TIMEOUT", env.DefaultShutdownWait),
	}
}

type stores struct {
	tasks    task.Repository
	journals journal.Repository
	users    identity.Repository
	ready    func(context.Context) error
	close    func()
}

func main() {
	log := logging.New(env.String("LOG_LEVEL", env.DefaultLogLevel), env.String("LOG_FORMAT", env.DefaultLogFormat), os.Stdout)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(runCtx, loadConfig(), log); err != nil {
		log.WithError(err).Fatal("api exited")
	}
}

func run(ctx context.Context, cfg config, log *logrus.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	tasks := task.NewService(st.tasks)
	tasks.Log = log.WithField("component", "task")
	tasks.Location = cfg.Location

	journals := journal.NewService(st.journals)
	journals.Log = log.WithField("component", "journal")
	journals.Location = cfg.Location

	ident := identity.NewService(st.users, identity.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL))
	ident.Log = log.WithField("component", "identity")

	if cfg.RedisAddr != "" {
		client, err := cache.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, analytics cache disabled")
		} else {
			analytics := cache.New(client, "daybook:", cfg.AnalyticsTTL)
			defer analytics.Close()
			tasks.Cache = &task.CachedAnalytics{Cache: analytics, Log: tasks.Log}
			log.WithField("addr", cfg.RedisAddr).Info("analytics cache enabled")
		}
	}

	checks := []readyCheck{st.ready}
	var bus natsutil.Publisher = natsutil.NoopPublisher{}
	if cfg.NATSURL != "" {
		nc, err := natsutil.DialWithRetry(ctx, cfg.NATSURL, 20*time.Second, log.WithField("component", "nats"))
		if err != nil {
			return err
		}
		defer nc.Close()
		bus = nc.Publisher()
		checks = append(checks, nc.Ready)
		log.WithField("url", cfg.NATSURL).Info("publishing activity events")
	}
	recorder := activity.NewPublisher(bus)
	recorder.Log = log.WithField("component", "activity")
	tasks.Events = recorder
	journals.Events = recorder
	ident.Events = recorder

	limiter := ratelimit.New(cfg.LoginRate, cfg.LoginBurst)
	defer limiter.Stop()

	handler := httpapi.NewHandler(tasks, journals, ident)
	handler.Log = log
	handler.AllowedOrigin = cfg.FrontendURL
	handler.CookieSecure = cfg.CookieSecure
	handler.TrustProxy = cfg.TrustProxy
	handler.Location = cfg.Location
	handler.AuthLimiter = limiter
	handler.Ready = allReady(checks...)
	handler.Shell = frontend.ShellHandler(frontend.ShellProps{Title: "Daybook", APIBase: env.String("PUBLIC_API_BASE", "/")})
	handler.Static = frontend.StaticHandler()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.WithFields(logrus.Fields{"addr": cfg.Addr, "store": cfg.StoreDriver}).Info("api listening")
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
	return nil
}

type readyCheck func(context.Context) error

// allReady runs every non-nil check in order and reports the first failure.
func allReady(checks ...readyCheck) func(context.Context) error {
	var active []readyCheck
	for _, c := range checks {
		if c != nil {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(ctx context.Context) error {
		for _, c := range active {
			if err := c(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func openStores(ctx context.Context, cfg config, log *logrus.Logger) (*stores, error) {
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory store; data is lost on restart")
		return &stores{
			tasks:    task.NewMemoryRepository(),
			journals: journal.NewMemoryRepository(),
			users:    identity.NewMemoryRepository(),
			close:    func() {},
		}, nil
	}
	if cfg.StoreDriver != "mongo" {
		return nil, errors.New("STORE_DRIVER must be mongo or memory")
	}

	db, err := mongodb.Connect(ctx, mongodb.ConfigFromEnv())
	if err != nil {
		return nil, err
	}
	st := &stores{
		tasks:    task.NewMongoRepository(db.DB),
		journals: journal.NewMongoRepository(db.DB),
		users:    identity.NewMongoRepository(db.DB),
		ready:    db.Ping,
		close: func() {
			if err := db.Close(); err != nil {
				log.WithError(err).Warn("mongodb disconnect failed")
			}
		},
	}
	err = dbpool.WaitReady(ctx, 30*time.Second, log, func(ctx context.Context) error {
		if err := st.tasks.EnsureIndexes(ctx); err != nil {
			return err
		}
		if err := st.journals.EnsureIndexes(ctx); err != nil {
			return err
		}
		return st.users.EnsureIndexes(ctx)
	})
	if err != nil {
		st.close()
		return nil, err
	}
	return st, nil
}
