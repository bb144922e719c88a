package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/internal/config"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/metrics/export/prometheus"
	"github.com/MrEthical07/goAccount/notify"
	"github.com/MrEthical07/goAccount/session"
	"github.com/MrEthical07/goAccount/store/memory"
	"github.com/MrEthical07/goAccount/store/postgres"
)

const sessionAudience = "goaccount-session"

type app struct {
	engine   *goAccount.Engine
	cookies  *session.Cookies
	validate *validator.Validate
	metrics  *prometheus.Exporter
	logger   *slog.Logger
	closers  []func() error
}

type deps struct {
	repo   goAccount.AccountRepository
	sender goAccount.EmailSender
	redis  *redis.Client
}

// newApp opens the configured backends and builds the engine over them.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	var (
		d       deps
		closers []func() error
	)

	if cfg.Postgres.DSN != "" {
		db, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		closers = append(closers, db.Close)
		if cfg.Postgres.MigrateOnStart {
			if err := postgres.RunMigrations(ctx, db); err != nil {
				closeAll(closers)
				return nil, errors.Wrap(err, "run migrations")
			}
		}
		d.repo = postgres.New(db, nil)
	} else {
		logger.Warn("no postgres dsn configured, accounts are kept in memory")
		d.repo = memory.New(nil)
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			closeAll(closers)
			return nil, errors.Wrap(err, "ping redis")
		}
		closers = append(closers, rdb.Close)
		d.redis = rdb
	}

	switch cfg.Email.Mode {
	case config.EmailModeSMTP:
		d.sender = notify.NewSMTPSender(cfg.Email.SMTP)
	case config.EmailModeFile:
		d.sender = notify.NewFileSender(cfg.Email.SMTP)
	default:
		d.sender = notify.NewLogSender(logger)
	}

	a, err := newAppWith(cfg, logger, d)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	a.closers = append(a.closers, closers...)
	return a, nil
}

func newAppWith(cfg *config.Config, logger *slog.Logger, d deps) (*app, error) {
	b := goAccount.New().
		WithConfig(cfg.Engine()).
		WithRepository(d.repo).
		WithEmailSender(d.sender).
		WithLogger(logger)
	if d.redis != nil {
		b = b.WithRedis(d.redis)
	}
	if cfg.Audit.Enabled {
		b = b.WithAuditSink(goAccount.NewSlogSink(logger))
	}
	engine, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build engine")
	}

	signer, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(cfg.Tokens.SigningKey),
		Issuer:        cfg.Tokens.Issuer,
		Audience:      sessionAudience,
	})
	if err != nil {
		engine.Close()
		return nil, errors.Wrap(err, "cookie signer")
	}
	codec, err := session.NewCodec(signer)
	if err != nil {
		engine.Close()
		return nil, err
	}
	cookies := session.NewCookies(codec, session.CookieOptions{
		Prefix:        cfg.Cookies.Prefix,
		Domain:        cfg.Cookies.Domain,
		Secure:        cfg.Cookies.Secure,
		TTL:           cfg.Cookies.TTL,
		PendingScheme: engine.TwoFactorScheme(),
		SchemeTTL: map[string]time.Duration{
			engine.TwoFactorScheme(): cfg.Cookies.TwoFactorTTL,
		},
	})

	return &app{
		engine:   engine,
		cookies:  cookies,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  prometheus.New(engine),
		logger:   logger,
	}, nil
}

// Close stops the engine and then releases backends in reverse order.
func (a *app) Close() {
	a.engine.Close()
	closeAll(a.closers)
}

func closeAll(closers []func() error) {
	for i := len(closers) - 1; i >= 0; i-- {
		_ = closers[i]()
	}
}
