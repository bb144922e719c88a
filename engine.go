package goAccount

import (
	"context"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/internal/limiters"
	"github.com/MrEthical07/goAccount/principal"
	"github.com/MrEthical07/goAccount/token"
)

// Engine orchestrates sign-in, sign-up and credential maintenance flows.
//
// An Engine is immutable after [Builder.Build] and safe for concurrent use.
type Engine struct {
	config     Config
	repo       AccountRepository
	email      EmailSender
	tokens     *token.Registry
	principals *principal.Builder
	limiter    *limiters.TwoFactor
	resets     *limiters.Requests
	confirms   *limiters.Requests
	audit      *internalaudit.Dispatcher
	metrics    *Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped reports how many audit events were discarded.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// ApplicationScheme is the scheme that carries a fully signed-in principal.
func (e *Engine) ApplicationScheme() string {
	return e.config.Schemes.Application
}

// TwoFactorScheme is the scheme that carries a pending second-factor principal.
func (e *Engine) TwoFactorScheme() string {
	return e.config.Schemes.TwoFactor
}

func (e *Engine) ready() error {
	if e == nil || e.repo == nil || e.tokens == nil || e.principals == nil {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// tokenFailure distinguishes a cancelled request from a rejected token after
// a Validate call returned false.
func tokenFailure(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
