package goAccount

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/principal"
)

// StampValidator checks a request's application principal against the
// account's current security stamp.
type StampValidator interface {
	ValidatePrincipal(ctx context.Context, sess Session, p *principal.Principal) (*Account, bool, error)
}

var _ StampValidator = (*Engine)(nil)

// ValidatePrincipal accepts p when it is an application principal whose
// stamp claim equals the stored stamp of the account it names, and returns
// that account.
//
// A nil principal is simply not accepted. Any other mismatch rejects p and
// signs sess out of both schemes. Repository errors other than
// ErrAccountNotFound are returned without touching the session.
func (e *Engine) ValidatePrincipal(ctx context.Context, sess Session, p *principal.Principal) (*Account, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	if p == nil {
		return nil, false, nil
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricStampValidateLatency, time.Since(start))
		}()
	}

	if p.Scheme != e.config.Schemes.Application {
		return nil, false, e.rejectPrincipal(ctx, sess, 0, "scheme")
	}
	id, ok := p.AccountID(e.config.Claims.AccountID)
	if !ok {
		return nil, false, e.rejectPrincipal(ctx, sess, 0, "account_id")
	}

	account, err := e.repo.GetAccount(ctx, id)
	if errors.Is(err, ErrAccountNotFound) || (err == nil && account == nil) {
		return nil, false, e.rejectPrincipal(ctx, sess, id, "account_missing")
	}
	if err != nil {
		return nil, false, err
	}

	stamp, ok := p.FindFirst(e.config.Claims.SecurityStamp)
	if !ok || stamp.Value == "" {
		return nil, false, e.rejectPrincipal(ctx, sess, id, "stamp_missing")
	}
	if subtle.ConstantTimeCompare([]byte(stamp.Value), []byte(account.SecurityStamp)) != 1 {
		return nil, false, e.rejectPrincipal(ctx, sess, id, "stamp_mismatch")
	}

	e.metricInc(MetricStampAccepted)
	return account, true, nil
}

func (e *Engine) rejectPrincipal(ctx context.Context, sess Session, accountID int64, reason string) error {
	e.metricInc(MetricStampRejected)
	e.emitAudit(ctx, auditEventStampRejected, false, accountID, e.config.Schemes.Application, errStampRejected, func() map[string]string {
		return map[string]string{"reason": reason}
	})
	if sess == nil {
		return nil
	}
	return errors.Join(
		sess.SignOut(ctx, e.config.Schemes.Application),
		sess.SignOut(ctx, e.config.Schemes.TwoFactor),
	)
}
