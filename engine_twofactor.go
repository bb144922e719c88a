package goAccount

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccount/internal/limiters"
	"github.com/MrEthical07/goAccount/token"
)

// CreateTwoFactorCookie writes a pending principal for account. The pending
// principal carries only the account id. Any application principal is signed
// out first, so a session never holds both schemes.
func (e *Engine) CreateTwoFactorCookie(ctx context.Context, sess Session, account *Account) error {
	if err := e.ready(); err != nil {
		return err
	}
	if sess == nil {
		return ErrNilSession
	}
	if account == nil {
		return ErrAccountRequired
	}

	p, err := e.principals.CreatePrincipalContext(ctx, account.identity(), e.config.Schemes.TwoFactor)
	if err != nil {
		return err
	}
	if err := sess.SignOut(ctx, e.config.Schemes.Application); err != nil {
		return err
	}
	return sess.SignIn(ctx, e.config.Schemes.TwoFactor, p, SignInProperties{})
}

// GetTwoFactorAccount resolves the account behind the pending scheme. It
// returns a nil account without error when there is no usable pending principal.
func (e *Engine) GetTwoFactorAccount(ctx context.Context, sess Session) (*Account, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNilSession
	}

	p, err := sess.Authenticate(ctx, e.config.Schemes.TwoFactor)
	if err != nil {
		return nil, err
	}
	if p == nil || p.Scheme != e.config.Schemes.TwoFactor {
		return nil, nil
	}
	return e.accountFromPrincipal(ctx, p)
}

// SendTwoFactorCode emails a fresh two-factor code to account.
func (e *Engine) SendTwoFactorCode(ctx context.Context, account *Account) error {
	if err := e.ready(); err != nil {
		return err
	}
	if account == nil {
		return ErrAccountRequired
	}

	code, err := e.tokens.Generate(ctx, token.PurposeTwoFactor, account.subject())
	if err != nil {
		return err
	}
	body := e.config.Email.TwoFactorBodyPrefix + code
	if err := e.email.SendEmail(ctx, body, account.Email, e.config.Email.TwoFactorSubject); err != nil {
		return err
	}
	e.metricInc(MetricTwoFactorCodeSent)
	e.emitAudit(ctx, auditEventTwoFactorCodeSent, true, account.ID, e.config.Schemes.TwoFactor, nil, nil)
	return nil
}

// TwoFactorSignIn completes a pending sign-in with code.
//
// Without a pending principal, or with a wrong code, the result is
// TwoFactorSignInFailed and the pending principal is kept for another try.
// A correct code clears the pending scheme and writes the application scheme
// with the requested persistence.
func (e *Engine) TwoFactorSignIn(ctx context.Context, sess Session, code string, isPersistent bool) (TwoFactorSignInResult, error) {
	account, err := e.GetTwoFactorAccount(ctx, sess)
	if err != nil {
		return TwoFactorSignInFailed, err
	}
	if account == nil {
		e.metricInc(MetricTwoFactorSignInFailure)
		e.emitAudit(ctx, auditEventTwoFactorFailure, false, 0, e.config.Schemes.TwoFactor, errNoPendingSession, nil)
		return TwoFactorSignInFailed, nil
	}

	if err := e.limiter.Check(ctx, account.ID); err != nil {
		if errors.Is(err, limiters.ErrTwoFactorRateLimited) {
			e.metricInc(MetricTwoFactorRateLimited)
			e.emitAudit(ctx, auditEventTwoFactorRateLimited, false, account.ID, e.config.Schemes.TwoFactor, errRateLimited, nil)
			return TwoFactorSignInFailed, nil
		}
		return TwoFactorSignInFailed, errors.Join(ErrTwoFactorLimiterUnavailable, err)
	}

	if !e.tokens.Validate(ctx, token.PurposeTwoFactor, code, account.subject()) {
		if err := tokenFailure(ctx); err != nil {
			return TwoFactorSignInFailed, err
		}
		if err := e.limiter.RecordFailure(ctx, account.ID); err != nil && !errors.Is(err, limiters.ErrTwoFactorRateLimited) {
			e.logger.WarnContext(ctx, "two-factor failure not recorded", "account_id", account.ID, "error", err)
		}
		e.metricInc(MetricTwoFactorSignInFailure)
		e.emitAudit(ctx, auditEventTwoFactorFailure, false, account.ID, e.config.Schemes.TwoFactor, errInvalidToken, nil)
		return TwoFactorSignInFailed, nil
	}

	if err := sess.SignOut(ctx, e.config.Schemes.TwoFactor); err != nil {
		return TwoFactorSignInFailed, err
	}
	if err := e.SignIn(ctx, sess, account, SignInProperties{IsPersistent: isPersistent}); err != nil {
		return TwoFactorSignInFailed, err
	}
	if err := e.limiter.Reset(ctx, account.ID); err != nil {
		e.logger.WarnContext(ctx, "two-factor counter not cleared", "account_id", account.ID, "error", err)
	}

	e.metricInc(MetricTwoFactorSignInSuccess)
	e.emitAudit(ctx, auditEventTwoFactorSuccess, true, account.ID, e.config.Schemes.Application, nil, nil)
	return TwoFactorSignInSucceeded, nil
}

// SetTwoFactorEnabled persists the two-factor flag. The repository rotates
// the stamp, which signs out every other session; the caller's own session is
// re-issued with the new stamp. It returns false when the account is gone.
func (e *Engine) SetTwoFactorEnabled(ctx context.Context, sess Session, account *Account, enabled bool) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	if account == nil {
		return false, ErrAccountRequired
	}

	ok, err := e.repo.UpdateAccountTwoFactorEnabled(ctx, account.ID, enabled)
	if err != nil || !ok {
		return false, err
	}

	updated, err := e.repo.GetAccount(ctx, account.ID)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if sess != nil {
		if err := e.RefreshSignIn(ctx, sess, updated); err != nil {
			return false, err
		}
	}

	e.metricInc(MetricTwoFactorToggled)
	e.emitAudit(ctx, auditEventTwoFactorToggled, true, account.ID, e.config.Schemes.Application, nil, func() map[string]string {
		if enabled {
			return map[string]string{"enabled": "true"}
		}
		return map[string]string{"enabled": "false"}
	})
	return true, nil
}
