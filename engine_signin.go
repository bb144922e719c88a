package goAccount

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccount/principal"
)

// SignIn writes an application principal for account into sess. Any pending
// two-factor principal is cleared first.
func (e *Engine) SignIn(ctx context.Context, sess Session, account *Account, props SignInProperties) error {
	if err := e.ready(); err != nil {
		return err
	}
	if sess == nil {
		return ErrNilSession
	}
	if account == nil {
		return ErrAccountRequired
	}

	p, err := e.principals.CreatePrincipalContext(ctx, account.identity(), e.config.Schemes.Application)
	if err != nil {
		return err
	}
	if err := sess.SignOut(ctx, e.config.Schemes.TwoFactor); err != nil {
		return err
	}
	return sess.SignIn(ctx, e.config.Schemes.Application, p, props)
}

// PasswordSignIn verifies email and password through the repository.
//
// An unknown email and a wrong password both yield PasswordSignInFailed. When
// the account has two-factor enabled, only the pending scheme is written and a
// code is emailed; otherwise the application scheme is written.
func (e *Engine) PasswordSignIn(ctx context.Context, sess Session, email, password string, props SignInProperties) (PasswordSignInResult, error) {
	if err := e.ready(); err != nil {
		return PasswordSignInFailed, err
	}
	if sess == nil {
		return PasswordSignInFailed, ErrNilSession
	}

	account, err := e.repo.GetAccountByEmailAndPassword(ctx, email, password)
	if errors.Is(err, ErrAccountNotFound) || (err == nil && account == nil) {
		e.metricInc(MetricPasswordSignInFailure)
		e.emitAudit(ctx, auditEventPasswordSignInFailure, false, 0, e.config.Schemes.Application, errInvalidCredentials, nil)
		return PasswordSignInFailed, nil
	}
	if err != nil {
		return PasswordSignInFailed, err
	}

	if account.TwoFactorEnabled {
		if err := e.CreateTwoFactorCookie(ctx, sess, account); err != nil {
			return PasswordSignInFailed, err
		}
		if err := e.SendTwoFactorCode(ctx, account); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return PasswordSignInFailed, ctxErr
			}
			e.notificationFailed(ctx, account, "two_factor_code", err)
		}
		e.metricInc(MetricPasswordSignInTwoFactorRequired)
		e.emitAudit(ctx, auditEventTwoFactorRequired, true, account.ID, e.config.Schemes.TwoFactor, nil, nil)
		return PasswordSignInTwoFactorRequired, nil
	}

	if err := e.SignIn(ctx, sess, account, props); err != nil {
		return PasswordSignInFailed, err
	}
	e.metricInc(MetricPasswordSignInSuccess)
	e.emitAudit(ctx, auditEventPasswordSignInSuccess, true, account.ID, e.config.Schemes.Application, nil, nil)
	return PasswordSignInSucceeded, nil
}

// SignOut clears both the application and the pending two-factor scheme.
// Signing out an anonymous session is not an error.
func (e *Engine) SignOut(ctx context.Context, sess Session) error {
	if err := e.ready(); err != nil {
		return err
	}
	if sess == nil {
		return ErrNilSession
	}

	err := errors.Join(
		sess.SignOut(ctx, e.config.Schemes.Application),
		sess.SignOut(ctx, e.config.Schemes.TwoFactor),
	)
	if err != nil {
		return err
	}
	e.metricInc(MetricSignOut)
	e.emitAudit(ctx, auditEventSignOut, true, 0, "", nil, nil)
	return nil
}

// GetSignedInAccount loads the account named by an application principal. It
// returns a nil account without error when p is nil, belongs to another
// scheme, lacks an id claim or names an account that no longer exists.
func (e *Engine) GetSignedInAccount(ctx context.Context, p *principal.Principal) (*Account, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if p == nil || p.Scheme != e.config.Schemes.Application {
		return nil, nil
	}
	return e.accountFromPrincipal(ctx, p)
}

// RefreshSignIn re-issues the application principal for account with its
// current security stamp, keeping the existing persistence when the
// transport can report it.
func (e *Engine) RefreshSignIn(ctx context.Context, sess Session, account *Account) error {
	if sess == nil {
		return ErrNilSession
	}
	var props SignInProperties
	if sp, ok := sess.(sessionProperties); ok {
		if existing, ok := sp.Properties(ctx, e.config.Schemes.Application); ok {
			props = existing
		}
	}
	return e.SignIn(ctx, sess, account, props)
}

func (e *Engine) accountFromPrincipal(ctx context.Context, p *principal.Principal) (*Account, error) {
	id, ok := p.AccountID(e.config.Claims.AccountID)
	if !ok {
		return nil, nil
	}
	account, err := e.repo.GetAccount(ctx, id)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (e *Engine) notificationFailed(ctx context.Context, account *Account, kind string, err error) {
	e.metricInc(MetricEmailSendFailure)
	e.logger.WarnContext(ctx, "notification not delivered",
		"kind", kind,
		"account_id", account.ID,
		"error", err,
	)
	e.emitAudit(ctx, auditEventNotificationSendFailure, false, account.ID, "", err, func() map[string]string {
		return map[string]string{"kind": kind}
	})
}
