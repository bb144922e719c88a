package goAccount

import (
	"context"
	"errors"
)

// CreateAccount registers email with password, sends the confirmation
// email and signs the new account in without persistence.
//
// A taken email yields CreateAccountFailed. A confirmation email that cannot
// be delivered is logged and audited; the account is still created and signed
// in, and [Engine.SendConfirmationEmail] can be called again later.
func (e *Engine) CreateAccount(ctx context.Context, sess Session, email, password string) (CreateAccountResult, error) {
	if err := e.ready(); err != nil {
		return CreateAccountFailed, err
	}
	if sess == nil {
		return CreateAccountFailed, ErrNilSession
	}

	account, err := e.repo.CreateAccount(ctx, email, password)
	if errors.Is(err, ErrDuplicateEmail) {
		e.metricInc(MetricAccountDuplicate)
		e.emitAudit(ctx, auditEventAccountDuplicate, false, 0, "", err, nil)
		return CreateAccountFailed, nil
	}
	if err != nil {
		return CreateAccountFailed, err
	}
	if account == nil {
		return CreateAccountFailed, ErrNilAccount
	}

	if err := e.SendConfirmationEmail(ctx, account); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return CreateAccountFailed, ctxErr
		}
		if !errors.Is(err, ErrEmailRateLimited) {
			e.notificationFailed(ctx, account, "email_confirmation", err)
		}
	}

	if err := e.SignIn(ctx, sess, account, SignInProperties{IsPersistent: false}); err != nil {
		return CreateAccountFailed, err
	}

	e.metricInc(MetricAccountCreated)
	e.emitAudit(ctx, auditEventAccountCreated, true, account.ID, e.config.Schemes.Application, nil, nil)
	return CreateAccountSucceeded, nil
}
