package goAccount

import (
	"context"
	"errors"
	"strconv"

	"github.com/MrEthical07/goAccount/internal/limiters"
	"github.com/MrEthical07/goAccount/token"
)

// SendConfirmationEmail emails account a token for the EmailConfirmation
// purpose. It returns ErrEmailRateLimited once the ConfirmationLimiter window
// for the account is used up.
func (e *Engine) SendConfirmationEmail(ctx context.Context, account *Account) error {
	if err := e.ready(); err != nil {
		return err
	}
	if account == nil {
		return ErrAccountRequired
	}

	if err := e.confirms.Allow(ctx, strconv.FormatInt(account.ID, 10), clientIPFromContext(ctx)); err != nil {
		if errors.Is(err, limiters.ErrRequestRateLimited) {
			e.metricInc(MetricEmailRateLimited)
			e.emitAudit(ctx, auditEventConfirmationSent, false, account.ID, "", errRateLimited, nil)
			return ErrEmailRateLimited
		}
		return errors.Join(ErrRequestLimiterUnavailable, err)
	}

	tok, err := e.tokens.Generate(ctx, token.PurposeEmailConfirmation, account.subject())
	if err != nil {
		return err
	}
	body := e.config.Email.ConfirmationBodyPrefix + tok
	if err := e.email.SendEmail(ctx, body, account.Email, e.config.Email.ConfirmationSubject); err != nil {
		return err
	}
	e.metricInc(MetricConfirmationSent)
	e.emitAudit(ctx, auditEventConfirmationSent, true, account.ID, "", nil, nil)
	return nil
}

// SendConfirmationEmailByID loads the account and calls [Engine.SendConfirmationEmail].
func (e *Engine) SendConfirmationEmailByID(ctx context.Context, id int64) error {
	if err := e.ready(); err != nil {
		return err
	}
	account, err := e.repo.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	return e.SendConfirmationEmail(ctx, account)
}

// ConfirmEmail marks the signed-in account's email as confirmed when tok is
// a valid EmailConfirmation token for it.
//
// Without a signed-in account the result is ConfirmEmailFailed. A tampered,
// expired or stale token yields ConfirmEmailInvalidToken and changes nothing.
// A repository refusal or error yields ConfirmEmailFailed.
func (e *Engine) ConfirmEmail(ctx context.Context, sess Session, tok string) (ConfirmEmailResult, error) {
	if err := e.ready(); err != nil {
		return ConfirmEmailFailed, err
	}
	if sess == nil {
		return ConfirmEmailFailed, ErrNilSession
	}

	p, err := sess.Authenticate(ctx, e.config.Schemes.Application)
	if err != nil {
		return ConfirmEmailFailed, err
	}
	account, err := e.GetSignedInAccount(ctx, p)
	if err != nil {
		return ConfirmEmailFailed, err
	}
	if account == nil {
		e.emitAudit(ctx, auditEventEmailConfirmFailure, false, 0, e.config.Schemes.Application, errNoSession, nil)
		return ConfirmEmailFailed, nil
	}

	if !e.tokens.Validate(ctx, token.PurposeEmailConfirmation, tok, account.subject()) {
		if err := tokenFailure(ctx); err != nil {
			return ConfirmEmailFailed, err
		}
		e.metricInc(MetricEmailConfirmInvalid)
		e.emitAudit(ctx, auditEventEmailConfirmFailure, false, account.ID, e.config.Schemes.Application, errInvalidToken, nil)
		return ConfirmEmailInvalidToken, nil
	}

	ok, err := e.repo.UpdateAccountEmailConfirmed(ctx, account.ID)
	if err != nil {
		return ConfirmEmailFailed, err
	}
	if !ok {
		e.emitAudit(ctx, auditEventEmailConfirmFailure, false, account.ID, e.config.Schemes.Application, ErrAccountNotFound, nil)
		return ConfirmEmailFailed, nil
	}

	e.metricInc(MetricEmailConfirmSuccess)
	e.emitAudit(ctx, auditEventEmailConfirmSuccess, true, account.ID, e.config.Schemes.Application, nil, nil)
	return ConfirmEmailSucceeded, nil
}
