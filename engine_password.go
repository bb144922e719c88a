package goAccount

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goAccount/internal/limiters"
)

// UpdatePassword stores newPassword for account when tok is valid for the
// configured password update purpose. The repository rotates the stamp, so
// every session and token issued before the change stops validating.
func (e *Engine) UpdatePassword(ctx context.Context, account *Account, newPassword, tok string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	if account == nil {
		return false, ErrAccountRequired
	}

	if !e.tokens.Validate(ctx, e.config.Tokens.PasswordUpdatePurpose, tok, account.subject()) {
		if err := tokenFailure(ctx); err != nil {
			return false, err
		}
		e.metricInc(MetricPasswordUpdateFailure)
		e.emitAudit(ctx, auditEventPasswordUpdateFailure, false, account.ID, "", errInvalidToken, nil)
		return false, nil
	}

	ok, err := e.repo.UpdateAccountPasswordHash(ctx, account.ID, newPassword)
	if err != nil {
		e.metricInc(MetricPasswordUpdateFailure)
		return false, err
	}
	if !ok {
		e.metricInc(MetricPasswordUpdateFailure)
		e.emitAudit(ctx, auditEventPasswordUpdateFailure, false, account.ID, "", ErrAccountNotFound, nil)
		return false, nil
	}

	e.metricInc(MetricPasswordUpdateSuccess)
	e.emitAudit(ctx, auditEventPasswordUpdateSuccess, true, account.ID, "", nil, nil)
	return true, nil
}

// SendPasswordResetEmail emails a password reset token to the account
// registered under email. Unknown and unconfirmed addresses return nil
// without sending anything, so callers cannot tell which emails exist.
// Requests over the PasswordResetLimiter window also return nil and send
// nothing; the limit applies to unknown addresses as well.
func (e *Engine) SendPasswordResetEmail(ctx context.Context, email string) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.metricInc(MetricPasswordResetRequest)

	key := strings.ToLower(strings.TrimSpace(email))
	if err := e.resets.Allow(ctx, key, clientIPFromContext(ctx)); err != nil {
		if errors.Is(err, limiters.ErrRequestRateLimited) {
			e.metricInc(MetricEmailRateLimited)
			e.emitAudit(ctx, auditEventPasswordResetRequest, false, 0, "", errRateLimited, nil)
			return nil
		}
		return errors.Join(ErrRequestLimiterUnavailable, err)
	}

	account, err := e.repo.GetAccountByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) || (err == nil && account == nil) {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, 0, "", ErrAccountNotFound, nil)
		return nil
	}
	if err != nil {
		return err
	}
	if !account.EmailConfirmed {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, account.ID, "", nil, func() map[string]string {
			return map[string]string{"reason": "email_unconfirmed"}
		})
		return nil
	}

	tok, err := e.tokens.Generate(ctx, e.config.Tokens.PasswordUpdatePurpose, account.subject())
	if err != nil {
		return err
	}
	body := e.config.Email.PasswordResetBodyPrefix + tok
	if err := e.email.SendEmail(ctx, body, account.Email, e.config.Email.PasswordResetSubject); err != nil {
		return err
	}
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, account.ID, "", nil, nil)
	return nil
}

// ResetPassword looks up email and calls [Engine.UpdatePassword]. An unknown
// email returns false.
func (e *Engine) ResetPassword(ctx context.Context, email, tok, newPassword string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}

	account, err := e.repo.GetAccountByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) || (err == nil && account == nil) {
		e.metricInc(MetricPasswordUpdateFailure)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.UpdatePassword(ctx, account, newPassword, tok)
}
