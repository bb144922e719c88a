package goAccount

import (
	"context"
	"errors"
	"strconv"
)

const (
	auditEventPasswordSignInSuccess   = "password_sign_in_success"
	auditEventPasswordSignInFailure   = "password_sign_in_failure"
	auditEventTwoFactorRequired       = "two_factor_required"
	auditEventTwoFactorSuccess        = "two_factor_success"
	auditEventTwoFactorFailure        = "two_factor_failure"
	auditEventTwoFactorRateLimited    = "two_factor_rate_limited"
	auditEventTwoFactorCodeSent       = "two_factor_code_sent"
	auditEventTwoFactorToggled        = "two_factor_toggled"
	auditEventAccountCreated          = "account_created"
	auditEventAccountDuplicate        = "account_duplicate"
	auditEventConfirmationSent        = "confirmation_sent"
	auditEventEmailConfirmSuccess     = "email_confirm_success"
	auditEventEmailConfirmFailure     = "email_confirm_failure"
	auditEventPasswordUpdateSuccess   = "password_update_success"
	auditEventPasswordUpdateFailure   = "password_update_failure"
	auditEventPasswordResetRequest    = "password_reset_request"
	auditEventSignOut                 = "sign_out"
	auditEventStampRejected           = "stamp_rejected"
	auditEventNotificationSendFailure = "notification_send_failure"
)

// AuditErrorCode is the stable error label written on audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrNoPendingSession   AuditErrorCode = "no_pending_session"
	auditErrNoSession          AuditErrorCode = "no_session"
	auditErrStampRejected      AuditErrorCode = "stamp_rejected"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrAccountNotFound    AuditErrorCode = "account_not_found"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrCanceled           AuditErrorCode = "canceled"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID int64,
	scheme string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		Scheme:    scheme,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if accountID > 0 {
		event.AccountID = strconv.FormatInt(accountID, 10)
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, errInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, errInvalidToken):
		return auditErrInvalidToken
	case errors.Is(err, errNoPendingSession):
		return auditErrNoPendingSession
	case errors.Is(err, errNoSession):
		return auditErrNoSession
	case errors.Is(err, errStampRejected):
		return auditErrStampRejected
	case errors.Is(err, errRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrAccountNotFound):
		return auditErrAccountNotFound
	case errors.Is(err, ErrDuplicateEmail):
		return auditErrDuplicate
	case errors.Is(err, ErrTwoFactorLimiterUnavailable), errors.Is(err, ErrRequestLimiterUnavailable):
		return auditErrUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	default:
		return auditErrInternal
	}
}
