package goAccount

import internalmetrics "github.com/MrEthical07/goAccount/internal/metrics"

// MetricID identifies one engine counter.
type MetricID = internalmetrics.MetricID

// Metrics holds the engine's in-process counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot = internalmetrics.Snapshot

const (
	MetricPasswordSignInSuccess           = internalmetrics.MetricPasswordSignInSuccess
	MetricPasswordSignInFailure           = internalmetrics.MetricPasswordSignInFailure
	MetricPasswordSignInTwoFactorRequired = internalmetrics.MetricPasswordSignInTwoFactorRequired
	MetricTwoFactorSignInSuccess          = internalmetrics.MetricTwoFactorSignInSuccess
	MetricTwoFactorSignInFailure          = internalmetrics.MetricTwoFactorSignInFailure
	MetricTwoFactorRateLimited            = internalmetrics.MetricTwoFactorRateLimited
	MetricTwoFactorCodeSent               = internalmetrics.MetricTwoFactorCodeSent
	MetricTwoFactorToggled                = internalmetrics.MetricTwoFactorToggled
	MetricAccountCreated                  = internalmetrics.MetricAccountCreated
	MetricAccountDuplicate                = internalmetrics.MetricAccountDuplicate
	MetricConfirmationSent                = internalmetrics.MetricConfirmationSent
	MetricEmailConfirmSuccess             = internalmetrics.MetricEmailConfirmSuccess
	MetricEmailConfirmInvalid             = internalmetrics.MetricEmailConfirmInvalid
	MetricPasswordUpdateSuccess           = internalmetrics.MetricPasswordUpdateSuccess
	MetricPasswordUpdateFailure           = internalmetrics.MetricPasswordUpdateFailure
	MetricPasswordResetRequest            = internalmetrics.MetricPasswordResetRequest
	MetricSignOut                         = internalmetrics.MetricSignOut
	MetricStampAccepted                   = internalmetrics.MetricStampAccepted
	MetricStampRejected                   = internalmetrics.MetricStampRejected
	MetricEmailSendFailure                = internalmetrics.MetricEmailSendFailure
	MetricEmailRateLimited                = internalmetrics.MetricEmailRateLimited
	MetricStampValidateLatency            = internalmetrics.MetricStampValidateLatency
)

// NewMetrics returns a metrics set configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}
