package internaldefs

import (
	goAccount "github.com/MrEthical07/goAccount"
)

// CounterDef maps an engine counter to its exported name.
type CounterDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// HistogramDef maps an engine histogram to its exported name.
type HistogramDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goAccount.MetricPasswordSignInSuccess, Name: "goaccount_password_sign_in_success_total", Help: "Password sign-ins that issued an application session."},
	{ID: goAccount.MetricPasswordSignInFailure, Name: "goaccount_password_sign_in_failure_total", Help: "Password sign-ins rejected for bad credentials."},
	{ID: goAccount.MetricPasswordSignInTwoFactorRequired, Name: "goaccount_password_sign_in_two_factor_required_total", Help: "Password sign-ins diverted to the two-factor step."},
	{ID: goAccount.MetricTwoFactorSignInSuccess, Name: "goaccount_two_factor_sign_in_success_total", Help: "Completed two-factor sign-ins."},
	{ID: goAccount.MetricTwoFactorSignInFailure, Name: "goaccount_two_factor_sign_in_failure_total", Help: "Rejected two-factor codes or missing pending sessions."},
	{ID: goAccount.MetricTwoFactorRateLimited, Name: "goaccount_two_factor_rate_limited_total", Help: "Two-factor attempts refused by the attempt limiter."},
	{ID: goAccount.MetricTwoFactorCodeSent, Name: "goaccount_two_factor_code_sent_total", Help: "Two-factor codes emailed."},
	{ID: goAccount.MetricTwoFactorToggled, Name: "goaccount_two_factor_toggled_total", Help: "Two-factor enable or disable operations."},
	{ID: goAccount.MetricAccountCreated, Name: "goaccount_account_created_total", Help: "Accounts created."},
	{ID: goAccount.MetricAccountDuplicate, Name: "goaccount_account_duplicate_total", Help: "Account creations refused for a taken email."},
	{ID: goAccount.MetricConfirmationSent, Name: "goaccount_confirmation_sent_total", Help: "Confirmation emails sent."},
	{ID: goAccount.MetricEmailConfirmSuccess, Name: "goaccount_email_confirm_success_total", Help: "Confirmed email addresses."},
	{ID: goAccount.MetricEmailConfirmInvalid, Name: "goaccount_email_confirm_invalid_total", Help: "Email confirmations with an invalid token."},
	{ID: goAccount.MetricPasswordUpdateSuccess, Name: "goaccount_password_update_success_total", Help: "Password updates applied."},
	{ID: goAccount.MetricPasswordUpdateFailure, Name: "goaccount_password_update_failure_total", Help: "Password updates refused."},
	{ID: goAccount.MetricPasswordResetRequest, Name: "goaccount_password_reset_request_total", Help: "Password reset emails requested."},
	{ID: goAccount.MetricSignOut, Name: "goaccount_sign_out_total", Help: "Sign-outs."},
	{ID: goAccount.MetricStampAccepted, Name: "goaccount_stamp_accepted_total", Help: "Principals whose security stamp matched."},
	{ID: goAccount.MetricStampRejected, Name: "goaccount_stamp_rejected_total", Help: "Principals rejected and signed out."},
	{ID: goAccount.MetricEmailSendFailure, Name: "goaccount_email_send_failure_total", Help: "Notification emails that could not be delivered."},
	{ID: goAccount.MetricEmailRateLimited, Name: "goaccount_email_rate_limited_total", Help: "Reset and confirmation emails refused by the request limiters."},
}

var HistogramDefs = []HistogramDef{
	{ID: goAccount.MetricStampValidateLatency, Name: "goaccount_stamp_validate_latency_seconds", Help: "Security stamp validation latency."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "goaccount_audit_dropped_total"

// HistogramBounds are the upper bounds of the eight latency buckets, in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix names each bucket in exporters that cannot use labels.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to exactly eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
