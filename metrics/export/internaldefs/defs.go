package internaldefs

import (
	"github.com/MrEthical07/natours"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   natours.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   natours.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "natours_audit_dropped_total"

var CounterDefs = []CounterDef{
	{ID: natours.MetricSignupSuccess, Name: "natours_signup_success_total", Help: "Accounts created through signup."},
	{ID: natours.MetricSignupDuplicate, Name: "natours_signup_duplicate_total", Help: "Signups rejected for an existing email."},
	{ID: natours.MetricSignupRateLimited, Name: "natours_signup_rate_limited_total", Help: "Signups rejected by the throttle."},
	{ID: natours.MetricLoginSuccess, Name: "natours_login_success_total", Help: "Successful logins."},
	{ID: natours.MetricLoginFailure, Name: "natours_login_failure_total", Help: "Logins with unknown email or wrong password."},
	{ID: natours.MetricLoginRateLimited, Name: "natours_login_rate_limited_total", Help: "Logins rejected by the throttle."},
	{ID: natours.MetricSessionIssued, Name: "natours_session_issued_total", Help: "Session tokens issued."},
	{ID: natours.MetricLogout, Name: "natours_logout_total", Help: "Logouts."},
	{ID: natours.MetricPasswordChangeSuccess, Name: "natours_password_change_success_total", Help: "Password updates by logged-in accounts."},
	{ID: natours.MetricPasswordChangeInvalidOld, Name: "natours_password_change_invalid_old_total", Help: "Password updates with a wrong current password."},
	{ID: natours.MetricPasswordResetRequest, Name: "natours_password_reset_request_total", Help: "Reset tokens created."},
	{ID: natours.MetricPasswordResetDeliveryFailed, Name: "natours_password_reset_delivery_failed_total", Help: "Reset emails that could not be sent."},
	{ID: natours.MetricPasswordResetConfirmSuccess, Name: "natours_password_reset_confirm_success_total", Help: "Passwords set with a reset token."},
	{ID: natours.MetricPasswordResetConfirmFailure, Name: "natours_password_reset_confirm_failure_total", Help: "Rejected reset attempts."},
	{ID: natours.MetricPasswordResetRateLimited, Name: "natours_password_reset_rate_limited_total", Help: "Reset requests rejected by the throttle."},
	{ID: natours.MetricAuthSuccess, Name: "natours_auth_success_total", Help: "Requests admitted by the gate."},
	{ID: natours.MetricAuthFailure, Name: "natours_auth_failure_total", Help: "Requests with a missing, invalid or orphaned token."},
	{ID: natours.MetricAuthStale, Name: "natours_auth_stale_total", Help: "Tokens issued before the latest password change."},
	{ID: natours.MetricAccessDenied, Name: "natours_access_denied_total", Help: "Requests rejected by a role restriction."},
	{ID: natours.MetricProfileUpdated, Name: "natours_profile_updated_total", Help: "Self-service profile updates."},
	{ID: natours.MetricAccountDeactivated, Name: "natours_account_deactivated_total", Help: "Self-service account deactivations."},
	{ID: natours.MetricAccountDeleted, Name: "natours_account_deleted_total", Help: "Accounts deleted by administrators."},
}

var HistogramDefs = []HistogramDef{
	{ID: natours.MetricGateLatency, Name: "natours_gate_latency_seconds", Help: "Time spent in the access-control gate."},
}

// HistogramBounds are the upper bounds in seconds of the first seven
// buckets. The eighth bucket is +Inf.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket for exporters without native
// histograms.
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

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
