package internaldefs

import (
	examauth "github.com/exametric/examauth"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   examauth.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   examauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: examauth.MetricLoginSuccess, Name: "examauth_login_success_total", Help: "Successful login attempts."},
	{ID: examauth.MetricLoginFailure, Name: "examauth_login_failure_total", Help: "Login attempts rejected for a wrong password."},
	{ID: examauth.MetricLoginBlocked, Name: "examauth_login_blocked_total", Help: "Login attempts rejected on a blocked account, including the blocking attempt itself."},
	{ID: examauth.MetricLoginUnknownUser, Name: "examauth_login_unknown_user_total", Help: "Login attempts for usernames that resolve to no account."},
	{ID: examauth.MetricMirrorHealed, Name: "examauth_mirror_healed_total", Help: "Primary-directory entries materialized from a role store."},
	{ID: examauth.MetricPasswordChanged, Name: "examauth_password_changed_total", Help: "Administrative password changes."},
	{ID: examauth.MetricPasswordUpgraded, Name: "examauth_password_upgraded_total", Help: "Credentials rehashed after a successful login."},
	{ID: examauth.MetricAccountRenamed, Name: "examauth_account_renamed_total", Help: "Completed account renames."},
	{ID: examauth.MetricAttemptsReset, Name: "examauth_attempts_reset_total", Help: "Administrative lockout resets."},
	{ID: examauth.MetricAccountCreated, Name: "examauth_account_created_total", Help: "Successful account creations."},
	{ID: examauth.MetricAccountCreationDuplicate, Name: "examauth_account_creation_duplicate_total", Help: "Account creations rejected as duplicate."},
	{ID: examauth.MetricAccountDeleted, Name: "examauth_account_deleted_total", Help: "Account delete operations."},
	{ID: examauth.MetricResetToDefaults, Name: "examauth_reset_to_defaults_total", Help: "Full directory resets to the bootstrap state."},
	{ID: examauth.MetricSessionCreated, Name: "examauth_session_created_total", Help: "Created sessions."},
	{ID: examauth.MetricSessionInvalidated, Name: "examauth_session_invalidated_total", Help: "Invalidated sessions."},
	{ID: examauth.MetricLogout, Name: "examauth_logout_total", Help: "Explicit logout operations."},
	{ID: examauth.MetricStoreConflict, Name: "examauth_store_conflict_total", Help: "Operations rejected because a store stayed busy past the wait bound."},
	{ID: examauth.MetricStoreWriteFailure, Name: "examauth_store_write_failure_total", Help: "Failed record-store writes."},
}

// HistogramDefs lists every exported histogram in a stable order.
var HistogramDefs = []HistogramDef{
	{ID: examauth.MetricLoginLatency, Name: "examauth_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds holds the upper bucket bounds in Prometheus le label form.
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

// HistogramBoundSuffix holds the bucket bounds in instrument-name-safe form.
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

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form both
// exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
