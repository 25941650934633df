package internaldefs

import (
	pawnAuth "github.com/MrEthical07/pawnAuth"
)

// Def names one exported metric.
type Def struct {
	ID   pawnAuth.MetricID
	Name string
	Help string
}

// AuditDropped is exported alongside the manager counters.
var AuditDropped = Def{
	Name: "pawnauth_audit_dropped_total",
	Help: "Audit events dropped because the dispatcher buffer was full.",
}

// Counters lists every session counter in export order.
var Counters = []Def{
	{ID: pawnAuth.MetricSignInSuccess, Name: "pawnauth_sign_in_success_total", Help: "Successful sign-in exchanges."},
	{ID: pawnAuth.MetricSignInFailure, Name: "pawnauth_sign_in_failure_total", Help: "Failed sign-in exchanges."},
	{ID: pawnAuth.MetricLogInSuccess, Name: "pawnauth_log_in_success_total", Help: "Successful log-in exchanges."},
	{ID: pawnAuth.MetricLogInFailure, Name: "pawnauth_log_in_failure_total", Help: "Failed log-in exchanges."},
	{ID: pawnAuth.MetricLogout, Name: "pawnauth_logout_total", Help: "Sessions cleared by logout."},
	{ID: pawnAuth.MetricTokenExpired, Name: "pawnauth_token_expired_total", Help: "Stale or malformed tokens detected on read."},
	{ID: pawnAuth.MetricHydrateRestored, Name: "pawnauth_hydrate_restored_total", Help: "Hydrations that restored a stored session."},
	{ID: pawnAuth.MetricHydrateEmpty, Name: "pawnauth_hydrate_empty_total", Help: "Hydrations that found no usable session."},
	{ID: pawnAuth.MetricStorageError, Name: "pawnauth_storage_error_total", Help: "Durable storage failures absorbed by the manager."},
	{ID: pawnAuth.MetricGuardAllowed, Name: "pawnauth_guard_allowed_total", Help: "Route guard decisions that admitted navigation."},
	{ID: pawnAuth.MetricGuardDenied, Name: "pawnauth_guard_denied_total", Help: "Route guard decisions that redirected to log-in."},
}

// Histograms lists latency histograms. Buckets follow [Bounds].
var Histograms = []Def{
	{ID: pawnAuth.MetricRemoteAuthLatency, Name: "pawnauth_remote_auth_latency_seconds", Help: "Remote authenticator round-trip latency."},
}

// Bound is one histogram upper bound in Prometheus (Le) and
// instrument-name (Suffix) spelling.
type Bound struct {
	Le     string
	Suffix string
}

// BucketCount matches the in-process histogram layout.
const BucketCount = 8

// Bounds are the upper bounds of the remote latency buckets in seconds.
var Bounds = [BucketCount]Bound{
	{"0.005", "0_005"},
	{"0.01", "0_01"},
	{"0.025", "0_025"},
	{"0.05", "0_05"},
	{"0.1", "0_1"},
	{"0.25", "0_25"},
	{"0.5", "0_5"},
	{"+Inf", "inf"},
}

// Cumulative turns raw per-bucket counts into cumulative counts. Missing
// buckets count as zero and extra ones are ignored.
func Cumulative(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < BucketCount; i++ {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
