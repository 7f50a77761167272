package metrics

import "time"

// Recorder is the metrics interface consumed by handlers and services.
// Implementations: Metrics (Prometheus) and NoopMetrics.
type Recorder interface {
	// Authentication
	RecordLogin(method string, success bool)
	RecordLogout()
	RecordOAuthCallback(success bool)
	RecordExternalAPICall(endpoint string, duration time.Duration)

	// Email tokens
	RecordTokenVerification(result string) // confirmed, expired, invalid
	RecordEmailSent(kind string, success bool)

	// Sessions
	RecordSessionInvalidated(kind string) // user, team
}
