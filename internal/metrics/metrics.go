package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Authentication Metrics
	AuthLoginTotal          *prometheus.CounterVec
	AuthLogoutTotal         prometheus.Counter
	AuthOAuthCallbackTotal  *prometheus.CounterVec
	AuthExternalAPIDuration *prometheus.HistogramVec

	// Email Token Metrics
	TokenVerificationTotal *prometheus.CounterVec
	EmailsSentTotal        *prometheus.CounterVec

	// Session Metrics
	SessionsInvalidatedTotal *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		AuthLoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_total",
				Help: "Total number of login attempts",
			},
			[]string{"method", "result"}, // method: credentials, oauth
		),
		AuthLogoutTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_logout_total",
				Help: "Total number of logouts",
			},
		),
		AuthOAuthCallbackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_oauth_callback_total",
				Help: "Total number of OAuth callback completions",
			},
			[]string{"result"},
		),
		AuthExternalAPIDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_external_api_duration_seconds",
				Help:    "Latency of outbound identity provider calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"}, // authorize, read, token, userinfo
		),
		TokenVerificationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_email_token_verification_total",
				Help: "Total number of signed email token verifications",
			},
			[]string{"result"}, // confirmed, expired, invalid
		),
		EmailsSentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_emails_sent_total",
				Help: "Total number of notification emails sent",
			},
			[]string{"kind", "result"}, // kind: confirm, reset, alert
		),
		SessionsInvalidatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_sessions_invalidated_total",
				Help: "Total number of cached sessions invalidated",
			},
			[]string{"kind"}, // user, team
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001,
					0.005,
					0.010,
					0.025,
					0.050,
					0.100,
					0.250,
					0.500,
					1.0,
					2.5,
					5.0,
					10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),
	}
}

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// RecordLogin records a login attempt
func (m *Metrics) RecordLogin(method string, success bool) {
	result := resultSuccess
	if !success {
		result = resultFailure
	}
	m.AuthLoginTotal.WithLabelValues(method, result).Inc()
}

// RecordLogout records a logout
func (m *Metrics) RecordLogout() {
	m.AuthLogoutTotal.Inc()
}

// RecordOAuthCallback records an OAuth callback completion
func (m *Metrics) RecordOAuthCallback(success bool) {
	result := resultSuccess
	if !success {
		result = resultFailure
	}
	m.AuthOAuthCallbackTotal.WithLabelValues(result).Inc()
}

// RecordExternalAPICall records outbound identity provider latency
func (m *Metrics) RecordExternalAPICall(endpoint string, duration time.Duration) {
	m.AuthExternalAPIDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordTokenVerification records a signed email token verification result
func (m *Metrics) RecordTokenVerification(result string) {
	m.TokenVerificationTotal.WithLabelValues(result).Inc()
}

// RecordEmailSent records a notification email delivery attempt
func (m *Metrics) RecordEmailSent(kind string, success bool) {
	result := resultSuccess
	if !success {
		result = resultFailure
	}
	m.EmailsSentTotal.WithLabelValues(kind, result).Inc()
}

// RecordSessionInvalidated records a cached session invalidation
func (m *Metrics) RecordSessionInvalidated(kind string) {
	m.SessionsInvalidatedTotal.WithLabelValues(kind).Inc()
}
