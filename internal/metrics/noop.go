package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder.
// All methods are empty and do nothing, providing zero overhead when
// metrics are disabled.
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordLogin(method string, success bool)                       {}
func (n *NoopMetrics) RecordLogout()                                                 {}
func (n *NoopMetrics) RecordOAuthCallback(success bool)                              {}
func (n *NoopMetrics) RecordExternalAPICall(endpoint string, duration time.Duration) {}
func (n *NoopMetrics) RecordTokenVerification(result string)                         {}
func (n *NoopMetrics) RecordEmailSent(kind string, success bool)                     {}
func (n *NoopMetrics) RecordSessionInvalidated(kind string)                          {}
