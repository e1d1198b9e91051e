// Package host declares the out-of-scope, interface-only collaborators
// the pattern engine calls outward into: applying tuned parameters,
// reading external metrics, and recording audit events. Per spec.md
// section 6 these are host responsibilities — the engine only defines the
// contract and a couple of test doubles.
package host

import "github.com/vectorstream/patternengine/engine"

// ParameterSink applies tuned parameters to the running pipeline. It is a
// total function: it must not panic, and any internal failure is logged
// by the implementation rather than propagated.
type ParameterSink interface {
	ApplyParameters(p engine.Params)
}

// MetricsSource reads the current streaming metrics snapshot. Callers may
// block for up to one control-loop interval.
type MetricsSource interface {
	ReadMetrics() engine.StreamingMetrics
}

// AuditSink records a fire-and-forget audit event.
type AuditSink interface {
	Record(eventType string, payload any)
}

// NoopAuditSink discards every event, for hosts that don't need auditing.
type NoopAuditSink struct{}

func (NoopAuditSink) Record(string, any) {}

// InMemoryMetricsSource returns a fixed StreamingMetrics snapshot, useful
// as a test double and as a minimal standalone host.
type InMemoryMetricsSource struct {
	Metrics engine.StreamingMetrics
}

func (s InMemoryMetricsSource) ReadMetrics() engine.StreamingMetrics { return s.Metrics }

// RecordingAuditSink is an AuditSink test double that keeps every event it
// receives, for assertions in tests.
type RecordingAuditSink struct {
	Events []AuditEvent
}

// AuditEvent is one event captured by RecordingAuditSink.
type AuditEvent struct {
	Type    string
	Payload any
}

func (s *RecordingAuditSink) Record(eventType string, payload any) {
	s.Events = append(s.Events, AuditEvent{Type: eventType, Payload: payload})
}
