package host

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vectorstream/patternengine/engine"
)

func TestNoopAuditSink_DoesNotPanic(t *testing.T) {
	var s NoopAuditSink
	assert.NotPanics(t, func() { s.Record("anomaly", map[string]any{"id": "x"}) })
}

func TestInMemoryMetricsSource_ReturnsFixedSnapshot(t *testing.T) {
	want := engine.StreamingMetrics{Accuracy: 0.9}
	s := InMemoryMetricsSource{Metrics: want}
	assert.Equal(t, want, s.ReadMetrics())
}

func TestRecordingAuditSink_CapturesEvents(t *testing.T) {
	s := &RecordingAuditSink{}
	s.Record("drop", 1)
	s.Record("anomaly", "x")
	assert.Equal(t, []AuditEvent{{Type: "drop", Payload: 1}, {Type: "anomaly", Payload: "x"}}, s.Events)
}
