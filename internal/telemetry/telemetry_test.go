package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics_Idempotent(t *testing.T) {
	InitMetrics()
	InitMetrics()

	FramesInjected.WithLabelValues("deauth", "deauth").Add(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(FramesInjected.WithLabelValues("deauth", "deauth")))

	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range mfs {
		if mf.GetName() == "airstrike_frames_injected_total" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestInitTracer_WritesSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracer(TracerConfig{Version: "test", Output: &buf})
	require.NoError(t, err)

	_, span := Tracer("unit").Start(context.Background(), "unit")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "unit")
	assert.Contains(t, buf.String(), ServiceName)
	assert.Contains(t, buf.String(), "airstrike/unit")
}

func TestInitTracer_SampleRatio(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracer(TracerConfig{Output: &buf, SampleRatio: 0.000001})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, span := Tracer("sampled").Start(context.Background(), "dropped")
		span.End()
	}
	require.NoError(t, shutdown(context.Background()))
	assert.NotContains(t, buf.String(), "dropped")
}
