package pipeline

import (
	"context"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	e := newPetstore(t, WithMetrics(m))
	op := mustOperation(t, e, "listPets")
	ctx := context.Background()

	_, err = e.ConvertRequest(ctx, &RawRequest{Query: url.Values{"limit": {"5"}}}, op)
	require.NoError(t, err)
	_, err = e.ConvertRequest(ctx, &RawRequest{Query: url.Values{"limit": {"500"}}}, op)
	require.NoError(t, err)
	_, err = e.RenderResponse(ctx, &Output{Status: 500, Value: map[string]any{"code": 1, "message": "x"}}, op)
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, m.conversions, "listPets", "request", "valid"))
	assert.Equal(t, 1.0, counterValue(t, m.conversions, "listPets", "request", "invalid"))
	assert.Equal(t, 1.0, counterValue(t, m.conversions, "listPets", "response", "valid"))
	assert.Equal(t, 1.0, counterValue(t, m.validationErrors, "listPets", "request", "bounds"))

	families, err := reg.Gather()
	require.NoError(t, err)
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	require.Contains(t, byName, "oasbind_conversion_duration_seconds")
	assert.Len(t, byName["oasbind_conversion_duration_seconds"].GetMetric(), 2)

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observe("op", "request", nil, 0)
	})
}

func TestTracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	e := newPetstore(t, WithTracerProvider(tp))
	op := mustOperation(t, e, "getPet")
	ctx := context.Background()

	_, err := e.ConvertRequest(ctx, &RawRequest{PathParams: map[string]string{"petId": "x"}}, op)
	require.NoError(t, err)
	_, err = e.RenderResponse(ctx, &Output{Status: 200, Value: map[string]any{"id": 1, "name": "rex"}}, op)
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)

	convert := spans[0]
	assert.Equal(t, "oasbind.ConvertRequest", convert.Name())
	assert.Equal(t, codes.Error, convert.Status().Code)
	attrs := attributeMap(convert.Attributes())
	assert.Equal(t, "getPet", attrs["oasbind.operation"].AsString())
	assert.Equal(t, "/pets/{petId}", attrs["http.route"].AsString())
	assert.False(t, attrs["oasbind.valid"].AsBool())
	assert.Equal(t, []string{"type"}, attrs["oasbind.error_kinds"].AsStringSlice())

	render := spans[1]
	assert.Equal(t, "oasbind.RenderResponse", render.Name())
	assert.Equal(t, codes.Ok, render.Status().Code)
	assert.True(t, attributeMap(render.Attributes())["oasbind.valid"].AsBool())
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, vec.WithLabelValues(labels...).Write(&m))
	return m.GetCounter().GetValue()
}

func attributeMap(kvs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(kvs))
	for _, kv := range kvs {
		out[kv.Key] = kv.Value
	}
	return out
}
