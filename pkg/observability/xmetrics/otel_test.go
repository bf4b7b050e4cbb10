package xmetrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// ============================================================================
// 测试辅助函数
// ============================================================================

func newTestTracerProvider() (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	return tp, exporter
}

func newTestMeterProvider() (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return mp, reader
}

// sumOf 返回指定名称的 Int64 Sum 指标中，满足属性过滤条件的数据点之和。
func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string, match func(attribute.Set) bool) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not Sum[int64]", name)
			for _, dp := range sum.DataPoints {
				if match == nil || match(dp.Attributes) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func attrEquals(key, want string) func(attribute.Set) bool {
	return func(set attribute.Set) bool {
		v, ok := set.Value(attribute.Key(key))
		return ok && v.AsString() == want
	}
}

// ============================================================================
// Observer
// ============================================================================

func TestNewOTelObserver_Default(t *testing.T) {
	obs, err := NewOTelObserver(WithInstrumentationName(""), WithMeterProvider(nil), WithTracerProvider(nil))
	require.NoError(t, err)
	require.NotNil(t, obs)
}

func TestOTelObserver_SpanAndMetrics(t *testing.T) {
	tp, exporter := newTestTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	obs, err := NewOTelObserver(WithTracerProvider(tp), WithMeterProvider(mp))
	require.NoError(t, err)

	_, span := obs.Start(context.Background(), SpanOptions{
		Component: "xadvcache",
		Operation: "load",
		Kind:      KindClient,
		Attrs:     []Attr{String("cache", "users"), Int("attempts", 3), Bool("coalesced", false)},
	})
	span.End(Result{Err: errors.New("backend down")})
	// 幂等：第二次 End 不重复计数
	span.End(Result{})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "xadvcache.load", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)

	assert.Equal(t, int64(1), sumOf(t, reader, metricOperationTotal, attrEquals("status", "error")))
	assert.Equal(t, int64(0), sumOf(t, reader, metricOperationTotal, attrEquals("status", "ok")))
}

func TestOTelObserver_UnknownNames(t *testing.T) {
	tp, exporter := newTestTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	obs, err := NewOTelObserver(WithTracerProvider(tp))
	require.NoError(t, err)

	//nolint:staticcheck // 验证 nil ctx 兜底
	ctx, span := obs.Start(nil, SpanOptions{})
	require.NotNil(t, ctx)
	span.End(Result{Status: StatusOK})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "unknown.unknown", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
}

func TestStart_NilObserver(t *testing.T) {
	//nolint:staticcheck // 验证 nil ctx 兜底
	ctx, span := Start(nil, nil, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.IsType(t, NoopSpan{}, span)

	ctx, span = Start(context.Background(), NoopObserver{}, SpanOptions{})
	assert.NotNil(t, ctx)
	span.End(Result{})
}

func TestResolveStatus(t *testing.T) {
	assert.Equal(t, StatusOK, resolveStatus(Result{}))
	assert.Equal(t, StatusError, resolveStatus(Result{Err: errors.New("x")}))
	assert.Equal(t, StatusOK, resolveStatus(Result{Status: StatusOK, Err: errors.New("x")}))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "Internal", KindInternal.String())
	assert.Equal(t, "Client", KindClient.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

// ============================================================================
// CacheRecorder
// ============================================================================

func TestOTelRecorder_Counters(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	rec, err := NewOTelRecorder(WithMeterProvider(mp))
	require.NoError(t, err)

	users := CacheEvent{Cache: "users", Strategy: "LRU"}
	orders := CacheEvent{Cache: "orders", Strategy: "LFU"}
	ctx := context.Background()

	rec.Hit(ctx, users)
	rec.Hit(ctx, users)
	rec.Hit(ctx, orders)
	rec.Miss(ctx, users)
	rec.Evict(ctx, orders)
	//nolint:staticcheck // 验证 nil ctx 兜底
	rec.Expire(nil, users)

	assert.Equal(t, int64(3), sumOf(t, reader, metricCacheHits, nil))
	assert.Equal(t, int64(2), sumOf(t, reader, metricCacheHits, attrEquals("cache", "users")))
	assert.Equal(t, int64(1), sumOf(t, reader, metricCacheMisses, attrEquals("strategy", "LRU")))
	assert.Equal(t, int64(1), sumOf(t, reader, metricCacheEvictions, attrEquals("cache", "orders")))
	assert.Equal(t, int64(1), sumOf(t, reader, metricCacheExpirations, nil))
}

func TestNoopRecorder(t *testing.T) {
	var rec CacheRecorder = NoopRecorder{}
	ctx := context.Background()
	ev := CacheEvent{Cache: "c"}
	rec.Hit(ctx, ev)
	rec.Miss(ctx, ev)
	rec.Evict(ctx, ev)
	rec.Expire(ctx, ev)
}
