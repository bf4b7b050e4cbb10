package xmetrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xcachekit/xmetrics"
	unknownComponent           = "unknown"
	unknownOperation           = "unknown"

	metricOperationTotal    = "xcachekit.operation.total"
	metricOperationDuration = "xcachekit.operation.duration"

	metricCacheHits        = "xcachekit.cache.hits"
	metricCacheMisses      = "xcachekit.cache.misses"
	metricCacheEvictions   = "xcachekit.cache.evictions"
	metricCacheExpirations = "xcachekit.cache.expirations"
)

type otelConfig struct {
	instrumentationName string
	tracerProvider      trace.TracerProvider
	meterProvider       metric.MeterProvider
}

// Option 定义 OTel 实现的配置选项。
type Option func(*otelConfig)

// WithInstrumentationName 设置 OTel instrumentation 名称。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithTracerProvider 设置 TracerProvider。
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.tracerProvider = provider
		}
	}
}

// WithMeterProvider 设置 MeterProvider。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

func newOTelConfig(opts []Option) *otelConfig {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		tracerProvider:      otel.GetTracerProvider(),
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// =============================================================================
// Observer
// =============================================================================

// NewOTelObserver 创建基于 OpenTelemetry 的 Observer。
func NewOTelObserver(opts ...Option) (Observer, error) {
	cfg := newOTelConfig(opts)

	tracer := cfg.tracerProvider.Tracer(cfg.instrumentationName)
	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	total, err := meter.Int64Counter(
		metricOperationTotal,
		metric.WithDescription("total operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}

	duration, err := meter.Float64Histogram(
		metricOperationDuration,
		metric.WithDescription("operation duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateHistogram, err)
	}

	return &otelObserver{
		tracer:   tracer,
		total:    total,
		duration: duration,
	}, nil
}

type otelObserver struct {
	tracer   trace.Tracer
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

// Start 开始一次观测跨度。
func (o *otelObserver) Start(ctx context.Context, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	component := opts.Component
	if component == "" {
		component = unknownComponent
	}
	operation := opts.Operation
	if operation == "" {
		operation = unknownOperation
	}

	attrs := make([]attribute.KeyValue, 0, 2+len(opts.Attrs))
	attrs = append(attrs,
		attribute.String("component", component),
		attribute.String("operation", operation),
	)
	attrs = append(attrs, attrsToOTel(opts.Attrs)...)

	ctx, span := o.tracer.Start(
		ctx,
		component+"."+operation,
		trace.WithSpanKind(mapSpanKind(opts.Kind)),
		trace.WithAttributes(attrs...),
	)

	return ctx, &otelSpan{
		span:      span,
		observer:  o,
		ctx:       ctx,
		component: component,
		operation: operation,
		start:     time.Now(),
	}
}

type otelSpan struct {
	span      trace.Span
	observer  *otelObserver
	ctx       context.Context
	component string
	operation string
	start     time.Time
	endOnce   sync.Once
}

// End 结束观测并记录结果。End 是幂等的，多次调用只记录一次 metrics。
func (s *otelSpan) End(result Result) {
	if s == nil {
		return
	}

	s.endOnce.Do(func() {
		status := resolveStatus(result)

		if result.Err != nil {
			s.span.RecordError(result.Err)
		}
		if status == StatusError {
			msg := "operation failed"
			if result.Err != nil {
				msg = result.Err.Error()
			}
			s.span.SetStatus(codes.Error, msg)
		} else {
			s.span.SetStatus(codes.Ok, "")
		}
		if len(result.Attrs) > 0 {
			s.span.SetAttributes(attrsToOTel(result.Attrs)...)
		}
		s.span.End()

		// 请求 context 已取消时指标仍需记录
		metricsCtx := context.WithoutCancel(s.ctx)
		attrs := metric.WithAttributes(
			attribute.String("component", s.component),
			attribute.String("operation", s.operation),
			attribute.String("status", string(status)),
		)
		s.observer.total.Add(metricsCtx, 1, attrs)
		s.observer.duration.Record(metricsCtx, time.Since(s.start).Seconds(), attrs)
	})
}

func resolveStatus(result Result) Status {
	if result.Status != "" {
		return result.Status
	}
	if result.Err != nil {
		return StatusError
	}
	return StatusOK
}

func mapSpanKind(kind Kind) trace.SpanKind {
	if kind == KindClient {
		return trace.SpanKindClient
	}
	return trace.SpanKindInternal
}

func attrsToOTel(attrs []Attr) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	converted := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Key == "" || attr.Value == nil {
			continue
		}
		switch v := attr.Value.(type) {
		case string:
			converted = append(converted, attribute.String(attr.Key, v))
		case bool:
			converted = append(converted, attribute.Bool(attr.Key, v))
		case int:
			converted = append(converted, attribute.Int(attr.Key, v))
		case int64:
			converted = append(converted, attribute.Int64(attr.Key, v))
		case float64:
			converted = append(converted, attribute.Float64(attr.Key, v))
		case time.Duration:
			converted = append(converted, attribute.Int64(attr.Key, v.Nanoseconds()))
		default:
			converted = append(converted, attribute.String(attr.Key, fmt.Sprint(v)))
		}
	}
	return converted
}

// =============================================================================
// CacheRecorder
// =============================================================================

// NewOTelRecorder 创建基于 OpenTelemetry Counter 的 CacheRecorder。
func NewOTelRecorder(opts ...Option) (CacheRecorder, error) {
	cfg := newOTelConfig(opts)
	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	counters := make([]metric.Int64Counter, 0, 4)
	for _, def := range []struct{ name, desc string }{
		{metricCacheHits, "cache hits"},
		{metricCacheMisses, "cache misses"},
		{metricCacheEvictions, "entries evicted for capacity"},
		{metricCacheExpirations, "entries removed after TTL expiry"},
	} {
		c, err := meter.Int64Counter(def.name, metric.WithDescription(def.desc), metric.WithUnit("1"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCreateCounter, def.name, err)
		}
		counters = append(counters, c)
	}

	return &otelRecorder{
		hits:        counters[0],
		misses:      counters[1],
		evictions:   counters[2],
		expirations: counters[3],
	}, nil
}

type otelRecorder struct {
	hits        metric.Int64Counter
	misses      metric.Int64Counter
	evictions   metric.Int64Counter
	expirations metric.Int64Counter
}

func eventAttrs(ev CacheEvent) metric.AddOption {
	return metric.WithAttributes(
		attribute.String("cache", ev.Cache),
		attribute.String("strategy", ev.Strategy),
	)
}

func (r *otelRecorder) Hit(ctx context.Context, ev CacheEvent) {
	r.hits.Add(normalize(ctx), 1, eventAttrs(ev))
}

func (r *otelRecorder) Miss(ctx context.Context, ev CacheEvent) {
	r.misses.Add(normalize(ctx), 1, eventAttrs(ev))
}

func (r *otelRecorder) Evict(ctx context.Context, ev CacheEvent) {
	r.evictions.Add(normalize(ctx), 1, eventAttrs(ev))
}

func (r *otelRecorder) Expire(ctx context.Context, ev CacheEvent) {
	r.expirations.Add(normalize(ctx), 1, eventAttrs(ev))
}

func normalize(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
