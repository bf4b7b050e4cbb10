package xadvcache

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xcachekit/pkg/observability/xlog"
	"github.com/omeyang/xcachekit/pkg/observability/xmetrics"
)

func TestCache_RecorderEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	rec := NewMockCacheRecorder(ctrl)
	ev := xmetrics.CacheEvent{Cache: "sessions", Strategy: "FIFO"}

	gomock.InOrder(
		rec.EXPECT().Hit(gomock.Any(), ev),
		rec.EXPECT().Miss(gomock.Any(), ev),
		rec.EXPECT().Evict(gomock.Any(), ev),
		rec.EXPECT().Expire(gomock.Any(), ev),
		rec.EXPECT().Miss(gomock.Any(), ev),
	)

	clk := newFakeClock()
	c := newTestCache(t, Config{MaxSize: 1, Strategy: StrategyFIFO}, clk,
		WithName[string]("sessions"),
		WithRecorder[string](rec),
	)

	c.SetWithTTL("a", "1", time.Second)
	c.Get("a")
	c.Get("missing")
	c.SetWithTTL("b", "2", time.Second)
	clk.Advance(2 * time.Second)
	c.Get("b")
}

func TestCache_RecorderNotCalledForInvalidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	rec := NewMockCacheRecorder(ctrl)

	c := newTestCache(t, Config{}, newFakeClock(), WithRecorder[string](rec))
	c.Set("user:1", "a")
	assert.Equal(t, 1, c.InvalidatePattern(regexp.MustCompile(`^user:`)))
}

func TestCache_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().SetOutput(&buf).SetLevelString("debug").Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })

	clk := newFakeClock()
	c := newTestCache(t, Config{MaxSize: 1}, clk, WithName[string]("orders"), WithLogger[string](logger))

	c.SetWithTTL("a", "1", time.Second)
	c.Set("b", "2")
	out := buf.String()
	assert.Contains(t, out, "cache entry evicted")
	assert.Contains(t, out, "cache=orders")
	assert.Contains(t, out, "key=a")
	assert.Contains(t, out, "strategy=LRU")

	buf.Reset()
	c.SetWithTTL("c", "3", time.Millisecond)
	clk.Advance(time.Second)
	c.Has("c")
	assert.Contains(t, buf.String(), "cache entry expired")
}

func TestGetOrLoad_Breaker(t *testing.T) {
	c := newTestCache(t, Config{}, newFakeClock(), WithLoadBreaker[string](gobreaker.Settings{
		Name:    "backend",
		Timeout: time.Hour,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	}))

	backendErr := errors.New("backend down")
	var calls atomic.Int32
	load := func(context.Context, string) (string, error) {
		calls.Add(1)
		return "", backendErr
	}

	for range 2 {
		_, err := c.GetOrLoad(context.Background(), "k", load)
		assert.ErrorIs(t, err, backendErr)
	}

	_, err := c.GetOrLoad(context.Background(), "k", load, WithLoadAttempts(5), WithLoadDelay(0))
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load(), "open breaker short-circuits the loader")
}

func TestGetOrLoad_Span(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	observer, err := xmetrics.NewOTelObserver(xmetrics.WithTracerProvider(tp))
	require.NoError(t, err)

	c := newTestCache(t, Config{}, newFakeClock(), WithName[string]("profiles"), WithObserver[string](observer))

	var calls atomic.Int32
	_, err = c.GetOrLoad(context.Background(), "k", func(context.Context, string) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("flaky")
		}
		return "v", nil
	}, WithLoadAttempts(2), WithLoadDelay(0))
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "xadvcache.load", spans[0].Name)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "profiles", attrs["cache"])
	assert.Equal(t, "2", attrs["attempts"])
}
