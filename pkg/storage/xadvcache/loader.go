package xadvcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/xcachekit/pkg/observability/xlog"
	"github.com/omeyang/xcachekit/pkg/observability/xmetrics"
)

// =============================================================================
// 回源加载配置
// =============================================================================

// DefaultLoadTimeout 单次回源（含重试）的默认超时时间。
const DefaultLoadTimeout = 30 * time.Second

// defaultLoadDelay 重试间隔的默认值。
const defaultLoadDelay = 100 * time.Millisecond

// LoaderFunc 从后端加载 key 对应的值。
type LoaderFunc[V any] func(ctx context.Context, key string) (V, error)

// LoadOption 定义 GetOrLoad 的可选配置函数类型。
type LoadOption func(*loadOptions)

type loadOptions struct {
	ttl      time.Duration
	attempts uint
	delay    time.Duration
	timeout  time.Duration
}

func defaultLoadOptions() *loadOptions {
	return &loadOptions{
		attempts: 1,
		delay:    defaultLoadDelay,
		timeout:  DefaultLoadTimeout,
	}
}

// WithLoadTTL 设置加载结果写入缓存时的 TTL，<= 0 表示使用缓存默认 TTL。
func WithLoadTTL(ttl time.Duration) LoadOption {
	return func(o *loadOptions) {
		o.ttl = ttl
	}
}

// WithLoadAttempts 设置最大尝试次数（含首次），0 被忽略。默认 1，即不重试。
func WithLoadAttempts(n uint) LoadOption {
	return func(o *loadOptions) {
		if n > 0 {
			o.attempts = n
		}
	}
}

// WithLoadDelay 设置两次尝试之间的固定间隔，负值被忽略。默认 100ms。
func WithLoadDelay(d time.Duration) LoadOption {
	return func(o *loadOptions) {
		if d >= 0 {
			o.delay = d
		}
	}
}

// WithLoadTimeout 设置单次回源（含全部重试）的超时时间，<= 0 被忽略。默认 30s。
func WithLoadTimeout(d time.Duration) LoadOption {
	return func(o *loadOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// =============================================================================
// GetOrLoad
// =============================================================================

// GetOrLoad 读取 key，未命中时调用 load 回源并写入缓存。
//
// 同一 key 的并发未命中只回源一次（singleflight），结果由所有等待者共享；
// 去重不包含 TTL，写入的 TTL 取决于发起回源的调用。
// 回源使用脱离调用方取消链的独立 context（受 WithLoadTimeout 约束），
// 调用方 ctx 取消只会让该调用方提前返回 ctx.Err()，不影响其他等待者。
//
// 回源失败返回包装了 ErrLoadFailed 的错误；loader panic 被恢复为
// ErrLoadPanic 且不再重试。配置 WithLoadBreaker 时熔断打开同样不重试。
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load LoaderFunc[V], opts ...LoadOption) (V, error) {
	var zero V
	if load == nil {
		return zero, ErrNilLoader
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if v, ok := c.Get(key); ok {
		return v, nil
	}

	lo := defaultLoadOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(lo)
		}
	}

	ch := c.sf.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lo.timeout)
		defer cancel()
		return c.loadAndStore(loadCtx, key, load, lo)
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	}
}

func (c *Cache[V]) loadAndStore(ctx context.Context, key string, load LoaderFunc[V], lo *loadOptions) (V, error) {
	var zero V

	// 等待 singleflight 期间其他路径可能已写入
	if v, ok := c.Peek(key); ok {
		return v, nil
	}

	ctx, span := xmetrics.Start(ctx, c.opts.observer, xmetrics.SpanOptions{
		Component: "xadvcache",
		Operation: "load",
		Kind:      xmetrics.KindClient,
		Attrs: []xmetrics.Attr{
			xmetrics.String("cache", c.opts.name),
			xmetrics.String("strategy", c.cfg.Strategy.String()),
		},
	})

	var (
		attempts int
		// stopErr 不可重试的原始错误
		stopErr error
	)
	v, err := retry.NewWithData[V](
		retry.Context(ctx),
		retry.Attempts(lo.attempts),
		retry.Delay(lo.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	).Do(func() (V, error) {
		attempts++
		v, err := c.callLoader(ctx, key, load)
		if isPermanent(err) {
			stopErr = err
			return v, retry.Unrecoverable(err)
		}
		return v, err
	})
	if stopErr != nil {
		err = stopErr
	}

	span.End(xmetrics.Result{Err: err, Attrs: []xmetrics.Attr{xmetrics.Int("attempts", attempts)}})

	if err != nil {
		c.logger.Warn(ctx, "cache load failed",
			slog.String("key", key),
			slog.Int("attempts", attempts),
			xlog.Err(err),
		)
		if errors.Is(err, ErrLoadPanic) {
			return zero, err
		}
		return zero, fmt.Errorf("%w: key %q: %w", ErrLoadFailed, key, err)
	}

	c.SetWithTTL(key, v, lo.ttl)
	return v, nil
}

// isPermanent 判断回源错误是否不应重试：loader panic 或熔断器拒绝。
func isPermanent(err error) bool {
	return errors.Is(err, ErrLoadPanic) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}

// callLoader 调用 load，配置了熔断器时经由熔断器执行。
func (c *Cache[V]) callLoader(ctx context.Context, key string, load LoaderFunc[V]) (V, error) {
	if c.opts.breaker == nil {
		return safeLoad(ctx, key, load)
	}
	return c.opts.breaker.Execute(func() (V, error) {
		return safeLoad(ctx, key, load)
	})
}

// safeLoad 调用 load 并把 panic 转换为 ErrLoadPanic。
func safeLoad[V any](ctx context.Context, key string, load LoaderFunc[V]) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrLoadPanic, r)
		}
	}()
	return load(ctx, key)
}
