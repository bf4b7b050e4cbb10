package xadvcache

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/xcachekit/pkg/observability/xlog"
	"github.com/omeyang/xcachekit/pkg/observability/xmetrics"
)

const (
	// DefaultMaxSize 未配置 MaxSize 时的默认容量。
	DefaultMaxSize = 100

	// DefaultTTL 未配置 TTL 时条目的默认生存时间（1 小时）。
	DefaultTTL = time.Hour

	// DefaultExpiringThreshold GetExpiringSoon 的默认阈值。
	DefaultExpiringThreshold = time.Minute
)

// Config 定义缓存实例的必需配置。零值字段使用默认值。
type Config struct {
	// MaxSize 最大条目数，0 表示 DefaultMaxSize，不允许负值。
	MaxSize int `koanf:"max_size" json:"max_size"`

	// Strategy 淘汰策略，空值表示 StrategyLRU。
	Strategy Strategy `koanf:"strategy" json:"strategy"`

	// DefaultTTL Set 未指定 TTL 时使用的生存时间，0 表示 DefaultTTL，不允许负值。
	DefaultTTL time.Duration `koanf:"default_ttl" json:"default_ttl"`
}

// normalize 校验配置并填充默认值。
func (c Config) normalize() (Config, error) {
	if c.MaxSize < 0 {
		return c, fmt.Errorf("%w: got %d", ErrInvalidMaxSize, c.MaxSize)
	}
	if c.MaxSize == 0 {
		c.MaxSize = DefaultMaxSize
	}
	strategy, err := ParseStrategy(string(c.Strategy))
	if err != nil {
		return c, err
	}
	c.Strategy = strategy
	if c.DefaultTTL < 0 {
		return c, fmt.Errorf("%w: got %s", ErrInvalidTTL, c.DefaultTTL)
	}
	if c.DefaultTTL == 0 {
		c.DefaultTTL = DefaultTTL
	}
	return c, nil
}

// EvictReason 说明条目为何被动离开缓存。
type EvictReason int

const (
	// ReasonCapacity 写入新键时容量已满，按策略淘汰。
	ReasonCapacity EvictReason = iota + 1
	// ReasonExpired Get/Has 发现条目已过期并惰性删除。
	ReasonExpired
	// ReasonInvalidated 被 InvalidatePattern/InvalidateFunc 批量失效。
	ReasonInvalidated
)

// String 返回原因的可读名称。
func (r EvictReason) String() string {
	switch r {
	case ReasonCapacity:
		return "capacity"
	case ReasonExpired:
		return "expired"
	case ReasonInvalidated:
		return "invalidated"
	default:
		return fmt.Sprintf("EvictReason(%d)", int(r))
	}
}

// Option 定义缓存可选配置函数类型。
type Option[V any] func(*options[V])

type options[V any] struct {
	name      string
	now       func() time.Time
	logger    xlog.Logger
	recorder  xmetrics.CacheRecorder
	observer  xmetrics.Observer
	onEvicted func(key string, value V, reason EvictReason)
	breaker   *gobreaker.CircuitBreaker[V]
}

func defaultOptions[V any]() *options[V] {
	return &options[V]{
		name:     "default",
		now:      time.Now,
		logger:   xlog.Discard(),
		recorder: xmetrics.NoopRecorder{},
		observer: xmetrics.NoopObserver{},
	}
}

// WithName 设置缓存名称，用于日志与指标属性。默认 "default"。
func WithName[V any](name string) Option[V] {
	return func(o *options[V]) {
		if name != "" {
			o.name = name
		}
	}
}

// WithClock 设置时钟函数，主要用于测试中模拟时间流逝。
func WithClock[V any](now func() time.Time) Option[V] {
	return func(o *options[V]) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger 设置日志实例。淘汰、惰性过期、批量失效以 Debug 级别记录。
func WithLogger[V any](logger xlog.Logger) Option[V] {
	return func(o *options[V]) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder 设置缓存事件记录器（命中/未命中/淘汰/过期计数）。
func WithRecorder[V any](recorder xmetrics.CacheRecorder) Option[V] {
	return func(o *options[V]) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// WithObserver 设置回源加载的观测器。
func WithObserver[V any](observer xmetrics.Observer) Option[V] {
	return func(o *options[V]) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithOnEvicted 设置条目被动离开缓存时的回调。
//
// 回调在释放缓存锁之后同步执行，可以安全地调用缓存自身的方法；
// 显式 Delete 与 Clear 不触发回调。
func WithOnEvicted[V any](fn func(key string, value V, reason EvictReason)) Option[V] {
	return func(o *options[V]) {
		o.onEvicted = fn
	}
}

// WithLoadBreaker 为 GetOrLoad 的每次回源调用加熔断保护。
// 熔断器打开时回源立即失败（包装 gobreaker.ErrOpenState），不再重试。
func WithLoadBreaker[V any](st gobreaker.Settings) Option[V] {
	return func(o *options[V]) {
		o.breaker = gobreaker.NewCircuitBreaker[V](st)
	}
}
