package xadvcache

import (
	"cmp"
	"context"
	"log/slog"
	"regexp"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/omeyang/xcachekit/pkg/observability/xlog"
	"github.com/omeyang/xcachekit/pkg/observability/xmetrics"
)

// Cache 是容量受限、淘汰策略可配置的泛型内存缓存。
// 必须通过 [New] 创建，零值不可用。所有方法都是并发安全的。
type Cache[V any] struct {
	mu      sync.Mutex
	cfg     Config
	entries map[string]*entry[V]
	logs    map[string]*accessLog

	seq         uint64
	tick        uint64
	evictions   uint64
	expirations uint64

	opts   *options[V]
	event  xmetrics.CacheEvent
	logger xlog.Logger
	sf     singleflight.Group
}

// removal 记录一次被动删除，在释放锁后统一通知。
type removal[V any] struct {
	key    string
	value  V
	reason EvictReason
}

// New 创建缓存实例。
//
// cfg 的零值字段使用默认值（MaxSize 100、策略 LRU、TTL 1 小时）；
// 负的 MaxSize 返回 ErrInvalidMaxSize，未知策略返回 ErrUnknownStrategy，
// 负的 DefaultTTL 返回 ErrInvalidTTL。
func New[V any](cfg Config, opts ...Option[V]) (*Cache[V], error) {
	normalized, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	o := defaultOptions[V]()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	return &Cache[V]{
		cfg:     normalized,
		entries: make(map[string]*entry[V]),
		logs:    make(map[string]*accessLog),
		opts:    o,
		event:   xmetrics.CacheEvent{Cache: o.name, Strategy: normalized.Strategy.String()},
		logger: o.logger.With(
			xlog.Component("xadvcache"),
			slog.String("cache", o.name),
			slog.String("strategy", normalized.Strategy.String()),
		),
	}, nil
}

// Name 返回缓存名称。
func (c *Cache[V]) Name() string {
	return c.opts.name
}

// Config 返回规范化后的配置。
func (c *Cache[V]) Config() Config {
	return c.cfg
}

// Set 使用默认 TTL 写入条目。返回值表示是否触发了容量淘汰。
func (c *Cache[V]) Set(key string, data V) bool {
	return c.SetWithTTL(key, data, 0)
}

// SetWithTTL 写入或覆盖条目，ttl <= 0 时使用默认 TTL。
//
// 仅当 key 是新键且缓存已满时，按策略恰好淘汰一个条目；覆盖已有键从不淘汰。
// 覆盖会重置条目的创建时间、最后访问时间与访问次数。
// 返回值表示是否触发了容量淘汰。
func (c *Cache[V]) SetWithTTL(key string, data V, ttl time.Duration) bool {
	c.mu.Lock()
	rm, evicted := c.setLocked(key, data, ttl)
	c.mu.Unlock()

	if evicted {
		c.notify(rm)
	}
	return evicted
}

func (c *Cache[V]) setLocked(key string, data V, ttl time.Duration) (removal[V], bool) {
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	now := c.opts.now()

	var (
		rm      removal[V]
		evicted bool
	)
	e, exists := c.entries[key]
	if !exists {
		if len(c.entries) >= c.cfg.MaxSize {
			rm, evicted = c.evictLocked(now)
		}
		c.seq++
		e = &entry[V]{key: key, seq: c.seq}
		c.entries[key] = e
	}

	c.tick++
	e.data = data
	e.createdAt = now
	e.ttl = ttl
	e.accessCount = 0
	e.lastAccessedAt = now
	e.writeTick = c.tick
	e.accessTick = c.tick

	if _, ok := c.logs[key]; !ok {
		c.logs[key] = &accessLog{}
	}
	return rm, evicted
}

// Get 读取条目。
//
// 键不存在或已过期时返回零值和 false，并记录一次未命中；
// 过期条目在此时被删除（惰性过期），但其访问记录保留。
// 命中时访问次数加一、刷新最后访问时间并记录一次命中。
//
// 对从未写入的键调用 Get 也会为其创建访问记录，只有 Delete 或 Clear 会释放它。
// 大量不同键的未命中会让访问记录持续增长，这类场景应定期 Clear，或先用 Has 判断再 Get。
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	now := c.opts.now()
	e, ok := c.entries[key]
	if !ok {
		c.recordAccessLocked(key, false)
		c.mu.Unlock()
		c.opts.recorder.Miss(context.Background(), c.event)
		return zero, false
	}
	if e.expired(now) {
		rm := c.expireLocked(e)
		c.recordAccessLocked(key, false)
		c.mu.Unlock()
		c.notify(rm)
		c.opts.recorder.Miss(context.Background(), c.event)
		return zero, false
	}

	c.tick++
	e.accessCount++
	e.lastAccessedAt = now
	e.accessTick = c.tick
	c.recordAccessLocked(key, true)
	data := e.data
	c.mu.Unlock()

	c.opts.recorder.Hit(context.Background(), c.event)
	return data, true
}

// Peek 读取未过期条目，不更新访问统计，也不删除过期条目。
func (c *Cache[V]) Peek(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.expired(c.opts.now()) {
		return zero, false
	}
	return e.data, true
}

// Has 检查键是否存在且未过期。
// 与 Get 一样会惰性删除过期条目，但不更新访问统计与访问记录。
func (c *Cache[V]) Has(key string) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	if e.expired(c.opts.now()) {
		rm := c.expireLocked(e)
		c.mu.Unlock()
		c.notify(rm)
		return false
	}
	c.mu.Unlock()
	return true
}

// Delete 删除条目及其访问记录，返回是否删除了条目。
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	delete(c.entries, key)
	delete(c.logs, key)
	return ok
}

// Clear 删除全部条目与访问记录。累计的淘汰/过期计数不清零。
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry[V])
	c.logs = make(map[string]*accessLog)
}

// Len 返回当前条目数，可能包含已过期但尚未被观察到的条目。
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys 按首次插入顺序返回全部键。
//
// 过期只在 Get/Has 时检查，因此结果可能包含已过期但尚未删除的键。
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ordered := c.orderedLocked()
	keys := make([]string, len(ordered))
	for i, e := range ordered {
		keys[i] = e.key
	}
	return keys
}

// Values 按与 Keys 相同的顺序返回全部值，同样可能包含已过期条目的值。
func (c *Cache[V]) Values() []V {
	c.mu.Lock()
	defer c.mu.Unlock()

	ordered := c.orderedLocked()
	values := make([]V, len(ordered))
	for i, e := range ordered {
		values[i] = e.data
	}
	return values
}

// Warm 按顺序批量写入。批次中靠后的条目可能淘汰靠前的条目。
func (c *Cache[V]) Warm(entries []WarmEntry[V]) {
	if len(entries) == 0 {
		return
	}

	c.mu.Lock()
	removed := make([]removal[V], 0)
	for _, we := range entries {
		if rm, evicted := c.setLocked(we.Key, we.Data, we.TTL); evicted {
			removed = append(removed, rm)
		}
	}
	c.mu.Unlock()

	c.notify(removed...)
}

// InvalidatePattern 删除所有匹配正则的键（无论是否过期），返回删除数量。
// pattern 为 nil 时不做任何事。
func (c *Cache[V]) InvalidatePattern(pattern *regexp.Regexp) int {
	if pattern == nil {
		return 0
	}
	return c.InvalidateFunc(pattern.MatchString)
}

// InvalidateFunc 删除所有使 match 返回 true 的键（无论是否过期），返回删除数量。
// match 在缓存锁内调用，不得调用缓存自身的方法。
func (c *Cache[V]) InvalidateFunc(match func(key string) bool) int {
	if match == nil {
		return 0
	}

	c.mu.Lock()
	var removed []removal[V]
	for _, e := range c.orderedLocked() {
		if !match(e.key) {
			continue
		}
		delete(c.entries, e.key)
		delete(c.logs, e.key)
		removed = append(removed, removal[V]{key: e.key, value: e.data, reason: ReasonInvalidated})
	}
	c.mu.Unlock()

	c.notify(removed...)
	return len(removed)
}

// =============================================================================
// 内部方法（调用方必须持有 c.mu）
// =============================================================================

// expireLocked 惰性删除过期条目，保留其访问记录。
func (c *Cache[V]) expireLocked(e *entry[V]) removal[V] {
	delete(c.entries, e.key)
	c.expirations++
	return removal[V]{key: e.key, value: e.data, reason: ReasonExpired}
}

func (c *Cache[V]) recordAccessLocked(key string, hit bool) {
	l, ok := c.logs[key]
	if !ok {
		l = &accessLog{}
		c.logs[key] = l
	}
	l.record(hit)
}

// orderedLocked 返回按首次插入顺序排列的条目。
func (c *Cache[V]) orderedLocked() []*entry[V] {
	ordered := make([]*entry[V], 0, len(c.entries))
	for _, e := range c.entries {
		ordered = append(ordered, e)
	}
	slices.SortFunc(ordered, func(a, b *entry[V]) int {
		return cmp.Compare(a.seq, b.seq)
	})
	return ordered
}

// notify 在锁外记录日志、指标并调用淘汰回调。
func (c *Cache[V]) notify(removed ...removal[V]) {
	if len(removed) == 0 {
		return
	}
	ctx := context.Background()
	for _, rm := range removed {
		switch rm.reason {
		case ReasonCapacity:
			c.opts.recorder.Evict(ctx, c.event)
			c.logger.Debug(ctx, "cache entry evicted", slog.String("key", rm.key))
		case ReasonExpired:
			c.opts.recorder.Expire(ctx, c.event)
			c.logger.Debug(ctx, "cache entry expired", slog.String("key", rm.key))
		case ReasonInvalidated:
			c.logger.Debug(ctx, "cache entry invalidated", slog.String("key", rm.key))
		}
		if c.opts.onEvicted != nil {
			c.opts.onEvicted(rm.key, rm.value, rm.reason)
		}
	}
}
