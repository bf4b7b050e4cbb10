package xmetrics

import "context"

// CacheEvent 标识一次缓存事件所属的缓存实例。
type CacheEvent struct {
	// Cache 缓存实例名称。
	Cache string
	// Strategy 淘汰策略名称（LRU/LFU/FIFO/TTL）。
	Strategy string
}

// CacheRecorder 记录缓存事件。
//
// 实现必须并发安全，且不应阻塞：缓存在持有锁之外调用这些方法，
// 但调用发生在读写热路径上。
type CacheRecorder interface {
	// Hit 记录一次命中。
	Hit(ctx context.Context, ev CacheEvent)
	// Miss 记录一次未命中（键不存在或已过期）。
	Miss(ctx context.Context, ev CacheEvent)
	// Evict 记录一次容量淘汰。
	Evict(ctx context.Context, ev CacheEvent)
	// Expire 记录一次惰性过期删除。
	Expire(ctx context.Context, ev CacheEvent)
}

// NoopRecorder 是 CacheRecorder 的空实现。
type NoopRecorder struct{}

// Hit 空实现。
func (NoopRecorder) Hit(context.Context, CacheEvent) {}

// Miss 空实现。
func (NoopRecorder) Miss(context.Context, CacheEvent) {}

// Evict 空实现。
func (NoopRecorder) Evict(context.Context, CacheEvent) {}

// Expire 空实现。
func (NoopRecorder) Expire(context.Context, CacheEvent) {}
