package xadvcache

import "time"

// entry 缓存条目。所有字段由 Cache 的互斥锁保护。
type entry[V any] struct {
	key            string
	data           V
	createdAt      time.Time
	ttl            time.Duration
	accessCount    int64
	lastAccessedAt time.Time

	// seq 键首次插入时分配，覆盖写不变，用于模拟插入顺序的迭代与平局裁决。
	seq uint64
	// writeTick/accessTick 来自同一个逻辑计数器，在时间戳相同时区分先后。
	writeTick  uint64
	accessTick uint64
}

// age 返回条目自写入以来的时长。
func (e *entry[V]) age(now time.Time) time.Duration {
	return now.Sub(e.createdAt)
}

// expired 条目存活当且仅当 age <= ttl。
func (e *entry[V]) expired(now time.Time) bool {
	return e.age(now) > e.ttl
}

// remaining 返回剩余生存时间，已过期时为负数或零。
func (e *entry[V]) remaining(now time.Time) time.Duration {
	return e.ttl - e.age(now)
}

// Metadata 条目元数据快照，由 GetMetadata 返回。
type Metadata struct {
	// Age 自写入以来的时长。
	Age time.Duration `json:"age"`
	// TTL 条目生存时间。
	TTL time.Duration `json:"ttl"`
	// ExpiresAt 过期时刻（createdAt + TTL）。
	ExpiresAt time.Time `json:"expires_at"`
	// AccessCount 成功 Get 的次数。
	AccessCount int64 `json:"access_count"`
	// LastAccessedAt 最后一次成功 Get（或写入）的时刻。
	LastAccessedAt time.Time `json:"last_accessed_at"`
	// IsExpired 快照时刻是否已过期。
	IsExpired bool `json:"is_expired"`
}

// ExpiringEntry 即将过期的条目，由 GetExpiringSoon 返回。
type ExpiringEntry struct {
	Key       string        `json:"key"`
	ExpiresIn time.Duration `json:"expires_in"`
}

// WarmEntry 预热条目，TTL 为 0 时使用缓存的默认 TTL。
type WarmEntry[V any] struct {
	Key  string
	Data V
	TTL  time.Duration
}
