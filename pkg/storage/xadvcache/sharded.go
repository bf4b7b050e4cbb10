package xadvcache

import (
	"fmt"
	"math/bits"
	"regexp"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Sharded 将键按 xxhash 分散到多个独立 Cache 的分片缓存，用于降低锁竞争。
//
// 容量在分片间拆分且总和等于 cfg.MaxSize，淘汰在分片内独立进行，
// 因此整体淘汰顺序只在单个分片内满足策略语义。
type Sharded[V any] struct {
	shards []*Cache[V]
	mask   uint64
}

// NewSharded 创建分片缓存。shardCount 必须是正的 2 的幂且不超过 MaxSize，
// 否则返回 ErrInvalidShardCount。
// 前 MaxSize % shardCount 个分片容量为 floor(MaxSize/shardCount)+1，其余为 floor，
// 整体条目数不超过 MaxSize。
func NewSharded[V any](cfg Config, shardCount int, opts ...Option[V]) (*Sharded[V], error) {
	if shardCount <= 0 || bits.OnesCount(uint(shardCount)) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidShardCount, shardCount)
	}
	normalized, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	if shardCount > normalized.MaxSize {
		return nil, fmt.Errorf("%w: %d shards exceed max size %d", ErrInvalidShardCount, shardCount, normalized.MaxSize)
	}

	base, extra := normalized.MaxSize/shardCount, normalized.MaxSize%shardCount
	shards := make([]*Cache[V], shardCount)
	for i := range shards {
		per := normalized
		per.MaxSize = base
		if i < extra {
			per.MaxSize++
		}
		c, err := New(per, opts...)
		if err != nil {
			return nil, err
		}
		shards[i] = c
	}
	return &Sharded[V]{shards: shards, mask: uint64(shardCount - 1)}, nil
}

func (s *Sharded[V]) shard(key string) *Cache[V] {
	return s.shards[xxhash.Sum64String(key)&s.mask]
}

// ShardCount 返回分片数。
func (s *Sharded[V]) ShardCount() int {
	return len(s.shards)
}

// Set 写入条目，返回所在分片是否触发了淘汰。
func (s *Sharded[V]) Set(key string, data V) bool {
	return s.shard(key).Set(key, data)
}

// SetWithTTL 以指定 TTL 写入条目。
func (s *Sharded[V]) SetWithTTL(key string, data V, ttl time.Duration) bool {
	return s.shard(key).SetWithTTL(key, data, ttl)
}

// Get 读取条目，语义同 Cache.Get。
func (s *Sharded[V]) Get(key string) (V, bool) {
	return s.shard(key).Get(key)
}

// Has 检查条目是否存在且未过期。
func (s *Sharded[V]) Has(key string) bool {
	return s.shard(key).Has(key)
}

// Delete 删除条目。
func (s *Sharded[V]) Delete(key string) bool {
	return s.shard(key).Delete(key)
}

// GetMetadata 返回条目元数据。
func (s *Sharded[V]) GetMetadata(key string) (Metadata, bool) {
	return s.shard(key).GetMetadata(key)
}

// Clear 清空全部分片。
func (s *Sharded[V]) Clear() {
	for _, c := range s.shards {
		c.Clear()
	}
}

// Len 返回全部分片的条目总数。
func (s *Sharded[V]) Len() int {
	n := 0
	for _, c := range s.shards {
		n += c.Len()
	}
	return n
}

// Keys 返回全部键，按字典序排列。
func (s *Sharded[V]) Keys() []string {
	var keys []string
	for _, c := range s.shards {
		keys = append(keys, c.Keys()...)
	}
	slices.Sort(keys)
	return keys
}

// InvalidatePattern 在全部分片上删除匹配正则的键，返回删除总数。
func (s *Sharded[V]) InvalidatePattern(pattern *regexp.Regexp) int {
	n := 0
	for _, c := range s.shards {
		n += c.InvalidatePattern(pattern)
	}
	return n
}

// Stats 合并全部分片的统计。HitRate 基于合并后的命中/未命中次数重新计算。
func (s *Sharded[V]) Stats() Stats {
	var merged Stats
	for _, c := range s.shards {
		st := c.Stats()
		merged.Size += st.Size
		merged.MaxSize += st.MaxSize
		merged.TotalAccesses += st.TotalAccesses
		merged.Strategy = st.Strategy
		merged.Hits += st.Hits
		merged.Misses += st.Misses
		merged.Evictions += st.Evictions
		merged.Expirations += st.Expirations
	}
	if merged.Size > 0 {
		merged.AverageAccessCount = float64(merged.TotalAccesses) / float64(merged.Size)
	}
	merged.HitRate = hitRate(merged.Hits, merged.Misses)
	return merged
}
