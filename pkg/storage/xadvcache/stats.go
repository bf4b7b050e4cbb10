package xadvcache

import (
	"cmp"
	"slices"
	"time"
)

// Stats 缓存统计快照。
type Stats struct {
	// Size 当前条目数（可能包含尚未被观察到的过期条目）。
	Size int `json:"size"`
	// MaxSize 容量上限。
	MaxSize int `json:"max_size"`
	// HitRate 全部键最近访问记录的命中百分比（0-100），无记录时为 0。
	HitRate float64 `json:"hit_rate"`
	// TotalAccesses 当前条目 AccessCount 之和。
	TotalAccesses int64 `json:"total_accesses"`
	// Strategy 淘汰策略。
	Strategy Strategy `json:"strategy"`
	// AverageAccessCount TotalAccesses / Size，空缓存时为 0。
	AverageAccessCount float64 `json:"average_access_count"`

	// Hits 访问记录窗口内的命中次数。
	Hits int `json:"hits"`
	// Misses 访问记录窗口内的未命中次数。
	Misses int `json:"misses"`
	// Evictions 自创建以来的容量淘汰次数。
	Evictions uint64 `json:"evictions"`
	// Expirations 自创建以来的惰性过期次数。
	Expirations uint64 `json:"expirations"`
}

// Stats 返回统计快照，不修改缓存状态。
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:        len(c.entries),
		MaxSize:     c.cfg.MaxSize,
		Strategy:    c.cfg.Strategy,
		Evictions:   c.evictions,
		Expirations: c.expirations,
	}
	for _, e := range c.entries {
		s.TotalAccesses += e.accessCount
	}
	if s.Size > 0 {
		s.AverageAccessCount = float64(s.TotalAccesses) / float64(s.Size)
	}
	for _, l := range c.logs {
		s.Hits += l.hits
		s.Misses += l.misses()
	}
	s.HitRate = hitRate(s.Hits, s.Misses)
	return s
}

func hitRate(hits, misses int) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// GetMetadata 返回条目元数据快照。不更新访问统计，也不删除过期条目。
func (c *Cache[V]) GetMetadata(key string) (Metadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Metadata{}, false
	}
	now := c.opts.now()
	return Metadata{
		Age:            e.age(now),
		TTL:            e.ttl,
		ExpiresAt:      e.createdAt.Add(e.ttl),
		AccessCount:    e.accessCount,
		LastAccessedAt: e.lastAccessedAt,
		IsExpired:      e.expired(now),
	}, true
}

// GetExpiringSoon 返回剩余生存时间在 (0, threshold] 内的条目，
// 按剩余时间升序排列（相同时按键排序）。threshold <= 0 时使用
// DefaultExpiringThreshold。不修改缓存状态。
func (c *Cache[V]) GetExpiringSoon(threshold time.Duration) []ExpiringEntry {
	if threshold <= 0 {
		threshold = DefaultExpiringThreshold
	}

	c.mu.Lock()
	now := c.opts.now()
	result := make([]ExpiringEntry, 0)
	for _, e := range c.entries {
		if rem := e.remaining(now); rem > 0 && rem <= threshold {
			result = append(result, ExpiringEntry{Key: e.key, ExpiresIn: rem})
		}
	}
	c.mu.Unlock()

	slices.SortFunc(result, func(a, b ExpiringEntry) int {
		if a.ExpiresIn != b.ExpiresIn {
			return cmp.Compare(a.ExpiresIn, b.ExpiresIn)
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return result
}
