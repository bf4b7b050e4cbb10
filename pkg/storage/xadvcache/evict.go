package xadvcache

import "time"

// evictLocked 按策略选出并删除一个条目，同时删除其访问记录。
// 空缓存时不做任何事。调用方必须持有 c.mu。
func (c *Cache[V]) evictLocked(now time.Time) (removal[V], bool) {
	victim := c.victimLocked(now)
	if victim == nil {
		return removal[V]{}, false
	}
	delete(c.entries, victim.key)
	delete(c.logs, victim.key)
	c.evictions++
	return removal[V]{key: victim.key, value: victim.data, reason: ReasonCapacity}, true
}

func (c *Cache[V]) victimLocked(now time.Time) *entry[V] {
	switch c.cfg.Strategy {
	case StrategyLFU:
		return pick(c.entries, lessLFU[V])
	case StrategyFIFO:
		return pick(c.entries, lessFIFO[V])
	case StrategyTTL:
		if e := firstExpired(c.entries, now); e != nil {
			return e
		}
		return pick(c.entries, lessLRU[V])
	default:
		return pick(c.entries, lessLRU[V])
	}
}

// pick 返回 less 意义下最小的条目。
// 各比较函数构成严格全序，结果与 map 遍历顺序无关。
func pick[V any](entries map[string]*entry[V], less func(a, b *entry[V]) bool) *entry[V] {
	var victim *entry[V]
	for _, e := range entries {
		if victim == nil || less(e, victim) {
			victim = e
		}
	}
	return victim
}

// firstExpired 返回最早插入的已过期条目，没有时返回 nil。
func firstExpired[V any](entries map[string]*entry[V], now time.Time) *entry[V] {
	var first *entry[V]
	for _, e := range entries {
		if e.expired(now) && (first == nil || e.seq < first.seq) {
			first = e
		}
	}
	return first
}

func lessLRU[V any](a, b *entry[V]) bool {
	if !a.lastAccessedAt.Equal(b.lastAccessedAt) {
		return a.lastAccessedAt.Before(b.lastAccessedAt)
	}
	return a.accessTick < b.accessTick
}

func lessLFU[V any](a, b *entry[V]) bool {
	if a.accessCount != b.accessCount {
		return a.accessCount < b.accessCount
	}
	return a.seq < b.seq
}

func lessFIFO[V any](a, b *entry[V]) bool {
	if !a.createdAt.Equal(b.createdAt) {
		return a.createdAt.Before(b.createdAt)
	}
	return a.writeTick < b.writeTick
}
