package main

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/omeyang/xcachekit/pkg/storage/xadvcache"
)

// workload 描述一次合成负载：键按 Zipf 分布抽取，读未命中时回填。
type workload struct {
	Ops        int
	Keys       uint64
	Skew       float64
	Seed       uint64
	WriteRatio float64
	Step       time.Duration
}

func (w workload) validate() error {
	switch {
	case w.Ops <= 0:
		return newUsageError("--ops 必须大于 0")
	case w.Keys < 2:
		return newUsageError("--keys 必须至少为 2")
	case w.Skew <= 1:
		return newUsageError("--skew 必须大于 1")
	case w.WriteRatio < 0 || w.WriteRatio > 1:
		return newUsageError("--write-ratio 必须在 [0, 1] 内")
	case w.Step < 0:
		return newUsageError("--step 不能为负")
	}
	return nil
}

// outcome 一次负载运行的结果，由负载侧统计，与目标实现无关。
type outcome struct {
	Target  string  `json:"target"`
	Reads   int     `json:"reads"`
	Writes  int     `json:"writes"`
	Hits    int     `json:"hits"`
	Misses  int     `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// target 负载作用的缓存。
type target interface {
	Name() string
	// Read 读取 key，未命中时回填，返回是否命中。
	Read(ctx context.Context, key string) (bool, error)
	Write(key string, value int)
}

// run 在 t 上执行负载。clock 非 nil 时每个操作后推进 Step。
func (w workload) run(ctx context.Context, t target, clock *simClock) (outcome, error) {
	out := outcome{Target: t.Name()}

	r := rand.New(rand.NewPCG(w.Seed, w.Seed^0x9e3779b97f4a7c15))
	zipf := rand.NewZipf(r, w.Skew, 1, w.Keys-1)

	for i := range w.Ops {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return out, err
			}
		}

		key := "key:" + strconv.FormatUint(zipf.Uint64(), 10)
		if r.Float64() < w.WriteRatio {
			t.Write(key, i)
			out.Writes++
		} else {
			hit, err := t.Read(ctx, key)
			if err != nil {
				return out, err
			}
			out.Reads++
			if hit {
				out.Hits++
			} else {
				out.Misses++
			}
		}

		if clock != nil {
			clock.Advance(w.Step)
		}
	}

	if out.Reads > 0 {
		out.HitRate = float64(out.Hits) / float64(out.Reads) * 100
	}
	return out, nil
}

// =============================================================================
// 模拟时钟
// =============================================================================

// simClock 负载驱动的逻辑时钟，使 TTL 行为与运行速度无关。
type simClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSimClock() *simClock {
	return &simClock{now: time.Unix(0, 0).UTC()}
}

func (c *simClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *simClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// =============================================================================
// 负载目标
// =============================================================================

// cacheTarget 通过 GetOrLoad 回填的 xadvcache 目标。
type cacheTarget struct {
	cache *xadvcache.Cache[int]
	ttl   time.Duration
}

func (t *cacheTarget) Name() string {
	return t.cache.Config().Strategy.String()
}

func (t *cacheTarget) Read(ctx context.Context, key string) (bool, error) {
	// Has 不计入访问记录，命中与否由随后的 GetOrLoad 记录
	hit := t.cache.Has(key)
	if _, err := t.cache.GetOrLoad(ctx, key, loadKey, xadvcache.WithLoadTTL(t.ttl)); err != nil {
		return false, err
	}
	return hit, nil
}

func (t *cacheTarget) Write(key string, value int) {
	t.cache.SetWithTTL(key, value, t.ttl)
}

// shardedTarget 分片缓存目标。
type shardedTarget struct {
	cache *xadvcache.Sharded[int]
	ttl   time.Duration
}

func (t *shardedTarget) Name() string {
	return t.cache.Stats().Strategy.String() + "/sharded"
}

func (t *shardedTarget) Read(_ context.Context, key string) (bool, error) {
	if _, ok := t.cache.Get(key); ok {
		return true, nil
	}
	t.cache.SetWithTTL(key, len(key), t.ttl)
	return false, nil
}

func (t *shardedTarget) Write(key string, value int) {
	t.cache.SetWithTTL(key, value, t.ttl)
}

// lruBaseline hashicorp/golang-lru 基线，不支持 TTL。
type lruBaseline struct {
	cache *lru.Cache[string, int]
}

func newLRUBaseline(size int) (*lruBaseline, error) {
	c, err := lru.New[string, int](size)
	if err != nil {
		return nil, err
	}
	return &lruBaseline{cache: c}, nil
}

func (b *lruBaseline) Name() string {
	return "golang-lru"
}

func (b *lruBaseline) Read(_ context.Context, key string) (bool, error) {
	if _, ok := b.cache.Get(key); ok {
		return true, nil
	}
	b.cache.Add(key, len(key))
	return false, nil
}

func (b *lruBaseline) Write(key string, value int) {
	b.cache.Add(key, value)
}

// ristrettoBaseline ristretto 基线：TinyLFU 准入加 SampledLFU 淘汰，每个条目成本为 1。
type ristrettoBaseline struct {
	cache *ristretto.Cache[string, int]
}

func newRistrettoBaseline(size int) (*ristrettoBaseline, error) {
	if size <= 0 {
		size = xadvcache.DefaultMaxSize
	}
	// 成本按条目数计，不叠加内部结构开销
	c, err := ristretto.NewCache(&ristretto.Config[string, int]{
		NumCounters:        int64(size) * 10,
		MaxCost:            int64(size),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &ristrettoBaseline{cache: c}, nil
}

func (b *ristrettoBaseline) Name() string {
	return "ristretto"
}

func (b *ristrettoBaseline) Read(_ context.Context, key string) (bool, error) {
	if _, ok := b.cache.Get(key); ok {
		return true, nil
	}
	b.set(key, len(key))
	return false, nil
}

func (b *ristrettoBaseline) Write(key string, value int) {
	b.set(key, value)
}

// set 写入后等待缓冲区落地，使下一次读取可见。
func (b *ristrettoBaseline) set(key string, value int) {
	b.cache.Set(key, value, 1)
	b.cache.Wait()
}

func (b *ristrettoBaseline) Close() {
	b.cache.Close()
}

// loadKey 模拟回源，值为键长度。
func loadKey(_ context.Context, key string) (int, error) {
	return len(key), nil
}
