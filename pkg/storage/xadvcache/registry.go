package xadvcache

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/omeyang/xcachekit/pkg/config/xconf"
)

// =============================================================================
// Registry 配置
// =============================================================================

// CacheConfig 描述 Registry 中一个具名缓存实例。
type CacheConfig struct {
	Name       string        `koanf:"name" json:"name"`
	Strategy   Strategy      `koanf:"strategy" json:"strategy"`
	MaxSize    int           `koanf:"max_size" json:"max_size"`
	DefaultTTL time.Duration `koanf:"default_ttl" json:"default_ttl"`
}

// Config 返回该实例的缓存配置。
func (c CacheConfig) Config() Config {
	return Config{MaxSize: c.MaxSize, Strategy: c.Strategy, DefaultTTL: c.DefaultTTL}
}

// RegistryConfig 描述一组具名缓存及默认别名。
//
//	default: lru
//	caches:
//	  - name: lru
//	    strategy: LRU
//	    max_size: 100
//	    default_ttl: 1h
type RegistryConfig struct {
	// Default 默认缓存名称，为空时取第一个缓存。
	Default string `koanf:"default" json:"default"`
	// Caches 缓存列表，为空时使用 DefaultRegistryConfig 的四个实例。
	Caches []CacheConfig `koanf:"caches" json:"caches"`
}

// DefaultRegistryConfig 返回每种策略各一个实例（lru/lfu/fifo/ttl，容量 100）的配置，
// 默认别名为 lru。
func DefaultRegistryConfig() RegistryConfig {
	strategies := Strategies()
	caches := make([]CacheConfig, 0, len(strategies))
	for _, s := range strategies {
		caches = append(caches, CacheConfig{
			Name:     strings.ToLower(s.String()),
			Strategy: s,
			MaxSize:  DefaultMaxSize,
		})
	}
	return RegistryConfig{Default: "lru", Caches: caches}
}

// LoadRegistryConfig 从 xconf 配置的 path 节点读取 RegistryConfig，path 为空表示根节点。
func LoadRegistryConfig(cfg xconf.Config, path string) (RegistryConfig, error) {
	var rc RegistryConfig
	if err := cfg.Unmarshal(path, &rc); err != nil {
		return RegistryConfig{}, err
	}
	return rc, nil
}

// normalize 校验名称与各实例配置，填充默认值。
func (rc RegistryConfig) normalize() (RegistryConfig, error) {
	if len(rc.Caches) == 0 {
		def := DefaultRegistryConfig()
		if rc.Default == "" {
			rc.Default = def.Default
		}
		rc.Caches = def.Caches
	}

	seen := make(map[string]struct{}, len(rc.Caches))
	for i, cc := range rc.Caches {
		if cc.Name == "" {
			return rc, fmt.Errorf("%w: caches[%d]", ErrEmptyName, i)
		}
		if _, dup := seen[cc.Name]; dup {
			return rc, fmt.Errorf("%w: %q", ErrDuplicateName, cc.Name)
		}
		seen[cc.Name] = struct{}{}
		if _, err := cc.Config().normalize(); err != nil {
			return rc, fmt.Errorf("cache %q: %w", cc.Name, err)
		}
	}

	if rc.Default == "" {
		rc.Default = rc.Caches[0].Name
	}
	if _, ok := seen[rc.Default]; !ok {
		return rc, fmt.Errorf("%w: default %q", ErrCacheNotFound, rc.Default)
	}
	return rc, nil
}

// =============================================================================
// Registry
// =============================================================================

// Registry 管理一组具名 Cache 与一个默认别名。并发安全。
type Registry[V any] struct {
	reconcileMu sync.Mutex
	mu          sync.RWMutex
	caches      map[string]*Cache[V]
	defaultName string
	opts        []Option[V]
}

// ReconcileResult 描述一次 Reconcile 的变更。各列表按名称排序。
//
// Ignored 是 Kept 的子集：声明的配置与运行中实例不同，但实例保留原配置。
// 调用方应将其视为未生效的变更，需重启或更换名称才能应用。
type ReconcileResult struct {
	Added   []string
	Removed []string
	Kept    []string
	Ignored []string
}

// NewRegistry 按配置创建全部缓存。opts 应用于每个实例，名称由配置决定。
func NewRegistry[V any](cfg RegistryConfig, opts ...Option[V]) (*Registry[V], error) {
	rc, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	r := &Registry[V]{
		caches:      make(map[string]*Cache[V], len(rc.Caches)),
		defaultName: rc.Default,
		opts:        opts,
	}
	for _, cc := range rc.Caches {
		c, err := r.build(cc)
		if err != nil {
			return nil, err
		}
		r.caches[cc.Name] = c
	}
	return r, nil
}

func (r *Registry[V]) build(cc CacheConfig) (*Cache[V], error) {
	opts := append(slices.Clone(r.opts), WithName[V](cc.Name))
	c, err := New(cc.Config(), opts...)
	if err != nil {
		return nil, fmt.Errorf("cache %q: %w", cc.Name, err)
	}
	return c, nil
}

// Get 返回指定名称的缓存，不存在时返回 ErrCacheNotFound。
func (r *Registry[V]) Get(name string) (*Cache[V], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.caches[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCacheNotFound, name)
	}
	return c, nil
}

// Default 返回默认缓存。
func (r *Registry[V]) Default() *Cache[V] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.caches[r.defaultName]
}

// DefaultName 返回默认缓存名称。
func (r *Registry[V]) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// Names 返回全部缓存名称，按字典序排列。
func (r *Registry[V]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.caches))
}

// Stats 返回每个缓存的统计快照。
func (r *Registry[V]) Stats() map[string]Stats {
	r.mu.RLock()
	caches := maps.Clone(r.caches)
	r.mu.RUnlock()

	out := make(map[string]Stats, len(caches))
	for name, c := range caches {
		out[name] = c.Stats()
	}
	return out
}

// Reconcile 将 Registry 调整为新配置：创建新增的缓存，清空并移除不再声明的缓存，
// 更新默认别名。已存在的缓存保留原有数据与配置（策略在实例生命周期内固定），
// 配置有差异的名称记录在 ReconcileResult.Ignored 中。
// 配置无效时不做任何修改。
func (r *Registry[V]) Reconcile(cfg RegistryConfig) (ReconcileResult, error) {
	rc, err := cfg.normalize()
	if err != nil {
		return ReconcileResult{}, err
	}

	r.reconcileMu.Lock()
	defer r.reconcileMu.Unlock()

	r.mu.RLock()
	current := maps.Clone(r.caches)
	r.mu.RUnlock()

	var result ReconcileResult
	added := make(map[string]*Cache[V])
	declared := make(map[string]struct{}, len(rc.Caches))
	for _, cc := range rc.Caches {
		declared[cc.Name] = struct{}{}
		if existing, ok := current[cc.Name]; ok {
			result.Kept = append(result.Kept, cc.Name)
			if want, err := cc.Config().normalize(); err == nil && want != existing.Config() {
				result.Ignored = append(result.Ignored, cc.Name)
			}
			continue
		}
		c, err := r.build(cc)
		if err != nil {
			return ReconcileResult{}, err
		}
		added[cc.Name] = c
		result.Added = append(result.Added, cc.Name)
	}

	var removed []*Cache[V]
	r.mu.Lock()
	for name, c := range r.caches {
		if _, ok := declared[name]; !ok {
			delete(r.caches, name)
			removed = append(removed, c)
			result.Removed = append(result.Removed, name)
		}
	}
	maps.Copy(r.caches, added)
	r.defaultName = rc.Default
	r.mu.Unlock()

	for _, c := range removed {
		c.Clear()
	}

	slices.Sort(result.Added)
	slices.Sort(result.Removed)
	slices.Sort(result.Kept)
	slices.Sort(result.Ignored)
	return result, nil
}
