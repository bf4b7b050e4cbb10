package xadvcache

import "errors"

// =============================================================================
// 配置错误
// =============================================================================

var (
	// ErrInvalidMaxSize 表示 MaxSize 为负数。
	ErrInvalidMaxSize = errors.New("xadvcache: max size must not be negative")

	// ErrUnknownStrategy 表示无法识别的淘汰策略。
	ErrUnknownStrategy = errors.New("xadvcache: unknown eviction strategy")

	// ErrInvalidTTL 表示默认 TTL 为负数。
	ErrInvalidTTL = errors.New("xadvcache: default TTL must not be negative")

	// ErrInvalidShardCount 表示分片数不是正的 2 的幂。
	ErrInvalidShardCount = errors.New("xadvcache: shard count must be a positive power of two")
)

// =============================================================================
// Registry 错误
// =============================================================================

var (
	// ErrCacheNotFound 表示 Registry 中不存在指定名称的缓存。
	ErrCacheNotFound = errors.New("xadvcache: cache not found")

	// ErrEmptyName 表示缓存名称为空。
	ErrEmptyName = errors.New("xadvcache: empty cache name")

	// ErrDuplicateName 表示配置中出现重复的缓存名称。
	ErrDuplicateName = errors.New("xadvcache: duplicate cache name")
)

// =============================================================================
// 回源加载错误
// =============================================================================

var (
	// ErrNilLoader 表示 loader 函数为 nil。
	ErrNilLoader = errors.New("xadvcache: nil loader function")

	// ErrLoadFailed 表示回源加载失败（重试耗尽或不可重试错误）。
	ErrLoadFailed = errors.New("xadvcache: load failed")

	// ErrLoadPanic 表示 loader 发生了 panic，已被恢复并转为错误，不会重试。
	ErrLoadPanic = errors.New("xadvcache: load function panicked")
)
