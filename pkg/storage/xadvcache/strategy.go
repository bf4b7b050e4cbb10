package xadvcache

import (
	"fmt"
	"strings"
)

// Strategy 淘汰策略，缓存实例创建后不可更改。
type Strategy string

const (
	// StrategyLRU 淘汰最久未访问（lastAccessedAt 最小）的条目。
	StrategyLRU Strategy = "LRU"

	// StrategyLFU 淘汰访问次数（accessCount）最少的条目。
	StrategyLFU Strategy = "LFU"

	// StrategyFIFO 淘汰最早写入（createdAt 最小）的条目。
	StrategyFIFO Strategy = "FIFO"

	// StrategyTTL 优先淘汰已过期的条目，没有过期条目时退化为 LRU。
	StrategyTTL Strategy = "TTL"
)

// Strategies 返回全部支持的策略，顺序固定。
func Strategies() []Strategy {
	return []Strategy{StrategyLRU, StrategyLFU, StrategyFIFO, StrategyTTL}
}

// ParseStrategy 解析策略名称（大小写不敏感，自动 TrimSpace）。
// 空字符串解析为默认策略 StrategyLRU。
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "LRU":
		return StrategyLRU, nil
	case "LFU":
		return StrategyLFU, nil
	case "FIFO":
		return StrategyFIFO, nil
	case "TTL":
		return StrategyTTL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// String 返回策略名称。
func (s Strategy) String() string {
	return string(s)
}

// UnmarshalText 实现 encoding.TextUnmarshaler，支持从配置文件直接解码。
func (s *Strategy) UnmarshalText(data []byte) error {
	parsed, err := ParseStrategy(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
