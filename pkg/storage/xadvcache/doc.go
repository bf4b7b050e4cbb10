// Package xadvcache 提供淘汰策略可配置、带 TTL 与访问统计的泛型内存缓存。
//
// # 核心特性
//
//   - 泛型值类型，键为 string
//   - 四种淘汰策略：LRU、LFU、FIFO、TTL（优先淘汰已过期条目，否则退化为 LRU）
//   - 条目级 TTL，惰性过期：仅在 Get/Has 观察到时删除，不启动后台 goroutine
//   - 每个键保留最近 1000 次访问的命中/未命中记录，用于计算命中率
//   - 批量预热（Warm）、按正则或谓词批量失效、即将过期条目查询
//   - 回源加载（GetOrLoad）：singleflight 合并并发未命中，retry-go 重试
//   - 分片缓存（Sharded）与具名实例注册表（Registry）
//
// # 配置
//
// Config 提供必需配置，零值字段使用默认值：
//   - MaxSize：最大条目数，默认 100
//   - Strategy：淘汰策略，默认 LRU
//   - DefaultTTL：默认生存时间，默认 1 小时
//
// 可选配置通过 Option 函数提供：WithName、WithClock、WithLogger、
// WithRecorder、WithObserver、WithOnEvicted。
//
// # 容量与淘汰
//
// 只有写入新键且缓存已满时才淘汰，每次恰好淘汰一个条目；覆盖已有键从不淘汰。
// 时间戳相同时按逻辑时钟裁决：LRU 比较最后一次访问的先后，FIFO 比较写入先后，
// LFU 比较首次插入先后。结果与 map 遍历顺序无关。
//
// # 设计决策
//
// 惰性过期删除条目但保留该键的访问记录，命中率因此包含已过期键的历史；
// Delete、淘汰、批量失效与 Clear 会同时删除访问记录。
// 对不存在的键调用 Get 也会记录一次未命中。
//
// Keys/Values/Len 不检查过期，可能包含已过期但尚未被观察到的条目。
//
// 淘汰回调、日志与指标在释放锁之后执行，回调中可以安全地调用缓存方法。
//
// # 已知限制
//
//   - 淘汰需要线性扫描全部条目，复杂度 O(n)；容量较大时使用 Sharded 分摊
//   - 策略在实例创建后不可更改，Registry.Reconcile 不会修改已存在实例的配置
//   - Sharded 的淘汰语义只在单个分片内成立
package xadvcache
