// Package xmetrics 提供统一的可观测性接口（metrics + tracing）。
//
// # 设计理念
//
// xmetrics 仅定义最小化接口，业务代码只依赖接口；具体实现可替换。
// 默认实现基于 OpenTelemetry，兼容主流可观测栈。
//
//   - Observer/Span：操作级观测（回源加载等可能失败、有耗时的操作）
//   - CacheRecorder：缓存事件计数（命中、未命中、淘汰、过期）
//
// # 使用示例
//
//	obs, _ := xmetrics.NewOTelObserver()
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xadvcache",
//		Operation: "load",
//		Kind:      xmetrics.KindClient,
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// # 指标命名
//
// 操作指标：
//   - xcachekit.operation.total
//   - xcachekit.operation.duration
//
// 缓存指标（属性 cache / strategy）：
//   - xcachekit.cache.hits
//   - xcachekit.cache.misses
//   - xcachekit.cache.evictions
//   - xcachekit.cache.expirations
package xmetrics
