// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，支持文件轮转
//   - xmetrics: 缓存事件指标与回源追踪，基于 OpenTelemetry
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 默认实现为空操作，未配置时零开销
//   - 支持动态级别控制
package observability
