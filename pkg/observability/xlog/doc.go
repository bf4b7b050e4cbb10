// Package xlog 基于 log/slog 的结构化日志库。
//
// # 核心功能
//
//   - Builder 模式配置（输出目标、级别、格式、轮转）
//   - 动态级别调整（运行时热更新）
//   - 日志文件轮转（基于 lumberjack）
//   - Discard：丢弃全部输出的空 Logger，作为组件的默认值
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：遇到第一个配置错误后，后续 Set 操作结果被忽略）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)。
// 可通过 [ParseLevel] 从字符串解析。Level 实现 encoding.TextUnmarshaler，
// 支持配置文件直接反序列化。
//
// # 派生 Logger
//
// [Logger.With] 返回 [Logger] 接口，派生 logger 共享父级的 LevelVar，
// 动态级别变更会同步生效。
package xlog
