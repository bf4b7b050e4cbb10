// Package xconf 提供配置加载、反序列化与热重载，基于 koanf 实现。
//
// # 设计理念
//
// xconf 定位为最小化配置加载器，负责文件/字节数据的加载、反序列化和热重载，
// 不负责配置治理（必选字段校验、默认值注入），这些由使用方（如 xadvcache.RegistryConfig）处理。
//
//   - 工厂函数：New, NewFromBytes
//   - Client() 暴露底层 koanf 实例
//   - 增值功能：并发安全的 Reload、带 koanf 标签的 Unmarshal、基于 fsnotify 的 Watch
//
// # 支持的格式
//
//   - YAML（默认，推荐）：.yaml, .yml
//   - JSON：.json
//
// # 时间间隔
//
// Unmarshal 使用 koanf 默认的 mapstructure 解码钩子，"30s"、"1h" 等字符串
// 可直接解码为 time.Duration 字段。
//
// # 热重载
//
// Watch 监视配置文件所在目录（而非文件本身），以兼容编辑器"写临时文件再 rename"的保存方式；
// 多次变更在防抖窗口内只触发一次 Reload。
package xconf
