// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xadvcache: 策略可配置的泛型内存缓存，支持 TTL、访问统计、回源加载与分片
//
// 设计原则：
//   - 进程内存储，不依赖外部服务
//   - 内置可观测性（日志、指标、追踪）
package storage
