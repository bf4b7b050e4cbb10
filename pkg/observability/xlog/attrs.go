package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 Key
const (
	KeyError     = "error"
	KeyComponent = "component"
	KeyOperation = "operation"
	KeyCount     = "count"
	KeyDuration  = "duration"
)

// Err 创建错误属性，err 为 nil 时返回空属性（会被 slog 忽略）
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Component 创建组件名称属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 创建操作名称属性
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Count 创建计数属性
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Duration 创建耗时属性（人类可读格式，如 "1.5s"）
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}
