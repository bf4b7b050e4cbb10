package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandler 第一次信号取消 ctx，第二次信号强制退出（退出码 130）。
// 返回的 stop 函数取消订阅并回收 goroutine。
func setupSignalHandler(cancel context.CancelFunc) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-done:
			return
		}
		select {
		case <-sigCh:
			signal.Stop(sigCh)
			os.Exit(130)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
