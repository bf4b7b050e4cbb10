package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchCallback 文件变更回调函数，err 表示重载是否成功
type WatchCallback func(cfg Config, err error)

// Watcher 配置文件监视器，监控配置文件变更并自动重载
type Watcher struct {
	cfg      Config
	watcher  *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}

	mu      sync.Mutex
	running bool
	timer   *time.Timer
}

// WatchOption 监视器配置选项
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

// WithDebounce 设置防抖时间，默认 100ms
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watch 创建配置文件监视器
//
// 返回的 Watcher 需要调用 StartAsync() 开始监视，Stop() 停止监视。
// 只能监视从文件创建的 Config。
//
//	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
//	    if err != nil {
//	        logger.Warn(ctx, "reload failed", xlog.Err(err))
//	        return
//	    }
//	    // 使用 c.Unmarshal 读取新配置
//	})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	w.StartAsync()
func Watch(cfg Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if cfg == nil || cfg.Path() == "" {
		return nil, ErrNotReloadable
	}

	options := &watchOptions{debounce: 100 * time.Millisecond}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}

	dir := filepath.Dir(cfg.Path())
	if err := fsWatcher.Add(dir); err != nil {
		return nil, errors.Join(
			fmt.Errorf("xconf: watch directory %s: %w", dir, err),
			fsWatcher.Close(),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		cfg:      cfg,
		watcher:  fsWatcher,
		callback: callback,
		debounce: options.debounce,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// StartAsync 在后台 goroutine 中开始监视，重复调用无效果
func (w *Watcher) StartAsync() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.ctx.Err() != nil {
		return
	}
	w.running = true
	go w.run()
}

// Stop 停止监视并等待后台 goroutine 退出，可重复调用
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.ctx.Err() != nil {
		w.mu.Unlock()
		return nil
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	running := w.running
	w.cancel()
	w.mu.Unlock()

	err := w.watcher.Close()
	if running {
		<-w.done
	}
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	filename := filepath.Base(w.cfg.Path())

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, filename)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.callback != nil {
				w.callback(w.cfg, fmt.Errorf("xconf: watch error: %w", err))
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, filename string) {
	if filepath.Base(event.Name) != filename {
		return
	}
	// Write: 直接修改；Create/Rename: 原子写入（写临时文件后 rename）
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ctx.Err() != nil {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if w.ctx.Err() != nil {
			return
		}
		err := w.cfg.Reload()
		if w.callback != nil {
			w.callback(w.cfg, err)
		}
	})
}
