package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/omeyang/xcachekit/pkg/config/xconf"
	"github.com/omeyang/xcachekit/pkg/observability/xlog"
	"github.com/omeyang/xcachekit/pkg/observability/xmetrics"
	"github.com/omeyang/xcachekit/pkg/storage/xadvcache"
)

// usageError 表示参数错误，run() 将其映射为退出码 2。
type usageError struct {
	err error
}

func newUsageError(msg string) *usageError {
	return &usageError{err: errors.New(msg)}
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createSimulateCommand(),
		createCompareCommand(),
		createWatchCommand(),
	}
}

// workloadFlags 负载相关的公共参数。
func workloadFlags(defaultOps int) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "ops", Usage: "操作次数", Value: defaultOps},
		&cli.Uint64Flag{Name: "keys", Usage: "键空间大小", Value: 1000},
		&cli.FloatFlag{Name: "skew", Usage: "Zipf 偏斜参数（> 1，越大越集中）", Value: 1.1},
		&cli.Uint64Flag{Name: "seed", Usage: "随机种子", Value: 1},
		&cli.FloatFlag{Name: "write-ratio", Usage: "写操作占比 [0, 1]", Value: 0.1},
		&cli.DurationFlag{Name: "step", Usage: "每个操作推进的模拟时间", Value: time.Millisecond},
	}
}

func cacheFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "max-size", Usage: "缓存容量", Value: xadvcache.DefaultMaxSize},
		&cli.DurationFlag{Name: "ttl", Usage: "条目 TTL，0 表示缓存默认值"},
		&cli.StringFlag{Name: "format", Usage: "输出格式 (text/json)", Value: formatText},
	}
}

func workloadFromFlags(cmd *cli.Command) (workload, error) {
	w := workload{
		Ops:        cmd.Int("ops"),
		Keys:       cmd.Uint64("keys"),
		Skew:       cmd.Float("skew"),
		Seed:       cmd.Uint64("seed"),
		WriteRatio: cmd.Float("write-ratio"),
		Step:       cmd.Duration("step"),
	}
	return w, w.validate()
}

// buildLogger 按全局参数构建日志，返回的 cleanup 关闭轮转文件。
// 每次运行附带唯一的 run_id，便于在轮转文件中区分多次运行。
func buildLogger(cmd *cli.Command) (xlog.Logger, func() error, error) {
	b := xlog.New().
		SetOutput(cmd.Root().ErrWriter).
		SetLevelString(cmd.String("log-level")).
		SetFormat(cmd.String("log-format"))
	if file := cmd.String("log-file"); file != "" {
		b.SetRotation(file, xlog.RotationConfig{})
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return nil, nil, &usageError{err: err}
	}
	return logger.With(slog.String("run_id", uuid.NewString())), cleanup, nil
}

// =============================================================================
// simulate
// =============================================================================

func createSimulateCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "strategy", Usage: "淘汰策略 (LRU/LFU/FIFO/TTL)", Value: string(xadvcache.StrategyLRU)},
		&cli.IntFlag{Name: "shards", Usage: "分片数（2 的幂），1 表示不分片", Value: 1},
	}
	flags = append(flags, cacheFlags()...)
	flags = append(flags, workloadFlags(100000)...)

	return &cli.Command{
		Name:   "simulate",
		Usage:  "对单个策略运行 Zipf 负载并输出统计",
		Flags:  flags,
		Action: cmdSimulate,
	}
}

// simulateReport simulate 命令的输出。
type simulateReport struct {
	Workload workload         `json:"workload"`
	Outcome  outcome          `json:"outcome"`
	Stats    xadvcache.Stats  `json:"stats"`
	Metrics  map[string]int64 `json:"metrics"`
}

func cmdSimulate(ctx context.Context, cmd *cli.Command) error {
	w, err := workloadFromFlags(cmd)
	if err != nil {
		return err
	}
	strategy, err := xadvcache.ParseStrategy(cmd.String("strategy"))
	if err != nil {
		return &usageError{err: err}
	}
	format, err := parseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	logger, cleanup, err := buildLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.WithoutCancel(ctx)) }()

	recorder, err := xmetrics.NewOTelRecorder(xmetrics.WithMeterProvider(provider))
	if err != nil {
		return err
	}
	observer, err := xmetrics.NewOTelObserver(xmetrics.WithMeterProvider(provider))
	if err != nil {
		return err
	}

	ttl := cmd.Duration("ttl")
	cfg := xadvcache.Config{MaxSize: cmd.Int("max-size"), Strategy: strategy, DefaultTTL: ttl}
	clock := newSimClock()
	opts := []xadvcache.Option[int]{
		xadvcache.WithName[int]("simulate"),
		xadvcache.WithClock[int](clock.Now),
		xadvcache.WithLogger[int](logger),
		xadvcache.WithRecorder[int](recorder),
		xadvcache.WithObserver[int](observer),
	}

	var (
		t     target
		stats func() xadvcache.Stats
	)
	if shards := cmd.Int("shards"); shards > 1 {
		s, err := xadvcache.NewSharded(cfg, shards, opts...)
		if err != nil {
			return &usageError{err: err}
		}
		t, stats = &shardedTarget{cache: s, ttl: ttl}, s.Stats
	} else {
		c, err := xadvcache.New(cfg, opts...)
		if err != nil {
			return &usageError{err: err}
		}
		t, stats = &cacheTarget{cache: c, ttl: ttl}, c.Stats
	}

	started := time.Now()
	out, err := w.run(ctx, t, clock)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	metrics, err := collectCounters(ctx, reader)
	if err != nil {
		return err
	}

	logger.Info(ctx, "simulation finished",
		slog.String("target", out.Target),
		xlog.Count(w.Ops),
		xlog.Duration(time.Since(started)),
	)

	return writeSimulateReport(cmd.Root().Writer, format, simulateReport{
		Workload: w,
		Outcome:  out,
		Stats:    stats(),
		Metrics:  metrics,
	})
}

// =============================================================================
// compare
// =============================================================================

func createCompareCommand() *cli.Command {
	flags := append(cacheFlags(), workloadFlags(100000)...)
	return &cli.Command{
		Name:   "compare",
		Usage:  "对全部策略与 golang-lru、ristretto 基线运行同一负载并对比命中率",
		Flags:  flags,
		Action: cmdCompare,
	}
}

func cmdCompare(ctx context.Context, cmd *cli.Command) error {
	w, err := workloadFromFlags(cmd)
	if err != nil {
		return err
	}
	format, err := parseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	logger, cleanup, err := buildLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	maxSize := cmd.Int("max-size")
	ttl := cmd.Duration("ttl")

	var results []outcome
	for _, s := range xadvcache.Strategies() {
		clock := newSimClock()
		c, err := xadvcache.New(xadvcache.Config{MaxSize: maxSize, Strategy: s, DefaultTTL: ttl},
			xadvcache.WithName[int]("compare"),
			xadvcache.WithClock[int](clock.Now),
			xadvcache.WithLogger[int](logger),
		)
		if err != nil {
			return &usageError{err: err}
		}
		out, err := w.run(ctx, &cacheTarget{cache: c, ttl: ttl}, clock)
		if err != nil {
			return fmt.Errorf("compare %s: %w", s, err)
		}
		logger.Debug(ctx, "strategy finished", slog.String("target", out.Target), slog.Float64("hit_rate", out.HitRate))
		results = append(results, out)
	}

	baseline, err := newLRUBaseline(maxSize)
	if err != nil {
		return &usageError{err: err}
	}
	out, err := w.run(ctx, baseline, nil)
	if err != nil {
		return fmt.Errorf("compare %s: %w", baseline.Name(), err)
	}
	results = append(results, out)

	admission, err := newRistrettoBaseline(maxSize)
	if err != nil {
		return &usageError{err: err}
	}
	defer admission.Close()
	out, err = w.run(ctx, admission, nil)
	if err != nil {
		return fmt.Errorf("compare %s: %w", admission.Name(), err)
	}
	results = append(results, out)

	return writeOutcomes(cmd.Root().Writer, format, results)
}

// =============================================================================
// watch
// =============================================================================

func createWatchCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "注册表配置文件（yaml/json）", Required: true},
		&cli.StringFlag{Name: "config-key", Usage: "注册表配置所在节点，空表示根节点", Value: "cache"},
		&cli.StringFlag{Name: "schedule", Usage: "统计日志的 cron 表达式", Value: "@every 10s"},
		&cli.DurationFlag{Name: "interval", Usage: "两轮负载之间的间隔", Value: 100 * time.Millisecond},
		&cli.DurationFlag{Name: "duration", Usage: "运行时长，0 表示直到收到中断信号"},
		&cli.StringFlag{Name: "format", Usage: "退出时统计的输出格式 (text/json)", Value: formatText},
	}
	flags = append(flags, workloadFlags(1000)...)

	return &cli.Command{
		Name:   "watch",
		Usage:  "从配置文件构建缓存注册表，热加载配置并定期输出统计",
		Flags:  flags,
		Action: cmdWatch,
	}
}

func cmdWatch(ctx context.Context, cmd *cli.Command) error {
	w, err := workloadFromFlags(cmd)
	if err != nil {
		return err
	}
	format, err := parseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	interval := cmd.Duration("interval")
	if interval <= 0 {
		return newUsageError("--interval 必须大于 0")
	}
	logger, cleanup, err := buildLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	key := cmd.String("config-key")
	cfg, err := xconf.New(cmd.String("config"))
	if err != nil {
		return err
	}
	rc, err := xadvcache.LoadRegistryConfig(cfg, key)
	if err != nil {
		return err
	}
	reg, err := xadvcache.NewRegistry(rc, xadvcache.WithLogger[int](logger))
	if err != nil {
		return err
	}
	logger.Info(ctx, "registry ready",
		slog.Any("caches", reg.Names()),
		slog.String("default", reg.DefaultName()),
	)

	watcher, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
		reconcileRegistry(ctx, logger, reg, c, key, err)
	})
	if err != nil {
		return err
	}
	watcher.StartAsync()
	defer func() { _ = watcher.Stop() }()

	sched := cron.New()
	if _, err := sched.AddFunc(cmd.String("schedule"), func() {
		logRegistryStats(ctx, logger, reg)
	}); err != nil {
		return &usageError{err: fmt.Errorf("--schedule: %w", err)}
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	if d := cmd.Duration("duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for round := uint64(0); ; round++ {
		if err := runRound(ctx, reg, w, round); err != nil && ctx.Err() == nil {
			return err
		}
		select {
		case <-ctx.Done():
			logRegistryStats(context.WithoutCancel(ctx), logger, reg)
			return writeRegistryStats(cmd.Root().Writer, format, reg.Stats())
		case <-ticker.C:
		}
	}
}

// runRound 对注册表中每个缓存运行一轮负载，每轮使用不同的种子。
func runRound(ctx context.Context, reg *xadvcache.Registry[int], w workload, round uint64) error {
	w.Seed += round
	for _, name := range reg.Names() {
		c, err := reg.Get(name)
		if err != nil {
			// 热加载期间被移除
			continue
		}
		if _, err := w.run(ctx, &cacheTarget{cache: c}, nil); err != nil {
			return err
		}
	}
	return nil
}

// reconcileRegistry 是配置热加载回调。
func reconcileRegistry(ctx context.Context, logger xlog.Logger, reg *xadvcache.Registry[int], cfg xconf.Config, key string, reloadErr error) {
	if reloadErr != nil {
		logger.Warn(ctx, "config reload failed", xlog.Err(reloadErr))
		return
	}
	rc, err := xadvcache.LoadRegistryConfig(cfg, key)
	if err != nil {
		logger.Warn(ctx, "registry config invalid", xlog.Err(err))
		return
	}
	res, err := reg.Reconcile(rc)
	if err != nil {
		logger.Warn(ctx, "registry reconcile failed", xlog.Err(err))
		return
	}
	logger.Info(ctx, "registry reconciled",
		slog.Any("added", res.Added),
		slog.Any("removed", res.Removed),
		slog.Any("kept", res.Kept),
		slog.String("default", reg.DefaultName()),
	)
	if len(res.Ignored) > 0 {
		logger.Warn(ctx, "registry config changes ignored for existing caches",
			slog.Any("caches", res.Ignored),
		)
	}
}

func logRegistryStats(ctx context.Context, logger xlog.Logger, reg *xadvcache.Registry[int]) {
	stats := reg.Stats()
	for _, name := range reg.Names() {
		st, ok := stats[name]
		if !ok {
			continue
		}
		logger.Info(ctx, "cache stats",
			slog.String("cache", name),
			slog.String("strategy", st.Strategy.String()),
			slog.Int("size", st.Size),
			slog.Int("max_size", st.MaxSize),
			slog.Float64("hit_rate", st.HitRate),
			slog.Uint64("evictions", st.Evictions),
			slog.Uint64("expirations", st.Expirations),
		)
	}
}
