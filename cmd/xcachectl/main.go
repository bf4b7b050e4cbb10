// xcachectl 是 xadvcache 的命令行工具，用于在合成负载下评估淘汰策略。
//
// 用法:
//
//	xcachectl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	--log-level    日志级别 debug/info/warn/error (默认: info)
//	--log-format   日志格式 text/json (默认: text)
//	--log-file     日志文件路径，设置后按大小轮转 (默认: 输出到 stderr)
//
// 命令:
//
//	simulate       对单个策略运行 Zipf 负载并输出统计
//	compare        对全部策略与 golang-lru 基线运行同一负载并对比命中率
//	watch          从配置文件构建缓存注册表，热加载配置并定期输出统计
//
// 退出码:
//
//	0: 执行成功
//	1: 执行失败
//	2: 参数错误（无效取值、缺少必需参数、未知命令等）
//
// 示例:
//
//	xcachectl simulate --strategy lfu --max-size 200 --ops 50000
//	xcachectl compare --keys 5000 --skew 1.2 --format json
//	xcachectl watch --config cache.yaml --schedule "@every 5s"
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// createApp 创建 CLI 应用。
func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xcachectl",
		Usage:     "xadvcache 淘汰策略评估工具",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 (text/json)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志文件路径，设置后启用按大小轮转",
			},
		},
		Commands: createCommands(),
		// 由 run() 统一映射退出码，禁止 urfave/cli 直接调用 os.Exit。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	app := createApp(stdout, stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := setupSignalHandler(cancel)
	defer stop()

	if err := app.Run(ctx, args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if isCLIUsageError(err) {
			fmt.Fprintf(stderr, "参数错误: %v\n", err)
			return 2
		}
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// cliUsageMarkers urfave/cli 与 flag 包产生的参数错误特征。
var cliUsageMarkers = []string{
	"flag provided but not defined",
	"invalid value",
	"No help topic for",
	"Required flag",
	"flag needs an argument",
}

// isCLIUsageError 判断错误是否来自 CLI 框架的参数解析。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, marker := range cliUsageMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
