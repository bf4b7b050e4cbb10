package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xcachekit/pkg/storage/xadvcache"
)

// lockedBuffer 并发安全的 bytes.Buffer，日志可能来自后台 goroutine。
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut lockedBuffer
	code = run(append([]string{"xcachectl"}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_SimulateJSON(t *testing.T) {
	code, stdout, stderr := runCLI(t, "--log-level", "warn",
		"simulate", "--strategy", "lfu", "--max-size", "50", "--ops", "2000", "--keys", "500", "--format", "json")
	require.Equal(t, 0, code, stderr)

	var report simulateReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))

	assert.Equal(t, "LFU", report.Outcome.Target)
	assert.Equal(t, 2000, report.Outcome.Reads+report.Outcome.Writes)
	assert.Equal(t, xadvcache.StrategyLFU, report.Stats.Strategy)
	assert.Equal(t, 50, report.Stats.MaxSize)
	assert.LessOrEqual(t, report.Stats.Size, 50)
	assert.Equal(t, int64(report.Outcome.Hits), report.Metrics["xcachekit.cache.hits"])
	assert.Equal(t, int64(report.Outcome.Misses), report.Metrics["xcachekit.cache.misses"])
	assert.Equal(t, int64(report.Stats.Evictions), report.Metrics["xcachekit.cache.evictions"])
}

func TestRun_SimulateText(t *testing.T) {
	code, stdout, stderr := runCLI(t, "simulate", "--ops", "500")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "target")
	assert.Contains(t, stdout, "LRU")
	assert.Contains(t, stdout, "hit rate")
	assert.Contains(t, stderr, "simulation finished")
}

func TestRun_SimulateSharded(t *testing.T) {
	code, stdout, stderr := runCLI(t, "simulate", "--shards", "4", "--max-size", "64", "--ops", "1000", "--format", "json")
	require.Equal(t, 0, code, stderr)

	var report simulateReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, "LRU/sharded", report.Outcome.Target)
	assert.Equal(t, 64, report.Stats.MaxSize)
}

func TestRun_SimulateTTLExpires(t *testing.T) {
	code, stdout, stderr := runCLI(t, "simulate", "--strategy", "ttl", "--ttl", "50ms",
		"--step", "1ms", "--ops", "2000", "--max-size", "1000", "--format", "json")
	require.Equal(t, 0, code, stderr)

	var report simulateReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Positive(t, report.Stats.Expirations)
}

func TestRun_Compare(t *testing.T) {
	code, stdout, stderr := runCLI(t, "compare", "--max-size", "100", "--ops", "3000", "--keys", "1000", "--format", "json")
	require.Equal(t, 0, code, stderr)

	var results []outcome
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 6)

	targets := make([]string, len(results))
	for i, r := range results {
		targets[i] = r.Target
		assert.Equal(t, results[0].Reads, r.Reads, "same workload for every target")
	}
	assert.Equal(t, []string{"LRU", "LFU", "FIFO", "TTL", "golang-lru", "ristretto"}, targets)

	// 无过期时 LRU 与 golang-lru 的淘汰行为一致
	assert.Equal(t, results[0].Hits, results[4].Hits)
}

func TestRun_CompareText(t *testing.T) {
	code, stdout, stderr := runCLI(t, "compare", "--ops", "500")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "TARGET")
	assert.Contains(t, stdout, "golang-lru")
	assert.Contains(t, stdout, "ristretto")
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown strategy", []string{"simulate", "--strategy", "mru"}},
		{"bad skew", []string{"simulate", "--skew", "1"}},
		{"bad write ratio", []string{"compare", "--write-ratio", "2"}},
		{"bad format", []string{"compare", "--format", "xml"}},
		{"bad shards", []string{"simulate", "--shards", "3"}},
		{"negative size", []string{"simulate", "--max-size", "-1"}},
		{"bad log level", []string{"--log-level", "loud", "simulate", "--ops", "10"}},
		{"unknown flag", []string{"simulate", "--nope"}},
		{"watch missing config", []string{"watch"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, 2, code, stderr)
		})
	}
}

func TestRun_WatchMissingFile(t *testing.T) {
	code, _, stderr := runCLI(t, "watch", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "错误")
}

func TestRun_WatchBadSchedule(t *testing.T) {
	path := writeConfig(t, "cache:\n  caches:\n    - name: a\n")
	code, _, stderr := runCLI(t, "watch", "--config", path, "--schedule", "every sometimes", "--duration", "50ms")
	assert.Equal(t, 2, code, stderr)
}

func TestRun_WatchReloads(t *testing.T) {
	path := writeConfig(t, `
cache:
  default: hot
  caches:
    - name: hot
      strategy: LFU
      max_size: 20
`)

	type result struct {
		code           int
		stdout, stderr string
	}
	done := make(chan result, 1)
	go func() {
		code, stdout, stderr := runCLI(t, "--log-format", "json", "watch", "--config", path,
			"--duration", "2s", "--interval", "20ms", "--ops", "200", "--schedule", "@every 1s", "--format", "json")
		done <- result{code, stdout, stderr}
	}()

	time.Sleep(300 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`
cache:
  default: cold
  caches:
    - name: hot
      strategy: LFU
      max_size: 20
    - name: cold
      strategy: FIFO
      max_size: 10
`), 0o600))

	res := <-done
	require.Equal(t, 0, res.code, res.stderr)

	var stats map[string]xadvcache.Stats
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &stats))
	require.Contains(t, stats, "hot")
	require.Contains(t, stats, "cold")
	assert.Equal(t, xadvcache.StrategyLFU, stats["hot"].Strategy)
	assert.Equal(t, xadvcache.StrategyFIFO, stats["cold"].Strategy)
	assert.LessOrEqual(t, stats["hot"].Size, 20)

	assert.Contains(t, res.stderr, "registry reconciled")
	assert.Contains(t, res.stderr, "cache stats")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimLeft(content, "\n")), 0o600))
	return path
}

func TestIsCLIUsageError(t *testing.T) {
	assert.False(t, isCLIUsageError(assert.AnError))
	assert.True(t, isCLIUsageError(newUsageError(`Required flag "config" not set`)))
	assert.True(t, isCLIUsageError(newUsageError("flag provided but not defined: -x")))
}
