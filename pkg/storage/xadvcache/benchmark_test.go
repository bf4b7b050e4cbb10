package xadvcache

import (
	"fmt"
	"testing"
)

// =============================================================================
// 基本操作基准测试
// =============================================================================

func BenchmarkCache_Get(b *testing.B) {
	cache, err := New[int](Config{MaxSize: 1000})
	if err != nil {
		b.Fatal(err)
	}
	cache.Set("benchmark_key", 42)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		_, _ = cache.Get("benchmark_key")
	}
}

func BenchmarkCache_Set(b *testing.B) {
	cache, err := New[int](Config{MaxSize: 10000})
	if err != nil {
		b.Fatal(err)
	}
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key_%d", i)
	}

	b.ReportAllocs()
	b.ResetTimer()
	i := 0
	for b.Loop() {
		cache.Set(keys[i%len(keys)], i)
		i++
	}
}

// =============================================================================
// 淘汰基准测试
// =============================================================================

func BenchmarkCache_SetWithEviction(b *testing.B) {
	for _, s := range Strategies() {
		for _, size := range []int{100, 1000} {
			b.Run(fmt.Sprintf("%s/%d", s, size), func(b *testing.B) {
				cache, err := New[int](Config{MaxSize: size, Strategy: s})
				if err != nil {
					b.Fatal(err)
				}
				b.ReportAllocs()
				b.ResetTimer()
				i := 0
				for b.Loop() {
					cache.Set(fmt.Sprintf("k%d", i), i)
					i++
				}
			})
		}
	}
}

func BenchmarkSharded_SetWithEviction(b *testing.B) {
	s, err := NewSharded[int](Config{MaxSize: 1000}, 16)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	i := 0
	for b.Loop() {
		s.Set(fmt.Sprintf("k%d", i), i)
		i++
	}
}

// =============================================================================
// 并发基准测试
// =============================================================================

func BenchmarkCache_GetParallel(b *testing.B) {
	cache, err := New[int](Config{MaxSize: 1000})
	if err != nil {
		b.Fatal(err)
	}
	for i := range 1000 {
		cache.Set(fmt.Sprintf("k%d", i), i)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = cache.Get(fmt.Sprintf("k%d", i%1000))
			i++
		}
	})
}
