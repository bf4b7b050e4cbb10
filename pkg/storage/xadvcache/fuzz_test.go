package xadvcache

import (
	"testing"
	"time"
)

func FuzzCache(f *testing.F) {
	f.Add("key1", "v", uint8(0), int64(time.Second))
	f.Add("", "", uint8(1), int64(0))
	f.Add("key2", "x", uint8(2), int64(-1))
	f.Add("key3", "y", uint8(3), int64(time.Hour))
	f.Add("key4", "z", uint8(7), int64(time.Millisecond))
	f.Add("key5", "w", uint8(0x30), int64(time.Minute))

	// 每种策略一个共享实例，op 的高位选择策略
	clk := newFakeClock()
	strategies := Strategies()
	caches := make([]*Cache[string], len(strategies))
	for i, s := range strategies {
		c, err := New(Config{MaxSize: 8, Strategy: s}, WithClock[string](clk.Now))
		if err != nil {
			f.Fatalf("New failed: %v", err)
		}
		caches[i] = c
	}

	f.Fuzz(func(t *testing.T, key, value string, op uint8, nanos int64) {
		cache := caches[int(op>>4)%len(caches)]
		switch op % 9 {
		case 0:
			cache.SetWithTTL(key, value, time.Duration(nanos))
		case 1:
			cache.Get(key)
		case 2:
			cache.Has(key)
		case 3:
			cache.Delete(key)
		case 4:
			cache.GetMetadata(key)
		case 5:
			cache.GetExpiringSoon(time.Duration(nanos))
		case 6:
			cache.InvalidateFunc(func(k string) bool { return k == key })
		case 7:
			if nanos > 0 {
				clk.Advance(time.Duration(nanos % int64(time.Hour)))
			}
		case 8:
			cache.Stats()
		}
		if n := cache.Len(); n > 8 {
			t.Fatalf("len %d exceeds max size", n)
		}
	})
}

func FuzzParseStrategy(f *testing.F) {
	f.Add("LRU")
	f.Add("lfu")
	f.Add(" fifo ")
	f.Add("")
	f.Add("unknown")

	f.Fuzz(func(t *testing.T, s string) {
		parsed, err := ParseStrategy(s)
		if err != nil {
			return
		}
		if _, err := New[int](Config{Strategy: parsed}); err != nil {
			t.Fatalf("parsed strategy %q rejected: %v", parsed, err)
		}
	})
}
