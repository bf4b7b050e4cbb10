package xadvcache

// accessLogCap 每个键保留的最近访问记录条数。
const accessLogCap = 1000

// accessLog 单个键最近 accessLogCap 次访问的命中/未命中环形记录。
// hits 与缓冲区内容同步维护，命中率计算为 O(1)。
type accessLog struct {
	buf  []bool
	next int
	hits int
}

func (l *accessLog) record(hit bool) {
	if len(l.buf) < accessLogCap {
		l.buf = append(l.buf, hit)
	} else {
		if l.buf[l.next] {
			l.hits--
		}
		l.buf[l.next] = hit
		l.next = (l.next + 1) % accessLogCap
	}
	if hit {
		l.hits++
	}
}

func (l *accessLog) total() int {
	return len(l.buf)
}

func (l *accessLog) misses() int {
	return len(l.buf) - l.hits
}
