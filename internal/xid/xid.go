package xid

import (
	"strconv"
	"sync"
	"time"
)

// Generator hands out millisecond-timestamp ids that strictly increase even
// when called several times within the same millisecond.
type Generator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewGenerator(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}
