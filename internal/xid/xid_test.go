package xid

import (
	"strconv"
	"testing"
	"time"
)

func TestNextIsStrictlyIncreasingWithFrozenClock(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	g := NewGenerator(func() time.Time { return frozen })

	prev := int64(0)
	for i := 0; i < 50; i++ {
		id, err := strconv.ParseInt(g.Next(), 10, 64)
		if err != nil {
			t.Fatalf("expected numeric id, got error %v", err)
		}
		if id <= prev {
			t.Fatalf("expected id %d to be greater than %d", id, prev)
		}
		prev = id
	}
	if prev != 1_700_000_000_049 {
		t.Fatalf("expected last id 1700000000049, got %d", prev)
	}
}

func TestNextIsUniqueWithRealClock(t *testing.T) {
	g := NewGenerator(nil)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.Next()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
