package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestTTL_FreshThenStale(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string](time.Hour, clk.Now)

	if _, _, ok := c.Get(); ok {
		t.Fatalf("未写入前不应有值")
	}

	c.Put("v1")
	v, fresh, ok := c.Get()
	if !ok || !fresh || v != "v1" {
		t.Fatalf("期望新鲜命中 v1，实际 v=%q fresh=%v ok=%v", v, fresh, ok)
	}

	clk.t = clk.t.Add(59 * time.Minute)
	if _, fresh, _ := c.Get(); !fresh {
		t.Fatalf("59 分钟内应仍新鲜")
	}

	// 恰好到期：now-fetched == ttl 视为过期。
	clk.t = clk.t.Add(time.Minute)
	v, fresh, ok = c.Get()
	if !ok || fresh {
		t.Fatalf("到期后应为 stale，实际 fresh=%v ok=%v", fresh, ok)
	}
	if v != "v1" {
		t.Fatalf("过期不应清空旧值，实际 %q", v)
	}
}

func TestTTL_PutResetsTimestamp(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[int](time.Minute, clk.Now)
	c.Put(1)

	clk.t = clk.t.Add(2 * time.Minute)
	c.Put(2)

	at, ok := c.FetchedAt()
	if !ok || !at.Equal(clk.t) {
		t.Fatalf("FetchedAt 应为最近一次 Put 时间，实际 %v", at)
	}
	if v, fresh, _ := c.Get(); v != 2 || !fresh {
		t.Fatalf("期望新值 2 且新鲜，实际 v=%d fresh=%v", v, fresh)
	}
}
