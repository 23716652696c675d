package cache

import (
	"sync"
	"time"
)

// TTL 保存一份带时间戳的值，过期后由调用方决定何时整体替换。
//
// 约束：
// - 值只能整体替换（Put），不提供原地修改入口
// - 过期不会清空旧值：Get 仍返回旧值，只是 fresh=false（“旧数据胜过没数据”）
// - 时钟可注入，便于测试过期逻辑
type TTL[T any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	val     T
	fetched time.Time
	ok      bool
}

// New 构造 TTL 缓存；now 为空时使用 time.Now。
func New[T any](ttl time.Duration, now func() time.Time) *TTL[T] {
	if now == nil {
		now = time.Now
	}
	return &TTL[T]{ttl: ttl, now: now}
}

// Get 返回当前值。
// ok=false 表示从未成功写入过；fresh 表示 now-fetched < ttl。
func (c *TTL[T]) Get() (v T, fresh bool, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ok {
		return v, false, false
	}
	return c.val, c.now().Sub(c.fetched) < c.ttl, true
}

// Put 整体替换值与时间戳。
func (c *TTL[T]) Put(v T) {
	now := c.now()
	c.mu.Lock()
	c.val = v
	c.fetched = now
	c.ok = true
	c.mu.Unlock()
}

// FetchedAt 返回最近一次成功写入的时间（未写入过则 ok=false）。
func (c *TTL[T]) FetchedAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetched, c.ok
}
