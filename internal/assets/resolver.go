package assets

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/John-Robertt/lotshow/internal/domain"
	"github.com/John-Robertt/lotshow/internal/infra/cache"
	"github.com/John-Robertt/lotshow/internal/lister"
	"github.com/John-Robertt/lotshow/internal/logger"
	"github.com/John-Robertt/lotshow/internal/observability"
)

// DefaultCacheTTL 是目录映射的默认有效期。
const DefaultCacheTTL = time.Hour

// ResolverOptions 是 Resolver 的可注入依赖。
type ResolverOptions struct {
	TTL     time.Duration
	Now     func() time.Time
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Resolver 把 LOT 标识解析为资产主机上的真实目录名。
//
// 约束：
// - 缓存新鲜时不发请求
// - 缓存过期/不存在时只发一次列表请求；并发调用方共享同一次请求（singleflight）
// - 列表失败时保留旧缓存（时间戳不前移），没有旧缓存则返回空映射；失败不向调用方传播
type Resolver struct {
	lister  lister.Lister
	cache   *cache.TTL[domain.FolderMapping]
	group   singleflight.Group
	log     *slog.Logger
	metrics *observability.Metrics
}

func NewResolver(l lister.Lister, opts ResolverOptions) *Resolver {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Resolver{
		lister:  l,
		cache:   cache.New[domain.FolderMapping](ttl, opts.Now),
		log:     logger.OrDiscard(opts.Logger),
		metrics: opts.Metrics,
	}
}

// Resolve 返回 lot 对应的目录名；ok=false 表示映射中没有该 lot。
func (r *Resolver) Resolve(ctx context.Context, lot domain.LotID) (string, bool) {
	m, state := r.mapping(ctx)
	folder, ok := m[lot]
	r.metrics.ObserveLookup(ok, state)
	return folder, ok
}

// Mapping 返回当前映射（按需刷新）。返回值只读：它与缓存共享底层 map。
func (r *Resolver) Mapping(ctx context.Context) domain.FolderMapping {
	m, _ := r.mapping(ctx)
	return m
}

// mapping 返回映射与缓存状态：fresh（命中新鲜缓存）、refreshed（本次刷新成功）、stale（刷新失败回退）。
func (r *Resolver) mapping(ctx context.Context) (domain.FolderMapping, string) {
	if m, fresh, ok := r.cache.Get(); ok && fresh {
		return m, "fresh"
	}

	v, _, _ := r.group.Do("listing", func() (any, error) {
		// 等待期间可能已有其它调用方刷新完成。
		if m, fresh, ok := r.cache.Get(); ok && fresh {
			return result{m: m, state: "fresh"}, nil
		}
		// 共享请求不跟随单个调用方取消；超时由 listing client 兜底。
		return r.refresh(context.WithoutCancel(ctx)), nil
	})
	res := v.(result)
	return res.m, res.state
}

type result struct {
	m     domain.FolderMapping
	state string
}

func (r *Resolver) refresh(ctx context.Context) result {
	start := time.Now()
	entries, err := r.lister.List(ctx)
	r.metrics.ObserveListing(lister.Kind(err))
	if err != nil {
		old, _, ok := r.cache.Get()
		attrs := []any{
			"lister", r.lister.Name(),
			"kind", lister.Kind(err),
			"has_cache", ok,
			"err", err,
		}
		if at, ok := r.cache.FetchedAt(); ok {
			attrs = append(attrs, "cache_age", time.Since(at).Round(time.Second))
		}
		r.log.Warn("目录列表获取失败，使用旧映射", attrs...)
		if !ok {
			old = domain.FolderMapping{}
		}
		return result{m: old, state: "stale"}
	}

	m := domain.BuildFolderMapping(entries)
	r.cache.Put(m)
	r.log.Debug("目录映射已刷新",
		"lister", r.lister.Name(),
		"entries", len(entries),
		"folders", len(m),
		"elapsed", time.Since(start),
	)
	return result{m: m, state: "refreshed"}
}
