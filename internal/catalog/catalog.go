package catalog

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/John-Robertt/lotshow/internal/domain"
	"github.com/John-Robertt/lotshow/internal/logger"
	"github.com/John-Robertt/lotshow/internal/observability"
)

const (
	// FeaturedRating 是首页主推区的评分。
	FeaturedRating = 7
	// CarouselRating 是首页轮播区的评分。
	CarouselRating = 6
	// CarouselMax 是轮播区最多展示的条目数。
	CarouselMax = 10
)

// Catalog 每次 Load 都从 Source 重新解析 feed。
type Catalog struct {
	Source  Source
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Result 是一次加载的结果。
type Result struct {
	Products []domain.Product
	Skipped  int
	// Degraded 表示 feed 无法读取/解析，Products 为空。
	Degraded bool
}

// Load 读取并解析 feed。失败不向上传播：返回空列表并标记 Degraded。
func (c *Catalog) Load(ctx context.Context) Result {
	log := logger.OrDiscard(c.Logger)
	start := time.Now()

	if c.Source == nil {
		log.Warn("未配置 feed 来源")
		c.Metrics.ObserveCatalog(false, 0)
		return Result{Products: []domain.Product{}, Degraded: true}
	}

	rc, err := c.Source.Open(ctx)
	if err != nil {
		log.Warn("读取 feed 失败", "feed", c.Source.String(), "err", err)
		c.Metrics.ObserveCatalog(false, 0)
		return Result{Products: []domain.Product{}, Degraded: true}
	}
	defer rc.Close()

	pr, err := Parse(rc)
	if err != nil {
		log.Warn("解析 feed 失败", "feed", c.Source.String(), "err", err)
		c.Metrics.ObserveCatalog(false, 0)
		return Result{Products: []domain.Product{}, Degraded: true}
	}

	c.Metrics.ObserveCatalog(true, pr.Skipped)
	log.Debug("feed 已加载",
		"feed", c.Source.String(),
		"products", len(pr.Products),
		"skipped", pr.Skipped,
		"elapsed", time.Since(start),
	)
	return Result{Products: pr.Products, Skipped: pr.Skipped}
}

// Find 按 LOT 查找商品。
func Find(ps []domain.Product, lot domain.LotID) (domain.Product, bool) {
	for _, p := range ps {
		if p.Lot == lot {
			return p, true
		}
	}
	return domain.Product{}, false
}

// WithRating 返回评分等于 r 的商品（保持输入顺序）。
func WithRating(ps []domain.Product, r int) []domain.Product {
	return filter(ps, func(p domain.Product) bool { return p.Rating == r })
}

// WithCategory 返回分类匹配的商品（忽略大小写与首尾空白）。
func WithCategory(ps []domain.Product, category string) []domain.Product {
	want := strings.TrimSpace(category)
	return filter(ps, func(p domain.Product) bool {
		return strings.EqualFold(strings.TrimSpace(p.Category), want)
	})
}

// Featured 返回主推区商品。
func Featured(ps []domain.Product) []domain.Product {
	return WithRating(ps, FeaturedRating)
}

// Carousel 返回轮播区商品（最多 CarouselMax 个）。
func Carousel(ps []domain.Product) []domain.Product {
	out := WithRating(ps, CarouselRating)
	if len(out) > CarouselMax {
		out = out[:CarouselMax]
	}
	return out
}

// Categories 返回去重排序后的非空分类。
func Categories(ps []domain.Product) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, p := range ps {
		c := strings.TrimSpace(p.Category)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func filter(ps []domain.Product, keep func(domain.Product) bool) []domain.Product {
	out := []domain.Product{}
	for _, p := range ps {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
