package run

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/lotshow/internal/assets"
	"github.com/John-Robertt/lotshow/internal/catalog"
	"github.com/John-Robertt/lotshow/internal/domain"
)

const (
	// DefaultWorkers 是同时探测的 LOT 数。
	DefaultWorkers = 4
	// MaxWorkers 是 workers 的上限（每个 LOT 内部还有自己的并发）。
	MaxWorkers = 32

	// ErrCodeCanceled 表示扫描被取消时尚未开始的 LOT。
	ErrCodeCanceled = "canceled"
)

// CatalogLoader 提供商品列表。
type CatalogLoader interface {
	Load(ctx context.Context) catalog.Result
}

// MediaLookup 把 lot 解析成媒体视图。
type MediaLookup interface {
	Lookup(ctx context.Context, lot domain.LotID) assets.Gallery
}

// FolderMapper 是可选依赖：扫描前预热目录映射，并在 listing 阶段报告目录数。
type FolderMapper interface {
	Mapping(ctx context.Context) domain.FolderMapping
}

type Deps struct {
	Catalog CatalogLoader
	Media   MediaLookup
	Folders FolderMapper
}

type Options struct {
	Workers int
	// Feed / AssetBase 只用于写进报告，方便事后追溯。
	Feed      string
	AssetBase string
}

func (o Options) workers() int {
	w := o.Workers
	if w <= 0 {
		w = DefaultWorkers
	}
	if w > MaxWorkers {
		w = MaxWorkers
	}
	return w
}

// Execute 对 feed 中每个 LOT 做一次完整探测，返回对外稳定的 ScanReport。
// 单个 LOT 的结果不影响其他 LOT；feed 不可用时报告里只有一条合成失败条目。
func Execute(ctx context.Context, deps Deps, opts Options, obs Observer) domain.ScanReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(opts)
	}

	rr := domain.ScanReport{
		RunID:     uuid.NewString(),
		Feed:      opts.Feed,
		AssetBase: opts.AssetBase,
		StartedAt: started,
		Items:     make([]domain.LotResult, 0, 64),
	}

	catStarted := time.Now()
	cr := deps.Catalog.Load(ctx)
	if obs != nil {
		obs.OnPhaseDone("catalog", map[string]any{
			"products": len(cr.Products),
			"skipped":  cr.Skipped,
			"degraded": cr.Degraded,
		}, time.Since(catStarted))
	}
	rr.SkippedRows = cr.Skipped

	if cr.Degraded {
		rr.Items = append(rr.Items, domain.LotResult{
			Status:    domain.StatusFailed,
			ErrorCode: domain.ErrCodeCatalogUnavailable,
			ErrorMsg:  fmt.Sprintf("无法读取或解析 feed：%s", opts.Feed),
		})
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}

	if deps.Folders != nil {
		listStarted := time.Now()
		m := deps.Folders.Mapping(ctx)
		if obs != nil {
			obs.OnPhaseDone("listing", map[string]any{
				"folders": len(m),
			}, time.Since(listStarted))
		}
	}

	workers := opts.workers()
	products := cr.Products

	if obs != nil {
		obs.OnPhaseDone("exec", map[string]any{
			"workers":     workers,
			"total_items": len(products),
		}, 0)
	}

	type execResult struct {
		lot domain.LotID
		res domain.LotResult
		dur time.Duration
	}

	jobs := make(chan domain.Product)
	results := make(chan execResult, len(products))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				oneStarted := time.Now()
				r := execOne(ctx, deps.Media, p)
				results <- execResult{
					lot: p.Lot,
					res: r,
					dur: time.Since(oneStarted),
				}
			}
		}()
	}

	go func() {
		for _, p := range products {
			jobs <- p
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	done := 0
	for it := range results {
		done++
		rr.Items = append(rr.Items, it.res)
		if obs != nil {
			obs.OnItemDone(done, len(products), it.lot, it.res, it.dur)
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func execOne(ctx context.Context, media MediaLookup, p domain.Product) domain.LotResult {
	item := domain.LotResult{
		Lot:  p.Lot.String(),
		Name: p.OfficialName,
	}

	// 取消后不再发起新的探测；已在进行中的由 Prober 自己的 ctx 处理。
	if err := ctx.Err(); err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = ErrCodeCanceled
		item.ErrorMsg = err.Error()
		return item
	}

	g := media.Lookup(ctx, p.Lot)
	item.Folder = g.Folder
	item.TimedOut = g.TimedOut

	switch {
	case g.Folder == "":
		item.Status = domain.StatusNoFolder
		item.ErrorCode = domain.ErrCodeFolderNotFound
		item.ErrorMsg = fmt.Sprintf("资产主机上没有以 %s_ 开头的目录", p.Lot)
	case g.Empty():
		item.Status = domain.StatusEmpty
		item.ErrorCode = domain.ErrCodeNoMedia
		item.ErrorMsg = "目录存在但没有探测到任何媒体"
		if g.TimedOut {
			item.ErrorMsg += "（探测超时，结果可能不完整）"
		}
	default:
		item.Status = domain.StatusOK
		if g.HasThumbnail {
			item.Thumbnail = g.Thumbnail
		}
		item.Images = urls(g.Images)
		item.Videos = urls(g.Videos)
	}
	return item
}

func urls(items []domain.MediaItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.URL)
	}
	return out
}
