package assets

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/lotshow/internal/domain"
	"github.com/John-Robertt/lotshow/internal/logger"
	"github.com/John-Robertt/lotshow/internal/observability"
)

const (
	DefaultProbeTimeout     = 5 * time.Second
	DefaultThumbnailTimeout = 3 * time.Second
	DefaultConcurrency      = 16

	// OrderSorted 按 URL 字典序输出（同类内），结果可复现。
	OrderSorted = "sorted"
	// OrderDiscovery 按检查完成的先后输出（同类内）。
	OrderDiscovery = "discovery"
)

// Prober 对一个 lot 的全部候选 URL 做有界并发的存在性检查。
//
// 约束：
// - 一次探测有总 deadline：到期时仍在进行的检查视为不存在，迟到的结果丢弃
// - 永不失败：最坏情况是空结果
// - 输出顺序：缩略图 -> 图片 -> 视频；同类内按 Order
// - 每次调用相互独立，只共享 Checker（以及其底层 http.Client）
type Prober struct {
	Base     string
	Patterns Patterns
	Checker  Checker

	Timeout          time.Duration
	ThumbnailTimeout time.Duration
	Concurrency      int
	Order            string
	IncludeThumbnail bool

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Result 是一次探测的结果。
type Result struct {
	Items      []domain.MediaItem
	Candidates int
	TimedOut   bool
	Elapsed    time.Duration
}

func (p *Prober) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultProbeTimeout
	}
	return p.Timeout
}

func (p *Prober) thumbnailTimeout() time.Duration {
	if p.ThumbnailTimeout <= 0 {
		return DefaultThumbnailTimeout
	}
	return p.ThumbnailTimeout
}

func (p *Prober) concurrency() int {
	if p.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return p.Concurrency
}

// Probe 检查 folder 下的全部候选，返回确认存在的媒体。
func (p *Prober) Probe(ctx context.Context, lot domain.LotID, folder string) Result {
	start := time.Now()
	cands := p.Patterns.Candidates(p.Base, lot, folder, p.IncludeThumbnail)
	if len(cands) == 0 || p.Checker == nil {
		return Result{Candidates: len(cands), Elapsed: time.Since(start)}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	acc := &accumulator{seen: map[string]bool{}}
	done := make(chan struct{})
	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(p.concurrency())
		for _, c := range cands {
			if ctx.Err() != nil {
				acc.drop()
				break
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					acc.drop()
					return nil
				}
				found := p.Checker.Exists(ctx, c.URL)
				// deadline 之后才返回的结果一律视为不存在。
				if ctx.Err() != nil {
					acc.drop()
					return nil
				}
				p.Metrics.ObserveCheck(c.Kind, found)
				if found {
					acc.add(c)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	timedOut := false
	select {
	case <-done:
	case <-ctx.Done():
		// 两者同时就绪时以“已全部完成”为准。
		select {
		case <-done:
		default:
			timedOut = true
		}
	}

	found, dropped := acc.close()
	timedOut = timedOut || dropped
	orderCandidates(found, p.Order)
	items := make([]domain.MediaItem, 0, len(found))
	for _, c := range found {
		items = append(items, domain.MediaItem{URL: c.URL, Kind: c.Kind, Filename: c.Filename, Thumbnail: c.Thumbnail})
	}

	res := Result{Items: items, Candidates: len(cands), TimedOut: timedOut, Elapsed: time.Since(start)}
	p.Metrics.ObserveProbe(res.Elapsed, len(items), timedOut)
	logger.OrDiscard(p.Logger).Debug("探测完成",
		"lot", lot.String(),
		"folder", folder,
		"candidates", res.Candidates,
		"found", len(items),
		"timed_out", timedOut,
		"elapsed", res.Elapsed,
	)
	return res
}

var errFound = errors.New("found")

// Thumbnail 竞速检查缩略图候选：第一个命中者胜出并取消其余检查。
func (p *Prober) Thumbnail(ctx context.Context, lot domain.LotID, folder string) (string, bool) {
	cands := p.Patterns.ThumbnailCandidates(p.Base, lot, folder)
	if len(cands) == 0 || p.Checker == nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, p.thumbnailTimeout())
	defer cancel()

	var (
		mu     sync.Mutex
		winner string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())
	for _, c := range cands {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			found := p.Checker.Exists(gctx, c.URL)
			// 已有命中或超时后，其余检查的 false 不代表缺失，不计入指标。
			if gctx.Err() != nil {
				return nil
			}
			p.Metrics.ObserveCheck("thumbnail", found)
			if !found {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			if winner == "" {
				winner = c.URL
			}
			return errFound
		})
	}
	_ = g.Wait()

	mu.Lock()
	defer mu.Unlock()
	return winner, winner != ""
}

// accumulator 收集命中的候选；close 之后的写入被丢弃（迟到结果）。
type accumulator struct {
	mu      sync.Mutex
	closed  bool
	dropped bool
	seen    map[string]bool
	found   []Candidate
}

func (a *accumulator) add(c Candidate) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.seen[c.URL] {
		return
	}
	a.seen[c.URL] = true
	a.found = append(a.found, c)
}

// drop 记录有检查因 deadline 被放弃。
func (a *accumulator) drop() {
	a.mu.Lock()
	a.dropped = true
	a.mu.Unlock()
}

func (a *accumulator) close() ([]Candidate, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	out := make([]Candidate, len(a.found))
	copy(out, a.found)
	return out, a.dropped
}

func kindRank(c Candidate) int {
	switch {
	case c.Thumbnail:
		return 0
	case c.Kind == domain.MediaImage:
		return 1
	default:
		return 2
	}
}

// orderCandidates 原地排序：先按类别，再按 URL（sorted）或保持完成顺序（discovery）。
func orderCandidates(cs []Candidate, order string) {
	if order == OrderDiscovery {
		sort.SliceStable(cs, func(i, j int) bool { return kindRank(cs[i]) < kindRank(cs[j]) })
		return
	}
	sort.SliceStable(cs, func(i, j int) bool {
		ri, rj := kindRank(cs[i]), kindRank(cs[j])
		if ri != rj {
			return ri < rj
		}
		return cs[i].URL < cs[j].URL
	})
}
