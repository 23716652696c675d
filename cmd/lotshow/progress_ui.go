package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/lotshow/internal/app/run"
	"github.com/John-Robertt/lotshow/internal/config"
	"github.com/John-Robertt/lotshow/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是 scan 的交互终端进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - keepalive：长时间无条目完成时也会定期输出一行
type progressUI struct {
	w   io.Writer
	eff config.EffectiveConfig

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	workers int
	total   int
	done    int
	ok      int
	empty   int
	fail    int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer, eff config.EffectiveConfig) *progressUI {
	return &progressUI{
		w:                  w,
		eff:                eff,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(opts run.Options) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	fmt.Fprintf(p.w, "[%s] lotshow scan\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	if p.eff.ConfigPath != "" {
		fmt.Fprintf(p.w, "  config: %s\n", p.eff.ConfigPath)
	}
	fmt.Fprintf(p.w, "  feed: %s\n", truncate(opts.Feed, 120))
	fmt.Fprintf(p.w, "  asset_base: %s\n", truncate(opts.AssetBase, 120))
	fmt.Fprintf(p.w, "  listing: %s %s\n", p.eff.ListingKind, truncate(p.eff.ListingURL, 120))
	fmt.Fprintf(p.w, "  github_token: %s\n", onOff(p.eff.GitHubToken != ""))
	fmt.Fprintf(p.w, "  probe: timeout=%s concurrency=%d order=%s thumbnail=%s\n",
		p.eff.ProbeTimeout, p.eff.ProbeConcurrency, p.eff.ProbeOrder, onOff(p.eff.IncludeThumbnail),
	)
	if p.eff.ProbeRPS > 0 {
		fmt.Fprintf(p.w, "  probe_rps: %g (burst %d)\n", p.eff.ProbeRPS, p.eff.ProbeBurst)
	}
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(p.eff.ProxyURL))
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "catalog":
		note := ""
		if boolField(fields, "degraded") {
			note = " degraded"
		}
		fmt.Fprintf(p.w, "商品: products=%d skipped=%d%s (%s)\n",
			intField(fields, "products"), intField(fields, "skipped"), note, formatShortDuration(dur),
		)
	case "listing":
		fmt.Fprintf(p.w, "目录: folders=%d (%s)\n",
			intField(fields, "folders"), formatShortDuration(dur),
		)
	case "exec":
		p.workers = intField(fields, "workers")
		p.total = intField(fields, "total_items")
		fmt.Fprintf(p.w, "执行: workers=%d total_items=%d\n\n", p.workers, p.total)
		if p.total > 0 && !p.tickerStarted {
			p.startTickerLocked()
		}
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnItemDone(idx, total int, lot domain.LotID, res domain.LotResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = idx
	p.total = total

	switch res.Status {
	case domain.StatusOK:
		p.ok++
	case domain.StatusFailed:
		p.fail++
	default:
		p.empty++
	}

	fmt.Fprintf(p.w, "[%d/%d] %s %s (%s)\n", idx, total, lot, formatItem(res), formatShortDuration(dur))

	p.lastPrinted = time.Now()

	// 最后一条完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.tickerStarted && p.done >= p.total {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) OnProgress(done, total, ok, empty, fail, active int, activeLots []string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, formatProgress(done, total, ok, empty, fail, active, elapsed))
	p.lastPrinted = time.Now()
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}
	stop := p.stopCh

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}

				if p.total > 0 && time.Since(p.lastPrinted) > threshold {
					active := p.workers
					remain := p.total - p.done
					if remain < active {
						active = remain
					}
					fmt.Fprintln(p.w, formatProgress(p.done, p.total, p.ok, p.empty, p.fail, active, time.Since(p.startedAt)))
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

// formatItem 渲染单个 LOT 的一行结果（不含序号与耗时）。
func formatItem(res domain.LotResult) string {
	timeout := ""
	if res.TimedOut {
		timeout = " timed_out"
	}
	switch res.Status {
	case domain.StatusOK:
		return fmt.Sprintf("OK folder=%s thumb=%s images=%d videos=%d%s",
			truncate(res.Folder, 60), yesNo(res.Thumbnail != ""), len(res.Images), len(res.Videos), timeout,
		)
	case domain.StatusEmpty:
		return fmt.Sprintf("EMPTY folder=%s %s%s", truncate(res.Folder, 60), res.ErrorCode, timeout)
	case domain.StatusNoFolder:
		return "NOFOLDER " + res.ErrorCode
	default:
		return fmt.Sprintf("FAIL %s: %s", res.ErrorCode, truncate(res.ErrorMsg, 160))
	}
}

func formatProgress(done, total, ok, empty, fail, active int, elapsed time.Duration) string {
	return fmt.Sprintf("进度: done=%d/%d ok=%d empty=%d fail=%d active=%d elapsed=%s",
		done, total, ok, empty, fail, active, formatElapsed(elapsed),
	)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	default:
		return 0
	}
}

func boolField(fields map[string]any, key string) bool {
	v, _ := fields[key].(bool)
	return v
}
