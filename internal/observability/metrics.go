package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 汇总资产发现链路的指标。
//
// 约束：
// - 所有方法对 nil 接收者安全（组件不强制依赖指标）
// - 指标注册到调用方给的 Registerer，测试用独立 registry，避免全局冲突
type Metrics struct {
	gatherer prometheus.Gatherer

	checks        *prometheus.CounterVec
	probes        *prometheus.CounterVec
	probeDuration prometheus.Histogram
	listings      *prometheus.CounterVec
	lookups       *prometheus.CounterVec
	catalogLoads  *prometheus.CounterVec
	skippedRows   prometheus.Counter
}

// NewRegistry 返回带 Go/进程采集器的独立 registry。
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New 创建并注册全部指标。reg 为 nil 时使用 NewRegistry()。
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lotshow",
			Name:      "probe_checks_total",
			Help:      "Existence checks issued against the asset host, by media kind and result.",
		}, []string{"kind", "result"}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lotshow",
			Name:      "probe_runs_total",
			Help:      "Probing runs, by outcome (found, empty, timeout).",
		}, []string{"outcome"}),
		probeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lotshow",
			Name:      "probe_duration_seconds",
			Help:      "Wall time of a probing run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
		}),
		listings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lotshow",
			Name:      "listing_refreshes_total",
			Help:      "Directory listing requests, by result.",
		}, []string{"result"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lotshow",
			Name:      "resolver_lookups_total",
			Help:      "Folder resolver lookups, by result (hit, miss) and cache state (fresh, refreshed, stale).",
		}, []string{"result", "cache"}),
		catalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lotshow",
			Name:      "catalog_loads_total",
			Help:      "Catalog feed loads, by result.",
		}, []string{"result"}),
		skippedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lotshow",
			Name:      "catalog_skipped_rows_total",
			Help:      "Feed rows skipped during parsing.",
		}),
	}
	reg.MustRegister(m.checks, m.probes, m.probeDuration, m.listings, m.lookups, m.catalogLoads, m.skippedRows)
	return m
}

// Handler 暴露 Prometheus 文本格式；nil Metrics 返回 404 handler。
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveCheck(kind string, found bool) {
	if m == nil {
		return
	}
	result := "missing"
	if found {
		result = "found"
	}
	m.checks.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveProbe(d time.Duration, found int, timedOut bool) {
	if m == nil {
		return
	}
	outcome := "found"
	switch {
	case timedOut:
		outcome = "timeout"
	case found == 0:
		outcome = "empty"
	}
	m.probes.WithLabelValues(outcome).Inc()
	m.probeDuration.Observe(d.Seconds())
}

// ObserveListing 的 result 取值见 lister.Kind（ok/http_status/decode/transport）。
func (m *Metrics) ObserveListing(result string) {
	if m == nil {
		return
	}
	m.listings.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveLookup(hit bool, cache string) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.WithLabelValues(result, cache).Inc()
}

func (m *Metrics) ObserveCatalog(ok bool, skipped int) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "degraded"
	}
	m.catalogLoads.WithLabelValues(result).Inc()
	if skipped > 0 {
		m.skippedRows.Add(float64(skipped))
	}
}
