package httpx

import (
	"errors"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultListingTimeout = 20 * time.Second
	defaultProbeTimeout   = 10 * time.Second
)

// Transport 把“UA 池 + 代理 + keep-alive 策略 + 有界重试 + 出站限流”固化为统一策略。
//
// 设计目标：lister/prober 只负责“拼 URL + 判定结果”，不关心网络策略细节。
type Transport struct {
	Base *http.Transport

	ua *uaPool

	// RetryMax 表示最大重试次数（不含首次尝试）。探测链路固定为 0：
	// 一次网络抖动与“文件不存在”不做区分。
	RetryMax int

	// DisableKeepAlives 决定是否对 Request 设置 Close=true（额外保险）。
	DisableKeepAlives bool

	// Limiter 非空时，每次尝试前先等待令牌（对资产主机礼貌限速）。
	Limiter *rate.Limiter
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// 只对“可重放”的请求做重试：GET/HEAD 且无 body。
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 {
		max = 0
	}
	if !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		if t.Limiter != nil {
			if err := t.Limiter.Wait(req.Context()); err != nil {
				return nil, err
			}
		}

		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" && t.ua != nil {
			r.Header.Set("User-Agent", t.ua.random())
		}
		if t.DisableKeepAlives {
			r.Close = true
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			// ctx 已取消：不再重试，直接返回最后错误（更可解释）。
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// Options 是构造 client 的网络策略参数（由 config 层归一化后传入）。
type Options struct {
	ProxyURL string
	RetryMax int
	// RPS<=0 表示不限速。
	RPS   float64
	Burst int
	// Timeout 是单个请求的总超时；0 使用内置默认值。
	Timeout time.Duration
}

// NewListingClient 构造目录列表请求用的 HTTP client。
//
// 规则：
// - 列表请求本身不做退避；RetryMax 由配置决定（默认 0）
// - proxyURL 非空：走代理，且禁用 keep-alive
func NewListingClient(opts Options) (*http.Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultListingTimeout
	}
	return newClient(opts, 4)
}

// NewProbeClient 构造存在性探测用的 HTTP client。
//
// 规则：
// - 固定不重试（RetryMax 被忽略）
// - 同一主机的空闲连接上限调高：一次探测会并发打出几十上百个 HEAD
// - 每次探测运行还有自己的总 deadline（由 ctx 控制），这里的 Timeout 只是兜底
func NewProbeClient(opts Options) (*http.Client, error) {
	opts.RetryMax = 0
	if opts.Timeout <= 0 {
		opts.Timeout = defaultProbeTimeout
	}
	return newClient(opts, 64)
}

func newClient(opts Options, idlePerHost int) (*http.Client, error) {
	base := &http.Transport{
		Proxy:                 nil,
		MaxIdleConnsPerHost:   idlePerHost,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}

	disableKeepAlives := false
	proxyURL := strings.TrimSpace(opts.ProxyURL)
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		// proxy 模式强制每请求新连接（代理池轮换依赖该行为）。
		base.DisableKeepAlives = true
		disableKeepAlives = true
	}

	tr := &Transport{
		Base:              base,
		ua:                globalUA,
		RetryMax:          opts.RetryMax,
		DisableKeepAlives: disableKeepAlives,
		Limiter:           newLimiter(opts.RPS, opts.Burst),
	}
	return &http.Client{
		Transport: tr,
		Timeout:   opts.Timeout,
	}, nil
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var globalUA = newUAPool()

func newUAPool() *uaPool {
	// GitHub API 要求必须带 User-Agent；这里统一补齐。
	uas := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
