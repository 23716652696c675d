package assets

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/John-Robertt/lotshow/internal/logger"
)

// Checker 判断一个 URL 是否存在。
//
// 约束：
// - 只回答 true/false：任何错误都视为不存在（探测是尽力而为）
// - 必须尊重 ctx：探测 deadline 到期后尽快返回
type Checker interface {
	Exists(ctx context.Context, u string) bool
}

// CheckerFunc 让普通函数满足 Checker（测试常用）。
type CheckerFunc func(ctx context.Context, u string) bool

func (f CheckerFunc) Exists(ctx context.Context, u string) bool { return f(ctx, u) }

// HTTPChecker 用 HEAD 判断存在性；主机不支持 HEAD（405/501）时退回只取 1 字节的 GET。
type HTTPChecker struct {
	Client *http.Client
	Logger *slog.Logger
}

func (c HTTPChecker) Exists(ctx context.Context, u string) bool {
	code, err := c.do(ctx, http.MethodHead, u)
	if err == nil && (code == http.StatusMethodNotAllowed || code == http.StatusNotImplemented) {
		code, err = c.do(ctx, http.MethodGet, u)
	}
	if err != nil {
		if ctx.Err() == nil {
			logger.OrDiscard(c.Logger).Debug("存在性检查失败", "url", u, "err", err)
		}
		return false
	}
	return code >= 200 && code < 300
}

func (c HTTPChecker) do(ctx context.Context, method, u string) (int, error) {
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return 0, err
	}
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	// 读尽（最多 1KB）再关闭，保证连接可复用。
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
