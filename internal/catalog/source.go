package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Source 提供 feed 的原始字节流。每次 Open 都重新读取（feed 是唯一数据源，不做缓存）。
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileSource 从本地文件读取 feed。
type FileSource struct {
	Path string
}

func (s FileSource) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(s.Path)
}

func (s FileSource) String() string { return s.Path }

// HTTPSource 从 URL 读取 feed（例如托管在资产主机上的 products.csv）。
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	c := s.Client
	if c == nil {
		c = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("feed %s: HTTP %d", s.URL, resp.StatusCode)
	}
	return resp.Body, nil
}

func (s HTTPSource) String() string { return s.URL }

// NewSource 按 feed 字符串的形态选择实现：http(s) URL 走 HTTPSource，其它视为本地路径。
func NewSource(feed string, c *http.Client) Source {
	f := strings.TrimSpace(feed)
	lower := strings.ToLower(f)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return HTTPSource{URL: f, Client: c}
	}
	return FileSource{Path: f}
}
