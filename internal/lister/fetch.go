package lister

import (
	"context"
	"errors"
	"io"
	"net/http"
)

// maxListingBytes 限制单次列表响应体大小；目录列表远小于该值。
const maxListingBytes = 8 << 20

// Fetch 发出一次 GET 并读取完整响应体。
//
// 规则：
// - 非 2xx 返回 *HTTPStatusError（不读 body）
// - header 中的值会覆盖默认请求头（例如 Accept、Authorization）
func Fetch(ctx context.Context, c *http.Client, u string, header http.Header) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client 不能为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxListingBytes))
}
