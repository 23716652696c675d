package lister

import (
	"errors"
	"fmt"
	"strings"
)

// HTTPStatusError 表示列表端点返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	u := strings.TrimSpace(e.URL)
	if u == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d url=%s", e.StatusCode, u)
}

// Error 给底层错误带上 lister 名字，便于日志定位是哪种列表源失败。
type Error struct {
	Lister string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "lister error"
	}
	if e.Err == nil {
		return e.Lister
	}
	return e.Lister + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Kind 把错误归一为稳定的指标/日志标签。
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return "http_status"
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return "decode"
	}
	return "transport"
}

// DecodeError 表示响应是 2xx，但正文无法解析成目录列表。
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	if e == nil || e.Err == nil {
		return "decode listing"
	}
	return "decode listing: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
