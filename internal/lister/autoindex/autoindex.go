package autoindex

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/lotshow/internal/domain"
	"github.com/John-Robertt/lotshow/internal/lister"
)

// Name 是该 lister 在注册表与配置中的名字。
const Name = "autoindex"

// Lister 读取静态文件服务器生成的 HTML 目录索引（nginx autoindex、Apache mod_autoindex、python http.server）。
//
// 规则：
// - 只看 a[href]；href 以 "/" 结尾视为目录，名字取去掉末尾 "/" 并反转义后的 href
// - 忽略上级目录、绝对 URL、带 query/fragment 的链接（Apache 的排序链接）
type Lister struct {
	URL    string
	Client *http.Client
}

func (Lister) Name() string { return Name }

func (l Lister) List(ctx context.Context) ([]domain.DirEntry, error) {
	u := strings.TrimSpace(l.URL)
	if u == "" {
		return nil, &lister.Error{Lister: Name, Err: errors.New("listing url 不能为空")}
	}
	b, err := lister.Fetch(ctx, l.Client, u, http.Header{"Accept": {"text/html"}})
	if err != nil {
		return nil, &lister.Error{Lister: Name, Err: err}
	}
	entries, err := Parse(b)
	if err != nil {
		return nil, &lister.Error{Lister: Name, Err: &lister.DecodeError{URL: u, Err: err}}
	}
	return entries, nil
}

// Parse 从目录索引 HTML 中提取条目（纯函数，保持文档顺序，同名只保留首次出现）。
func Parse(html []byte) ([]domain.DirEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	var out []domain.DirEntry
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		e, ok := entryFromHref(href)
		if !ok || seen[e.Name] {
			return
		}
		seen[e.Name] = true
		out = append(out, e)
	})
	return out, nil
}

func entryFromHref(href string) (domain.DirEntry, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "?") {
		return domain.DirEntry{}, false
	}
	u, err := url.Parse(href)
	if err != nil {
		return domain.DirEntry{}, false
	}
	if u.IsAbs() || u.Host != "" || u.RawQuery != "" || u.Fragment != "" {
		return domain.DirEntry{}, false
	}

	p := strings.TrimPrefix(u.Path, "./")
	if p == "" || strings.HasPrefix(p, "/") || strings.HasPrefix(p, "..") {
		return domain.DirEntry{}, false
	}
	isDir := strings.HasSuffix(p, "/")
	name := strings.TrimSuffix(p, "/")
	// 只接受当前目录的直接子项。
	if name == "" || strings.Contains(name, "/") {
		return domain.DirEntry{}, false
	}
	return domain.DirEntry{Name: name, IsDir: isDir}, true
}
