package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/John-Robertt/lotshow/internal/domain"
	"github.com/John-Robertt/lotshow/internal/lister"
)

// Name 是该 lister 在注册表与配置中的名字。
const Name = "github"

// Lister 读取 GitHub contents API 的目录列表：
// GET https://api.github.com/repos/<owner>/<repo>/contents[/<path>]
//
// 约束：
// - 只关心 name 与 type；type=="dir" 视为目录
// - Token 非空时带 Bearer 认证（提高速率上限），为空时匿名访问
type Lister struct {
	URL    string
	Token  string
	Client *http.Client
}

type contentEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (Lister) Name() string { return Name }

func (l Lister) List(ctx context.Context) ([]domain.DirEntry, error) {
	u := strings.TrimSpace(l.URL)
	if u == "" {
		return nil, &lister.Error{Lister: Name, Err: errors.New("listing url 不能为空")}
	}

	h := http.Header{}
	h.Set("Accept", "application/vnd.github.v3+json")
	if tok := strings.TrimSpace(l.Token); tok != "" {
		h.Set("Authorization", "Bearer "+tok)
	}

	b, err := lister.Fetch(ctx, l.Client, u, h)
	if err != nil {
		return nil, &lister.Error{Lister: Name, Err: err}
	}
	entries, err := Decode(b)
	if err != nil {
		return nil, &lister.Error{Lister: Name, Err: &lister.DecodeError{URL: u, Err: err}}
	}
	return entries, nil
}

// Decode 把 contents API 的 JSON 数组解析为 DirEntry（保持原顺序）。
// 指向单个文件的 URL 会返回对象而非数组，此时报错。
func Decode(b []byte) ([]domain.DirEntry, error) {
	var raw []contentEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.DirEntry, 0, len(raw))
	for _, e := range raw {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		out = append(out, domain.DirEntry{Name: name, IsDir: e.Type == "dir"})
	}
	return out, nil
}
