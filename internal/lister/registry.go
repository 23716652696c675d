package lister

import (
	"fmt"
	"sort"
	"strings"
)

// Registry 是 lister 的只读注册表（按 name 索引）。
// 用 map 做 O(1) 查找；lister 数量极小，保持简单即可。
type Registry struct {
	byName map[string]Lister
}

func NewRegistry(listers ...Lister) (Registry, error) {
	byName := make(map[string]Lister, len(listers))
	for _, l := range listers {
		if l == nil {
			return Registry{}, fmt.Errorf("lister 不能为空")
		}
		name := strings.ToLower(strings.TrimSpace(l.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("lister.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 lister：%q", name)
		}
		byName[name] = l
	}
	return Registry{byName: byName}, nil
}

func (r Registry) Get(name string) (Lister, bool) {
	if r.byName == nil {
		return nil, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	l, ok := r.byName[name]
	return l, ok
}

// Names 返回已注册的名字（排序后，用于错误提示）。
func (r Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
