package lister

import (
	"context"

	"github.com/John-Robertt/lotshow/internal/domain"
)

// Lister 把“资产主机的目录列表形态”限制在各实现包内部；resolver 只依赖统一的 DirEntry。
//
// 约束：
// - List 只做一次请求：不缓存、不重试（缓存由 resolver 负责，重试策略由 httpx 统一实现）
// - 非 2xx 必须返回 *HTTPStatusError，便于上层分类记录
// - 返回的条目顺序与上游一致（FolderMapping 依赖“后出现者覆盖”）
type Lister interface {
	Name() string
	List(ctx context.Context) ([]domain.DirEntry, error)
}
