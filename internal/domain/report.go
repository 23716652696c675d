package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusOK       = "ok"
	StatusEmpty    = "empty"
	StatusNoFolder = "no_folder"
	StatusFailed   = "failed"
)

const (
	ErrCodeFolderNotFound     = "folder_not_found"
	ErrCodeNoMedia            = "no_media"
	ErrCodeCatalogUnavailable = "catalog_unavailable"
)

// ScanReport 是 scan 命令对外稳定输出（stdout JSON / --out 文件）的结构。
// 只作为运维产物输出，不会被程序读回当作索引。
type ScanReport struct {
	RunID     string `json:"run_id"`
	Feed      string `json:"feed"`
	AssetBase string `json:"asset_base"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// SkippedRows 是 feed 中被丢弃的行数（字段不足 / LOT 不合法 / CSV 格式错误）。
	SkippedRows int `json:"skipped_rows"`

	Summary ScanSummary `json:"summary"`
	Items   []LotResult `json:"items"`
}

type ScanSummary struct {
	OK       int `json:"ok"`
	Empty    int `json:"empty"`
	NoFolder int `json:"no_folder"`
	Failed   int `json:"failed"`
}

type LotResult struct {
	Lot    string `json:"lot"`
	Name   string `json:"name"`
	Folder string `json:"folder"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Thumbnail string   `json:"thumbnail"`
	Images    []string `json:"images"`
	Videos    []string `json:"videos"`
	TimedOut  bool     `json:"timed_out"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 lot 字典序；lot=="" 的合成条目排在最后
// 3) summary 由 items 计算得出
func (r *ScanReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a := r.Items[i].Lot
		b := r.Items[j].Lot
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})

	var s ScanSummary
	for _, it := range r.Items {
		switch it.Status {
		case StatusOK:
			s.OK++
		case StatusEmpty:
			s.Empty++
		case StatusNoFolder:
			s.NoFolder++
		case StatusFailed:
			s.Failed++
		}
	}
	r.Summary = s
}

// MarshalJSON 保证 nil 切片输出为 []（下游脚本不必判断 null）。
func (r ScanReport) MarshalJSON() ([]byte, error) {
	type Alias ScanReport
	a := Alias(r)
	if a.Items == nil {
		a.Items = []LotResult{}
	}
	items := make([]LotResult, len(a.Items))
	for i, it := range a.Items {
		if it.Images == nil {
			it.Images = []string{}
		}
		if it.Videos == nil {
			it.Videos = []string{}
		}
		items[i] = it
	}
	a.Items = items
	return json.Marshal(a)
}
