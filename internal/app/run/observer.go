package run

import (
	"time"

	"github.com/John-Robertt/lotshow/internal/domain"
)

// Observer 用于把“扫描进度/阶段/条目结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - Observer 的实现必须并发安全：事件可能来自多个 goroutine。
type Observer interface {
	// OnStart 在 Execute 开始时调用（应尽量早，保证用户 1 秒内看到输出）。
	OnStart(opts Options)
	// OnPhaseDone 在阶段结束/就绪时调用（catalog / listing / exec）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnItemDone 在某个 LOT 探测完成时调用。
	OnItemDone(idx, total int, lot domain.LotID, res domain.LotResult, dur time.Duration)
	// OnProgress 用于 keepalive（由 CLI 自己的 ticker 触发；run 层不调用）。
	OnProgress(done, total, ok, empty, fail, active int, activeLots []string, elapsed time.Duration)
}
