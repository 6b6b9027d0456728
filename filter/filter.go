package filter

import (
	"context"

	"github.com/rushteam/roomrec/core"
)

// Filter 是过滤器的抽象接口，用于判断一个房源是否应该被剔除。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Preparer 由需要按请求预取数据的过滤器实现（例如从存储读取用户隐藏列表）。
// FilterNode 在每次 Process 开始时调用一次，用返回的 Filter 处理本次请求的全部房源。
type Preparer interface {
	Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error)
}

// LabelReason 是过滤器写入被剔除房源的原因标签 key
const LabelReason = "filter.reason"
