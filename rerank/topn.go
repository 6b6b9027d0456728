package rerank

import (
	"context"
	"strconv"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pipeline"
	"github.com/rushteam/roomrec/pkg/utils"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个房源。
// 通常在排序（Rank）节点之后使用，对应请求的 limit。
//
// 示例：
//
//	p := pipeline.New(
//	    &filter.FilterNode{Filters: []filter.Filter{&filter.HardConstraintFilter{}}},
//	    &rank.ScoreNode{},
//	    &rerank.TopNNode{N: 20},
//	)
type TopNNode struct {
	// N 要保留的房源数量（Top N）
	// N == 0 返回空列表；N < 0 不截断；N > len(items) 返回全部
	// 保留下来的房源都会带上 rerank.position 标签（从 1 开始）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	out := items
	if n.N >= 0 && len(items) > n.N {
		out = items[:n.N]
	}
	for i, it := range out {
		it.PutLabel("rerank.position", utils.Label{Value: strconv.Itoa(i + 1), Source: "rerank"})
	}
	return out, nil
}
