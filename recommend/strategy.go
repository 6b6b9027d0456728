package recommend

import (
	"context"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/filter"
	"github.com/rushteam/roomrec/pipeline"
	"github.com/rushteam/roomrec/rank"
	"github.com/rushteam/roomrec/rerank"
)

// ScoreBasedStrategy 是内置默认策略名
const ScoreBasedStrategy = "score-based"

// Strategy 是可插拔的排序策略，按名字注册到 Manager。
//
// 画像通过 rctx.Profile 传入，进入 Rank 前已保证非空且合法。
// 返回至多 limit 个房源，顺序即推荐顺序；limit == 0 返回空列表。
type Strategy interface {
	Name() string
	Rank(ctx context.Context, rctx *core.RecommendContext, catalog []core.Listing, limit int) ([]core.Listing, error)
}

// PipelineStrategy 把一条 Pipeline 包装成 Strategy，
// 每次调用在末尾追加 rerank.topn(limit) 截断。
type PipelineStrategy struct {
	name     string
	pipeline *pipeline.Pipeline
}

// NewPipelineStrategy 用已构建好的 Pipeline 创建策略
func NewPipelineStrategy(name string, p *pipeline.Pipeline) *PipelineStrategy {
	if p == nil {
		p = pipeline.New()
	}
	return &PipelineStrategy{name: name, pipeline: p}
}

// NewScoreBased 创建默认策略：filter.hard -> rank.score。
// pre 中的节点排在硬约束过滤之前，例如用户隐藏过滤。
func NewScoreBased(pre ...pipeline.Node) *PipelineStrategy {
	nodes := make([]pipeline.Node, 0, len(pre)+2)
	nodes = append(nodes, pre...)
	nodes = append(nodes,
		&filter.FilterNode{
			NodeName: "filter.hard",
			Filters:  []filter.Filter{&filter.HardConstraintFilter{}},
			Strict:   true,
		},
		&rank.ScoreNode{},
	)
	return NewPipelineStrategy(ScoreBasedStrategy, pipeline.New(nodes...))
}

func (s *PipelineStrategy) Name() string { return s.name }

// Pipeline 返回策略使用的 Pipeline（不含 topn 截断）
func (s *PipelineStrategy) Pipeline() *pipeline.Pipeline { return s.pipeline }

// Rank 实现 Strategy
func (s *PipelineStrategy) Rank(
	ctx context.Context,
	rctx *core.RecommendContext,
	catalog []core.Listing,
	limit int,
) ([]core.Listing, error) {
	items, err := s.RankItems(ctx, rctx, catalog, limit)
	if err != nil {
		return nil, err
	}
	return core.ListingsFromItems(items), nil
}

// RankItems 与 Rank 相同，但保留子分与 Labels，便于解释推荐结果。
func (s *PipelineStrategy) RankItems(
	ctx context.Context,
	rctx *core.RecommendContext,
	catalog []core.Listing,
	limit int,
) ([]*core.Item, error) {
	if limit < 0 {
		return nil, core.InvalidArgumentf(core.ModuleRecommend, "limit must be >= 0, got %d", limit)
	}
	if rctx == nil || rctx.Profile == nil {
		return nil, core.InvalidArgumentf(core.ModuleRecommend, "strategy %s requires a profile", s.name)
	}
	if limit == 0 || len(catalog) == 0 {
		return []*core.Item{}, nil
	}

	items := core.ItemsFromListings(catalog)
	out, err := s.pipeline.With(&rerank.TopNNode{N: limit}).Run(ctx, rctx, items)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*core.Item{}
	}
	return out, nil
}
