package rank

import (
	"context"
	"sort"
	"strconv"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pipeline"
	"github.com/rushteam/roomrec/pkg/utils"
)

// ScoreNode 按画像对房源做多维加权打分。
// - 写入 item.Scores / item.Score
// - 写入 labels：rank_model、rank.score
// - 按总分降序稳定排序，同分保持输入（目录）顺序
//
// 画像取自 rctx.Profile；Weights 非空时覆盖画像权重。
type ScoreNode struct {
	Weights *core.Weights
}

func (n *ScoreNode) Name() string        { return "rank.score" }
func (n *ScoreNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ScoreNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	if rctx == nil || rctx.Profile == nil {
		return nil, core.InvalidArgumentf(core.ModuleRecommend, "score node requires a profile")
	}

	weights := rctx.Profile.Weights
	if n.Weights != nil {
		weights = *n.Weights
	}

	for _, it := range items {
		if it == nil || it.Listing == nil {
			continue
		}
		it.Scores = Score(it.Listing, rctx.Profile)
		it.Score = it.Scores.Weighted(weights)
		it.PutLabel("rank_model", utils.Label{Value: "score", Source: "rank"})
		it.PutLabel("rank.score", utils.Label{Value: strconv.FormatFloat(it.Score, 'f', 4, 64), Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}
