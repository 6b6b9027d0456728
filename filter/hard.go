package filter

import (
	"context"
	"strings"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pkg/utils"
)

// 硬约束淘汰原因
const (
	ReasonPrice     = "price"
	ReasonBedrooms  = "bedrooms"
	ReasonBathrooms = "bathrooms"
	ReasonArea      = "area"
	ReasonCity      = "city"
)

// HardConstraintFilter 按画像的硬约束淘汰房源（只判定通过/不通过，不打分）。
//
//	约束        淘汰条件
//	价格        价格低于 MinPrice 或高于 MaxPrice；设置了边界而房源无价格也淘汰
//	卧室/卫浴   低于 MinBedrooms / MinBathrooms
//	面积        房源报告了面积且低于 MinArea
//	城市        设置了 PreferredCity 且城市不同（忽略大小写）
//
// 画像取自 rctx.Profile。
type HardConstraintFilter struct{}

func (f *HardConstraintFilter) Name() string {
	return "filter.hard"
}

func (f *HardConstraintFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || item.Listing == nil {
		return true, nil
	}
	if rctx == nil || rctx.Profile == nil {
		return false, core.InvalidArgumentf(core.ModuleRecommend, "hard constraint filter requires a profile")
	}
	ok, reason := MatchesHardConstraints(item.Listing, rctx.Profile)
	if !ok {
		item.PutLabel(LabelReason, utils.Label{Value: reason, Source: f.Name()})
	}
	return !ok, nil
}

// MatchesHardConstraints 判定房源是否满足画像的全部硬约束，不满足时返回第一个失败的原因。
func MatchesHardConstraints(l *core.Listing, p *core.Profile) (bool, string) {
	if p.MinPrice.Valid || p.MaxPrice.Valid {
		if !l.Price.Valid {
			return false, ReasonPrice
		}
		if p.MinPrice.Valid && l.Price.Decimal.LessThan(p.MinPrice.Decimal) {
			return false, ReasonPrice
		}
		if p.MaxPrice.Valid && l.Price.Decimal.GreaterThan(p.MaxPrice.Decimal) {
			return false, ReasonPrice
		}
	}
	if l.Bedrooms < p.MinBedrooms {
		return false, ReasonBedrooms
	}
	if l.Bathrooms < p.MinBathrooms {
		return false, ReasonBathrooms
	}
	if p.MinArea != nil && l.Area != nil && *l.Area < *p.MinArea {
		return false, ReasonArea
	}
	if p.HasCity() && !strings.EqualFold(strings.TrimSpace(l.City), strings.TrimSpace(p.PreferredCity)) {
		return false, ReasonCity
	}
	return true, ""
}
