package rank

import (
	"math"
	"strings"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/similarity"
)

// 子分常量
const (
	// PriceSigma 是价格子分的高斯核宽度（作用于 |price-mid| / range）
	PriceSigma = 0.5

	neutralScore = 0.5

	cityMatchScore         = 0.6
	cityNeutralScore       = 0.3
	neighborhoodMatchScore = 0.4
	neighborhoodNeutral    = 0.2

	categoryMatchScore    = 1.0
	categoryMismatchScore = 0.3

	maxSizeBonus = 0.2
)

// Score 计算房源相对画像的五个子分，每个都在 [0,1]。
func Score(l *core.Listing, p *core.Profile) core.SubScores {
	return core.SubScores{
		Price:     similarity.Clamp01(PriceScore(l, p)),
		Location:  similarity.Clamp01(LocationScore(l, p)),
		Amenities: similarity.Clamp01(AmenitiesScore(l, p)),
		Size:      similarity.Clamp01(SizeScore(l, p)),
		Category:  similarity.Clamp01(CategoryScore(l, p)),
	}
}

// PriceScore 以价格区间中点为中心做高斯打分；任一边界缺失时为 0.5。
func PriceScore(l *core.Listing, p *core.Profile) float64 {
	if !p.HasPriceRange() {
		return neutralScore
	}
	price, ok := l.PriceFloat()
	if !ok {
		return neutralScore
	}
	lo := p.MinPrice.Decimal.InexactFloat64()
	hi := p.MaxPrice.Decimal.InexactFloat64()
	span := hi - lo
	if span <= 0 {
		return 1
	}
	mid := (lo + hi) / 2
	return similarity.Gaussian(math.Abs(price-mid)/span, PriceSigma)
}

// LocationScore 城市匹配 0.6（无城市偏好 0.3），任一偏好街区匹配 0.4（无街区偏好 0.2）。
func LocationScore(l *core.Listing, p *core.Profile) float64 {
	score := cityNeutralScore
	if p.HasCity() {
		score = 0
		if strings.EqualFold(strings.TrimSpace(l.City), strings.TrimSpace(p.PreferredCity)) {
			score = cityMatchScore
		}
	}

	wanted := core.NormalizeTags(p.PreferredNeighborhoods)
	if len(wanted) == 0 {
		score += neighborhoodNeutral
	} else if _, ok := wanted[strings.ToLower(strings.TrimSpace(l.Neighborhood))]; ok {
		score += neighborhoodMatchScore
	}
	return math.Min(score, 1)
}

// AmenitiesScore 是期望设施与房源设施的 Jaccard；没有期望设施时为 0.5。
func AmenitiesScore(l *core.Listing, p *core.Profile) float64 {
	if len(core.NormalizeTags(p.DesiredAmenities)) == 0 {
		return neutralScore
	}
	return similarity.Jaccard(p.DesiredAmenities, l.Amenities)
}

// SizeScore 低于最小面积为 0，否则 1 加超出部分的奖励并封顶 1；
// 画像没有最小面积或房源没有面积时为 0.5。
func SizeScore(l *core.Listing, p *core.Profile) float64 {
	if p.MinArea == nil || l.Area == nil {
		return neutralScore
	}
	minArea, area := *p.MinArea, *l.Area
	if area < minArea {
		return 0
	}
	bonus := maxSizeBonus
	if minArea > 0 {
		bonus = math.Min(maxSizeBonus, maxSizeBonus*(area-minArea)/minArea)
	}
	return math.Min(1, 1+bonus)
}

// CategoryScore 类型一致 1.0，不一致 0.3，没有偏好 0.5。
func CategoryScore(l *core.Listing, p *core.Profile) float64 {
	if p.PreferredCategory == "" {
		return neutralScore
	}
	if l.Category == p.PreferredCategory {
		return categoryMatchScore
	}
	return categoryMismatchScore
}
