package similarity

import (
	"math"
	"strings"

	"github.com/rushteam/roomrec/core"
)

const (
	// PriceSigma 是房源间价格相似度的高斯核宽度
	PriceSigma = 0.3

	// EarthRadiusKm 地球平均半径
	EarthRadiusKm = 6371.0

	neutral = 0.5
)

// Pairwise 的固定权重
const (
	PairwisePriceWeight     = 0.25
	PairwiseLocationWeight  = 0.30
	PairwiseAmenitiesWeight = 0.20
	PairwiseCosineWeight    = 0.25
)

// Gaussian 返回 exp(-x²/(2σ²))。
func Gaussian(x, sigma float64) float64 {
	return math.Exp(-(x * x) / (2 * sigma * sigma))
}

// Clamp01 把 v 限制在 [0,1]。
func Clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Price 计算两套房源的价格相似度。
// 相对价差 |a-b|/avg(a,b) 经 σ=0.3 的高斯核映射；任一价格缺失返回 0.5。
func Price(a, b *core.Listing) float64 {
	pa, okA := a.PriceFloat()
	pb, okB := b.PriceFloat()
	if !okA || !okB {
		return neutral
	}
	avg := (pa + pb) / 2
	if avg == 0 {
		return 1
	}
	return Gaussian(math.Abs(pa-pb)/avg, PriceSigma)
}

// Location 计算位置相似度：同城 +0.5，同街区 +0.5（忽略大小写）。
// 双方都有坐标时，距离 < 1km 抬到 0.9，< 5km 抬到 0.6，只抬不降。
func Location(a, b *core.Listing) float64 {
	score := 0.0
	if sameText(a.City, b.City) {
		score += 0.5
	}
	if sameText(a.Neighborhood, b.Neighborhood) {
		score += 0.5
	}
	if a.Location != nil && b.Location != nil {
		d := HaversineKm(*a.Location, *b.Location)
		switch {
		case d < 1:
			score = math.Max(score, 0.9)
		case d < 5:
			score = math.Max(score, 0.6)
		}
	}
	return Clamp01(score)
}

// HaversineKm 返回两点间的大圆距离（公里）。
func HaversineKm(p, q core.GeoPoint) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := q.Lat * math.Pi / 180
	dLat := (q.Lat - p.Lat) * math.Pi / 180
	dLng := (q.Lng - p.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Amenities 计算两套房源设施集合的 Jaccard 相似度。
func Amenities(a, b *core.Listing) float64 {
	return Jaccard(a.Amenities, b.Amenities)
}

// Jaccard 计算 |A∩B| / |A∪B|，标签先做小写与去空白。
// 两边都为空返回 1，恰有一边为空返回 0。
func Jaccard(a, b []string) float64 {
	setA := core.NormalizeTags(a)
	setB := core.NormalizeTags(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for k := range setA {
		if _, ok := setB[k]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

// Pairwise 是建图用的综合相似度，对称。
func Pairwise(a, b *core.Listing) float64 {
	return PairwisePriceWeight*Price(a, b) +
		PairwiseLocationWeight*Location(a, b) +
		PairwiseAmenitiesWeight*Amenities(a, b) +
		PairwiseCosineWeight*Cosine(a, b)
}

func sameText(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
