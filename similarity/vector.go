package similarity

import (
	"math"

	"github.com/rushteam/roomrec/core"
)

// 特征向量各维的归一化区间
const (
	minVectorPrice = 100_000.0
	maxVectorPrice = 10_000_000.0
	minBedrooms    = 1.0
	maxBedrooms    = 10.0
	minBathrooms   = 1.0
	maxBathrooms   = 5.0
	minArea        = 20.0
	maxArea        = 500.0
	maxAmenities   = 15.0
)

// VectorDim 特征向量维度
const VectorDim = 7

// FeatureVector 把房源编码为定长数值向量：
//
//	[价格, 卧室, 卫浴, 面积, 类型位置, 设施数, 常量 1]
//
// 价格缺失取 0.5，面积缺失取 0。
func FeatureVector(l *core.Listing) [VectorDim]float64 {
	var v [VectorDim]float64
	if p, ok := l.PriceFloat(); ok {
		v[0] = normalize(p, minVectorPrice, maxVectorPrice)
	} else {
		v[0] = neutral
	}
	v[1] = normalize(float64(l.Bedrooms), minBedrooms, maxBedrooms)
	v[2] = normalize(float64(l.Bathrooms), minBathrooms, maxBathrooms)
	if l.Area != nil {
		v[3] = normalize(*l.Area, minArea, maxArea)
	}
	v[4] = l.Category.Position()
	v[5] = normalize(float64(len(core.NormalizeTags(l.Amenities))), 0, maxAmenities)
	v[6] = 1
	return v
}

// Cosine 返回两套房源特征向量的余弦相似度；任一向量范数为 0 时返回 0。
// 各维非负，结果落在 [0,1]。
func Cosine(a, b *core.Listing) float64 {
	va := FeatureVector(a)
	vb := FeatureVector(b)
	return Clamp01(CosineVectors(va[:], vb[:]))
}

// CosineVectors 计算两个等长向量的余弦相似度。
func CosineVectors(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// normalize 做 min-max 归一化并截断到 [0,1]
func normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return Clamp01((v - lo) / (hi - lo))
}
