package core

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Weights 是五个打分维度的重要度。
//
// 权重是相对值，不要求和为 1，打分时原样使用，不做归一化。
type Weights struct {
	Price     float64 `json:"price" yaml:"price" validate:"gte=0"`
	Location  float64 `json:"location" yaml:"location" validate:"gte=0"`
	Amenities float64 `json:"amenities" yaml:"amenities" validate:"gte=0"`
	Size      float64 `json:"size" yaml:"size" validate:"gte=0"`
	Category  float64 `json:"category" yaml:"category" validate:"gte=0"`
}

// DefaultWeights 返回没有偏好记录时使用的默认权重。
func DefaultWeights() Weights {
	return Weights{
		Price:     0.3,
		Location:  0.25,
		Amenities: 0.2,
		Size:      0.15,
		Category:  0.1,
	}
}

// Profile 是用户的租房偏好画像。
//
//	维度        作用
//	硬约束      价格区间 / 最少卧室 / 最少卫浴 / 最小面积 / 目标城市
//	软偏好      街区 / 类型 / 设施
//	权重        五个子分的相对重要度
//
// 空字符串、nil、Valid=false 都表示"未设置"。
type Profile struct {
	PreferredCity          string              `json:"preferred_city,omitempty"`
	PreferredNeighborhoods []string            `json:"preferred_neighborhoods,omitempty"`
	MinPrice               decimal.NullDecimal `json:"min_price"`
	MaxPrice               decimal.NullDecimal `json:"max_price"`
	PreferredCategory      Category            `json:"preferred_category,omitempty"`
	MinBedrooms            int                 `json:"min_bedrooms" validate:"gte=0"`
	MinBathrooms           int                 `json:"min_bathrooms" validate:"gte=0"`
	MinArea                *float64            `json:"min_area,omitempty" validate:"omitnil,gte=0"`
	DesiredAmenities       []string            `json:"desired_amenities,omitempty"`
	Weights                Weights             `json:"weights"`
}

// DefaultProfile 合成一个只有最低要求的画像，保证打分不会因缺少偏好而失败。
func DefaultProfile() *Profile {
	return &Profile{
		MinBedrooms:  1,
		MinBathrooms: 1,
		Weights:      DefaultWeights(),
	}
}

// Clone 深拷贝画像，调用方可以放心修改返回值。
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.PreferredNeighborhoods = append([]string(nil), p.PreferredNeighborhoods...)
	c.DesiredAmenities = append([]string(nil), p.DesiredAmenities...)
	if p.MinArea != nil {
		c.MinArea = Float(*p.MinArea)
	}
	return &c
}

// HasPriceRange 表示最低价和最高价是否都已设置。
func (p *Profile) HasPriceRange() bool {
	return p.MinPrice.Valid && p.MaxPrice.Valid
}

// HasCity 表示是否设置了目标城市。
func (p *Profile) HasCity() bool {
	return strings.TrimSpace(p.PreferredCity) != ""
}

var (
	profileValidator     *validator.Validate
	profileValidatorOnce sync.Once
)

func getValidator() *validator.Validate {
	profileValidatorOnce.Do(func() {
		profileValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return profileValidator
}

// Validate 检查画像是否可用于打分，失败时返回 INVALID_ARGUMENT。
func (p *Profile) Validate() error {
	if p == nil {
		return InvalidArgumentf(ModuleCore, "profile is nil")
	}
	if err := getValidator().Struct(p); err != nil {
		return InvalidArgumentf(ModuleCore, "invalid profile: %v", err)
	}
	if p.MinPrice.Valid && p.MinPrice.Decimal.IsNegative() {
		return InvalidArgumentf(ModuleCore, "invalid profile: min price must be non-negative")
	}
	if p.MaxPrice.Valid && p.MaxPrice.Decimal.IsNegative() {
		return InvalidArgumentf(ModuleCore, "invalid profile: max price must be non-negative")
	}
	if p.HasPriceRange() && p.MinPrice.Decimal.GreaterThan(p.MaxPrice.Decimal) {
		return InvalidArgumentf(ModuleCore, "invalid profile: min price %s exceeds max price %s",
			p.MinPrice.Decimal, p.MaxPrice.Decimal)
	}
	if !p.Weights.Finite() {
		return InvalidArgumentf(ModuleCore, "invalid profile: weights must be finite: %s", p.Weights)
	}
	if p.MinArea != nil && math.IsInf(*p.MinArea, 0) {
		return InvalidArgumentf(ModuleCore, "invalid profile: min area must be finite")
	}
	if p.PreferredCategory != "" && !p.PreferredCategory.Valid() {
		return InvalidArgumentf(ModuleCore, "invalid profile: unknown category %q", p.PreferredCategory)
	}
	return nil
}

// Finite 表示五个权重都不是 NaN 或 ±Inf。
func (w Weights) Finite() bool {
	for _, v := range [...]float64{w.Price, w.Location, w.Amenities, w.Size, w.Category} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// String 便于日志输出。
func (w Weights) String() string {
	return fmt.Sprintf("price=%.2f location=%.2f amenities=%.2f size=%.2f category=%.2f",
		w.Price, w.Location, w.Amenities, w.Size, w.Category)
}
