package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category 是房源类型（固定的小集合）。
type Category string

const (
	CategoryApartment Category = "APARTMENT"
	CategoryHouse     Category = "HOUSE"
	CategoryRoom      Category = "ROOM"
	CategoryStudio    Category = "STUDIO"
)

// Categories 按枚举顺序返回所有类型，Position 依赖该顺序。
func Categories() []Category {
	return []Category{CategoryApartment, CategoryHouse, CategoryRoom, CategoryStudio}
}

// Position 返回类型在枚举中的位置，归一化到 [0,1]；未知类型返回 0。
func (c Category) Position() float64 {
	all := Categories()
	for i, v := range all {
		if v == c {
			return float64(i) / float64(len(all)-1)
		}
	}
	return 0
}

// Valid 检查是否为已知类型。
func (c Category) Valid() bool {
	for _, v := range Categories() {
		if v == c {
			return true
		}
	}
	return false
}

// Status 是房源状态，只有 AVAILABLE 属于可推荐目录。
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusRented      Status = "RENTED"
	StatusMaintenance Status = "MAINTENANCE"
	StatusInactive    Status = "INACTIVE"
)

// GeoPoint 是经纬度坐标。
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid 检查坐标是否在合法范围内。
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Listing 是可出租的房源记录，对推荐核心只读。
//
// Price 可能缺失（Valid=false）；Location、Area 为 nil 表示未提供。
// ViewCount / FavoriteCount 只用于展示，不参与打分。
type Listing struct {
	ID            string              `json:"id"`
	Title         string              `json:"title,omitempty"`
	Price         decimal.NullDecimal `json:"price"`
	Category      Category            `json:"category"`
	Status        Status              `json:"status,omitempty"`
	City          string              `json:"city"`
	Neighborhood  string              `json:"neighborhood"`
	Location      *GeoPoint           `json:"location,omitempty"`
	Bedrooms      int                 `json:"bedrooms"`
	Bathrooms     int                 `json:"bathrooms"`
	Area          *float64            `json:"area,omitempty"`
	Amenities     []string            `json:"amenities,omitempty"`
	ViewCount     int                 `json:"view_count"`
	FavoriteCount int                 `json:"favorite_count"`
}

// Available 表示房源是否可出租；未设置状态视为可出租。
func (l *Listing) Available() bool {
	return l.Status == "" || l.Status == StatusAvailable
}

// PriceFloat 返回价格的 float64 形式，ok=false 表示价格缺失。
func (l *Listing) PriceFloat() (float64, bool) {
	if !l.Price.Valid {
		return 0, false
	}
	return l.Price.Decimal.InexactFloat64(), true
}

// Validate 检查房源不变量：价格非负、坐标合法。
func (l *Listing) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return InvalidArgumentf(ModuleCore, "listing id is required")
	}
	if l.Price.Valid && l.Price.Decimal.IsNegative() {
		return InvalidArgumentf(ModuleCore, "listing %s: price must be non-negative", l.ID)
	}
	if l.Location != nil && !l.Location.Valid() {
		return InvalidArgumentf(ModuleCore, "listing %s: coordinates out of range", l.ID)
	}
	if l.Category != "" && !l.Category.Valid() {
		return InvalidArgumentf(ModuleCore, "listing %s: unknown category %q", l.ID, l.Category)
	}
	return nil
}

// Price 构造一个有效价格，便于测试与示例。
func Price(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

// Float 返回 v 的指针，用于可选字段（Area、MinArea）。
func Float(v float64) *float64 {
	return &v
}

// NormalizeTags 把标签集合规范化为去重后的小写、去空白集合，空标签被丢弃。
func NormalizeTags(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}
