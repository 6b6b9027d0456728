package core

import "github.com/rushteam/roomrec/pkg/utils"

// SubScores 是五个维度的子分，每个都在 [0,1]。
type SubScores struct {
	Price     float64 `json:"price"`
	Location  float64 `json:"location"`
	Amenities float64 `json:"amenities"`
	Size      float64 `json:"size"`
	Category  float64 `json:"category"`
}

// Weighted 返回子分按权重的线性组合，权重原样使用。
func (s SubScores) Weighted(w Weights) float64 {
	return s.Price*w.Price +
		s.Location*w.Location +
		s.Amenities*w.Amenities +
		s.Size*w.Size +
		s.Category*w.Category
}

// Item 是推荐链路中的统一承载结构：房源、子分、总分、标签。
// 只在一次排序中存在，不持久化。
type Item struct {
	Listing *Listing
	Scores  SubScores
	Score   float64
	Labels  map[string]utils.Label
}

func NewItem(l *Listing) *Item {
	return &Item{
		Listing: l,
		Labels:  make(map[string]utils.Label),
	}
}

// ID 返回房源 ID。
func (it *Item) ID() string {
	if it == nil || it.Listing == nil {
		return ""
	}
	return it.Listing.ID
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// ItemsFromListings 按目录顺序包装房源，顺序即稳定排序的平局顺序。
func ItemsFromListings(listings []Listing) []*Item {
	items := make([]*Item, 0, len(listings))
	for i := range listings {
		items = append(items, NewItem(&listings[i]))
	}
	return items
}

// ListingsFromItems 取出 Item 中的房源。
func ListingsFromItems(items []*Item) []Listing {
	out := make([]Listing, 0, len(items))
	for _, it := range items {
		if it == nil || it.Listing == nil {
			continue
		}
		out = append(out, *it.Listing)
	}
	return out
}
