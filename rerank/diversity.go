package rerank

import (
	"context"
	"strings"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pipeline"
)

// Diversity 是多样性重排：限制同一分组（街区/类型/城市）的房源数量。
// 分组来源优先级：
// - label[Key].Value
// - 房源字段：neighborhood / category / city
//
// 超出上限的房源默认丢弃；Demote=true 时按原顺序排到末尾。
// 没有分组值的房源不受限制。
type Diversity struct {
	Key         string // 默认 "neighborhood"
	MaxPerGroup int    // 默认 1
	Demote      bool
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.Key
	if key == "" {
		key = "neighborhood"
	}
	limit := n.MaxPerGroup
	if limit <= 0 {
		limit = 1
	}

	seen := make(map[string]int, 32)
	out := make([]*core.Item, 0, len(items))
	var overflow []*core.Item

	for _, it := range items {
		if it == nil {
			continue
		}
		group := groupOf(it, key)
		if group == "" {
			out = append(out, it)
			continue
		}
		if seen[group] >= limit {
			if n.Demote {
				overflow = append(overflow, it)
			}
			continue
		}
		seen[group]++
		out = append(out, it)
	}

	return append(out, overflow...), nil
}

func groupOf(it *core.Item, key string) string {
	if lbl, ok := it.Labels[key]; ok && lbl.Value != "" {
		return lbl.Value
	}
	if it.Listing == nil {
		return ""
	}
	var v string
	switch key {
	case "neighborhood":
		v = it.Listing.Neighborhood
	case "category":
		v = string(it.Listing.Category)
	case "city":
		v = it.Listing.City
	}
	return strings.ToLower(strings.TrimSpace(v))
}
