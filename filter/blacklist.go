package filter

import (
	"context"
	"slices"

	"github.com/rushteam/roomrec/core"
)

// BlacklistFilter 过滤运营下架/屏蔽的房源。
type BlacklistFilter struct {
	// ListingIDs 是内存中的黑名单房源 ID
	ListingIDs []string

	// Store 用于从存储中读取黑名单（可选）
	Store *StoreAdapter

	// Key 是 Store 中的黑名单 key（可选）
	Key string

	ids map[string]struct{}
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(listingIDs []string, store *StoreAdapter, key string) *BlacklistFilter {
	return &BlacklistFilter{
		ListingIDs: listingIDs,
		Store:      store,
		Key:        key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

// Prepare 合并内存黑名单与存储黑名单，每个请求只读一次存储。
func (f *BlacklistFilter) Prepare(ctx context.Context, _ *core.RecommendContext) (Filter, error) {
	ids := append([]string(nil), f.ListingIDs...)
	if f.Store != nil && f.Key != "" {
		stored, err := f.Store.GetIDs(ctx, f.Key)
		if err != nil {
			return nil, err
		}
		ids = append(ids, stored...)
	}
	return &BlacklistFilter{ListingIDs: ids, ids: idSet(ids)}, nil
}

func (f *BlacklistFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.ids == nil {
		return slices.Contains(f.ListingIDs, item.ID()), nil
	}
	_, blocked := f.ids[item.ID()]
	return blocked, nil
}
