package filter

import (
	"context"

	"github.com/rushteam/roomrec/core"
)

// DefaultHiddenKeyPrefix 用户隐藏列表的默认 key 前缀
const DefaultHiddenKeyPrefix = "user:hidden"

// UserHiddenFilter 过滤用户主动隐藏（不感兴趣）的房源。
type UserHiddenFilter struct {
	// Store 用于从存储中读取用户隐藏列表
	Store *StoreAdapter

	// KeyPrefix 是 Store 中的 key 前缀，实际 key 为 {KeyPrefix}:{UserID}
	KeyPrefix string

	hidden map[string]struct{}
}

// NewUserHiddenFilter 创建一个用户隐藏过滤器。
func NewUserHiddenFilter(store *StoreAdapter, keyPrefix string) *UserHiddenFilter {
	return &UserHiddenFilter{
		Store:     store,
		KeyPrefix: keyPrefix,
	}
}

// HiddenKey 返回用户隐藏列表的存储 key
func HiddenKey(keyPrefix, userID string) string {
	if keyPrefix == "" {
		keyPrefix = DefaultHiddenKeyPrefix
	}
	return keyPrefix + ":" + userID
}

func (f *UserHiddenFilter) Name() string {
	return "filter.user_hidden"
}

// Prepare 读取当前用户的隐藏列表。
func (f *UserHiddenFilter) Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error) {
	prepared := &UserHiddenFilter{hidden: map[string]struct{}{}}
	if f.Store == nil || rctx == nil || rctx.UserID == "" {
		return prepared, nil
	}
	ids, err := f.Store.GetIDs(ctx, HiddenKey(f.KeyPrefix, rctx.UserID))
	if err != nil {
		return nil, err
	}
	prepared.hidden = idSet(ids)
	return prepared, nil
}

func (f *UserHiddenFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || f.hidden == nil {
		return false, nil
	}
	_, hidden := f.hidden[item.ID()]
	return hidden, nil
}
