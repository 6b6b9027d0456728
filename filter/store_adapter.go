package filter

import (
	"context"
	"slices"

	"github.com/goccy/go-json"

	"github.com/rushteam/roomrec/core"
)

// StoreAdapter 将 core.Store 适配为 ID 列表存储：value 为 JSON 字符串数组。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetIDs 读取 key 下的 ID 列表；key 不存在时返回空列表。
func (a *StoreAdapter) GetIDs(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// AddID 向 key 下的 ID 列表追加一个 ID，已存在时不重复写入。
func (a *StoreAdapter) AddID(ctx context.Context, key, id string) error {
	ids, err := a.GetIDs(ctx, key)
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	data, err := json.Marshal(append(ids, id))
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data)
}

// RemoveID 从 key 下的 ID 列表移除一个 ID。
func (a *StoreAdapter) RemoveID(ctx context.Context, key, id string) error {
	ids, err := a.GetIDs(ctx, key)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(ids, func(v string) bool { return v == id })
	data, err := json.Marshal(kept)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data)
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
