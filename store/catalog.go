package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/rushteam/roomrec/core"
)

// KVCatalog 把房源目录保存在一个 Hash 中：key = {prefix}:listings，field = 房源 ID，value = JSON。
type KVCatalog struct {
	store core.HashStore
	key   string
}

// NewKVCatalog 创建目录，prefix 可为空。
func NewKVCatalog(s core.HashStore, prefix string) *KVCatalog {
	return &KVCatalog{store: s, key: joinKey(prefix, "listings")}
}

// Put 写入或覆盖一套房源。
func (c *KVCatalog) Put(ctx context.Context, l core.Listing) error {
	if err := l.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode listing %s: %w", l.ID, err)
	}
	return c.store.HSet(ctx, c.key, l.ID, data)
}

// PutAll 批量写入，遇到第一个错误即返回。
func (c *KVCatalog) PutAll(ctx context.Context, listings []core.Listing) error {
	for _, l := range listings {
		if err := c.Put(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// Get 读取一套房源，不存在时返回 NOT_FOUND。
func (c *KVCatalog) Get(ctx context.Context, id string) (*core.Listing, error) {
	data, err := c.store.HGet(ctx, c.key, id)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.NotFoundf(core.ModuleStore, "listing %s not found", id)
		}
		return nil, err
	}
	var l core.Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode listing %s: %w", id, err)
	}
	return &l, nil
}

// Delete 删除一套房源。
func (c *KVCatalog) Delete(ctx context.Context, id string) error {
	return c.store.HDel(ctx, c.key, id)
}

// Listings 返回全部房源，按 ID 排序。
func (c *KVCatalog) Listings(ctx context.Context) ([]core.Listing, error) {
	raw, err := c.store.HGetAll(ctx, c.key)
	if err != nil {
		return nil, err
	}
	out := make([]core.Listing, 0, len(raw))
	for id, data := range raw {
		var l core.Listing
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, fmt.Errorf("decode listing %s: %w", id, err)
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AvailableListings 返回可出租的房源，按 ID 排序（即稳定排序的平局顺序）。
func (c *KVCatalog) AvailableListings(ctx context.Context) ([]core.Listing, error) {
	all, err := c.Listings(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, l := range all {
		if l.Available() {
			out = append(out, l)
		}
	}
	return out, nil
}
