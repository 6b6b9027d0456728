// Package store 提供 core.Store 的实现（内存、Redis）以及建立在其上的
// 房源目录与偏好仓储；SQLiteCatalog 提供关系型的房源目录。
//
//	var kv core.HashStore = store.NewMemoryStore()
//	catalog := store.NewKVCatalog(kv, "roomrec")
//	profiles := store.NewKVProfiles(kv, "roomrec")
package store

import "github.com/rushteam/roomrec/core"

// ErrNotFound 与 core.ErrStoreNotFound 相同，便于包内引用
var ErrNotFound = core.ErrStoreNotFound

// joinKey 拼接带前缀的 key
func joinKey(prefix string, parts ...string) string {
	key := prefix
	for _, p := range parts {
		if key == "" {
			key = p
			continue
		}
		key += ":" + p
	}
	return key
}
