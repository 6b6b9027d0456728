package core

import "context"

// Store 是 KV 存储的领域接口，由 store 包实现。
//
// 实现：
//   - store.MemoryStore（单进程、测试）
//   - store.RedisStore（多实例共享目录与偏好）
//
// 目录与偏好仓储（store.KVCatalog / store.KVProfiles）都建立在它之上。
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value，不过期
	Set(ctx context.Context, key string, value []byte) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// Close 关闭连接/释放资源
	Close() error
}

// HashStore 是 Store 的扩展接口，房源目录以 Hash 形式保存（field = 房源 ID）。
type HashStore interface {
	Store

	// HGet 读取 Hash 字段
	HGet(ctx context.Context, key, field string) ([]byte, error)

	// HSet 写入 Hash 字段
	HSet(ctx context.Context, key, field string, value []byte) error

	// HGetAll 读取整个 Hash
	HGetAll(ctx context.Context, key string) (map[string][]byte, error)

	// HDel 删除 Hash 字段
	HDel(ctx context.Context, key string, fields ...string) error
}

// ErrStoreNotFound 表示 key 不存在
var ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

// IsStoreNotFound 检查错误是否为存储层的 key 不存在
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Module == ModuleStore && domainErr.Code == ErrorCodeNotFound
}
