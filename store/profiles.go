package store

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/roomrec/core"
)

// KVProfiles 以 JSON 保存用户偏好：key = {prefix}:profile:{userID}。
type KVProfiles struct {
	store  core.Store
	prefix string
}

func NewKVProfiles(s core.Store, prefix string) *KVProfiles {
	return &KVProfiles{store: s, prefix: prefix}
}

func (p *KVProfiles) key(userID string) string {
	return joinKey(p.prefix, "profile", userID)
}

// ForUser 读取用户偏好；ok=false 表示该用户没有保存过偏好。
func (p *KVProfiles) ForUser(ctx context.Context, userID string) (*core.Profile, bool, error) {
	data, err := p.store.Get(ctx, p.key(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var profile core.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, false, fmt.Errorf("decode profile of %s: %w", userID, err)
	}
	return &profile, true, nil
}

// Save 覆盖保存用户偏好，返回保存后的副本。
func (p *KVProfiles) Save(ctx context.Context, userID string, profile *core.Profile) (*core.Profile, error) {
	if profile == nil {
		return nil, core.InvalidArgumentf(core.ModuleStore, "profile is nil")
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("encode profile of %s: %w", userID, err)
	}
	if err := p.store.Set(ctx, p.key(userID), data); err != nil {
		return nil, err
	}
	return profile.Clone(), nil
}

// KVUsers 是最简单的用户目录：key = {prefix}:user:{userID} 存在即表示用户存在。
type KVUsers struct {
	store  core.Store
	prefix string
}

func NewKVUsers(s core.Store, prefix string) *KVUsers {
	return &KVUsers{store: s, prefix: prefix}
}

// Add 登记用户
func (u *KVUsers) Add(ctx context.Context, userID string) error {
	if userID == "" {
		return core.InvalidArgumentf(core.ModuleStore, "user id is required")
	}
	return u.store.Set(ctx, joinKey(u.prefix, "user", userID), []byte("1"))
}

// Exists 判断用户是否存在
func (u *KVUsers) Exists(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	_, err := u.store.Get(ctx, joinKey(u.prefix, "user", userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
