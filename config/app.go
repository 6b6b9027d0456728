package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/filter"
	"github.com/rushteam/roomrec/pipeline"
	"github.com/rushteam/roomrec/pkg/conv"
	"github.com/rushteam/roomrec/recommend"
	"github.com/rushteam/roomrec/store"
)

// App 是按配置组装好的推荐服务：存储后端 + Manager。
type App struct {
	Manager  *recommend.Manager
	Catalog  recommend.Catalog
	Profiles *store.KVProfiles
	Users    *store.KVUsers

	kv        core.HashStore
	kvCatalog *store.KVCatalog
	sqlite    *store.SQLiteCatalog
	cfg       *Config
	logger    zerolog.Logger
}

// RegisterStoreNodes 注册依赖存储的 Node：
//   - filter.blacklist：静态 listing_ids 加上存储 key 中的黑名单
//   - filter.user_hidden：按用户读取隐藏列表
func RegisterStoreNodes(f *pipeline.NodeFactory, s core.Store) {
	adapter := filter.NewStoreAdapter(s)
	f.Register("filter.blacklist", func(cfg map[string]any) (pipeline.Node, error) {
		return &filter.FilterNode{
			NodeName: "filter.blacklist",
			Filters: []filter.Filter{filter.NewBlacklistFilter(
				conv.ConfigGetStrings(cfg, "listing_ids"),
				adapter,
				conv.ConfigGet(cfg, "key", ""),
			)},
		}, nil
	})
	f.Register("filter.user_hidden", func(cfg map[string]any) (pipeline.Node, error) {
		return &filter.FilterNode{
			NodeName: "filter.user_hidden",
			Filters: []filter.Filter{filter.NewUserHiddenFilter(
				adapter,
				conv.ConfigGet(cfg, "key_prefix", filter.DefaultHiddenKeyPrefix),
			)},
		}, nil
	})
}

// Open 按配置打开存储并创建 Manager。
// 声明式策略依赖内置 Node，调用方需要 import _ "github.com/rushteam/roomrec/config/builders"。
func Open(ctx context.Context, cfg *Config, logger zerolog.Logger) (*App, error) {
	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{cfg: cfg, logger: logger.With().Str("component", "app").Logger()}
	if err := app.openStore(ctx); err != nil {
		return nil, err
	}

	factory := DefaultFactory()
	RegisterStoreNodes(factory, app.kv)
	strategies, err := cfg.BuildStrategies(factory)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	opts := []recommend.Option{
		recommend.WithLogger(logger),
		recommend.WithGraphThreshold(cfg.Graph.Threshold),
		recommend.WithRebuildWorkers(cfg.Graph.Workers),
		recommend.WithSimilarMinSimilarity(cfg.Graph.SimilarMinSimilarity),
		recommend.WithStrategies(strategies...),
	}
	if cfg.ActiveStrategy != "" {
		opts = append(opts, recommend.WithActiveStrategy(cfg.ActiveStrategy))
	}
	if cfg.Store.KnownUsersOnly {
		opts = append(opts, recommend.WithUsers(app.Users))
	}
	if cfg.Store.HiddenListings {
		opts = append(opts, recommend.WithHiddenStore(app.kv, cfg.Store.KeyPrefix+":hidden"))
	}
	app.Manager, err = recommend.NewManager(app.Catalog, app.Profiles, opts...)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.logger.Info().
		Str("backend", cfg.Store.Backend).
		Strs("strategies", app.Manager.ListStrategies()).
		Str("active_strategy", app.Manager.ActiveStrategy()).
		Msg("recommendation service ready")
	return app, nil
}

func (a *App) openStore(ctx context.Context) error {
	sc := a.cfg.Store
	switch sc.Backend {
	case "memory":
		a.kv = store.NewMemoryStore()
	case "redis":
		rs, err := store.NewRedisStore(ctx, sc.RedisAddr, sc.RedisDB)
		if err != nil {
			return err
		}
		a.kv = rs
	case "sqlite":
		cat, err := store.OpenSQLiteCatalog(ctx, sc.SQLitePath)
		if err != nil {
			return err
		}
		a.sqlite = cat
		a.Catalog = cat
		// 偏好与用户目录仍走 KV：配置了 redis_addr 时用 Redis，否则内存
		if sc.RedisAddr != "" {
			rs, err := store.NewRedisStore(ctx, sc.RedisAddr, sc.RedisDB)
			if err != nil {
				_ = cat.Close()
				return err
			}
			a.kv = rs
		} else {
			a.kv = store.NewMemoryStore()
		}
	default:
		return core.InvalidArgumentf(core.ModuleConfig, "unknown store backend %q", sc.Backend)
	}

	if a.Catalog == nil {
		a.kvCatalog = store.NewKVCatalog(a.kv, sc.KeyPrefix)
		a.Catalog = a.kvCatalog
	}
	a.Profiles = store.NewKVProfiles(a.kv, sc.KeyPrefix)
	a.Users = store.NewKVUsers(a.kv, sc.KeyPrefix)
	return nil
}

// PutListings 写入或覆盖房源
func (a *App) PutListings(ctx context.Context, listings ...core.Listing) error {
	if a.sqlite != nil {
		return a.sqlite.Upsert(ctx, listings...)
	}
	return a.kvCatalog.PutAll(ctx, listings)
}

// Run 按 graph.rebuild_interval 周期重建相似图，直到 ctx 结束；
// 未配置间隔时只做一次重建。
func (a *App) Run(ctx context.Context) error {
	if err := a.Manager.RebuildGraph(ctx); err != nil {
		return fmt.Errorf("initial graph rebuild: %w", err)
	}
	if a.cfg.Graph.RebuildInterval <= 0 {
		return nil
	}
	err := a.Manager.RunRebuildLoop(ctx, a.cfg.Graph.RebuildInterval)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close 释放存储连接
func (a *App) Close() error {
	var errs []error
	if a.sqlite != nil {
		errs = append(errs, a.sqlite.Close())
	}
	if a.kv != nil {
		errs = append(errs, a.kv.Close())
	}
	return errors.Join(errs...)
}
