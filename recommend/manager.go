// Package recommend 是推荐编排层：持有目录、偏好、相似图与策略表，
// 对外提供个性化推荐和相似房源两类查询。
package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/filter"
	"github.com/rushteam/roomrec/graph"
	"github.com/rushteam/roomrec/pkg/logging"
	"github.com/rushteam/roomrec/pkg/metrics"
	"github.com/rushteam/roomrec/pkg/utils"
)

// DefaultSimilarMinSimilarity SimilarTo 查询相似图时的最小边权
const DefaultSimilarMinSimilarity = 0.3

// Catalog 提供当前可出租的房源目录
type Catalog interface {
	AvailableListings(ctx context.Context) ([]core.Listing, error)
}

// Profiles 是用户偏好仓库。ok=false 表示用户没有保存过偏好。
type Profiles interface {
	ForUser(ctx context.Context, userID string) (*core.Profile, bool, error)
	Save(ctx context.Context, userID string, profile *core.Profile) (*core.Profile, error)
}

// Users 是可选的用户目录，配置后未知用户返回 NOT_FOUND。
type Users interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Manager 编排推荐请求。并发安全。
type Manager struct {
	catalog  Catalog
	profiles Profiles
	users    Users

	graph         *graph.Graph
	rebuildMu     sync.Mutex
	minSimilarity float64

	strategyMu sync.RWMutex
	strategies map[string]Strategy
	order      []string
	active     string

	hidden       *filter.StoreAdapter
	hiddenPrefix string

	logger zerolog.Logger
}

type options struct {
	logger         zerolog.Logger
	users          Users
	graphOpts      []graph.Option
	minSimilarity  float64
	strategies     []Strategy
	activeStrategy string
	hiddenStore    core.Store
	hiddenPrefix   string
}

// Option 配置 Manager
type Option func(*options)

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithUsers 配置用户目录
func WithUsers(u Users) Option {
	return func(o *options) { o.users = u }
}

// WithGraphThreshold 设置建图阈值
func WithGraphThreshold(t float64) Option {
	return func(o *options) { o.graphOpts = append(o.graphOpts, graph.WithThreshold(t)) }
}

// WithRebuildWorkers 设置重建相似图的并发数
func WithRebuildWorkers(n int) Option {
	return func(o *options) { o.graphOpts = append(o.graphOpts, graph.WithWorkers(n)) }
}

// WithSimilarMinSimilarity 设置 SimilarTo 的最小相似度
func WithSimilarMinSimilarity(v float64) Option {
	return func(o *options) { o.minSimilarity = v }
}

// WithStrategies 在内置策略之外注册更多策略
func WithStrategies(s ...Strategy) Option {
	return func(o *options) { o.strategies = append(o.strategies, s...) }
}

// WithActiveStrategy 设置初始激活策略，默认 score-based
func WithActiveStrategy(name string) Option {
	return func(o *options) { o.activeStrategy = name }
}

// WithHiddenStore 启用用户隐藏列表：HideListing 写入，score-based 策略读取。
func WithHiddenStore(s core.Store, keyPrefix string) Option {
	return func(o *options) {
		o.hiddenStore = s
		o.hiddenPrefix = keyPrefix
	}
}

// NewManager 创建 Manager，内置 score-based 策略并设为激活。
func NewManager(catalog Catalog, profiles Profiles, opts ...Option) (*Manager, error) {
	if catalog == nil || profiles == nil {
		return nil, core.InvalidArgumentf(core.ModuleRecommend, "catalog and profiles are required")
	}
	o := options{
		logger:         zerolog.Nop(),
		minSimilarity:  DefaultSimilarMinSimilarity,
		activeStrategy: ScoreBasedStrategy,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.minSimilarity < 0 || o.minSimilarity > 1 {
		return nil, core.InvalidArgumentf(core.ModuleRecommend, "min similarity must be within [0,1], got %v", o.minSimilarity)
	}

	logger := logging.Component(o.logger, "recommend")
	m := &Manager{
		catalog:       catalog,
		profiles:      profiles,
		users:         o.users,
		graph:         graph.New(append(o.graphOpts, graph.WithLogger(o.logger))...),
		minSimilarity: o.minSimilarity,
		strategies:    make(map[string]Strategy),
		hiddenPrefix:  o.hiddenPrefix,
		logger:        logger,
	}

	var scoreBased *PipelineStrategy
	if o.hiddenStore != nil {
		m.hidden = filter.NewStoreAdapter(o.hiddenStore)
		scoreBased = NewScoreBased(&filter.FilterNode{
			NodeName: "filter.user_hidden",
			Filters:  []filter.Filter{filter.NewUserHiddenFilter(m.hidden, o.hiddenPrefix)},
			Logger:   &logger,
		})
	} else {
		scoreBased = NewScoreBased()
	}

	for _, s := range append([]Strategy{scoreBased}, o.strategies...) {
		if err := m.RegisterStrategy(s); err != nil {
			return nil, err
		}
	}
	if err := m.SetStrategy(o.activeStrategy); err != nil {
		return nil, err
	}
	return m, nil
}

// RecommendForUser 为用户生成至多 limit 条推荐。
//
// 用户没有偏好时使用默认画像；limit == 0 返回空列表。
func (m *Manager) RecommendForUser(ctx context.Context, userID string, limit int) ([]core.Listing, error) {
	start := time.Now()
	ctx, requestID := logging.EnsureRequestID(ctx)
	strategy := m.activeStrategy()
	log := m.logger.With().
		Str("request_id", requestID).
		Str("user_id", userID).
		Str("strategy", strategy.Name()).
		Logger()

	out, err := m.recommendForUser(ctx, strategy, requestID, userID, limit)
	metrics.RecordRecommend("recommend_for_user", strategy.Name(), outcome(err), time.Since(start))
	if err != nil {
		log.Warn().Err(err).Int("limit", limit).Msg("recommend for user failed")
		return nil, err
	}
	log.Debug().
		Int("limit", limit).
		Int("results", len(out)).
		Dur("elapsed", time.Since(start)).
		Msg("recommendations served")
	return out, nil
}

func (m *Manager) recommendForUser(
	ctx context.Context,
	strategy Strategy,
	requestID, userID string,
	limit int,
) ([]core.Listing, error) {
	if limit < 0 {
		return nil, core.InvalidArgumentf(core.ModuleRecommend, "limit must be >= 0, got %d", limit)
	}
	if err := m.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	profile, isDefault, err := m.profileFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		return []core.Listing{}, nil
	}

	catalog, err := m.catalog.AvailableListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	rctx := &core.RecommendContext{
		UserID:    userID,
		RequestID: requestID,
		Profile:   profile,
	}
	if isDefault {
		rctx.PutLabel("default_profile", utils.NewLabel("true", "recommend"))
	}
	out, err := strategy.Rank(ctx, rctx, catalog, limit)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", strategy.Name(), err)
	}
	if out == nil {
		out = []core.Listing{}
	}
	return out, nil
}

// SimilarTo 返回与 listingID 相似的房源，按相似度降序，至多 limit 条。
// 相似图未构建时先按当前目录重建；图中存在但已不在目录里的房源被跳过。
func (m *Manager) SimilarTo(ctx context.Context, listingID string, limit int) ([]core.Listing, error) {
	start := time.Now()
	ctx, requestID := logging.EnsureRequestID(ctx)
	log := m.logger.With().
		Str("request_id", requestID).
		Str("listing_id", listingID).
		Logger()

	out, err := m.similarTo(ctx, listingID, limit)
	metrics.RecordRecommend("similar_to", "graph", outcome(err), time.Since(start))
	if err != nil {
		log.Warn().Err(err).Int("limit", limit).Msg("similar listings failed")
		return nil, err
	}
	log.Debug().Int("limit", limit).Int("results", len(out)).Msg("similar listings served")
	return out, nil
}

func (m *Manager) similarTo(ctx context.Context, listingID string, limit int) ([]core.Listing, error) {
	if limit < 0 {
		return nil, core.InvalidArgumentf(core.ModuleRecommend, "limit must be >= 0, got %d", limit)
	}
	catalog, err := m.catalog.AvailableListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if !m.graph.Built() {
		if err := m.rebuildIfEmpty(ctx, catalog); err != nil {
			return nil, err
		}
	}

	ids, err := m.graph.Query(listingID, m.minSimilarity, limit)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]int, len(catalog))
	for i := range catalog {
		if _, dup := byID[catalog[i].ID]; !dup {
			byID[catalog[i].ID] = i
		}
	}
	out := make([]core.Listing, 0, len(ids))
	for _, id := range ids {
		if i, ok := byID[id]; ok {
			out = append(out, catalog[i])
		}
	}
	return out, nil
}

func (m *Manager) rebuildIfEmpty(ctx context.Context, catalog []core.Listing) error {
	m.rebuildMu.Lock()
	defer m.rebuildMu.Unlock()
	if m.graph.Built() {
		return nil
	}
	return m.graph.Rebuild(ctx, catalog)
}

// RebuildGraph 按当前目录全量重建相似图
func (m *Manager) RebuildGraph(ctx context.Context) error {
	catalog, err := m.catalog.AvailableListings(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	m.rebuildMu.Lock()
	defer m.rebuildMu.Unlock()
	return m.graph.Rebuild(ctx, catalog)
}

// RunRebuildLoop 每隔 interval 重建一次相似图，直到 ctx 结束。
// 单次重建失败只记录日志，不中断循环。
func (m *Manager) RunRebuildLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return core.InvalidArgumentf(core.ModuleRecommend, "rebuild interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.RebuildGraph(ctx); err != nil && ctx.Err() == nil {
				m.logger.Error().Err(err).Msg("periodic graph rebuild failed")
			}
		}
	}
}

// Graph 返回 Manager 持有的相似图
func (m *Manager) Graph() *graph.Graph {
	return m.graph
}

// RegisterStrategy 注册策略，重名返回 INVALID_ARGUMENT。
func (m *Manager) RegisterStrategy(s Strategy) error {
	if s == nil || s.Name() == "" {
		return core.InvalidArgumentf(core.ModuleRecommend, "strategy must have a name")
	}
	m.strategyMu.Lock()
	defer m.strategyMu.Unlock()
	if _, ok := m.strategies[s.Name()]; ok {
		return core.InvalidArgumentf(core.ModuleRecommend, "strategy %q already registered", s.Name())
	}
	m.strategies[s.Name()] = s
	m.order = append(m.order, s.Name())
	m.logger.Info().Str("strategy", s.Name()).Msg("registered strategy")
	return nil
}

// ListStrategies 按注册顺序返回策略名
func (m *Manager) ListStrategies() []string {
	m.strategyMu.RLock()
	defer m.strategyMu.RUnlock()
	return append([]string(nil), m.order...)
}

// SetStrategy 切换激活策略；未知策略返回 INVALID_ARGUMENT 且激活策略不变。
func (m *Manager) SetStrategy(name string) error {
	m.strategyMu.Lock()
	defer m.strategyMu.Unlock()
	if _, ok := m.strategies[name]; !ok {
		known := append([]string(nil), m.order...)
		sort.Strings(known)
		return core.InvalidArgumentf(core.ModuleRecommend, "unknown strategy %q (registered: %v)", name, known)
	}
	if m.active != name {
		m.logger.Info().Str("from", m.active).Str("to", name).Msg("active strategy changed")
	}
	m.active = name
	return nil
}

// ActiveStrategy 返回当前激活策略名
func (m *Manager) ActiveStrategy() string {
	m.strategyMu.RLock()
	defer m.strategyMu.RUnlock()
	return m.active
}

func (m *Manager) activeStrategy() Strategy {
	m.strategyMu.RLock()
	defer m.strategyMu.RUnlock()
	return m.strategies[m.active]
}

// SavePreferences 校验并保存用户偏好
func (m *Manager) SavePreferences(ctx context.Context, userID string, profile *core.Profile) (*core.Profile, error) {
	if userID == "" {
		return nil, core.InvalidArgumentf(core.ModuleRecommend, "user id is required")
	}
	if err := m.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	saved, err := m.profiles.Save(ctx, userID, profile)
	if err != nil {
		return nil, fmt.Errorf("save preferences of %s: %w", userID, err)
	}
	m.logger.Debug().Str("user_id", userID).Stringer("weights", saved.Weights).Msg("preferences saved")
	return saved, nil
}

// Preferences 返回用户偏好，没有保存过时返回默认画像。
func (m *Manager) Preferences(ctx context.Context, userID string) (*core.Profile, error) {
	if err := m.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	p, _, err := m.profileFor(ctx, userID)
	return p, err
}

// HideListing 把房源加入用户隐藏列表，之后 score-based 推荐不再返回它。
func (m *Manager) HideListing(ctx context.Context, userID, listingID string) error {
	if m.hidden == nil {
		return core.InvalidArgumentf(core.ModuleRecommend, "hidden listings are not enabled")
	}
	if userID == "" || listingID == "" {
		return core.InvalidArgumentf(core.ModuleRecommend, "user id and listing id are required")
	}
	if err := m.ensureUser(ctx, userID); err != nil {
		return err
	}
	return m.hidden.AddID(ctx, filter.HiddenKey(m.hiddenPrefix, userID), listingID)
}

// UnhideListing 从用户隐藏列表中移除房源
func (m *Manager) UnhideListing(ctx context.Context, userID, listingID string) error {
	if m.hidden == nil {
		return core.InvalidArgumentf(core.ModuleRecommend, "hidden listings are not enabled")
	}
	return m.hidden.RemoveID(ctx, filter.HiddenKey(m.hiddenPrefix, userID), listingID)
}

func (m *Manager) ensureUser(ctx context.Context, userID string) error {
	if m.users == nil {
		return nil
	}
	ok, err := m.users.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user %s: %w", userID, err)
	}
	if !ok {
		return core.NotFoundf(core.ModuleRecommend, "user %s not found", userID)
	}
	return nil
}

func (m *Manager) profileFor(ctx context.Context, userID string) (*core.Profile, bool, error) {
	p, ok, err := m.profiles.ForUser(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("load preferences of %s: %w", userID, err)
	}
	if !ok || p == nil {
		return core.DefaultProfile(), true, nil
	}
	if err := p.Validate(); err != nil {
		return nil, false, err
	}
	return p, false, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case core.IsNotFound(err):
		return "not_found"
	case core.IsInvalidArgument(err):
		return "invalid"
	default:
		return "error"
	}
}
