// Package graph 维护房源相似图：无向带权图，边权为房源两两相似度。
//
// 生命周期：
//
//	EMPTY --Rebuild--> BUILT --Clear--> EMPTY
//
// Rebuild 在锁外计算新的邻接表，再在写锁内整体替换；
// 查询要么看到完整的旧图，要么看到完整的新图。
package graph

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pkg/metrics"
	"github.com/rushteam/roomrec/pkg/topn"
	"github.com/rushteam/roomrec/similarity"
)

// DefaultThreshold 建图时边权必须严格大于该值
const DefaultThreshold = 0.2

// Neighbor 是一条出边
type Neighbor struct {
	ID     string
	Weight float64
}

// Edge 是一条无向边，A < B
type Edge struct {
	A, B   string
	Weight float64
}

// Graph 是并发安全的房源相似图。
type Graph struct {
	mu    sync.RWMutex
	adj   map[string]map[string]float64
	built bool

	threshold float64
	workers   int
	logger    zerolog.Logger
}

// Option 配置 Graph
type Option func(*Graph)

// WithThreshold 设置建图阈值
func WithThreshold(t float64) Option {
	return func(g *Graph) { g.threshold = t }
}

// WithWorkers 设置 Rebuild 的并发数，<= 0 时使用 GOMAXPROCS
func WithWorkers(n int) Option {
	return func(g *Graph) { g.workers = n }
}

// WithLogger 设置 logger
func WithLogger(l zerolog.Logger) Option {
	return func(g *Graph) { g.logger = l }
}

// New 创建一个空图
func New(opts ...Option) *Graph {
	g := &Graph{
		adj:       make(map[string]map[string]float64),
		threshold: DefaultThreshold,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.workers <= 0 {
		g.workers = runtime.GOMAXPROCS(0)
	}
	g.logger = g.logger.With().Str("component", "graph").Logger()
	return g
}

// AddNode 幂等地加入节点
func (g *Graph) AddNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.adj[id]; !ok {
		g.adj[id] = make(map[string]float64)
	}
}

// AddEdge 加入无向边，重复加入以最后一次为准。
func (g *Graph) AddEdge(a, b string, weight float64) error {
	if err := validateWeight(weight); err != nil {
		return err
	}
	if a == b {
		return core.InvalidArgumentf(core.ModuleGraph, "self edge on %s", a)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	putEdge(g.adj, a, b, weight)
	return nil
}

// Rebuild 清空并按目录重建整张图：每个房源一个节点，
// 两两计算 similarity.Pairwise，权重大于阈值才连边。ID 重复的房源只取第一次出现。
func (g *Graph) Rebuild(ctx context.Context, catalog []core.Listing) error {
	start := time.Now()
	adj, edges, err := g.compute(ctx, catalog)
	if err != nil {
		metrics.RecordGraphRebuild(time.Since(start), 0, 0, err)
		g.logger.Warn().Err(err).Int("listings", len(catalog)).Msg("similarity graph rebuild aborted")
		return err
	}

	g.mu.Lock()
	g.adj = adj
	g.built = true
	g.mu.Unlock()

	elapsed := time.Since(start)
	metrics.RecordGraphRebuild(elapsed, len(adj), edges, nil)
	g.logger.Info().
		Int("nodes", len(adj)).
		Int("edges", edges).
		Dur("elapsed", elapsed).
		Msg("similarity graph rebuilt")
	return nil
}

func (g *Graph) compute(ctx context.Context, catalog []core.Listing) (map[string]map[string]float64, int, error) {
	listings := make([]*core.Listing, 0, len(catalog))
	adj := make(map[string]map[string]float64, len(catalog))
	for i := range catalog {
		id := catalog[i].ID
		if _, dup := adj[id]; dup {
			continue
		}
		adj[id] = make(map[string]float64)
		listings = append(listings, &catalog[i])
	}

	rows := make([][]Neighbor, len(listings))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i := range listings {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			var row []Neighbor
			for j := i + 1; j < len(listings); j++ {
				w := similarity.Pairwise(listings[i], listings[j])
				if w > g.threshold {
					row = append(row, Neighbor{ID: listings[j].ID, Weight: math.Min(w, 1)})
				}
			}
			rows[i] = row
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, 0, fmt.Errorf("rebuild similarity graph: %w", err)
	}

	edges := 0
	for i, row := range rows {
		for _, nb := range row {
			putEdge(adj, listings[i].ID, nb.ID, nb.Weight)
			edges++
		}
	}
	return adj, edges, nil
}

// Query 从 seed 出发做广度优先遍历，每个节点只访问一次；
// 经由权重 >= minSimilarity 的边到达的邻居按边权放入有界大顶堆，
// 最终按权重降序（同权按 ID）返回至多 maxResults 个 ID。未知 seed 返回空列表。
func (g *Graph) Query(seed string, minSimilarity float64, maxResults int) ([]string, error) {
	if err := validateWeight(minSimilarity); err != nil {
		return nil, err
	}
	if maxResults < 0 {
		return nil, core.InvalidArgumentf(core.ModuleGraph, "maxResults must be >= 0, got %d", maxResults)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.adj[seed]; !ok || maxResults == 0 {
		return []string{}, nil
	}

	// 结果数不会超过节点数
	limit := min(maxResults, len(g.adj)-1)
	sel := topn.NewWithTieBreak(limit, func(a, b string) bool { return a < b })
	visited := map[string]struct{}{seed: {}}
	queue := []string{seed}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range sortedByID(g.adj[cur]) {
			if nb.Weight < minSimilarity {
				continue
			}
			if _, seen := visited[nb.ID]; seen {
				continue
			}
			visited[nb.ID] = struct{}{}
			sel.Insert(nb.ID, nb.Weight)
			queue = append(queue, nb.ID)
		}
	}

	found := make([]Neighbor, 0, sel.Size())
	for {
		id, w, ok := sel.ExtractMax()
		if !ok {
			break
		}
		found = append(found, Neighbor{ID: id, Weight: w})
	}
	sortNeighbors(found)

	out := make([]string, len(found))
	for i, nb := range found {
		out[i] = nb.ID
	}
	return out, nil
}

// Clear 清空图并回到 EMPTY
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.adj = make(map[string]map[string]float64)
	g.built = false
}

// Built 表示是否已经 Rebuild 过（目录为空时也算）
func (g *Graph) Built() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.built
}

func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.adj)
}

// EdgeCount 返回无向边数
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, nbs := range g.adj {
		n += len(nbs)
	}
	return n / 2
}

// Neighbors 返回直接邻居，按权重降序（同权按 ID）。
func (g *Graph) Neighbors(id string) []Neighbor {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := sortedByID(g.adj[id])
	sortNeighbors(out)
	return out
}

// Weight 返回边权
func (g *Graph) Weight(a, b string) (float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	w, ok := g.adj[a][b]
	return w, ok
}

// Edges 返回全部无向边，按 (A, B) 排序。
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Edge
	for a, nbs := range g.adj {
		for b, w := range nbs {
			if a < b {
				out = append(out, Edge{A: a, B: b, Weight: w})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

func putEdge(adj map[string]map[string]float64, a, b string, w float64) {
	if adj[a] == nil {
		adj[a] = make(map[string]float64)
	}
	if adj[b] == nil {
		adj[b] = make(map[string]float64)
	}
	adj[a][b] = w
	adj[b][a] = w
}

func validateWeight(w float64) error {
	if math.IsNaN(w) || w < 0 || w > 1 {
		return core.InvalidArgumentf(core.ModuleGraph, "similarity must be within [0,1], got %v", w)
	}
	return nil
}

func sortedByID(nbs map[string]float64) []Neighbor {
	out := make([]Neighbor, 0, len(nbs))
	for id, w := range nbs {
		out = append(out, Neighbor{ID: id, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortNeighbors(nbs []Neighbor) {
	sort.SliceStable(nbs, func(i, j int) bool {
		if nbs[i].Weight != nbs[j].Weight {
			return nbs[i].Weight > nbs[j].Weight
		}
		return nbs[i].ID < nbs[j].ID
	})
}
