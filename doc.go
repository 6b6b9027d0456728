// Package roomrec 是一个租房房源推荐引擎。
//
// 设计要点：
// - Pipeline-first: 个性化推荐由 Node 串联（Filter → Rank → ReRank），策略即一条具名 Pipeline
// - Labels-first: 过滤原因与子分通过 labels 透传，便于解释推荐结果
// - 相似图: 房源两两相似度建成无向带权图，"相似房源"是一次有界的广度优先查询
package roomrec

import (
	"github.com/rushteam/roomrec/pipeline"
	"github.com/rushteam/roomrec/recommend"
)

// 轻量 facade：便于直接 import "roomrec" 使用核心抽象。
type (
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind
	Manager  = recommend.Manager
	Strategy = recommend.Strategy
)

const (
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
	KindReRank = pipeline.KindReRank
)

// NewManager 是 recommend.NewManager 的别名
var NewManager = recommend.NewManager
