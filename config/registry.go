package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/roomrec/pipeline"
)

// 使用配置驱动时，需在入口处 import _ "github.com/rushteam/roomrec/config/builders"
// 以触发内置 Node（filter.hard、rank.score、rerank.topn 等）的 init 注册。

// NodeBuilder 与 pipeline.NodeBuilder 一致：根据 config 构建 Node。
type NodeBuilder = pipeline.NodeBuilder

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑，供 DefaultFactory 与配置驱动使用。
// 建议在 init 中调用，例如：func init() { config.Register("rank.score", BuildScoreNode) }
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回基于当前注册表构建的 NodeFactory。
// 返回值是独立副本，调用方可以继续注册依赖存储的 Node。
func DefaultFactory() *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 校验 pipeline 配置中所有 node 类型均已在 factory 注册。
func ValidatePipelineConfig(cfg *pipeline.Config, factory *pipeline.NodeFactory) error {
	if cfg == nil {
		return nil
	}
	known := make(map[string]struct{})
	for _, t := range factory.Types() {
		known[t] = struct{}{}
	}
	for _, nc := range cfg.Nodes {
		if _, ok := known[nc.Type]; !ok {
			supported := factory.Types()
			sort.Strings(supported)
			return fmt.Errorf("strategy %s: unsupported node type %q (supported: %v)", cfg.Name, nc.Type, supported)
		}
	}
	return nil
}
