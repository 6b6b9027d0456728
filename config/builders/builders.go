// Package builders 在 init 中把内置 Node 注册到 config 注册表。
package builders

import (
	"fmt"

	"github.com/rushteam/roomrec/config"
	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/filter"
	"github.com/rushteam/roomrec/pipeline"
	"github.com/rushteam/roomrec/pkg/conv"
	"github.com/rushteam/roomrec/rank"
	"github.com/rushteam/roomrec/rerank"
)

func init() {
	config.Register("filter.hard", BuildHardFilterNode)
	config.Register("filter.rule", BuildRuleFilterNode)
	config.Register("filter.blacklist", BuildBlacklistNode)
	config.Register("rank.score", BuildScoreNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildHardFilterNode 构建硬约束过滤，默认 strict。
func BuildHardFilterNode(cfg map[string]any) (pipeline.Node, error) {
	return &filter.FilterNode{
		NodeName: "filter.hard",
		Filters:  []filter.Filter{&filter.HardConstraintFilter{}},
		Strict:   conv.ConfigGet(cfg, "strict", true),
	}, nil
}

// BuildRuleFilterNode 构建 CEL 规则过滤。
//
//	config:
//	  rules:
//	    - name: has_parking
//	      expr: '"parking" in listing.amenities'
//
// 也可以直接写单条 name/expr。
func BuildRuleFilterNode(cfg map[string]any) (pipeline.Node, error) {
	var rules []map[string]any
	if raw, ok := cfg["rules"].([]any); ok {
		for _, r := range raw {
			m, ok := r.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("rule must be a map, got %T", r)
			}
			rules = append(rules, m)
		}
	} else if cfg != nil {
		rules = append(rules, cfg)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("filter.rule requires at least one expr")
	}

	filters := make([]filter.Filter, 0, len(rules))
	for i, s := range rules {
		name := conv.ConfigGet(s, "name", fmt.Sprintf("rule_%d", i))
		f, err := filter.NewRuleFilter(name, conv.ConfigGet(s, "expr", ""))
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return &filter.FilterNode{
		NodeName: "filter.rule",
		Filters:  filters,
		Strict:   conv.ConfigGet(cfg, "strict", false),
	}, nil
}

// BuildBlacklistNode 构建静态黑名单过滤；需要读存储时用 config.RegisterStoreNodes。
func BuildBlacklistNode(cfg map[string]any) (pipeline.Node, error) {
	return &filter.FilterNode{
		NodeName: "filter.blacklist",
		Filters:  []filter.Filter{filter.NewBlacklistFilter(conv.ConfigGetStrings(cfg, "listing_ids"), nil, "")},
	}, nil
}

// BuildScoreNode 构建打分排序节点，weights 可覆盖用户画像中的权重。
func BuildScoreNode(cfg map[string]any) (pipeline.Node, error) {
	raw, ok := cfg["weights"].(map[string]any)
	if !ok {
		return &rank.ScoreNode{}, nil
	}
	w := core.Weights{
		Price:     conv.ConfigGetFloat64(raw, "price", 0),
		Location:  conv.ConfigGetFloat64(raw, "location", 0),
		Amenities: conv.ConfigGetFloat64(raw, "amenities", 0),
		Size:      conv.ConfigGetFloat64(raw, "size", 0),
		Category:  conv.ConfigGetFloat64(raw, "category", 0),
	}
	if w.Price < 0 || w.Location < 0 || w.Amenities < 0 || w.Size < 0 || w.Category < 0 {
		return nil, fmt.Errorf("rank.score weights must be non-negative: %s", w)
	}
	if !w.Finite() {
		return nil, fmt.Errorf("rank.score weights must be finite: %s", w)
	}
	return &rank.ScoreNode{Weights: &w}, nil
}

func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.Diversity{
		Key:         conv.ConfigGet(cfg, "key", "neighborhood"),
		MaxPerGroup: conv.ConfigGetInt(cfg, "max_per_group", 1),
		Demote:      conv.ConfigGet(cfg, "demote", false),
	}, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	n := conv.ConfigGetInt(cfg, "n", -1)
	return &rerank.TopNNode{N: n}, nil
}
