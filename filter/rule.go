package filter

import (
	"context"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pkg/dsl"
)

// RuleFilter 使用 CEL 表达式声明额外的保留条件，表达式为 false 的房源被过滤。
//
// 示例：
//
//	&filter.RuleFilter{Expr: `"parking" in listing.amenities`}
//	&filter.RuleFilter{Expr: `listing.area == null || listing.area >= 40.0`}
type RuleFilter struct {
	// RuleName 规则名，出现在 filtered 标签与指标中，默认 filter.rule
	RuleName string

	Expr string
}

// NewRuleFilter 编译表达式，语法错误在构建时返回。
func NewRuleFilter(name, expr string) (*RuleFilter, error) {
	if expr == "" {
		return nil, core.InvalidArgumentf(core.ModuleConfig, "rule filter expression is required")
	}
	if _, err := dsl.Compile(expr); err != nil {
		return nil, core.InvalidArgumentf(core.ModuleConfig, "rule %q: %v", expr, err)
	}
	return &RuleFilter{RuleName: name, Expr: expr}, nil
}

func (f *RuleFilter) Name() string {
	if f.RuleName != "" {
		return f.RuleName
	}
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	keep, err := dsl.NewEval(item, rctx).Evaluate(f.Expr)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
