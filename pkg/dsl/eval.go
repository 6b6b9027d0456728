package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/roomrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// programs 缓存编译后的表达式，key 为表达式原文
	programs sync.Map
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("listing", cel.DynType),
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Compile 编译表达式并缓存，配置加载阶段用它提前暴露语法错误。
func Compile(expr string) (cel.Program, error) {
	if prg, ok := programs.Load(expr); ok {
		return prg.(cel.Program), nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	actual, _ := programs.LoadOrStore(expr, prg)
	return actual.(cel.Program), nil
}

// Eval 是房源规则解释器，使用 CEL (Common Expression Language) 实现。
//
// 可用变量：
//   - listing：id / title / price / category / status / city / neighborhood /
//     bedrooms / bathrooms / area / amenities / view_count / favorite_count
//   - item：score / scores.{price,location,amenities,size,category}
//   - label：item 上的标签值，例如 label["filter.hard"]
//   - rctx：user_id / params
//
// 缺失的价格与面积为 null。
//
// 示例：
//   - `listing.price != null && listing.price <= 1500`
//   - `"wifi" in listing.amenities`
//   - `listing.neighborhood != rctx.params.exclude_neighborhood`
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
}

// NewEval 创建一个新的规则解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	return &Eval{item: item, rctx: rctx}
}

// Evaluate 执行表达式，返回布尔结果。空表达式恒为 true。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := Compile(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]any {
	labels := make(map[string]any)
	item := map[string]any{}
	listing := map[string]any{}
	if e.item != nil {
		for k, v := range e.item.Labels {
			labels[k] = v.Value
		}
		item["score"] = e.item.Score
		item["scores"] = map[string]any{
			"price":     e.item.Scores.Price,
			"location":  e.item.Scores.Location,
			"amenities": e.item.Scores.Amenities,
			"size":      e.item.Scores.Size,
			"category":  e.item.Scores.Category,
		}
		if e.item.Listing != nil {
			listing = listingInput(e.item.Listing)
			item["id"] = e.item.Listing.ID
		}
	}

	rctx := map[string]any{
		"user_id": "",
		"params":  map[string]any{},
	}
	if e.rctx != nil {
		rctx["user_id"] = e.rctx.UserID
		if e.rctx.Params != nil {
			rctx["params"] = e.rctx.Params
		}
	}

	return map[string]any{
		"listing": listing,
		"item":    item,
		"label":   labels,
		"rctx":    rctx,
	}
}

func listingInput(l *core.Listing) map[string]any {
	var price, area any
	if p, ok := l.PriceFloat(); ok {
		price = p
	}
	if l.Area != nil {
		area = *l.Area
	}
	amenities := make([]string, 0, len(l.Amenities))
	for tag := range core.NormalizeTags(l.Amenities) {
		amenities = append(amenities, tag)
	}
	return map[string]any{
		"id":             l.ID,
		"title":          l.Title,
		"price":          price,
		"category":       string(l.Category),
		"status":         string(l.Status),
		"city":           l.City,
		"neighborhood":   l.Neighborhood,
		"bedrooms":       l.Bedrooms,
		"bathrooms":      l.Bathrooms,
		"area":           area,
		"amenities":      amenities,
		"view_count":     l.ViewCount,
		"favorite_count": l.FavoriteCount,
	}
}
