package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/roomrec/core"
)

// Pipeline 把一次排序拆成可组合的 Node 链：filter -> rank -> rerank。
type Pipeline struct {
	Nodes []Node
}

// New 创建 Pipeline
func New(nodes ...Node) *Pipeline {
	return &Pipeline{Nodes: nodes}
}

// With 返回在末尾追加节点后的新 Pipeline，原 Pipeline 不变。
func (p *Pipeline) With(nodes ...Node) *Pipeline {
	out := make([]Node, 0, len(p.Nodes)+len(nodes))
	out = append(out, p.Nodes...)
	out = append(out, nodes...)
	return &Pipeline{Nodes: out}
}

// Run 依次执行每个 Node；某个 Node 输出为空时提前结束。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if len(cur) == 0 {
			return cur, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// Names 返回节点名列表，用于日志。
func (p *Pipeline) Names() []string {
	names := make([]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		names = append(names, n.Name())
	}
	return names
}
