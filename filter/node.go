package filter

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pipeline"
	"github.com/rushteam/roomrec/pkg/metrics"
	"github.com/rushteam/roomrec/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该房源就会被过滤掉。
type FilterNode struct {
	// NodeName 节点名，默认 filter.node
	NodeName string

	Filters []Filter

	// Strict 为 true 时过滤器错误中断整个 Pipeline；否则记录日志并保留该房源
	Strict bool

	Logger *zerolog.Logger
}

func (n *FilterNode) Name() string {
	if n.NodeName != "" {
		return n.NodeName
	}
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	filters, err := n.prepare(ctx, rctx)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil || item.Listing == nil {
			continue
		}

		filterName := ""
		for _, f := range filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				if n.Strict {
					return nil, fmt.Errorf("%s: listing %s: %w", f.Name(), item.ID(), err)
				}
				n.logger().Warn().Err(err).
					Str("filter", f.Name()).
					Str("listing_id", item.ID()).
					Msg("filter error, keeping listing")
				continue
			}
			if ok {
				filterName = f.Name()
				break
			}
		}

		if filterName != "" {
			reason := filterName
			if lbl, ok := item.Labels[LabelReason]; ok && lbl.Value != "" {
				reason = lbl.Value
			}
			item.PutLabel("filtered", utils.Label{Value: "true", Source: filterName})
			metrics.RecordFiltered(filterName, reason)
			continue
		}

		out = append(out, item)
	}

	return out, nil
}

func (n *FilterNode) prepare(ctx context.Context, rctx *core.RecommendContext) ([]Filter, error) {
	filters := make([]Filter, 0, len(n.Filters))
	for _, f := range n.Filters {
		p, ok := f.(Preparer)
		if !ok {
			filters = append(filters, f)
			continue
		}
		prepared, err := p.Prepare(ctx, rctx)
		if err != nil {
			if n.Strict {
				return nil, fmt.Errorf("prepare %s: %w", f.Name(), err)
			}
			n.logger().Warn().Err(err).Str("filter", f.Name()).Msg("prepare filter failed, skipping")
			continue
		}
		filters = append(filters, prepared)
	}
	return filters, nil
}

func (n *FilterNode) logger() *zerolog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
