// Package metrics 定义推荐服务的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendRequests 按策略与结果统计推荐请求
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomrec_recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"operation", "strategy", "outcome"}, // outcome: ok / not_found / invalid / error
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomrec_recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "strategy"},
	)

	// FilteredListings 按原因统计被硬约束过滤的房源
	FilteredListings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomrec_filtered_listings_total",
			Help: "Total number of listings removed by filters",
		},
		[]string{"filter", "reason"},
	)

	GraphRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roomrec_graph_rebuild_duration_seconds",
			Help:    "Duration of similarity graph rebuilds in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)

	GraphRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomrec_graph_rebuilds_total",
			Help: "Total number of similarity graph rebuilds",
		},
		[]string{"outcome"},
	)

	GraphNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roomrec_graph_nodes",
			Help: "Number of listings in the similarity graph",
		},
	)

	GraphEdges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roomrec_graph_edges",
			Help: "Number of undirected edges in the similarity graph",
		},
	)
)

// RecordRecommend 记录一次推荐请求
func RecordRecommend(operation, strategy, outcome string, duration time.Duration) {
	RecommendRequests.WithLabelValues(operation, strategy, outcome).Inc()
	RecommendDuration.WithLabelValues(operation, strategy).Observe(duration.Seconds())
}

// RecordFiltered 记录一条被过滤的房源
func RecordFiltered(filter, reason string) {
	FilteredListings.WithLabelValues(filter, reason).Inc()
}

// RecordGraphRebuild 记录一次相似图重建
func RecordGraphRebuild(duration time.Duration, nodes, edges int, err error) {
	if err != nil {
		GraphRebuilds.WithLabelValues("error").Inc()
		return
	}
	GraphRebuilds.WithLabelValues("ok").Inc()
	GraphRebuildDuration.Observe(duration.Seconds())
	GraphNodes.Set(float64(nodes))
	GraphEdges.Set(float64(edges))
}
