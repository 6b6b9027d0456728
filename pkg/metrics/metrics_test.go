package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRecommend(t *testing.T) {
	before := testutil.ToFloat64(RecommendRequests.WithLabelValues("recommend", "score-based", "ok"))
	RecordRecommend("recommend", "score-based", "ok", 5*time.Millisecond)
	after := testutil.ToFloat64(RecommendRequests.WithLabelValues("recommend", "score-based", "ok"))
	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestRecordGraphRebuild(t *testing.T) {
	RecordGraphRebuild(10*time.Millisecond, 4, 3, nil)
	if got := testutil.ToFloat64(GraphNodes); got != 4 {
		t.Errorf("GraphNodes = %v, want 4", got)
	}
	if got := testutil.ToFloat64(GraphEdges); got != 3 {
		t.Errorf("GraphEdges = %v, want 3", got)
	}

	before := testutil.ToFloat64(GraphRebuilds.WithLabelValues("error"))
	RecordGraphRebuild(0, 0, 0, errors.New("boom"))
	if got := testutil.ToFloat64(GraphRebuilds.WithLabelValues("error")); got != before+1 {
		t.Errorf("error rebuilds = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(GraphNodes); got != 4 {
		t.Errorf("failed rebuild should not touch gauges, got %v", got)
	}
}

func TestRecordFiltered(t *testing.T) {
	before := testutil.ToFloat64(FilteredListings.WithLabelValues("filter.hard", "price"))
	RecordFiltered("filter.hard", "price")
	if got := testutil.ToFloat64(FilteredListings.WithLabelValues("filter.hard", "price")); got != before+1 {
		t.Errorf("filtered = %v, want %v", got, before+1)
	}
}
