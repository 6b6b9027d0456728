package rerank

import (
	"context"
	"reflect"
	"strconv"
	"testing"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pkg/utils"
)

func itemIDs(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID())
	}
	return out
}

func TestTopNNode(t *testing.T) {
	listings := []core.Listing{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"zero yields empty", 0, []string{}},
		{"negative keeps all", -1, []string{"a", "b", "c"}},
		{"truncates", 2, []string{"a", "b"}},
		{"larger than input", 10, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&TopNNode{N: tt.n}).Process(context.Background(), nil, core.ItemsFromListings(listings))
			if err != nil {
				t.Fatal(err)
			}
			if got := itemIDs(out); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Process() = %v, want %v", got, tt.want)
			}
			for i, it := range out {
				if got := it.Labels["rerank.position"].Value; got != strconv.Itoa(i+1) {
					t.Errorf("%s rerank.position = %q, want %d", it.ID(), got, i+1)
				}
			}
		})
	}
}

func TestDiversity(t *testing.T) {
	listings := []core.Listing{
		{ID: "a", Neighborhood: "Centro", Category: core.CategoryHouse},
		{ID: "b", Neighborhood: "centro ", Category: core.CategoryHouse},
		{ID: "c", Neighborhood: "Cumbayá", Category: core.CategoryRoom},
		{ID: "d", Neighborhood: "", Category: core.CategoryHouse},
		{ID: "e", Neighborhood: "Centro", Category: core.CategoryStudio},
	}
	tests := []struct {
		name string
		node *Diversity
		want []string
	}{
		{"one per neighborhood", &Diversity{}, []string{"a", "c", "d"}},
		{"two per neighborhood", &Diversity{MaxPerGroup: 2}, []string{"a", "b", "c", "d"}},
		{"demote overflow", &Diversity{Demote: true}, []string{"a", "c", "d", "b", "e"}},
		{"by category", &Diversity{Key: "category"}, []string{"a", "c", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.node.Process(context.Background(), nil, core.ItemsFromListings(listings))
			if err != nil {
				t.Fatal(err)
			}
			if got := itemIDs(out); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Process() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiversityPrefersLabel(t *testing.T) {
	items := core.ItemsFromListings([]core.Listing{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	items[0].PutLabel("segment", utils.NewLabel("x", "test"))
	items[1].PutLabel("segment", utils.NewLabel("x", "test"))
	out, _ := (&Diversity{Key: "segment"}).Process(context.Background(), nil, items)
	if got := itemIDs(out); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("Process() = %v, want [a c]", got)
	}
}
