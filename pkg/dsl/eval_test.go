package dsl

import (
	"testing"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/pkg/utils"
)

func TestEvaluate(t *testing.T) {
	item := core.NewItem(&core.Listing{
		ID:           "L1",
		Price:        core.Price(900),
		Category:     core.CategoryApartment,
		City:         "Quito",
		Neighborhood: "La Carolina",
		Bedrooms:     2,
		Bathrooms:    1,
		Amenities:    []string{"WiFi", " Parking "},
	})
	item.Score = 0.75
	item.PutLabel("filter.hard", utils.NewLabel("pass", "filter"))
	rctx := &core.RecommendContext{
		UserID: "u1",
		Params: map[string]any{"max_price": 1000},
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"empty expression", "", true},
		{"price bound", "listing.price != null && listing.price <= 1000", true},
		{"amenity membership is normalized", `"wifi" in listing.amenities`, true},
		{"int comparison", "listing.bedrooms >= 2", true},
		{"category", `listing.category == "HOUSE"`, false},
		{"request params", "listing.price <= rctx.params.max_price", true},
		{"score", "item.score > 0.8", false},
		{"label", `label["filter.hard"] == "pass"`, true},
		{"area missing is null", "listing.area == null", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEval(item, rctx).Evaluate(tt.expr)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	item := core.NewItem(&core.Listing{ID: "L1"})
	if _, err := NewEval(item, nil).Evaluate("listing.bedrooms >"); err == nil {
		t.Error("expected compile error")
	}
	if _, err := NewEval(item, nil).Evaluate("listing.bedrooms + 1"); err == nil {
		t.Error("expected non-boolean error")
	}
}

func TestCompileCaches(t *testing.T) {
	a, err := Compile("listing.bedrooms > 1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compile("listing.bedrooms > 1")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected cached program to be reused")
	}
}
