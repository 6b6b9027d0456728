package core

import (
	"fmt"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rushteam/roomrec/pkg/utils"
)

func TestDomainErrorHelpers(t *testing.T) {
	nf := NotFoundf(ModuleRecommend, "user %s not found", "u1")
	wrapped := fmt.Errorf("recommend: %w", nf)

	if !IsNotFound(wrapped) || IsInvalidArgument(wrapped) {
		t.Errorf("wrapped NOT_FOUND not recognised: %v", wrapped)
	}
	if de := GetDomainError(wrapped); de == nil || de.Module != ModuleRecommend {
		t.Errorf("GetDomainError() = %+v", de)
	}
	if IsDomainError(fmt.Errorf("plain")) {
		t.Error("plain error reported as domain error")
	}
	if !IsStoreNotFound(fmt.Errorf("get: %w", ErrStoreNotFound)) {
		t.Error("store not found not recognised")
	}
	if IsStoreNotFound(nf) {
		t.Error("recommend NOT_FOUND reported as store miss")
	}
}

func TestProfileValidate(t *testing.T) {
	neg := decimal.NewNullDecimal(decimal.NewFromInt(-1))
	tests := []struct {
		name    string
		mutate  func(p *Profile)
		wantErr bool
	}{
		{"default", func(*Profile) {}, false},
		{"price range", func(p *Profile) { p.MinPrice, p.MaxPrice = Price(100), Price(200) }, false},
		{"min above max", func(p *Profile) { p.MinPrice, p.MaxPrice = Price(300), Price(200) }, true},
		{"negative min price", func(p *Profile) { p.MinPrice = neg }, true},
		{"negative bedrooms", func(p *Profile) { p.MinBedrooms = -1 }, true},
		{"negative area", func(p *Profile) { p.MinArea = Float(-5) }, true},
		{"negative weight", func(p *Profile) { p.Weights.Size = -0.1 }, true},
		{"infinite weight", func(p *Profile) { p.Weights.Amenities = math.Inf(1) }, true},
		{"nan weight", func(p *Profile) { p.Weights.Price = math.NaN() }, true},
		{"infinite area", func(p *Profile) { p.MinArea = Float(math.Inf(1)) }, true},
		{"unknown category", func(p *Profile) { p.PreferredCategory = "CASTLE" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProfile()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsInvalidArgument(err) {
				t.Errorf("err = %v, want INVALID_ARGUMENT", err)
			}
		})
	}
	var nilProfile *Profile
	if err := nilProfile.Validate(); !IsInvalidArgument(err) {
		t.Errorf("nil profile err = %v", err)
	}
}

func TestProfileCloneIsDeep(t *testing.T) {
	p := DefaultProfile()
	p.DesiredAmenities = []string{"wifi"}
	p.MinArea = Float(40)
	c := p.Clone()
	c.DesiredAmenities[0] = "pool"
	*c.MinArea = 10
	if p.DesiredAmenities[0] != "wifi" || *p.MinArea != 40 {
		t.Errorf("clone shares state with original: %+v", p)
	}
}

func TestListingHelpers(t *testing.T) {
	l := Listing{ID: "x", Category: CategoryRoom}
	if !l.Available() {
		t.Error("empty status should count as available")
	}
	if _, ok := l.PriceFloat(); ok {
		t.Error("missing price reported as present")
	}
	if CategoryApartment.Position() != 0 || CategoryStudio.Position() != 1 {
		t.Error("category positions not normalized")
	}
	if err := (&Listing{ID: "y", Location: &GeoPoint{Lat: 91}}).Validate(); !IsInvalidArgument(err) {
		t.Errorf("bad coordinates err = %v", err)
	}
	tags := NormalizeTags([]string{" WiFi ", "wifi", ""})
	if len(tags) != 1 {
		t.Errorf("NormalizeTags() = %v", tags)
	}
}

func TestItemLabels(t *testing.T) {
	it := NewItem(&Listing{ID: "x"})
	it.PutLabel("filtered", utils.NewLabel("true", "filter.hard"))
	it.PutLabel("filtered", utils.NewLabel("true", "filter.rule"))
	if got := it.Labels["filtered"]; got.Value != "true|true" || got.Source != "filter.hard,filter.rule" {
		t.Errorf("merged label = %+v", got)
	}
	if got := ListingsFromItems([]*Item{it, nil}); len(got) != 1 || got[0].ID != "x" {
		t.Errorf("ListingsFromItems() = %v", got)
	}
}
