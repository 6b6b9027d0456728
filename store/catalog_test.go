package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/rushteam/roomrec/core"
)

func catalogFixture() []core.Listing {
	return []core.Listing{
		{
			ID: "L2", Title: "Loft", Price: core.Price(1_050_000), Category: core.CategoryApartment,
			Status: core.StatusAvailable, City: "Quito", Neighborhood: "La Carolina",
			Location: &core.GeoPoint{Lat: -0.18, Lng: -78.47},
			Bedrooms: 2, Bathrooms: 1, Area: core.Float(70), Amenities: []string{"wifi"},
		},
		{
			ID: "L1", Title: "House", Price: core.Price(1_000_000), Category: core.CategoryHouse,
			Status: core.StatusAvailable, City: "Quito", Bedrooms: 3, Bathrooms: 2,
		},
		{
			ID: "L3", Title: "Rented", Category: core.CategoryRoom,
			Status: core.StatusRented, City: "Quito", Bedrooms: 1, Bathrooms: 1,
		},
	}
}

func TestKVCatalog(t *testing.T) {
	ctx := context.Background()
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			c := NewKVCatalog(s, "test")
			if err := c.PutAll(ctx, catalogFixture()); err != nil {
				t.Fatal(err)
			}

			avail, err := c.AvailableListings(ctx)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, l := range avail {
				ids = append(ids, l.ID)
			}
			if !reflect.DeepEqual(ids, []string{"L1", "L2"}) {
				t.Errorf("AvailableListings ids = %v, want [L1 L2]", ids)
			}

			got, err := c.Get(ctx, "L2")
			if err != nil {
				t.Fatal(err)
			}
			if !got.Price.Valid || got.Price.Decimal.IntPart() != 1_050_000 {
				t.Errorf("price round trip = %v", got.Price)
			}
			if got.Location == nil || got.Area == nil || *got.Area != 70 {
				t.Errorf("optional fields lost: %+v", got)
			}

			if _, err := c.Get(ctx, "nope"); !core.IsNotFound(err) {
				t.Errorf("Get(nope) err = %v, want NOT_FOUND", err)
			}

			if err := c.Delete(ctx, "L2"); err != nil {
				t.Fatal(err)
			}
			all, _ := c.Listings(ctx)
			if len(all) != 2 {
				t.Errorf("Listings after delete = %d, want 2", len(all))
			}
		})
	}
}

func TestKVCatalogRejectsInvalidListing(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	c := NewKVCatalog(s, "")
	err := c.Put(context.Background(), core.Listing{ID: "bad", Price: core.Price(-1)})
	if !core.IsInvalidArgument(err) {
		t.Errorf("Put(negative price) err = %v, want INVALID_ARGUMENT", err)
	}
}

func TestKVProfilesAndUsers(t *testing.T) {
	ctx := context.Background()
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			profiles := NewKVProfiles(s, "test")
			if _, ok, err := profiles.ForUser(ctx, "u1"); err != nil || ok {
				t.Fatalf("ForUser(new) = ok %v err %v", ok, err)
			}

			p := core.DefaultProfile()
			p.PreferredCity = "Quito"
			p.MinPrice = core.Price(900_000)
			p.MaxPrice = core.Price(1_100_000)
			p.MinArea = core.Float(40)
			saved, err := profiles.Save(ctx, "u1", p)
			if err != nil {
				t.Fatal(err)
			}
			if saved == p {
				t.Error("Save should return a copy")
			}

			got, ok, err := profiles.ForUser(ctx, "u1")
			if err != nil || !ok {
				t.Fatalf("ForUser = ok %v err %v", ok, err)
			}
			if got.PreferredCity != "Quito" || !got.MaxPrice.Decimal.Equal(p.MaxPrice.Decimal) || *got.MinArea != 40 {
				t.Errorf("profile round trip = %+v", got)
			}
			if got.Weights != core.DefaultWeights() {
				t.Errorf("weights round trip = %v", got.Weights)
			}

			users := NewKVUsers(s, "test")
			if ok, _ := users.Exists(ctx, "u1"); ok {
				t.Error("u1 should not exist yet")
			}
			if err := users.Add(ctx, "u1"); err != nil {
				t.Fatal(err)
			}
			if ok, err := users.Exists(ctx, "u1"); err != nil || !ok {
				t.Errorf("Exists(u1) = %v, %v", ok, err)
			}
		})
	}
}
