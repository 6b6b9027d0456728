package recommend

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/filter"
	"github.com/rushteam/roomrec/store"
)

type staticCatalog []core.Listing

func (c staticCatalog) AvailableListings(context.Context) ([]core.Listing, error) {
	out := make([]core.Listing, 0, len(c))
	for _, l := range c {
		if l.Available() {
			out = append(out, l)
		}
	}
	return out, nil
}

type failingCatalog struct{ err error }

func (c failingCatalog) AvailableListings(context.Context) ([]core.Listing, error) {
	return nil, c.err
}

func quitoCatalog() staticCatalog {
	return staticCatalog{
		{ID: "far", Price: core.Price(1_050_000), Category: core.CategoryApartment, City: "Quito", Neighborhood: "La Carolina",
			Bedrooms: 2, Bathrooms: 1, Area: core.Float(80), Amenities: []string{"wifi", "parking"}},
		{ID: "mid", Price: core.Price(1_000_000), Category: core.CategoryApartment, City: "Quito", Neighborhood: "La Carolina",
			Bedrooms: 2, Bathrooms: 1, Area: core.Float(80), Amenities: []string{"wifi", "parking"}},
		{ID: "gye", Price: core.Price(1_000_000), Category: core.CategoryApartment, City: "Guayaquil",
			Bedrooms: 2, Bathrooms: 1, Area: core.Float(80)},
		{ID: "studio", Price: core.Price(950_000), Category: core.CategoryStudio, City: "Quito", Neighborhood: "Centro",
			Bedrooms: 0, Bathrooms: 1, Area: core.Float(30)},
		{ID: "rented", Price: core.Price(1_000_000), Category: core.CategoryApartment, City: "Quito",
			Status: core.StatusRented, Bedrooms: 2, Bathrooms: 1},
	}
}

func equalWeights() core.Weights {
	return core.Weights{Price: 0.2, Location: 0.2, Amenities: 0.2, Size: 0.2, Category: 0.2}
}

func quitoProfile() *core.Profile {
	return &core.Profile{
		PreferredCity: "Quito",
		MinPrice:      core.Price(900_000),
		MaxPrice:      core.Price(1_100_000),
		Weights:       equalWeights(),
	}
}

type fixture struct {
	kv       *store.MemoryStore
	profiles *store.KVProfiles
	users    *store.KVUsers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := store.NewMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })
	return &fixture{
		kv:       kv,
		profiles: store.NewKVProfiles(kv, "test"),
		users:    store.NewKVUsers(kv, "test"),
	}
}

func newManager(t *testing.T, f *fixture, catalog Catalog, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(catalog, f.profiles, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func ids(listings []core.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func TestRecommendForUserQuitoScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := newManager(t, f, quitoCatalog())
	if _, err := m.SavePreferences(ctx, "ana", quitoProfile()); err != nil {
		t.Fatal(err)
	}

	got, err := m.RecommendForUser(ctx, "ana", 10)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"mid", "far", "studio"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("RecommendForUser() = %v, want %v", ids(got), want)
	}

	got, err = m.RecommendForUser(ctx, "ana", 1)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"mid"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("RecommendForUser(limit 1) = %v, want %v", ids(got), want)
	}
}

func TestRecommendForUserLimits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := newManager(t, f, quitoCatalog())
	profile := &core.Profile{MinPrice: core.Price(0), Weights: core.DefaultWeights()}
	if _, err := m.SavePreferences(ctx, "ana", profile); err != nil {
		t.Fatal(err)
	}

	got, err := m.RecommendForUser(ctx, "ana", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("limit 0 = %v, want empty non-nil list", got)
	}

	if _, err := m.RecommendForUser(ctx, "ana", -1); !core.IsInvalidArgument(err) {
		t.Errorf("limit -1 err = %v, want INVALID_ARGUMENT", err)
	}

	got, err = m.RecommendForUser(ctx, "ana", 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Errorf("limit above catalog size returned %d listings, want 4", len(got))
	}
}

func TestRecommendForUserUnknownUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := newManager(t, f, quitoCatalog(), WithUsers(f.users))

	if _, err := m.RecommendForUser(ctx, "ghost", 5); !core.IsNotFound(err) {
		t.Errorf("unknown user err = %v, want NOT_FOUND", err)
	}
	if err := f.users.Add(ctx, "ghost"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.RecommendForUser(ctx, "ghost", 5); err != nil {
		t.Errorf("registered user err = %v", err)
	}
}

func TestRecommendForUserDefaultProfile(t *testing.T) {
	f := newFixture(t)
	m := newManager(t, f, quitoCatalog())

	got, err := m.RecommendForUser(context.Background(), "nobody", 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range got {
		if l.ID == "studio" {
			t.Error("default profile requires one bedroom, studio should be filtered")
		}
		if l.ID == "rented" {
			t.Error("rented listing must never be recommended")
		}
	}
	if len(got) != 3 {
		t.Errorf("got %v, want 3 listings", ids(got))
	}

	p, err := m.Preferences(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p, core.DefaultProfile()) {
		t.Errorf("Preferences() = %+v, want default profile", p)
	}
}

func TestRecommendForUserInvalidStoredProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bad := quitoProfile()
	bad.MinPrice, bad.MaxPrice = bad.MaxPrice, bad.MinPrice
	if _, err := f.profiles.Save(ctx, "ana", bad); err != nil {
		t.Fatal(err)
	}
	m := newManager(t, f, quitoCatalog())
	if _, err := m.RecommendForUser(ctx, "ana", 5); !core.IsInvalidArgument(err) {
		t.Errorf("err = %v, want INVALID_ARGUMENT", err)
	}
	if _, err := m.SavePreferences(ctx, "ana", bad); !core.IsInvalidArgument(err) {
		t.Errorf("SavePreferences err = %v, want INVALID_ARGUMENT", err)
	}
}

func TestRecommendForUserHardConstraintsAndDeterminism(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	catalog := quitoCatalog()
	m := newManager(t, f, catalog)
	profile := quitoProfile()
	profile.MinBedrooms = 1
	profile.MinArea = core.Float(50)
	if _, err := m.SavePreferences(ctx, "ana", profile); err != nil {
		t.Fatal(err)
	}

	first, err := m.RecommendForUser(ctx, "ana", 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range first {
		if ok, reason := filter.MatchesHardConstraints(&l, profile); !ok {
			t.Errorf("listing %s violates %s", l.ID, reason)
		}
	}
	for i := 0; i < 5; i++ {
		again, err := m.RecommendForUser(ctx, "ana", 10)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(ids(again), ids(first)) {
			t.Fatalf("run %d = %v, want %v", i, ids(again), ids(first))
		}
	}
}

func TestRecommendForUserCatalogError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("catalog down")
	m := newManager(t, f, failingCatalog{err: boom})
	if _, err := m.RecommendForUser(context.Background(), "ana", 3); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

type reverseStrategy struct{}

func (reverseStrategy) Name() string { return "reverse" }

func (reverseStrategy) Rank(_ context.Context, _ *core.RecommendContext, catalog []core.Listing, limit int) ([]core.Listing, error) {
	out := make([]core.Listing, 0, len(catalog))
	for i := len(catalog) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, catalog[i])
	}
	return out, nil
}

func TestStrategyRegistry(t *testing.T) {
	f := newFixture(t)
	m := newManager(t, f, quitoCatalog(), WithStrategies(reverseStrategy{}))

	if got := m.ListStrategies(); !reflect.DeepEqual(got, []string{ScoreBasedStrategy, "reverse"}) {
		t.Errorf("ListStrategies() = %v", got)
	}
	if m.ActiveStrategy() != ScoreBasedStrategy {
		t.Errorf("ActiveStrategy() = %s", m.ActiveStrategy())
	}

	if err := m.SetStrategy("missing"); !core.IsInvalidArgument(err) {
		t.Errorf("SetStrategy(missing) err = %v", err)
	}
	if m.ActiveStrategy() != ScoreBasedStrategy {
		t.Errorf("active strategy changed after failed switch: %s", m.ActiveStrategy())
	}
	if err := m.RegisterStrategy(reverseStrategy{}); !core.IsInvalidArgument(err) {
		t.Errorf("duplicate RegisterStrategy err = %v", err)
	}

	if err := m.SetStrategy("reverse"); err != nil {
		t.Fatal(err)
	}
	got, err := m.RecommendForUser(context.Background(), "ana", 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"studio", "gye"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("reverse strategy = %v, want %v", ids(got), want)
	}

	if _, err := NewManager(quitoCatalog(), f.profiles, WithActiveStrategy("missing")); !core.IsInvalidArgument(err) {
		t.Errorf("NewManager(unknown active) err = %v", err)
	}
}

func TestSimilarTo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := newManager(t, f, quitoCatalog())
	if m.Graph().Built() {
		t.Fatal("graph should start empty")
	}

	got, err := m.SimilarTo(ctx, "mid", 3)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Graph().Built() {
		t.Error("SimilarTo should build the graph on first use")
	}
	if len(got) == 0 || got[0].ID != "far" {
		t.Fatalf("SimilarTo(mid) = %v, want far first", ids(got))
	}
	for _, l := range got {
		if l.ID == "mid" {
			t.Error("seed returned")
		}
		if l.ID == "rented" {
			t.Error("unavailable listing returned")
		}
	}

	if got, err := m.SimilarTo(ctx, "unknown", 3); err != nil || len(got) != 0 {
		t.Errorf("unknown seed = %v, %v", got, err)
	}
	if _, err := m.SimilarTo(ctx, "mid", -1); !core.IsInvalidArgument(err) {
		t.Errorf("negative limit err = %v", err)
	}
}

type mutableCatalog struct{ listings []core.Listing }

func (c *mutableCatalog) AvailableListings(context.Context) ([]core.Listing, error) {
	return append([]core.Listing(nil), c.listings...), nil
}

func TestSimilarToSkipsListingsLeftCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	catalog := &mutableCatalog{listings: quitoCatalog()[:2]}
	m := newManager(t, f, catalog)
	if err := m.RebuildGraph(ctx); err != nil {
		t.Fatal(err)
	}
	catalog.listings = catalog.listings[1:]

	got, err := m.SimilarTo(ctx, "mid", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("SimilarTo = %v, want listings missing from the catalog skipped", ids(got))
	}
}

func TestEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := newManager(t, f, staticCatalog{})
	if err := m.RebuildGraph(ctx); err != nil {
		t.Fatal(err)
	}
	if n := m.Graph().NodeCount(); n != 0 {
		t.Errorf("NodeCount = %d, want 0", n)
	}
	got, err := m.SimilarTo(ctx, "any", 5)
	if err != nil || len(got) != 0 {
		t.Errorf("SimilarTo = %v, %v; want empty", got, err)
	}
	recs, err := m.RecommendForUser(ctx, "ana", 5)
	if err != nil || len(recs) != 0 {
		t.Errorf("RecommendForUser = %v, %v; want empty", recs, err)
	}
}

func TestHideListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := newManager(t, f, quitoCatalog(), WithHiddenStore(f.kv, "test:hidden"))
	if _, err := m.SavePreferences(ctx, "ana", quitoProfile()); err != nil {
		t.Fatal(err)
	}
	if err := m.HideListing(ctx, "ana", "mid"); err != nil {
		t.Fatal(err)
	}
	got, err := m.RecommendForUser(ctx, "ana", 10)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"far", "studio"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("after hide = %v, want %v", ids(got), want)
	}

	other, err := m.RecommendForUser(ctx, "bob", 10)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(ids(other), "mid") {
		t.Errorf("hidden list leaked to another user: %v", ids(other))
	}

	if err := m.UnhideListing(ctx, "ana", "mid"); err != nil {
		t.Fatal(err)
	}
	got, err = m.RecommendForUser(ctx, "ana", 1)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"mid"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("after unhide = %v, want %v", ids(got), want)
	}

	plain := newManager(t, f, quitoCatalog())
	if err := plain.HideListing(ctx, "ana", "mid"); !core.IsInvalidArgument(err) {
		t.Errorf("HideListing without store err = %v", err)
	}
}

func TestRunRebuildLoop(t *testing.T) {
	f := newFixture(t)
	m := newManager(t, f, quitoCatalog())
	if err := m.RunRebuildLoop(context.Background(), 0); !core.IsInvalidArgument(err) {
		t.Errorf("zero interval err = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := m.RunRebuildLoop(ctx, 5*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunRebuildLoop err = %v", err)
	}
	if !m.Graph().Built() {
		t.Error("loop never rebuilt the graph")
	}
}
