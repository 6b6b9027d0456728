package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/rushteam/roomrec/core"
)

func newBackends(t *testing.T) map[string]core.HashStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rs, err := NewRedisStore(context.Background(), mr.Addr(), 0)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	ms := NewMemoryStore()
	t.Cleanup(func() {
		_ = rs.Close()
		_ = ms.Close()
	})
	return map[string]core.HashStore{
		"memory": ms,
		"redis":  rs,
	}
}

func TestHashStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
				t.Errorf("Get(missing) err = %v, want store not found", err)
			}
			if err := s.Set(ctx, "k", []byte("v")); err != nil {
				t.Fatal(err)
			}
			got, err := s.Get(ctx, "k")
			if err != nil || string(got) != "v" {
				t.Errorf("Get(k) = %q, %v", got, err)
			}

			if err := s.Set(ctx, "k", []byte("v2")); err != nil {
				t.Fatal(err)
			}
			if got, err := s.Get(ctx, "k"); err != nil || string(got) != "v2" {
				t.Errorf("Get(k) after overwrite = %q, %v", got, err)
			}

			if err := s.Delete(ctx, "k"); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
				t.Errorf("Get after Delete err = %v", err)
			}

			if err := s.HSet(ctx, "h", "f1", []byte("x")); err != nil {
				t.Fatal(err)
			}
			if err := s.HSet(ctx, "h", "f2", []byte("y")); err != nil {
				t.Fatal(err)
			}
			v, err := s.HGet(ctx, "h", "f1")
			if err != nil || string(v) != "x" {
				t.Errorf("HGet = %q, %v", v, err)
			}
			if _, err := s.HGet(ctx, "h", "nope"); !core.IsStoreNotFound(err) {
				t.Errorf("HGet(missing) err = %v", err)
			}
			if err := s.HDel(ctx, "h", "f1"); err != nil {
				t.Fatal(err)
			}
			all, err := s.HGetAll(ctx, "h")
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 1 || string(all["f2"]) != "y" {
				t.Errorf("HGetAll = %v", all)
			}
		})
	}
}

func TestRedisStoreSetNeverExpires(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rs, err := NewRedisStore(ctx, mr.Addr(), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer rs.Close()

	if err := rs.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("k"); ttl != 0 {
		t.Errorf("TTL(k) = %v, want no expiry", ttl)
	}
	mr.FastForward(24 * time.Hour)
	if got, err := rs.Get(ctx, "k"); err != nil || string(got) != "v" {
		t.Errorf("Get(k) after a day = %q, %v", got, err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	buf := []byte("abc")
	_ = s.Set(ctx, "k", buf)
	buf[0] = 'z'
	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value mutated through caller slice: %q", got)
	}
	got[1] = 'z'
	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value mutated through returned slice: %q", again)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
