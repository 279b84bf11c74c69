package factcheck

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	cache, err := NewCache("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return cache, s
}

func TestCachePutGet(t *testing.T) {
	cache, s := setupTestCache(t)
	defer cache.Close()
	defer s.Close()

	ctx := context.Background()
	fc := &FactCheck{
		ID:         "fc_1",
		TextHash:   TextHash("claim"),
		Text:       "claim",
		Verdict:    "well established",
		Confidence: ConfidenceHigh,
		AISource:   SourceLibrary,
		CreatedAt:  time.Now().UTC(),
	}

	if err := cache.Put(ctx, "key-1", fc); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := cache.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Verdict != "well established" || got.Confidence != ConfidenceHigh {
		t.Errorf("got %+v", got)
	}
}

func TestCacheMiss(t *testing.T) {
	cache, s := setupTestCache(t)
	defer cache.Close()
	defer s.Close()

	_, ok, err := cache.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected cache miss")
	}
}

func TestCacheExpiry(t *testing.T) {
	cache, s := setupTestCache(t)
	defer cache.Close()
	defer s.Close()

	ctx := context.Background()
	if err := cache.Put(ctx, "key", &FactCheck{ID: "fc_2"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	s.FastForward(defaultCacheTTL + time.Minute)

	_, ok, err := cache.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("entry should expire after the TTL")
	}
}

func TestCacheDelete(t *testing.T) {
	cache, s := setupTestCache(t)
	defer cache.Close()
	defer s.Close()

	ctx := context.Background()
	if err := cache.Put(ctx, "key", &FactCheck{ID: "fc_3"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, "key"); ok {
		t.Error("entry should be gone after delete")
	}
	// Deleting an absent key is a no-op.
	if err := cache.Delete(ctx, "absent"); err != nil {
		t.Errorf("Delete absent: %v", err)
	}
}
