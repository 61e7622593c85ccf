package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
)

type sample struct {
	Symbol string    `json:"symbol"`
	Prices []float64 `json:"prices"`
}

func TestMemoryCacheTTL(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	defer c.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	if err := c.Set(ctx, "k", sample{Symbol: "BTC", Prices: []float64{1, 2}}); err != nil {
		t.Fatal(err)
	}
	var got sample
	if err := c.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Symbol != "BTC" || len(got.Prices) != 2 {
		t.Errorf("got %+v", got)
	}

	now = now.Add(61 * time.Minute)
	if err := c.Get(ctx, "k", &got); !errors.Is(err, ErrMiss) {
		t.Errorf("expired Get err = %v, want ErrMiss", err)
	}
	c.evictExpired()
	if c.Len() != 0 {
		t.Errorf("Len = %d after eviction", c.Len())
	}
}

func TestFetchLoadsOnce(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	defer c.Close()
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (sample, error) {
		calls++
		return sample{Symbol: "ETH"}, nil
	}
	for i := 0; i < 3; i++ {
		v, err := Fetch(ctx, c, Key("token", "ETH", "30d"), load)
		if err != nil || v.Symbol != "ETH" {
			t.Fatalf("Fetch = %+v, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("load called %d times, want 1", calls)
	}
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	defer c.Close()
	ctx := context.Background()
	boom := errors.New("boom")
	_, err := Fetch(ctx, c, "k", func(context.Context) (sample, error) { return sample{}, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if c.Len() != 0 {
		t.Error("failed load must not be cached")
	}
}

func TestFetchNilCache(t *testing.T) {
	v, err := Fetch(context.Background(), nil, "k", func(context.Context) (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("Fetch = %d, %v", v, err)
	}
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	c, err := NewRedisCache(ctx, mr.Addr(), 0, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	var got sample
	if err := c.Get(ctx, "missing", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get missing err = %v, want ErrMiss", err)
	}
	if err := c.Set(ctx, "k", sample{Symbol: "SOL"}); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists(keyPrefix + "k") {
		t.Fatal("key not written to redis")
	}
	if ttl := mr.TTL(keyPrefix + "k"); ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", ttl)
	}
	if err := c.Get(ctx, "k", &got); err != nil || got.Symbol != "SOL" {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	mr.FastForward(2 * time.Hour)
	if err := c.Get(ctx, "k", &got); !errors.Is(err, ErrMiss) {
		t.Errorf("expired Get err = %v, want ErrMiss", err)
	}
}

func TestRedisCacheFallsBackToMemory(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	c, err := NewRedisCache(ctx, mr.Addr(), 0, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	mr.Close()
	if err := c.Set(ctx, "k", sample{Symbol: "ADA"}); err != nil {
		t.Fatalf("Set with redis down: %v", err)
	}
	var got sample
	if err := c.Get(ctx, "k", &got); err != nil || got.Symbol != "ADA" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedisCache(context.Background(), addr, 0, time.Hour, zap.NewNop()); err == nil {
		t.Fatal("expected ping error")
	}
}
