package app

import (
	"context"
	"testing"
	"time"
)

func TestMemCache_ExpiresAfterTTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := newMemCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.Set(ctx, "images:1", []string{"a.jpg"}, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got []string
	if ok, err := c.Get(ctx, "images:1", &got); !ok || err != nil || len(got) != 1 {
		t.Fatalf("expected hit, got %v %v %v", ok, err, got)
	}

	now = now.Add(61 * time.Second)
	if ok, _ := c.Get(ctx, "images:1", &got); ok {
		t.Fatalf("expected entry to expire")
	}
	if len(c.entries) != 0 {
		t.Fatalf("expired entry should be dropped")
	}
}

func TestMemCache_ZeroTTLStoresNothing(t *testing.T) {
	c := newMemCache()
	_ = c.Set(context.Background(), "k", []string{"x"}, 0)
	var got []string
	if ok, _ := c.Get(context.Background(), "k", &got); ok {
		t.Fatalf("expected miss")
	}
}
