package api

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestDeduper(t *testing.T, ttl time.Duration) (*RedisDeduper, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		if cerr := client.Close(); cerr != nil {
			t.Logf("redis close: %v", cerr)
		}
	})
	return NewRedisDeduper(client, ttl), client, m
}

func TestRedisDeduperAddOnce(t *testing.T) {
	deduper, _, _ := newTestDeduper(t, time.Minute)
	ctx := context.Background()

	added, err := deduper.Add(ctx, "stripe", "evt_1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !added {
		t.Fatalf("expected key to be added")
	}
	added, err = deduper.Add(ctx, "stripe", "evt_1")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if added {
		t.Fatalf("expected key to be duplicate on second call")
	}
	added, err = deduper.Add(ctx, "razorpay", "evt_1")
	if err != nil || !added {
		t.Fatalf("expected scopes to be independent, added=%v err=%v", added, err)
	}
}

func TestRedisDeduperKeyNamespacing(t *testing.T) {
	deduper, client, m := newTestDeduper(t, time.Minute)
	ctx := context.Background()

	if _, err := deduper.Add(ctx, "stripe", "evt_1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	const expectedKey = "webhook:stripe:evt_1"
	exists, err := client.Exists(ctx, expectedKey).Result()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists != 1 {
		t.Fatalf("expected redis key %q to exist", expectedKey)
	}
	if ttl := m.TTL(expectedKey); ttl != time.Minute {
		t.Fatalf("unexpected ttl: %v", ttl)
	}
}

func TestRedisDeduperRemoveAllowsRetry(t *testing.T) {
	deduper, _, m := newTestDeduper(t, time.Minute)
	ctx := context.Background()

	if _, err := deduper.Add(ctx, "stripe", "evt_1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := deduper.Remove(ctx, "stripe", "evt_1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	added, err := deduper.Add(ctx, "stripe", "evt_1")
	if err != nil || !added {
		t.Fatalf("expected key to be re-added after remove, added=%v err=%v", added, err)
	}

	m.FastForward(2 * time.Minute)
	added, err = deduper.Add(ctx, "stripe", "evt_1")
	if err != nil || !added {
		t.Fatalf("expected key to expire after ttl, added=%v err=%v", added, err)
	}
}
