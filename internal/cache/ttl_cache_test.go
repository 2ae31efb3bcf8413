package cache

import (
	"testing"
	"time"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Minute)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("missing key should not be found")
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("deleted key should be gone")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, string]()

	c.Set("short", "v", time.Nanosecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Fatal("expired entry should not be returned")
	}

	// Zero TTL means no expiry.
	c.Set("pinned", "v", 0)
	if _, ok := c.Get("pinned"); !ok {
		t.Fatal("zero-TTL entry should persist")
	}
}

func TestTTLCachePurgeExpired(t *testing.T) {
	c := NewTTLCache[int, int]()
	for i := 0; i < 5; i++ {
		c.Set(i, i, time.Nanosecond)
	}
	c.Set(99, 99, time.Hour)
	time.Sleep(5 * time.Millisecond)

	if purged := c.PurgeExpired(); purged != 5 {
		t.Fatalf("purged = %d, want 5", purged)
	}
	if _, ok := c.Get(99); !ok {
		t.Fatal("live entry should survive purge")
	}
}

func TestTTLCacheNilReceiver(t *testing.T) {
	var c *TTLCache[string, int]
	if _, ok := c.Get("x"); ok {
		t.Fatal("nil cache should miss")
	}
	c.Set("x", 1, time.Minute)
	c.Delete("x")
	if purged := c.PurgeExpired(); purged != 0 {
		t.Fatalf("purged = %d, want 0", purged)
	}
}
