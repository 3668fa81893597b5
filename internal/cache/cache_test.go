package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestPutGet(t *testing.T) {
	c := New[int](time.Minute, 10)

	c.Put("a", 1)
	c.Put("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Expected (1, true), got (%d, %v)", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for unknown key")
	}

	// Replacement is wholesale
	c.Put("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Expected replaced value 10, got %d", v)
	}
}

func TestSizeBoundHoldsAfterEveryPut(t *testing.T) {
	c := New[int](time.Hour, 3)

	for i := 0; i < 20; i++ {
		c.Put(fmt.Sprintf("key-%d", i), i)
		if c.Len() > 3 {
			t.Fatalf("Cache exceeded cap after put %d: len=%d", i, c.Len())
		}
	}

	// Oldest entries were evicted first
	if _, ok := c.Get("key-0"); ok {
		t.Error("Expected oldest entry to be evicted")
	}
	if v, ok := c.Get("key-19"); !ok || v != 19 {
		t.Errorf("Expected newest entry to survive, got (%d, %v)", v, ok)
	}
}

func TestAgeEviction(t *testing.T) {
	c := New[string](time.Minute, 10)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("old", "x")

	// Advance past maxAge
	c.now = func() time.Time { return now.Add(2 * time.Minute) }

	if _, ok := c.Get("old"); ok {
		t.Error("Expected expired entry to be evicted on Get")
	}
	if c.Len() != 0 {
		t.Errorf("Expected empty cache, got len=%d", c.Len())
	}
}

func TestPutRefreshesAge(t *testing.T) {
	c := New[string](time.Minute, 10)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("k", "v1")

	// Refresh just before expiry
	c.now = func() time.Time { return now.Add(50 * time.Second) }
	c.Put("k", "v2")

	// 50s later the original timestamp would have expired, the refresh not
	c.now = func() time.Time { return now.Add(100 * time.Second) }
	if v, ok := c.Get("k"); !ok || v != "v2" {
		t.Errorf("Expected refreshed entry to survive, got (%q, %v)", v, ok)
	}
}

func TestRefreshedEntryEvictedLast(t *testing.T) {
	c := New[int](time.Hour, 2)

	c.Put("a", 1)
	c.Put("b", 2)

	// Refreshing "a" makes "b" the oldest
	c.Put("a", 3)
	c.Put("c", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("Expected least recently updated entry to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("Expected refreshed entry to survive")
	}
}
