package cache

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCache_GetPut(t *testing.T) {
	cache := New(Config{
		MaxBytes: 1 << 20,
		MaxAge:   time.Hour,
	})
	defer cache.Close()

	key := Key("session-1", "popup-body")
	data := []byte("<div>rendered popup</div>")

	cache.Put(key, data)

	retrieved, found := cache.Get(key)
	if !found {
		t.Fatal("Data not found in cache")
	}
	if !bytes.Equal(retrieved, data) {
		t.Errorf("Retrieved data doesn't match: got %s, want %s", retrieved, data)
	}

	stats := cache.GetStats()
	if stats.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", stats.Hits)
	}

	_, found = cache.Get("non-existent")
	if found {
		t.Error("Found non-existent key")
	}

	stats = cache.GetStats()
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
}

func TestCache_Overwrite(t *testing.T) {
	cache := New(Config{MaxBytes: 1 << 20, MaxAge: time.Hour})
	defer cache.Close()

	cache.Put("k", []byte("first render"))
	cache.Put("k", []byte("second"))

	data, found := cache.Get("k")
	if !found || string(data) != "second" {
		t.Errorf("Got %q, want overwritten value", data)
	}

	stats := cache.GetStats()
	if stats.EntryCount != 1 {
		t.Errorf("Expected 1 entry, got %d", stats.EntryCount)
	}
	if stats.TotalBytes != int64(len("second")) {
		t.Errorf("TotalBytes = %d, want %d", stats.TotalBytes, len("second"))
	}
}

func TestCache_Expiry(t *testing.T) {
	cache := New(Config{MaxBytes: 1 << 20, MaxAge: 10 * time.Millisecond})
	defer cache.Close()

	cache.Put("k", []byte("ephemeral"))
	time.Sleep(30 * time.Millisecond)

	if _, found := cache.Get("k"); found {
		t.Error("Expired entry still served")
	}
}

func TestCache_LRUEviction(t *testing.T) {
	// Budget fits two 10-byte entries, not three.
	cache := New(Config{MaxBytes: 25, MaxAge: time.Hour, Strategy: LRU})
	defer cache.Close()

	cache.Put("a", bytes.Repeat([]byte("a"), 10))
	time.Sleep(2 * time.Millisecond)
	cache.Put("b", bytes.Repeat([]byte("b"), 10))
	time.Sleep(2 * time.Millisecond)

	// Touch "a" so "b" becomes the eviction candidate.
	cache.Get("a")
	time.Sleep(2 * time.Millisecond)

	cache.Put("c", bytes.Repeat([]byte("c"), 10))

	if _, found := cache.Get("b"); found {
		t.Error("Least recently used entry survived eviction")
	}
	if _, found := cache.Get("a"); !found {
		t.Error("Recently used entry was evicted")
	}
	if _, found := cache.Get("c"); !found {
		t.Error("Newly inserted entry missing")
	}

	stats := cache.GetStats()
	if stats.Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", stats.Evictions)
	}
}

func TestCache_FIFOEviction(t *testing.T) {
	cache := New(Config{MaxBytes: 25, MaxAge: time.Hour, Strategy: FIFO})
	defer cache.Close()

	cache.Put("a", bytes.Repeat([]byte("a"), 10))
	time.Sleep(2 * time.Millisecond)
	cache.Put("b", bytes.Repeat([]byte("b"), 10))
	time.Sleep(2 * time.Millisecond)

	cache.Get("a") // access doesn't matter for FIFO
	cache.Put("c", bytes.Repeat([]byte("c"), 10))

	if _, found := cache.Get("a"); found {
		t.Error("Oldest entry survived FIFO eviction")
	}
	if _, found := cache.Get("b"); !found {
		t.Error("Second entry was evicted")
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	cache := New(Config{MaxBytes: 1 << 20, MaxAge: time.Hour})
	defer cache.Close()

	cache.Put("a", []byte("one"))
	cache.Put("b", []byte("two"))

	cache.Delete("a")
	if _, found := cache.Get("a"); found {
		t.Error("Deleted entry still present")
	}
	cache.Delete("a") // repeat delete is a no-op

	cache.Clear()
	if _, found := cache.Get("b"); found {
		t.Error("Entry survived Clear")
	}
	if stats := cache.GetStats(); stats.TotalBytes != 0 || stats.EntryCount != 0 {
		t.Errorf("Stats not reset: %+v", stats)
	}
}

func TestCache_KeyDeterminism(t *testing.T) {
	k1 := Key("session", "body", "260px")
	k2 := Key("session", "body", "260px")
	k3 := Key("session", "body", "480px")

	if k1 != k2 {
		t.Error("Same inputs produced different keys")
	}
	if k1 == k3 {
		t.Error("Different inputs produced the same key")
	}
	if len(k1) != 64 {
		t.Errorf("Key length = %d, want 64 hex chars", len(k1))
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := New(Config{MaxBytes: 1 << 20, MaxAge: time.Hour})
	defer cache.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := Key(fmt.Sprintf("worker-%d", n), fmt.Sprintf("item-%d", j%10))
				cache.Put(key, []byte(fmt.Sprintf("render %d/%d", n, j)))
				cache.Get(key)
				// Stats reads share the entry lock; racing them against
				// writers is the point of this test under -race.
				cache.GetStats()
			}
		}(i)
	}
	wg.Wait()

	stats := cache.GetStats()
	if stats.Hits == 0 {
		t.Error("expected hits from concurrent gets")
	}
	if stats.EntryCount == 0 || stats.TotalBytes == 0 {
		t.Errorf("stats snapshot incomplete: %+v", stats)
	}
}
