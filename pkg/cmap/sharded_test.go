package cmap

import (
	"fmt"
	"sync"
	"testing"
)

type feedKey string

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},  // invalid → default
		{-1, DefaultShardCount}, // invalid → default
		{3, DefaultShardCount},  // not power of 2 → default
		{1, 1},
		{4, 4},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[string, int](tt.input)
			if m.ShardCount() != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, m.ShardCount(), tt.expected)
			}
		})
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[string, []byte]()

	m.Set("feed/recommendations", []byte("a"))
	m.Set("feed/past", []byte("b"))

	val, ok := m.Get("feed/recommendations")
	if !ok || string(val) != "a" {
		t.Errorf("Get = (%q, %v), want (a, true)", val, ok)
	}

	m.Set("feed/recommendations", []byte("c"))
	val, _ = m.Get("feed/recommendations")
	if string(val) != "c" {
		t.Errorf("Get after overwrite = %q, want c", val)
	}

	m.Delete("feed/recommendations")
	if m.Has("feed/recommendations") {
		t.Error("key should not exist after Delete")
	}

	// Delete non-existent key should not panic
	m.Delete("nonexistent")

	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestNamedStringKey(t *testing.T) {
	m := New[feedKey, int]()
	m.Set(feedKey("popular"), 3)

	if v, ok := m.Get("popular"); !ok || v != 3 {
		t.Errorf("Get(popular) = (%d, %v), want (3, true)", v, ok)
	}
}

func TestClear(t *testing.T) {
	m := New[string, int]()

	m.Set("key1", 1)
	m.Set("key2", 2)
	m.Clear()

	if m.Count() != 0 {
		t.Errorf("Count() after Clear() = %d, want 0", m.Count())
	}
}

func TestShardDistribution(t *testing.T) {
	m := NewWithShards[string, int](4)
	for i := 0; i < 400; i++ {
		m.Set(fmt.Sprintf("key-%d", i), i)
	}

	for i, s := range m.shards {
		if len(s.items) == 0 {
			t.Errorf("shard %d is empty after 400 inserts", i)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[string, int]()
	var wg sync.WaitGroup
	numGoroutines := 50
	numOps := 200

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				key := fmt.Sprintf("%d/%d", base, j)
				m.Set(key, j)
				m.Get(key)
				m.Has(key)
			}
		}(i)
	}
	wg.Wait()

	if m.Count() != numGoroutines*numOps {
		t.Errorf("Count() = %d, want %d", m.Count(), numGoroutines*numOps)
	}
}
