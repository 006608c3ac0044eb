package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/yndnr/recofeed-go/internal/storage"
)

func TestStore_GetSetDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Get(ctx, []byte("missing")); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrKeyNotFound", err)
	}

	if err := s.Set(ctx, []byte("k"), []byte("v1")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, []byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v1" {
		t.Errorf("Get(k) = %q, want v1", got)
	}

	if err := s.Delete(ctx, []byte("k")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, []byte("k")); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrKeyNotFound", err)
	}
}

func TestStore_ValuesAreCopied(t *testing.T) {
	s := New()
	ctx := context.Background()

	value := []byte("abc")
	if err := s.Set(ctx, []byte("k"), value); err != nil {
		t.Fatal(err)
	}
	value[0] = 'X'

	got, _ := s.Get(ctx, []byte("k"))
	if string(got) != "abc" {
		t.Errorf("stored value changed through caller slice: %q", got)
	}

	got[1] = 'Y'
	again, _ := s.Get(ctx, []byte("k"))
	if string(again) != "abc" {
		t.Errorf("stored value changed through returned slice: %q", again)
	}
}

func TestStore_Scan(t *testing.T) {
	s := New(WithShardCount(4))
	ctx := context.Background()

	for _, k := range []string{"feed/c", "feed/a", "other", "feed/b"} {
		if err := s.Set(ctx, []byte(k), []byte(k)); err != nil {
			t.Fatal(err)
		}
	}

	var keys []string
	err := s.Scan(ctx, []byte("feed/"), func(key, value []byte) bool {
		keys = append(keys, string(key))
		return true
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"feed/a", "feed/b", "feed/c"}
	if len(keys) != len(want) {
		t.Fatalf("Scan keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key[%d] = %s, want %s", i, keys[i], want[i])
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalKeys != 4 || stats.Engine != storage.EngineMemory {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestStore_Closed(t *testing.T) {
	s := New()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if err := s.Set(context.Background(), []byte("k"), nil); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Set after Close error = %v, want ErrClosed", err)
	}
}

func TestStore_ContextCanceled(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Get(ctx, []byte("k")); !errors.Is(err, context.Canceled) {
		t.Errorf("Get with canceled ctx error = %v, want context.Canceled", err)
	}
}
