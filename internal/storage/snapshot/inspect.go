package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"

	"github.com/yndnr/recofeed-go/internal/core/domain"
	"github.com/yndnr/recofeed-go/internal/storage"
	"github.com/yndnr/recofeed-go/pkg/crypto/adaptive"
)

// Peek returns the stored entry as is. Unlike TryRestore it never erases
// and applies no filter or version check. An undecodable entry is
// reported as ErrSnapshotCorrupt.
func (s *Store[T]) Peek(ctx context.Context) (*Entry[T], bool, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, domain.ErrSnapshotStorage.WithDetails("read " + s.Key()).WithCause(err)
	}

	rec, err := decode[T](data, s.cipher, s.key)
	if err != nil {
		return nil, false, domain.ErrSnapshotCorrupt.WithDetails(s.Key()).WithCause(err)
	}
	if rec.Items == nil {
		rec.Items = []T{}
	}
	return &Entry[T]{
		Items:         rec.Items,
		Filters:       rec.Filters,
		CapturedAt:    rec.CapturedAt,
		SchemaVersion: rec.SchemaVersion,
	}, true, nil
}

// Summary describes one stored entry without its items.
type Summary struct {
	Key           string         `json:"key" yaml:"key"`
	Items         int            `json:"items" yaml:"items"`
	Filters       domain.Filters `json:"filters" yaml:"filters"`
	CapturedAt    time.Time      `json:"captured_at" yaml:"captured_at"`
	SchemaVersion int            `json:"schema_version" yaml:"schema_version"`
	Encrypted     bool           `json:"encrypted" yaml:"encrypted"`
	// Error is set when the entry could not be decoded.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// List summarizes every entry stored under prefix. It only reads.
func List(ctx context.Context, sc storage.Scanner, prefix string, c adaptive.Cipher) ([]Summary, error) {
	var out []Summary
	err := sc.Scan(ctx, []byte(prefix), func(key, value []byte) bool {
		sum := Summary{Key: string(key)}

		var f frame
		if err := json.Unmarshal(value, &f); err == nil {
			sum.Encrypted = f.Cipher != ""
		}

		rec, err := decode[json.RawMessage](value, c, key)
		if err != nil {
			sum.Error = err.Error()
		} else {
			sum.Items = len(rec.Items)
			sum.Filters = rec.Filters
			sum.CapturedAt = rec.CapturedAt
			sum.SchemaVersion = rec.SchemaVersion
		}
		out = append(out, sum)
		return true
	})
	if err != nil {
		return nil, domain.ErrSnapshotStorage.WithDetails("scan " + prefix).WithCause(err)
	}
	return out, nil
}
