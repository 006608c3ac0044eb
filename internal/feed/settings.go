package feed

import (
	"context"
	"errors"

	"github.com/goccy/go-json"

	"github.com/yndnr/recofeed-go/internal/core/domain"
	"github.com/yndnr/recofeed-go/internal/storage"
)

// settingsVersion is bumped when the stored layout changes; other
// versions are ignored.
const settingsVersion = 1

// Settings remembers the filters last applied to each feed, so the next
// process asks for the same list the snapshot was taken with.
type Settings struct {
	kv storage.KV
}

type storedSettings struct {
	Version int            `json:"version"`
	Filters domain.Filters `json:"filters"`
}

// NewSettings creates a Settings backed by kv. It panics if kv is nil.
func NewSettings(kv storage.KV) *Settings {
	if kv == nil {
		panic("feed: nil kv")
	}
	return &Settings{kv: kv}
}

// SettingsKey is the KV key the filters of kind live under.
func (k Kind) SettingsKey() string {
	return "filters/" + string(k)
}

// Load returns the saved filters of kind. ok is false when none were
// saved or the stored value is unreadable.
func (s *Settings) Load(ctx context.Context, kind Kind) (domain.Filters, bool, error) {
	data, err := s.kv.Get(ctx, []byte(kind.SettingsKey()))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return domain.Filters{}, false, nil
		}
		return domain.Filters{}, false, domain.ErrSnapshotStorage.
			WithDetails("read " + kind.SettingsKey()).WithCause(err)
	}

	var st storedSettings
	if err := json.Unmarshal(data, &st); err != nil || st.Version != settingsVersion {
		return domain.Filters{}, false, nil
	}
	return st.Filters, true, nil
}

// Save stores filters as the last applied filters of kind.
func (s *Settings) Save(ctx context.Context, kind Kind, filters domain.Filters) error {
	data, err := json.Marshal(storedSettings{Version: settingsVersion, Filters: filters})
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, []byte(kind.SettingsKey()), data); err != nil {
		return domain.ErrSnapshotStorage.WithDetails("write " + kind.SettingsKey()).WithCause(err)
	}
	return nil
}
