package config

import (
	"github.com/yndnr/recofeed-go/internal/infra/confloader"
)

// Load builds the configuration from Default(), the file at path (may be
// empty), the environment and overrides, then verifies it.
func Load(path string, overrides map[string]any) (*Config, *confloader.Loader, error) {
	l := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)

	cfg := Default()
	if err := l.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}

// Reload re-reads every source through l and verifies the result.
func Reload(l *confloader.Loader) (*Config, error) {
	cfg := Default()
	if err := l.Reload(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
