package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5
	DefaultBurst     = 10

	DefaultBreakerMaxRequests  = 1
	DefaultBreakerTimeout      = 30 * time.Second
	DefaultBreakerMinRequests  = 5
	DefaultBreakerFailureRatio = 0.6

	DefaultEngine     = "badger"
	DefaultGCInterval = 10 * time.Minute

	DefaultPageSize = 20

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultServeAddr       = "127.0.0.1:5090"
	DefaultShutdownTimeout = 10 * time.Second
)

// DefaultDataDir is $XDG_DATA_HOME/recofeed, falling back to
// ~/.local/share/recofeed, then ./recofeed-data.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "recofeed")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "recofeed")
	}
	return "recofeed-data"
}

// Default returns the default configuration. Remote.BaseURL has no default.
func Default() *Config {
	return &Config{
		Remote: RemoteSection{
			Timeout:   DefaultTimeout,
			RateLimit: DefaultRateLimit,
			Burst:     DefaultBurst,
			Breaker: BreakerSection{
				MaxRequests:  DefaultBreakerMaxRequests,
				Timeout:      DefaultBreakerTimeout,
				MinRequests:  DefaultBreakerMinRequests,
				FailureRatio: DefaultBreakerFailureRatio,
			},
		},
		Storage: StorageSection{
			Engine:              DefaultEngine,
			DataDir:             DefaultDataDir(),
			EncryptionAlgorithm: "auto",
			GCInterval:          DefaultGCInterval,
		},
		Feeds: FeedsSection{
			PageSize: DefaultPageSize,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Serve: ServeSection{
			Addr:            DefaultServeAddr,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
	}
}
