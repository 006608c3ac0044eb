package config

import "time"

// Config is the root configuration of recofeed.
type Config struct {
	Remote  RemoteSection  `koanf:"remote" yaml:"remote" json:"remote"`
	Storage StorageSection `koanf:"storage" yaml:"storage" json:"storage"`
	Feeds   FeedsSection   `koanf:"feeds" yaml:"feeds" json:"feeds"`
	Log     LogSection     `koanf:"log" yaml:"log" json:"log"`
	Serve   ServeSection   `koanf:"serve" yaml:"serve" json:"serve"`
}

// RemoteSection configures the recommender API client.
type RemoteSection struct {
	BaseURL   string        `koanf:"base_url" yaml:"base_url" json:"base_url" validate:"required"`
	Timeout   time.Duration `koanf:"timeout" yaml:"timeout" json:"timeout" validate:"gt=0"`
	XSRFToken string        `koanf:"xsrf_token" yaml:"xsrf_token" json:"xsrf_token"`

	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit" json:"rate_limit" validate:"gte=0"`
	Burst     int     `koanf:"burst" yaml:"burst" json:"burst" validate:"gte=1"`

	Breaker BreakerSection `koanf:"breaker" yaml:"breaker" json:"breaker"`
	TLS     TLSSection     `koanf:"tls" yaml:"tls" json:"tls"`
}

// TLSSection configures trust for an HTTPS base URL.
type TLSSection struct {
	// CAFiles are PEM files or directories added to the system roots.
	CAFiles         []string `koanf:"ca_files" yaml:"ca_files" json:"ca_files"`
	SkipSystemRoots bool     `koanf:"skip_system_roots" yaml:"skip_system_roots" json:"skip_system_roots"`
	ClientCert      string   `koanf:"client_cert" yaml:"client_cert" json:"client_cert" validate:"required_with=ClientKey"`
	ClientKey       string   `koanf:"client_key" yaml:"client_key" json:"client_key" validate:"required_with=ClientCert"`
}

// BreakerSection configures the circuit breaker around the API.
type BreakerSection struct {
	MaxRequests  uint32        `koanf:"max_requests" yaml:"max_requests" json:"max_requests" validate:"gte=1"`
	Interval     time.Duration `koanf:"interval" yaml:"interval" json:"interval" validate:"gte=0"`
	Timeout      time.Duration `koanf:"timeout" yaml:"timeout" json:"timeout" validate:"gt=0"`
	MinRequests  uint32        `koanf:"min_requests" yaml:"min_requests" json:"min_requests" validate:"gte=1"`
	FailureRatio float64       `koanf:"failure_ratio" yaml:"failure_ratio" json:"failure_ratio" validate:"gt=0,lte=1"`
}

// StorageSection configures the snapshot KV backend.
type StorageSection struct {
	// Engine is badger, sqlite or memory.
	Engine  string `koanf:"engine" yaml:"engine" json:"engine" validate:"oneof=badger sqlite memory"`
	DataDir string `koanf:"data_dir" yaml:"data_dir" json:"data_dir"`

	// EncryptionPassphrase seals snapshots when set.
	EncryptionPassphrase string `koanf:"encryption_passphrase" yaml:"encryption_passphrase" json:"encryption_passphrase"`
	// EncryptionAlgorithm is auto, aes-gcm or chacha20-poly1305.
	EncryptionAlgorithm string `koanf:"encryption_algorithm" yaml:"encryption_algorithm" json:"encryption_algorithm" validate:"omitempty,oneof=auto aes-gcm chacha20-poly1305"`

	GCInterval time.Duration `koanf:"gc_interval" yaml:"gc_interval" json:"gc_interval" validate:"gte=0"`
}

// FeedsSection configures paging.
type FeedsSection struct {
	PageSize int `koanf:"page_size" yaml:"page_size" json:"page_size" validate:"gte=1,lte=500"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" yaml:"format" json:"format" validate:"oneof=json text"`
}

// ServeSection configures the `serve` HTTP endpoint.
type ServeSection struct {
	Addr            string        `koanf:"addr" yaml:"addr" json:"addr" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout" validate:"gt=0"`
}
