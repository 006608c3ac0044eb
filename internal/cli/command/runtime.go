package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/recofeed-go/internal/config"
	"github.com/yndnr/recofeed-go/internal/feed"
	"github.com/yndnr/recofeed-go/internal/infra/tlsroots"
	"github.com/yndnr/recofeed-go/internal/remote"
	"github.com/yndnr/recofeed-go/internal/storage"
	"github.com/yndnr/recofeed-go/internal/storage/memory"
	"github.com/yndnr/recofeed-go/internal/storage/snapshot"
	"github.com/yndnr/recofeed-go/internal/storage/sqlitekv"
	"github.com/yndnr/recofeed-go/internal/telemetry/logger"
	"github.com/yndnr/recofeed-go/internal/telemetry/metric"
	"github.com/yndnr/recofeed-go/pkg/crypto/adaptive"
)

// runtime is everything a command needs to page through feeds.
type runtime struct {
	cfg     *config.Config
	log     logger.Logger
	kv      storage.KVEngine
	client  *remote.Client
	metrics *metric.Registry
	cipher  adaptive.Cipher
	feeds   *feed.Set
}

// openRuntime loads the configuration and builds a runtime. Callers must
// Close it.
func openRuntime(c *cli.Context) (*runtime, error) {
	cfg, _, log, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return newRuntime(c.Context, cfg, log)
}

func newRuntime(ctx context.Context, cfg *config.Config, log logger.Logger) (*runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	reg := metric.NewRegistry()

	kv, err := openKV(cfg.Storage, log, reg)
	if err != nil {
		return nil, err
	}

	copts := []remote.Option{remote.WithLogger(log), remote.WithMetrics(reg)}
	if hc, err := httpClient(cfg.Remote); err != nil {
		kv.Close()
		return nil, err
	} else if hc != nil {
		copts = append(copts, remote.WithHTTPClient(hc))
	}

	client, err := remote.NewClient(remote.Config{
		BaseURL:   cfg.Remote.BaseURL,
		Timeout:   cfg.Remote.Timeout,
		XSRFToken: cfg.Remote.XSRFToken,
		RateLimit: cfg.Remote.RateLimit,
		Burst:     cfg.Remote.Burst,
		Breaker: remote.BreakerConfig{
			MaxRequests:  cfg.Remote.Breaker.MaxRequests,
			Interval:     cfg.Remote.Breaker.Interval,
			Timeout:      cfg.Remote.Breaker.Timeout,
			MinRequests:  cfg.Remote.Breaker.MinRequests,
			FailureRatio: cfg.Remote.Breaker.FailureRatio,
		},
	}, copts...)
	if err != nil {
		kv.Close()
		return nil, err
	}

	cipher, err := snapshot.CipherFromPassphrase(ctx, kv,
		[]byte(cfg.Storage.EncryptionPassphrase), cfg.Storage.EncryptionAlgorithm)
	if err != nil {
		kv.Close()
		return nil, err
	}

	feeds := feed.NewSet(client, kv, feed.SetOptions{
		PageSize:        cfg.Feeds.PageSize,
		Cipher:          cipher,
		Logger:          log,
		Observer:        reg,
		SnapshotMetrics: reg,
	})
	if err := feeds.LoadSettings(ctx); err != nil {
		log.Warn("saved filters unavailable, using defaults", "error", err)
	}

	return &runtime{
		cfg:     cfg,
		log:     log,
		kv:      kv,
		client:  client,
		metrics: reg,
		cipher:  cipher,
		feeds:   feeds,
	}, nil
}

// httpClient returns a client trusting the configured CAs, or nil when
// the default transport will do.
func httpClient(cfg config.RemoteSection) (*http.Client, error) {
	opts := tlsroots.Options{
		CAFiles:         cfg.TLS.CAFiles,
		SkipSystemRoots: cfg.TLS.SkipSystemRoots,
		ClientCert:      cfg.TLS.ClientCert,
		ClientKey:       cfg.TLS.ClientKey,
	}
	if opts.IsZero() {
		return nil, nil
	}
	t, err := tlsroots.Transport(opts)
	if err != nil {
		return nil, fmt.Errorf("remote tls: %w", err)
	}
	return &http.Client{Timeout: cfg.Timeout, Transport: t}, nil
}

// openKV opens the snapshot engine named by cfg.Engine. Badger gauges are
// registered with reg.
func openKV(cfg config.StorageSection, log logger.Logger, reg *metric.Registry) (storage.KVEngine, error) {
	switch cfg.Engine {
	case storage.EngineMemory:
		return memory.New(), nil
	case storage.EngineSQLite:
		kv, err := sqlitekv.OpenDir(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return kv, nil
	case storage.EngineBadger, "":
		bc := storage.DefaultBadgerConfig()
		if cfg.GCInterval > 0 {
			bc.GCInterval = cfg.GCInterval.String()
		}
		kv, err := storage.NewBadgerEngine(storage.KVConfig{
			Engine: storage.EngineBadger,
			Dir:    filepath.Join(cfg.DataDir, "badger"),
			Badger: bc,
		}, log.Slog())
		if err != nil {
			return nil, err
		}
		if reg != nil {
			kv.RegisterMetrics(reg.Registerer())
		}
		return kv, nil
	}
	return nil, fmt.Errorf("unknown storage engine %q", cfg.Engine)
}

// controller resolves the --kind flag.
func (rt *runtime) controller(kind string) (feed.Controller, error) {
	k, err := feed.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	return rt.feeds.Get(k)
}

// Close releases the KV engine.
func (rt *runtime) Close() error {
	if rt == nil || rt.kv == nil {
		return nil
	}
	if err := rt.kv.Close(); err != nil && !errors.Is(err, storage.ErrClosed) {
		return err
	}
	return nil
}
