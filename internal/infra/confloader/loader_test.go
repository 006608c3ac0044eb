package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Remote struct {
		BaseURL string `koanf:"base_url"`
		Burst   int    `koanf:"burst"`
	} `koanf:"remote"`
	Serve struct {
		Addr    string `koanf:"addr"`
		Enabled bool   `koanf:"enabled"`
	} `koanf:"serve"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(
		WithEnvPrefix("TEST_"),
		WithConfigFile("/path/to/config.yaml"),
	)

	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.filePath != "/path/to/config.yaml" {
		t.Errorf("filePath = %q, want %q", l.filePath, "/path/to/config.yaml")
	}
}

func TestLoader_LoadFile(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
remote:
  base_url: "https://recs.example.org"
serve:
  addr: "0.0.0.0:5080"
  enabled: true
log:
  level: "debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	l := NewLoader()
	if err := l.LoadFile(configPath); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	// Verify values were loaded
	if addr := l.GetString("serve.addr"); addr != "0.0.0.0:5080" {
		t.Errorf("serve.addr = %q, want %q", addr, "0.0.0.0:5080")
	}

	if !l.GetBool("serve.enabled") {
		t.Error("serve.enabled should be true")
	}
	if u := l.GetString("remote.base_url"); u != "https://recs.example.org" {
		t.Errorf("remote.base_url = %q", u)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	l := NewLoader()
	err := l.LoadFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
}

func TestLoader_LoadFile_Empty(t *testing.T) {
	l := NewLoader()
	// Empty path should not error
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	// Set environment variables
	t.Setenv("RECOFEED_SERVE__ADDR", "127.0.0.1:8080")
	t.Setenv("RECOFEED_REMOTE__BASE_URL", "http://localhost:9000")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	// Verify values were loaded
	if addr := l.GetString("serve.addr"); addr != "127.0.0.1:8080" {
		t.Errorf("serve.addr = %q, want %q", addr, "127.0.0.1:8080")
	}
	// Single underscores stay inside the key name.
	if u := l.GetString("remote.base_url"); u != "http://localhost:9000" {
		t.Errorf("remote.base_url = %q, want %q", u, "http://localhost:9000")
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVE__PORT", "9090")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if port := l.GetString("serve.port"); port != "9090" {
		t.Errorf("serve.port = %q, want %q", port, "9090")
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()

	data := map[string]any{
		"serve.addr": "localhost:3000",
		"debug":      true,
	}

	if err := l.LoadMap(data); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	if addr := l.GetString("serve.addr"); addr != "localhost:3000" {
		t.Errorf("serve.addr = %q, want %q", addr, "localhost:3000")
	}

	if !l.GetBool("debug") {
		t.Error("debug should be true")
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	// Create temp config file with low priority value
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
serve:
  addr: "from-file:5080"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Set environment variable with high priority value
	t.Setenv("RECOFEED_SERVE__ADDR", "from-env:8080")

	l := NewLoader(WithConfigFile(configPath))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Environment should override file
	if cfg.Serve.Addr != "from-env:8080" {
		t.Errorf("Address = %q, want %q (env should override file)",
			cfg.Serve.Addr, "from-env:8080")
	}
}

func TestLoader_Unmarshal(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
remote:
  base_url: "https://recs.example.org"
serve:
  addr: "0.0.0.0:5080"
  enabled: true
log:
  level: "debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	l := NewLoader(WithConfigFile(configPath))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Serve.Addr != "0.0.0.0:5080" {
		t.Errorf("Address = %q, want %q", cfg.Serve.Addr, "0.0.0.0:5080")
	}
	if !cfg.Serve.Enabled {
		t.Error("Enabled should be true")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want %q", cfg.Log.Level, "debug")
	}
}

func TestLoader_IsLoaded(t *testing.T) {
	l := NewLoader()

	if l.IsLoaded() {
		t.Error("IsLoaded() should be false before Load()")
	}

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load()")
	}
}

func TestLoader_All(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{
		"key1": "value1",
		"key2": "value2",
	})

	all := l.All()
	if len(all) < 2 {
		t.Errorf("All() returned %d keys, want at least 2", len(all))
	}
}

func TestLoader_Keys(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{
		"key1": "value1",
		"key2": "value2",
	})

	keys := l.Keys()
	if len(keys) < 2 {
		t.Errorf("Keys() returned %d keys, want at least 2", len(keys))
	}
}

func TestLoader_GetInt(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{
		"port": 8080,
	})

	if port := l.GetInt("port"); port != 8080 {
		t.Errorf("GetInt(port) = %d, want %d", port, 8080)
	}
}

func TestLoader_OverridesWinAndSkipEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := `
serve:
  addr: "from-file:5080"
log:
  level: "info"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("RECOFEED_SERVE__ADDR", "from-env:8080")

	l := NewLoader(WithConfigFile(configPath), WithOverrides(map[string]any{
		"serve.addr": "from-flag:7070",
		"log.level":  "",
	}))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Serve.Addr != "from-flag:7070" {
		t.Errorf("Addr = %q, want override", cfg.Serve.Addr)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Level = %q, empty override must not clobber the file", cfg.Log.Level)
	}
}

func TestLoader_KeepsTargetDefaults(t *testing.T) {
	var cfg testConfig
	cfg.Remote.Burst = 4
	cfg.Log.Level = "warn"

	l := NewLoader(WithOverrides(map[string]any{"log.level": "error"}))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Remote.Burst != 4 {
		t.Errorf("Burst = %d, default should survive", cfg.Remote.Burst)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Level = %q, want error", cfg.Log.Level)
	}
}

func TestLoader_Reload(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("log:\n  level: info\n"), 0644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(WithConfigFile(configPath))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(configPath, []byte("log:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}
	var next testConfig
	if err := l.Reload(&next); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if next.Log.Level != "debug" {
		t.Errorf("Level after reload = %q, want debug", next.Log.Level)
	}
	if l.FilePath() != configPath {
		t.Errorf("FilePath() = %q", l.FilePath())
	}
}
