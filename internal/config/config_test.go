package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.ChunkSize != 128 {
		t.Errorf("expected default chunk size 128, got %d", cfg.ChunkSize)
	}
	if cfg.ConnectTimeout != 30*time.Second {
		t.Errorf("expected default connect timeout 30s, got %v", cfg.ConnectTimeout)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("expected default request timeout 60s, got %v", cfg.RequestTimeout)
	}
	if cfg.SkipIfExists {
		t.Error("expected skip_if_exists off by default")
	}
	if cfg.BaseURL != "http://open.mapquestapi.com" {
		t.Errorf("unexpected default base url %s", cfg.BaseURL)
	}
	if !cfg.Progress {
		t.Error("expected progress on by default")
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
api_key: abc
width: 640
height: 480
bucket: mem://
chunk_size: 4KB
skip_if_exists: true
connect_timeout: 5s
request_timeout: 2m
log_level: debug
progress: false
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.APIKey != "abc" {
		t.Errorf("expected api key abc, got %s", cfg.APIKey)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("expected 640x480, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Bucket != "mem://" {
		t.Errorf("expected bucket mem://, got %s", cfg.Bucket)
	}
	if cfg.ChunkSize != 4*1024 {
		t.Errorf("expected chunk size 4KB, got %d", cfg.ChunkSize)
	}
	if !cfg.SkipIfExists {
		t.Error("expected skip_if_exists true")
	}
	if cfg.ConnectTimeout != 5*time.Second {
		t.Errorf("expected connect timeout 5s, got %v", cfg.ConnectTimeout)
	}
	if cfg.RequestTimeout != 2*time.Minute {
		t.Errorf("expected request timeout 2m, got %v", cfg.RequestTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.Progress {
		t.Error("expected progress false")
	}
	// Untouched keys keep their defaults.
	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected default listen addr, got %s", cfg.ListenAddr)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GEOMAP_API_KEY", "env-key")
	t.Setenv("GEOMAP_WIDTH", "100")
	t.Setenv("GEOMAP_HEIGHT", "50")
	t.Setenv("GEOMAP_CHUNK_SIZE", "1KB")
	t.Setenv("GEOMAP_SKIP_IF_EXISTS", "1")
	t.Setenv("GEOMAP_CONNECT_TIMEOUT", "500ms")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.APIKey != "env-key" {
		t.Errorf("expected api key env-key, got %s", cfg.APIKey)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("expected 100x50, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.ChunkSize != 1024 {
		t.Errorf("expected chunk size 1KB, got %d", cfg.ChunkSize)
	}
	if !cfg.SkipIfExists {
		t.Error("expected skip_if_exists true")
	}
	if cfg.ConnectTimeout != 500*time.Millisecond {
		t.Errorf("expected connect timeout 500ms, got %v", cfg.ConnectTimeout)
	}
}

func TestLoadFromEnvInvalid(t *testing.T) {
	t.Setenv("GEOMAP_WIDTH", "wide")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err == nil {
		t.Error("expected error for non-numeric width")
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	envPath := filepath.Join(tmpDir, ".env")
	if err := os.WriteFile(envPath, []byte("GEOMAP_API_KEY=from-dotenv\nGEOMAP_HEIGHT=99\n"), 0644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// Already set variables are not overridden.
	t.Setenv("GEOMAP_HEIGHT", "10")
	// Registered so the value loaded from the file is removed afterwards.
	t.Setenv("GEOMAP_API_KEY", "")
	os.Unsetenv("GEOMAP_API_KEY")

	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.APIKey != "from-dotenv" {
		t.Errorf("expected api key from .env, got %q", cfg.APIKey)
	}
	if cfg.Height != 10 {
		t.Errorf("expected existing GEOMAP_HEIGHT to win, got %d", cfg.Height)
	}

	if err := LoadDotEnv(filepath.Join(tmpDir, "missing.env")); err == nil {
		t.Error("expected error for missing env file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing api key", mutate: func(c *Config) { c.APIKey = "" }, wantErr: true},
		{name: "zero width", mutate: func(c *Config) { c.Width = 0 }, wantErr: true},
		{name: "negative height", mutate: func(c *Config) { c.Height = -1 }, wantErr: true},
		{name: "missing bucket", mutate: func(c *Config) { c.Bucket = "" }, wantErr: true},
		{name: "invalid chunk size", mutate: func(c *Config) { c.ChunkSize = 0 }, wantErr: true},
		{name: "negative request timeout", mutate: func(c *Config) { c.RequestTimeout = -time.Second }, wantErr: true},
		{name: "negative connect timeout checks once", mutate: func(c *Config) { c.ConnectTimeout = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	base.APIKey = "file-key"
	base.Bucket = "file:///maps"

	width := 1024
	skip := true
	merged := base.Merge(Overrides{
		Width:        &width,
		SkipIfExists: &skip,
	})

	if merged.APIKey != "file-key" {
		t.Errorf("expected APIKey preserved, got %s", merged.APIKey)
	}
	if merged.Bucket != "file:///maps" {
		t.Errorf("expected Bucket preserved, got %s", merged.Bucket)
	}
	if merged.ChunkSize != 128 {
		t.Errorf("expected ChunkSize preserved, got %d", merged.ChunkSize)
	}
	if merged.Height != 240 {
		t.Errorf("expected Height preserved, got %d", merged.Height)
	}
	if !merged.Progress {
		t.Error("expected Progress preserved")
	}

	if merged.Width != 1024 {
		t.Errorf("expected Width overridden to 1024, got %d", merged.Width)
	}
	if !merged.SkipIfExists {
		t.Error("expected SkipIfExists overridden")
	}
}

func TestMergeSwitchesBooleansOff(t *testing.T) {
	base := Default()
	base.SkipIfExists = true

	off := false
	merged := base.Merge(Overrides{Progress: &off, SkipIfExists: &off})

	if merged.Progress {
		t.Error("expected Progress switched off")
	}
	if merged.SkipIfExists {
		t.Error("expected SkipIfExists switched off")
	}
}

func TestLoadFromEnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("skip_if_exists: true\nwidth: 640\n"), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("GEOMAP_SKIP_IF_EXISTS", "false")
	t.Setenv("GEOMAP_PROGRESS", "0")

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.SkipIfExists {
		t.Error("expected GEOMAP_SKIP_IF_EXISTS=false to win over the file")
	}
	if cfg.Progress {
		t.Error("expected GEOMAP_PROGRESS=0 to switch progress off")
	}
	if cfg.Width != 640 {
		t.Errorf("expected width from file, got %d", cfg.Width)
	}
}

func TestLoadYAMLFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadYAMLBadDuration(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("connect_timeout: soon\n"), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("expected error for invalid duration")
	}
}
