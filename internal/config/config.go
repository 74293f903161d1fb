package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ligustah/geomap/internal/progress"
)

// Config defines configuration for the geomap CLI and server.
type Config struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Width          int           `yaml:"width"`
	Height         int           `yaml:"height"`
	Bucket         string        `yaml:"bucket"`
	ChunkSize      int64         `yaml:"chunk_size"`
	SkipIfExists   bool          `yaml:"skip_if_exists"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	LogLevel       string        `yaml:"log_level"`
	ListenAddr     string        `yaml:"listen_addr"`
	Progress       bool          `yaml:"progress"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		BaseURL:        "http://open.mapquestapi.com",
		Width:          320,
		Height:         240,
		Bucket:         "./maps",
		ChunkSize:      128,
		ConnectTimeout: 30 * time.Second,
		RequestTimeout: 60 * time.Second,
		LogLevel:       "info",
		ListenAddr:     ":8080",
		Progress:       true,
	}
}

// Overrides replaces Config values. Nil fields keep the current value, so a
// boolean can be switched off explicitly.
type Overrides struct {
	APIKey         *string
	BaseURL        *string
	Width          *int
	Height         *int
	Bucket         *string
	ChunkSize      *int64
	SkipIfExists   *bool
	ConnectTimeout *time.Duration
	RequestTimeout *time.Duration
	LogLevel       *string
	ListenAddr     *string
	Progress       *bool
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	APIKey         *string `yaml:"api_key"`
	BaseURL        *string `yaml:"base_url"`
	Width          *int    `yaml:"width"`
	Height         *int    `yaml:"height"`
	Bucket         *string `yaml:"bucket"`
	ChunkSize      string  `yaml:"chunk_size"`
	SkipIfExists   *bool   `yaml:"skip_if_exists"`
	ConnectTimeout string  `yaml:"connect_timeout"`
	RequestTimeout string  `yaml:"request_timeout"`
	LogLevel       *string `yaml:"log_level"`
	ListenAddr     *string `yaml:"listen_addr"`
	Progress       *bool   `yaml:"progress"`
}

// LoadFromFile loads configuration from a YAML file on top of Default.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	o := Overrides{
		APIKey:       yc.APIKey,
		BaseURL:      yc.BaseURL,
		Width:        yc.Width,
		Height:       yc.Height,
		Bucket:       yc.Bucket,
		SkipIfExists: yc.SkipIfExists,
		LogLevel:     yc.LogLevel,
		ListenAddr:   yc.ListenAddr,
		Progress:     yc.Progress,
	}
	if yc.ChunkSize != "" {
		size, err := progress.ParseBytes(yc.ChunkSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse chunk_size: %w", err)
		}
		o.ChunkSize = &size
	}
	if yc.ConnectTimeout != "" {
		d, err := time.ParseDuration(yc.ConnectTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse connect_timeout: %w", err)
		}
		o.ConnectTimeout = &d
	}
	if yc.RequestTimeout != "" {
		d, err := time.ParseDuration(yc.RequestTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse request_timeout: %w", err)
		}
		o.RequestTimeout = &d
	}

	return Default().Merge(o), nil
}

// LoadDotEnv loads KEY=value pairs from a .env file into the process
// environment. Variables that are already set win.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the GEOMAP_ prefix.
func (c *Config) LoadFromEnv() error {
	var o Overrides

	if v, ok := lookupEnv("GEOMAP_API_KEY"); ok {
		o.APIKey = &v
	}
	if v, ok := lookupEnv("GEOMAP_BASE_URL"); ok {
		o.BaseURL = &v
	}
	if v, ok := lookupEnv("GEOMAP_WIDTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse GEOMAP_WIDTH: %w", err)
		}
		o.Width = &n
	}
	if v, ok := lookupEnv("GEOMAP_HEIGHT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse GEOMAP_HEIGHT: %w", err)
		}
		o.Height = &n
	}
	if v, ok := lookupEnv("GEOMAP_BUCKET"); ok {
		o.Bucket = &v
	}
	if v, ok := lookupEnv("GEOMAP_CHUNK_SIZE"); ok {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse GEOMAP_CHUNK_SIZE: %w", err)
		}
		o.ChunkSize = &size
	}
	if v, ok := lookupEnv("GEOMAP_SKIP_IF_EXISTS"); ok {
		b := v == "true" || v == "1"
		o.SkipIfExists = &b
	}
	if v, ok := lookupEnv("GEOMAP_CONNECT_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse GEOMAP_CONNECT_TIMEOUT: %w", err)
		}
		o.ConnectTimeout = &d
	}
	if v, ok := lookupEnv("GEOMAP_REQUEST_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse GEOMAP_REQUEST_TIMEOUT: %w", err)
		}
		o.RequestTimeout = &d
	}
	if v, ok := lookupEnv("GEOMAP_LOG_LEVEL"); ok {
		o.LogLevel = &v
	}
	if v, ok := lookupEnv("GEOMAP_LISTEN_ADDR"); ok {
		o.ListenAddr = &v
	}
	if v, ok := lookupEnv("GEOMAP_PROGRESS"); ok {
		b := v == "true" || v == "1"
		o.Progress = &b
	}

	*c = c.Merge(o)
	return nil
}

// lookupEnv returns a non-empty environment variable.
func lookupEnv(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("config: api_key is required")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return errors.New("config: width and height must be positive")
	}
	if c.Bucket == "" {
		return errors.New("config: bucket is required")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: chunk_size must be positive")
	}
	if c.RequestTimeout < 0 {
		return errors.New("config: request_timeout must not be negative")
	}
	return nil
}

// Merge applies o to c, returning a new Config.
func (c Config) Merge(o Overrides) Config {
	if o.APIKey != nil {
		c.APIKey = *o.APIKey
	}
	if o.BaseURL != nil {
		c.BaseURL = *o.BaseURL
	}
	if o.Width != nil {
		c.Width = *o.Width
	}
	if o.Height != nil {
		c.Height = *o.Height
	}
	if o.Bucket != nil {
		c.Bucket = *o.Bucket
	}
	if o.ChunkSize != nil {
		c.ChunkSize = *o.ChunkSize
	}
	if o.SkipIfExists != nil {
		c.SkipIfExists = *o.SkipIfExists
	}
	if o.ConnectTimeout != nil {
		c.ConnectTimeout = *o.ConnectTimeout
	}
	if o.RequestTimeout != nil {
		c.RequestTimeout = *o.RequestTimeout
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.ListenAddr != nil {
		c.ListenAddr = *o.ListenAddr
	}
	if o.Progress != nil {
		c.Progress = *o.Progress
	}
	return c
}
