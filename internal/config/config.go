package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the client's configuration model. It captures the API
// endpoint, credentials, cache/upload tuning, and local storage paths.
type Config struct {
	API         APIConfig         `yaml:"api"`
	Account     AccountConfig     `yaml:"account"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Cache       CacheConfig       `yaml:"cache"`
	Uploads     UploadsConfig     `yaml:"uploads"`
	Realtime    RealtimeConfig    `yaml:"realtime"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type APIConfig struct {
	// Base URL of the hub API, e.g. https://hub.example.com
	BaseURL string `yaml:"baseUrl"`
	// Request timeout in seconds
	TimeoutSeconds int `yaml:"timeoutSeconds"`
	// Rate limit (requests per second) and burst
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
	// Retry tuning
	MaxAttempts   int `yaml:"maxAttempts"`
	BaseBackoffMs int `yaml:"baseBackoffMs"`
}

type AccountConfig struct {
	Username    string `yaml:"username"`
	AnonymousID string `yaml:"anonymousId"`
}

type CredentialsConfig struct {
	// Bearer access token. If empty, read from env HUB_ACCESS_TOKEN.
	AccessToken string `yaml:"accessToken"`
}

type CacheConfig struct {
	// TTL for the request cache window
	TTL time.Duration `yaml:"ttl"`
	// Debounce window for burst fetch collapsing
	Debounce time.Duration `yaml:"debounce"`
}

type UploadsConfig struct {
	// Files larger than ChunkThreshold bytes go through the chunked path
	ChunkThreshold int64 `yaml:"chunkThreshold"`
	ChunkSize      int64 `yaml:"chunkSize"`
}

type RealtimeConfig struct {
	Enabled bool `yaml:"enabled"`
	// Websocket URL. If empty, derived from api.baseUrl.
	URL string `yaml:"url"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:        "https://hub.example.com",
			TimeoutSeconds: 15,
			RPS:            5,
			Burst:          10,
			MaxAttempts:    5,
			BaseBackoffMs:  500,
		},
		Cache: CacheConfig{
			TTL:      5 * time.Minute,
			Debounce: 300 * time.Millisecond,
		},
		Uploads: UploadsConfig{
			ChunkThreshold: 8 << 20,
			ChunkSize:      4 << 20,
		},
		Realtime: RealtimeConfig{Enabled: true},
		Storage:  StorageConfig{DBPath: "./hubclient.db"},
		Logging:  LoggingConfig{Level: "info", Pretty: true},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Credentials.AccessToken == "" {
		c.Credentials.AccessToken = os.Getenv("HUB_ACCESS_TOKEN")
	}
	if v := os.Getenv("HUB_API_URL"); v != "" && c.API.BaseURL == "" {
		c.API.BaseURL = v
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = os.Getenv("METRICS_ADDR")
	}
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
