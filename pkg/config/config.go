package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "STOREFRONT"

type Config struct {
	App     AppConfig
	API     APIConfig
	Storage StorageConfig
	State   StateConfig
	Chat    ChatConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.State.ensurePath(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	LogLevel  string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
}

type APIConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_API_BASE_URL" default:"http://localhost:3000"`
	Timeout time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"15s"`
}

func (a APIConfig) validate() error {
	parsed, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api base url must be http or https, got %q", a.BaseURL)
	}
	return nil
}

type StorageConfig struct {
	// BucketMarkers identify the object-storage bucket segment inside a full
	// media URL. Key extraction depends on these matching the provider's URL
	// shape exactly.
	BucketMarkers []string `envconfig:"STOREFRONT_STORAGE_BUCKET_MARKERS" default:"parsifal-files,twcstorage"`
}

func (s StorageConfig) Markers() []string {
	out := make([]string, 0, len(s.BucketMarkers))
	for _, m := range s.BucketMarkers {
		if trimmed := strings.TrimSpace(m); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type StateConfig struct {
	// Path of the durable local store holding the cart session identity and
	// the terms-acceptance flag.
	Path string `envconfig:"STOREFRONT_STATE_PATH"`
}

func (s *StateConfig) ensurePath() error {
	if s.Path != "" {
		return nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return fmt.Errorf("resolving state path: %w", err)
	}
	s.Path = filepath.Join(dir, "storefront", "state.json")
	return nil
}

type ChatConfig struct {
	URL              string        `envconfig:"STOREFRONT_CHAT_URL"`
	ReconnectMin     time.Duration `envconfig:"STOREFRONT_CHAT_RECONNECT_MIN" default:"1s"`
	ReconnectMax     time.Duration `envconfig:"STOREFRONT_CHAT_RECONNECT_MAX" default:"30s"`
	HandshakeTimeout time.Duration `envconfig:"STOREFRONT_CHAT_HANDSHAKE_TIMEOUT" default:"10s"`
}
