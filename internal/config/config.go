package config

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Instagram InstagramConfig `yaml:"instagram"`
	Cache     CacheConfig     `yaml:"cache"`
	Proxy     ProxyConfig     `yaml:"proxy"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" envconfig:"PORT" default:"5000"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"5m"`
}

// InstagramConfig holds settings for the GraphQL resolver.
type InstagramConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"INSTAGRAM_BASE_URL" default:"https://www.instagram.com"`

	// DocumentID selects the server-side query template. It is an opaque
	// value controlled by Instagram and stops working without notice;
	// FallbackDocumentIDs are tried in order when it does.
	DocumentID          string   `yaml:"document_id" envconfig:"INSTAGRAM_DOCUMENT_ID" default:"9510064595728286"`
	FallbackDocumentIDs []string `yaml:"fallback_document_ids" envconfig:"INSTAGRAM_FALLBACK_DOCUMENT_IDS"`

	UserAgent string        `yaml:"user_agent" envconfig:"USER_AGENT" default:"Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"REQUEST_TIMEOUT" default:"10s"`
}

// CacheConfig holds result cache configuration.
type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl" envconfig:"CACHE_TTL" default:"5m"`
	CheckInterval time.Duration `yaml:"check_interval" envconfig:"CACHE_CHECK_INTERVAL" default:"2m"`

	// PersistPath enables SQLite persistence of resolved posts when set,
	// so cached results survive restarts. Empty means memory only.
	PersistPath string `yaml:"persist_path" envconfig:"CACHE_PERSIST_PATH"`
}

// ProxyConfig holds media proxy configuration.
type ProxyConfig struct {
	// AllowedHosts are CDN domain suffixes the proxy may fetch from.
	// Anything else is rejected to keep this from becoming an open proxy.
	AllowedHosts []string `yaml:"allowed_hosts" envconfig:"PROXY_ALLOWED_HOSTS" default:"cdninstagram.com,fbcdn.net,instagram.com"`

	Timeout time.Duration `yaml:"timeout" envconfig:"PROXY_TIMEOUT" default:"30s"`
}

// Load reads configuration from file and environment variables.
// Precedence, lowest to highest: struct defaults, YAML file values,
// environment variables.
func Load(configPath string) (*Config, error) {
	// envconfig fills defaults for any variable that is not set, so this
	// yields the defaults-plus-environment layer in one pass.
	fromEnv := &Config{}
	if err := envconfig.Process("", fromEnv); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Processed separately so the YAML overlay, which decodes sequences
	// in place, cannot alias fromEnv's slices.
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		// The file overwrote defaulted fields wholesale; variables that
		// are actually set in the environment must still win.
		restoreEnvValues(reflect.ValueOf(cfg).Elem(), reflect.ValueOf(fromEnv).Elem())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// restoreEnvValues copies fields whose envconfig variable is present in
// the environment from env into dst, walking nested config structs.
func restoreEnvValues(dst, env reflect.Value) {
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Type.Kind() == reflect.Struct {
			restoreEnvValues(dst.Field(i), env.Field(i))
			continue
		}
		key := field.Tag.Get("envconfig")
		if key == "" {
			continue
		}
		if _, ok := os.LookupEnv(key); ok {
			dst.Field(i).Set(env.Field(i))
		}
	}
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Instagram.DocumentID == "" {
		return fmt.Errorf("INSTAGRAM_DOCUMENT_ID is required")
	}
	if len(c.Proxy.AllowedHosts) == 0 {
		return fmt.Errorf("PROXY_ALLOWED_HOSTS must not be empty")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DocumentIDs returns the primary document ID followed by the fallbacks,
// in the order they should be attempted.
func (c *InstagramConfig) DocumentIDs() []string {
	ids := make([]string, 0, 1+len(c.FallbackDocumentIDs))
	ids = append(ids, c.DocumentID)
	ids = append(ids, c.FallbackDocumentIDs...)
	return ids
}
