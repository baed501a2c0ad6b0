package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Catalog sources
const (
	CatalogSourceMongo = "mongo"
	CatalogSourceFile  = "file"
)

// Config holds the service configuration
type Config struct {
	Port     string `mapstructure:"port"`
	MongoURI string `mapstructure:"mongo_uri"`
	MongoDB  string `mapstructure:"mongo_db"`
	RedisURI string `mapstructure:"redis_uri"`

	JWTSecret    string `mapstructure:"jwt_secret"`
	HostUsername string `mapstructure:"host_username"`
	HostPassword string `mapstructure:"host_password"`
	CORSOrigins  string `mapstructure:"cors_allowed_origins"`

	CatalogSource string `mapstructure:"catalog_source"` // mongo or file
	CatalogFile   string `mapstructure:"catalog_file"`
	CatalogWatch  bool   `mapstructure:"catalog_watch"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	AdminTokenTTL     time.Duration `mapstructure:"admin_token_ttl"`
	QuestionCacheSize int           `mapstructure:"question_cache_size"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

var defaults = map[string]interface{}{
	"port":                 "8080",
	"mongo_uri":            "mongodb://localhost:27017",
	"mongo_db":             "finhealth",
	"redis_uri":            "localhost:6379",
	"jwt_secret":           "",
	"host_username":        "admin",
	"host_password":        "",
	"cors_allowed_origins": "*",
	"catalog_source":       CatalogSourceMongo,
	"catalog_file":         "catalog.yaml",
	"catalog_watch":        false,
	"log_level":            "info",
	"log_format":           "text",
	"session_ttl":          "2h",
	"admin_token_ttl":      "24h",
	"question_cache_size":  1024,
	"shutdown_timeout":     "30s",
}

// Load reads configuration from environment variables (MONGO_URI, REDIS_URI, PORT, ...)
// and, when configFile is non-empty, from that file. Environment wins over the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", configFile, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.RedisURI = strings.TrimPrefix(cfg.RedisURI, "redis://")
	cfg.CatalogSource = strings.ToLower(strings.TrimSpace(cfg.CatalogSource))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	switch c.CatalogSource {
	case CatalogSourceMongo:
	case CatalogSourceFile:
		if c.CatalogFile == "" {
			return errors.New("config: CATALOG_FILE is required when CATALOG_SOURCE=file")
		}
	default:
		return fmt.Errorf("config: unknown CATALOG_SOURCE %q", c.CatalogSource)
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	if c.QuestionCacheSize <= 0 {
		return errors.New("config: QUESTION_CACHE_SIZE must be positive")
	}
	return nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// FileCatalog reports whether the catalog is served read-only from a file
func (c *Config) FileCatalog() bool {
	return c.CatalogSource == CatalogSourceFile
}
