package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. ONTOGRAPH_SCHEMA_PATH
const EnvPrefix = "ONTOGRAPH"

// Config represents the ontograph configuration
type Config struct {
	Schema    SchemaConfig    `mapstructure:"schema"`
	Log       LogConfig       `mapstructure:"log"`
	Namespace NamespaceConfig `mapstructure:"namespace"`
}

// SchemaConfig describes where the metamodel comes from and how it is checked
type SchemaConfig struct {
	Path       string `mapstructure:"path"`
	Format     string `mapstructure:"format"`
	XSD        string `mapstructure:"xsd"`
	BuiltinXSD bool   `mapstructure:"builtin_xsd"`
	MaxPasses  int    `mapstructure:"max_passes"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// NamespaceConfig represents namespace resolution configuration
type NamespaceConfig struct {
	Resolver string        `mapstructure:"resolver"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Cache    CacheConfig   `mapstructure:"cache"`
}

// CacheConfig represents the namespace resolution cache
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Backend  string        `mapstructure:"backend"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Resolver names
const (
	ResolverSchemaWeb = "schemaweb"
	ResolverIdentity  = "identity"
)

// Cache backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("schema.path", "")
	v.SetDefault("schema.format", "auto")
	v.SetDefault("schema.xsd", "")
	v.SetDefault("schema.builtin_xsd", false)
	v.SetDefault("schema.max_passes", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("namespace.resolver", ResolverSchemaWeb)
	v.SetDefault("namespace.endpoint", "http://www.schemaweb.info/webservices/rest/")
	v.SetDefault("namespace.timeout", 10*time.Second)
	v.SetDefault("namespace.cache.enabled", false)
	v.SetDefault("namespace.cache.backend", BackendMemory)
	v.SetDefault("namespace.cache.addr", "localhost:6379")
	v.SetDefault("namespace.cache.password", "")
	v.SetDefault("namespace.cache.db", 0)
	v.SetDefault("namespace.cache.prefix", "ontograph:ns:")
	v.SetDefault("namespace.cache.ttl", 24*time.Hour)
}

// Default returns the configuration used when no file or environment override is present
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load loads the configuration from path, or from ontograph.yaml in the working
// directory when path is empty. A missing ontograph.yaml is not an error; a
// missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ontograph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges and enumerations
func Validate(cfg *Config) error {
	if cfg.Schema.MaxPasses < 1 {
		return fmt.Errorf("schema.max_passes must be at least 1, got: %d", cfg.Schema.MaxPasses)
	}

	switch cfg.Namespace.Resolver {
	case ResolverSchemaWeb, ResolverIdentity:
	default:
		return fmt.Errorf("namespace.resolver must be %q or %q, got: %s",
			ResolverSchemaWeb, ResolverIdentity, cfg.Namespace.Resolver)
	}

	if cfg.Namespace.Timeout < 0 {
		return fmt.Errorf("namespace.timeout must not be negative, got: %s", cfg.Namespace.Timeout)
	}

	if cfg.Namespace.Cache.TTL < 0 {
		return fmt.Errorf("namespace.cache.ttl must not be negative, got: %s", cfg.Namespace.Cache.TTL)
	}

	switch cfg.Namespace.Cache.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("namespace.cache.backend must be %q or %q, got: %s",
			BackendMemory, BackendRedis, cfg.Namespace.Cache.Backend)
	}

	return nil
}

// RequireSchema returns an error when no schema path is configured
func (c *Config) RequireSchema() error {
	if strings.TrimSpace(c.Schema.Path) == "" {
		return fmt.Errorf("schema.path is required (set it in ontograph.yaml, with --schema or %s_SCHEMA_PATH)", EnvPrefix)
	}
	return nil
}
