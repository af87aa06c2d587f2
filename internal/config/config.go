package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/tagdex/internal/domain"
	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	"github.com/kailas-cloud/tagdex/internal/domain/locale"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

// Storage drivers.
const (
	DriverValkey   = "valkey"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Reindex dispatch modes.
const (
	ReindexSync  = "sync"
	ReindexAsync = "async"
)

// Config holds the tagdex configuration.
type Config struct {
	HTTP          HTTPConfig         `yaml:"http"`
	Database      DatabaseConfig     `yaml:"database"`
	Auth          AuthConfig         `yaml:"auth"`
	Storage       StorageConfig      `yaml:"storage"`
	Query         QueryConfig        `yaml:"query"`
	Reindex       ReindexConfig      `yaml:"reindex"`
	Kafka         KafkaConfig        `yaml:"kafka"`
	DefaultLocale string             `yaml:"default_locale"`
	Collections   []CollectionConfig `yaml:"collections"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds storage connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, postgres (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	DSN              string   `yaml:"dsn"`
	MaxConns         int32    `yaml:"max_conns"`
}

// StorageConfig holds key layout settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// QueryConfig holds pagination limits for tag queries.
type QueryConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
	MaxBatchSize    int `yaml:"max_batch_size"`
}

// ReindexConfig selects how gated rebuilds are dispatched.
type ReindexConfig struct {
	Mode string `yaml:"mode"` // sync (default) or async
}

// KafkaConfig holds async reindex transport settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// CollectionConfig declares one tagged document collection.
type CollectionConfig struct {
	Name        string   `yaml:"name"`
	Variant     string   `yaml:"variant"` // flat (default) or localized
	EnableIndex *bool    `yaml:"enable_index"`
	Separator   string   `yaml:"separator"`
	IndexName   string   `yaml:"index_name"`
	Locales     []string `yaml:"locales"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands and validates a YAML config file. A .env file in the
// working directory, if present, seeds the environment first without
// overriding variables that are already set.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Query.DefaultPageSize <= 0 {
		c.Query.DefaultPageSize = 20
	}
	if c.Query.MaxPageSize <= 0 {
		c.Query.MaxPageSize = 100
	}
	if c.Query.MaxBatchSize <= 0 {
		c.Query.MaxBatchSize = 100
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "tagdex:"
	}
	if c.Reindex.Mode == "" {
		c.Reindex.Mode = ReindexSync
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "tagdex-reindex"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be valkey, redis or postgres, got %q", c.Database.Driver)
	}

	if c.Query.DefaultPageSize > c.Query.MaxPageSize {
		return fmt.Errorf("query.default_page_size (%d) exceeds query.max_page_size (%d)",
			c.Query.DefaultPageSize, c.Query.MaxPageSize)
	}

	switch c.Reindex.Mode {
	case ReindexSync:
	case ReindexAsync:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required for reindex.mode %q", ReindexAsync)
		}
	default:
		return fmt.Errorf("reindex.mode must be \"sync\" or \"async\", got %q", c.Reindex.Mode)
	}

	if c.DefaultLocale != "" && !locale.IsValid(c.DefaultLocale) {
		return fmt.Errorf("default_locale %q is not a valid locale", c.DefaultLocale)
	}

	if len(c.Collections) == 0 {
		return fmt.Errorf("at least one collection must be declared")
	}
	if _, err := c.Registry(); err != nil {
		return err
	}
	return nil
}

// Registry builds the immutable collection registry from the declarations.
func (c *Config) Registry() (*domcol.Registry, error) {
	configs := make([]domcol.Config, 0, len(c.Collections))
	for i, cc := range c.Collections {
		cfg, err := domcol.New(cc.Name, domcol.Options{
			Variant:     tag.Variant(cc.Variant),
			EnableIndex: cc.EnableIndex,
			Separator:   cc.Separator,
			IndexName:   cc.IndexName,
			Locales:     cc.Locales,
		})
		if err != nil {
			return nil, fmt.Errorf("collections[%d]: %w", i, err)
		}
		configs = append(configs, cfg)
	}

	reg, err := domcol.NewRegistry(configs...)
	if err != nil {
		return nil, err
	}
	if err := uniqueIndexNames(configs); err != nil {
		return nil, err
	}
	return reg, nil
}

func uniqueIndexNames(configs []domcol.Config) error {
	owner := make(map[string]string, len(configs))
	for _, c := range configs {
		if prev, dup := owner[c.IndexName()]; dup {
			return fmt.Errorf("collections %q and %q share index name %q: %w",
				prev, c.Name(), c.IndexName(), domain.ErrInvalidConfig)
		}
		owner[c.IndexName()] = c.Name()
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
