package tagdex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/tagdex/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string
	addrs    []string
	password string
	dsn      string

	keyPrefix       string
	defaultLocale   string
	defaultPageSize int
	maxPageSize     int
	maxBatchSize    int
	collections     []config.CollectionConfig

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverValkey
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithPostgres configures the client to use Postgres through a pgx DSN.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverPostgres
		c.dsn = dsn
	})
}

// WithKeyPrefix sets the Redis/Valkey key prefix. Default: "tagdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithDefaultLocale sets the locale used when the context carries none.
func WithDefaultLocale(loc string) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultLocale = loc
	})
}

// WithPagination sets the default and maximum page sizes of tag queries.
func WithPagination(defaultSize, maxSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultPageSize = defaultSize
		c.maxPageSize = maxSize
	})
}

// WithMaxBatchSize limits how many documents SaveMany and DeleteMany accept.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) { c.maxBatchSize = size })
}

// WithCollection declares a tagged collection. At least one is required.
func WithCollection(name string, opts ...CollectionOption) Option {
	return optionFunc(func(c *clientConfig) {
		cc := config.CollectionConfig{Name: name}
		for _, o := range opts {
			o.applyCollection(&cc)
		}
		c.collections = append(c.collections, cc)
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// toConfig maps options onto the service configuration so the SDK goes
// through the same defaults and validation as the server.
func (c *clientConfig) toConfig() (config.Config, error) {
	cfg := config.Config{
		Database: config.DatabaseConfig{
			Driver:   c.driver,
			Addrs:    c.addrs,
			Password: c.password,
			DSN:      c.dsn,
		},
		Storage: config.StorageConfig{KeyPrefix: c.keyPrefix},
		Query: config.QueryConfig{
			DefaultPageSize: c.defaultPageSize,
			MaxPageSize:     c.maxPageSize,
			MaxBatchSize:    c.maxBatchSize,
		},
		DefaultLocale: c.defaultLocale,
		Collections:   c.collections,
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
