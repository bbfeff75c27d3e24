// Package config loads application configuration from a YAML file with
// environment-variable overrides. Every subsystem (server, index, search,
// redis, kafka, postgres, logging, metrics) has its own typed section.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int             `yaml:"port"`
	ReadTimeout     time.Duration   `yaml:"readTimeout"`
	WriteTimeout    time.Duration   `yaml:"writeTimeout"`
	RequestTimeout  time.Duration   `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdownTimeout"`
	CORSOrigins     []string        `yaml:"corsOrigins"`
	RateLimit       RateLimitConfig `yaml:"rateLimit"`
	// SlowRequest raises request span logs to warn level; 0 disables it.
	SlowRequest time.Duration `yaml:"slowRequest"`
}

// RateLimitConfig bounds requests per client address.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// IndexConfig configures the in-memory inverted index.
type IndexConfig struct {
	StopWords   []string `yaml:"stopWords"`
	BucketCount int      `yaml:"bucketCount"`
	Parallelism int      `yaml:"parallelism"`
	MaxResults  int      `yaml:"maxResults"`
}

// SearchConfig controls query defaults and the zero-result tracking window.
type SearchConfig struct {
	DefaultStatus    string `yaml:"defaultStatus"`
	PageSize         int    `yaml:"pageSize"`
	ZeroResultWindow int    `yaml:"zeroResultWindow"`
	MaxBatchQueries  int    `yaml:"maxBatchQueries"`
}

// PostgresConfig holds PostgreSQL connection parameters. When Enabled is
// false the document loader is skipped at startup.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DocumentIngest  string `yaml:"documentIngest"`
	AnalyticsEvents string `yaml:"analyticsEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	PoolSize  int           `yaml:"poolSize"`
	CacheTTL  time.Duration `yaml:"cacheTTL"`
	OpTimeout time.Duration `yaml:"opTimeout"`
}

// AnalyticsConfig sizes the event collector and the Postgres snapshot
// cadence. A zero SnapshotInterval disables snapshots.
type AnalyticsConfig struct {
	BufferSize       int           `yaml:"bufferSize"`
	BatchSize        int           `yaml:"batchSize"`
	FlushInterval    time.Duration `yaml:"flushInterval"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Index.BucketCount <= 0 {
		return fmt.Errorf("index.bucketCount must be positive, got %d", c.Index.BucketCount)
	}
	if c.Search.ZeroResultWindow <= 0 {
		return fmt.Errorf("search.zeroResultWindow must be positive, got %d", c.Search.ZeroResultWindow)
	}
	if rl := c.Server.RateLimit; rl.Enabled && (rl.Requests <= 0 || rl.Window <= 0) {
		return fmt.Errorf("server.rateLimit needs positive requests and window, got %d per %s", rl.Requests, rl.Window)
	}
	return nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			SlowRequest:     500 * time.Millisecond,
			RateLimit: RateLimitConfig{
				Requests: 100,
				Window:   time.Second,
			},
		},
		Index: IndexConfig{
			BucketCount: 16,
			MaxResults:  5,
		},
		Search: SearchConfig{
			DefaultStatus:    "active",
			PageSize:         2,
			ZeroResultWindow: 1440,
			MaxBatchQueries:  1000,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "searchserver",
			User:            "searchserver",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "searchserver-group",
			Topics: KafkaTopics{
				DocumentIngest:  "document-ingest",
				AnalyticsEvents: "search-events",
			},
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  10,
			CacheTTL:  60 * time.Second,
			OpTimeout: 100 * time.Millisecond,
		},
		Analytics: AnalyticsConfig{
			BufferSize:       10000,
			BatchSize:        100,
			FlushInterval:    5 * time.Second,
			SnapshotInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	setInt("SS_SERVER_PORT", &cfg.Server.Port)
	if v := os.Getenv("SS_SERVER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
	setBool("SS_SERVER_RATE_LIMIT_ENABLED", &cfg.Server.RateLimit.Enabled)
	setInt("SS_SERVER_RATE_LIMIT_REQUESTS", &cfg.Server.RateLimit.Requests)
	if v := os.Getenv("SS_INDEX_STOP_WORDS"); v != "" {
		cfg.Index.StopWords = strings.Fields(v)
	}
	setInt("SS_INDEX_BUCKET_COUNT", &cfg.Index.BucketCount)
	setInt("SS_INDEX_PARALLELISM", &cfg.Index.Parallelism)
	setInt("SS_INDEX_MAX_RESULTS", &cfg.Index.MaxResults)
	setString("SS_SEARCH_DEFAULT_STATUS", &cfg.Search.DefaultStatus)
	setInt("SS_SEARCH_ZERO_RESULT_WINDOW", &cfg.Search.ZeroResultWindow)
	setInt("SS_SEARCH_PAGE_SIZE", &cfg.Search.PageSize)

	setBool("SS_POSTGRES_ENABLED", &cfg.Postgres.Enabled)
	setString("SS_POSTGRES_HOST", &cfg.Postgres.Host)
	setInt("SS_POSTGRES_PORT", &cfg.Postgres.Port)
	setString("SS_POSTGRES_DATABASE", &cfg.Postgres.Database)
	setString("SS_POSTGRES_USER", &cfg.Postgres.User)
	setString("SS_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	setString("SS_POSTGRES_SSLMODE", &cfg.Postgres.SSLMode)

	setBool("SS_KAFKA_ENABLED", &cfg.Kafka.Enabled)
	if v := os.Getenv("SS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}

	setBool("SS_REDIS_ENABLED", &cfg.Redis.Enabled)
	setString("SS_REDIS_ADDR", &cfg.Redis.Addr)
	setString("SS_REDIS_PASSWORD", &cfg.Redis.Password)

	setString("SS_LOGGING_LEVEL", &cfg.Logging.Level)
	setString("SS_LOGGING_FORMAT", &cfg.Logging.Format)
	setBool("SS_METRICS_ENABLED", &cfg.Metrics.Enabled)
	setInt("SS_METRICS_PORT", &cfg.Metrics.Port)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
