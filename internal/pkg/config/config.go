package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Store      StoreConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	CORS       CORSConfig
	Log        LogConfig
	Tracing    TracingConfig
	Ledger     LedgerConfig
	EventStore EventStoreConfig
	Outbox     OutboxConfig
	Expiry     ExpiryConfig
	Projector  ProjectorConfig
	Catalog    CatalogConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	DBName   string `envconfig:"DB_NAME"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"20"`
}

// Driver "postgres" persists everything in PostgreSQL; "memory" keeps a single-process store.
type StoreConfig struct {
	Driver string `envconfig:"STORE_DRIVER" default:"postgres"`
}

// Empty Addr disables Redis: the expiry lease and availability cache fall back to in-process implementations.
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"30s"`
}

// Empty Brokers switches the outbox to the log sink and disables the catalog and order consumers.
type KafkaConfig struct {
	Brokers       []string      `envconfig:"KAFKA_BROKERS"`
	EventsTopic   string        `envconfig:"KAFKA_EVENTS_TOPIC" default:"inventory.events"`
	CatalogTopic  string        `envconfig:"KAFKA_CATALOG_TOPIC" default:"catalog.variants"`
	OrderTopic    string        `envconfig:"KAFKA_ORDER_TOPIC" default:"orders.events"`
	ConsumerGroup string        `envconfig:"KAFKA_CONSUMER_GROUP" default:"inventory-ledger"`
	BatchTimeout  time.Duration `envconfig:"KAFKA_BATCH_TIMEOUT" default:"10ms"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,X-Correlation-ID"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,X-Correlation-ID"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

// Empty Endpoint keeps spans in process: trace context still flows through Kafka headers but nothing is exported.
type TracingConfig struct {
	ServiceName    string            `envconfig:"OTEL_SERVICE_NAME" default:"inventory-ledger"`
	ServiceVersion string            `envconfig:"OTEL_SERVICE_VERSION" default:"dev"`
	Endpoint       string            `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TracesPath     string            `envconfig:"OTEL_EXPORTER_OTLP_TRACES_PATH" default:"/v1/traces"`
	Headers        map[string]string `envconfig:"OTEL_EXPORTER_OTLP_HEADERS"`
	Insecure       bool              `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"false"`
	SampleRatio    float64           `envconfig:"OTEL_TRACES_SAMPLE_RATIO" default:"1"`
	BatchTimeout   time.Duration     `envconfig:"OTEL_BATCH_TIMEOUT" default:"5s"`
}

type LedgerConfig struct {
	LowStockThreshold int64         `envconfig:"LEDGER_LOW_STOCK_THRESHOLD" default:"10"`
	MaxRetries        int           `envconfig:"LEDGER_MAX_RETRIES" default:"5"`
	RetryBaseDelay    time.Duration `envconfig:"LEDGER_RETRY_BASE_DELAY" default:"20ms"`
	RetryMaxDelay     time.Duration `envconfig:"LEDGER_RETRY_MAX_DELAY" default:"500ms"`
	ReservationTTL    time.Duration `envconfig:"LEDGER_RESERVATION_TTL" default:"15m"`
	MaxLines          int           `envconfig:"LEDGER_MAX_LINES" default:"100"`
}

type EventStoreConfig struct {
	SnapshotThreshold int           `envconfig:"EVENTSTORE_SNAPSHOT_THRESHOLD" default:"50"`
	CacheSize         int           `envconfig:"EVENTSTORE_CACHE_SIZE" default:"4096"`
	SnapshotTimeout   time.Duration `envconfig:"EVENTSTORE_SNAPSHOT_TIMEOUT" default:"5s"`
}

type OutboxConfig struct {
	Sink           string        `envconfig:"OUTBOX_SINK" default:"kafka"`
	Workers        int           `envconfig:"OUTBOX_WORKERS" default:"4"`
	InstanceIndex  int           `envconfig:"OUTBOX_INSTANCE_INDEX" default:"0"`
	InstanceCount  int           `envconfig:"OUTBOX_INSTANCE_COUNT" default:"1"`
	PollInterval   time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"500ms"`
	BatchSize      int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	MaxAttempts    int           `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"12"`
	BaseBackoff    time.Duration `envconfig:"OUTBOX_BASE_BACKOFF" default:"1s"`
	MaxBackoff     time.Duration `envconfig:"OUTBOX_MAX_BACKOFF" default:"10m"`
	PublishTimeout time.Duration `envconfig:"OUTBOX_PUBLISH_TIMEOUT" default:"5s"`
}

type ExpiryConfig struct {
	Enabled   bool          `envconfig:"EXPIRY_ENABLED" default:"true"`
	Interval  time.Duration `envconfig:"EXPIRY_INTERVAL" default:"30s"`
	LeaseKey  string        `envconfig:"EXPIRY_LEASE_KEY" default:"inventory-ledger:expiry-sweep"`
	LeaseTTL  time.Duration `envconfig:"EXPIRY_LEASE_TTL" default:"90s"`
	BatchSize int           `envconfig:"EXPIRY_BATCH_SIZE" default:"200"`
}

type ProjectorConfig struct {
	Enabled      bool          `envconfig:"PROJECTOR_ENABLED" default:"true"`
	Name         string        `envconfig:"PROJECTOR_NAME" default:"history"`
	PollInterval time.Duration `envconfig:"PROJECTOR_POLL_INTERVAL" default:"1s"`
	BatchSize    int           `envconfig:"PROJECTOR_BATCH_SIZE" default:"500"`
}

type CatalogConfig struct {
	DefaultWarehouseID string `envconfig:"CATALOG_DEFAULT_WAREHOUSE_ID" default:"main"`
	DedupCacheSize     int    `envconfig:"CATALOG_DEDUP_CACHE_SIZE" default:"10000"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.DB.User == "" || c.DB.DBName == "" {
			return fmt.Errorf("DB_USER and DB_NAME are required for the postgres store driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Outbox.Sink {
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for the kafka outbox sink")
		}
	case "log":
	default:
		return fmt.Errorf("unknown OUTBOX_SINK %q", c.Outbox.Sink)
	}

	if c.Outbox.InstanceCount < 1 || c.Outbox.InstanceIndex < 0 || c.Outbox.InstanceIndex >= c.Outbox.InstanceCount {
		return fmt.Errorf("OUTBOX_INSTANCE_INDEX must be in [0, OUTBOX_INSTANCE_COUNT)")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLE_RATIO must be in [0, 1]")
	}
	if c.Outbox.Workers < 1 {
		return fmt.Errorf("OUTBOX_WORKERS must be positive")
	}
	return nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
			MaxConns: 20,
		},
		Store: StoreConfig{Driver: "memory"},
		Redis: RedisConfig{CacheTTL: time.Second},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeZone:   "UTC",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Tracing: TracingConfig{
			ServiceName:    "inventory-ledger-test",
			ServiceVersion: "test",
			TracesPath:     "/v1/traces",
			SampleRatio:    1,
			BatchTimeout:   time.Second,
		},
		Ledger: LedgerConfig{
			LowStockThreshold: 3,
			MaxRetries:        20,
			RetryBaseDelay:    time.Millisecond,
			RetryMaxDelay:     10 * time.Millisecond,
			ReservationTTL:    15 * time.Minute,
			MaxLines:          100,
		},
		EventStore: EventStoreConfig{
			SnapshotThreshold: 5,
			CacheSize:         128,
			SnapshotTimeout:   time.Second,
		},
		Outbox: OutboxConfig{
			Sink:           "log",
			Workers:        2,
			InstanceCount:  1,
			PollInterval:   10 * time.Millisecond,
			BatchSize:      50,
			MaxAttempts:    3,
			BaseBackoff:    time.Second,
			MaxBackoff:     time.Minute,
			PublishTimeout: time.Second,
		},
		Expiry: ExpiryConfig{
			Enabled:   true,
			Interval:  10 * time.Millisecond,
			LeaseKey:  "test:expiry-sweep",
			LeaseTTL:  time.Second,
			BatchSize: 50,
		},
		Projector: ProjectorConfig{
			Enabled:      true,
			Name:         "history",
			PollInterval: 10 * time.Millisecond,
			BatchSize:    100,
		},
		Catalog: CatalogConfig{
			DefaultWarehouseID: "main",
			DedupCacheSize:     100,
		},
	}
}
