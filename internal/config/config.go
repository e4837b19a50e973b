package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Fuentes admitidas para el dataset.
const (
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
	SourceMySQL    = "mysql"
	SourceMongoDB  = "mongodb"
)

type Config struct {
	HTTPPort           string `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel           string `envconfig:"LOG_LEVEL" default:"info"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"600"`

	// Dataset
	PageSize       int           `envconfig:"PAGE_SIZE" default:"10"`
	DatasetSource  string        `envconfig:"DATASET_SOURCE" default:"file"`
	DatasetPath    string        `envconfig:"DATASET_PATH" default:"./data/database.json"`
	DatasetURL     string        `envconfig:"DATASET_URL"`
	DatasetTimeout time.Duration `envconfig:"DATASET_TIMEOUT" default:"10s"`
	LoadAttempts   int           `envconfig:"LOAD_ATTEMPTS" default:"1"`
	LoadRetryDelay time.Duration `envconfig:"LOAD_RETRY_DELAY" default:"2s"`

	// Almacenes
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./skidash.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN"`
	MySQLDSN    string `envconfig:"MYSQL_DSN"`
	MongoURI    string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDB     string `envconfig:"MONGO_DB" default:"skidash"`

	// Cache y sesiones
	RedisAddr    string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	ViewCacheTTL time.Duration `envconfig:"VIEW_CACHE_TTL" default:"1m"`

	// Eventos
	UseKafka     bool     `envconfig:"USE_KAFKA" default:"false"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"skipass.sessions"`
	KafkaGroupID string   `envconfig:"KAFKA_GROUP_ID" default:"skidash-analytics"`

	// Analítica
	ClickHouseAddr       string        `envconfig:"CLICKHOUSE_ADDR"`
	ClickHouseDB         string        `envconfig:"CLICKHOUSE_DB" default:"default"`
	AnalyticsFlushPeriod time.Duration `envconfig:"ANALYTICS_FLUSH_PERIOD" default:"5s"`
	AnalyticsBatchSize   int           `envconfig:"ANALYTICS_BATCH_SIZE" default:"100"`
}

// LoadConfig lee la configuración de las variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate comprueba que la fuente elegida tiene lo que necesita.
func (c *Config) Validate() error {
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}

	switch c.DatasetSource {
	case SourceFile:
		if c.DatasetPath == "" {
			return fmt.Errorf("DATASET_PATH is required for source %q", c.DatasetSource)
		}
	case SourceHTTP:
		if c.DatasetURL == "" {
			return fmt.Errorf("DATASET_URL is required for source %q", c.DatasetSource)
		}
	case SourcePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for source %q", c.DatasetSource)
		}
	case SourceMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required for source %q", c.DatasetSource)
		}
	case SourceSQLite, SourceMongoDB:
	default:
		return fmt.Errorf("unknown DATASET_SOURCE %q", c.DatasetSource)
	}

	if c.UseKafka && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when USE_KAFKA is set")
	}
	return nil
}
