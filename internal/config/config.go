package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nikolayk812/storefront/internal/idgen"
	"github.com/nikolayk812/storefront/internal/logging"
	"github.com/spf13/viper"
)

const EnvPrefix = "STOREFRONT"

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverRedis    = "redis"
)

var drivers = []string{DriverMemory, DriverFile, DriverBolt, DriverPostgres, DriverMongo, DriverRedis}

type Config struct {
	HTTP    HTTPConfig     `mapstructure:"http"`
	Store   StoreConfig    `mapstructure:"store"`
	IDs     IDsConfig      `mapstructure:"ids"`
	Catalog CatalogConfig  `mapstructure:"catalog"`
	Notify  NotifyConfig   `mapstructure:"notify"`
	Logger  logging.Config `mapstructure:"logger"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver        string        `mapstructure:"driver"`
	DataDir       string        `mapstructure:"data_dir"`
	Timeout       time.Duration `mapstructure:"timeout"`
	PostgresDSN   string        `mapstructure:"postgres_dsn"`
	MongoURI      string        `mapstructure:"mongo_uri"`
	MongoDatabase string        `mapstructure:"mongo_database"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
	BoltPath      string        `mapstructure:"bolt_path"`
	Instrument    bool          `mapstructure:"instrument"`
}

type IDsConfig struct {
	Strategy string `mapstructure:"strategy"`
	Node     int64  `mapstructure:"node"`
}

type CatalogConfig struct {
	LinkBase string `mapstructure:"link_base"`
}

type NotifyConfig struct {
	PoolSize     int      `mapstructure:"pool_size"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`
}

// Load reads defaults, then the optional file at path, then STOREFRONT_*
// environment variables. The file format follows its extension.
func Load(path string) (Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("v.ReadInConfig: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("v.Unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("cfg.Validate: %w", err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http.shutdown_timeout must be positive: %s", c.HTTP.ShutdownTimeout))
	}
	if c.Store.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("store.timeout must be positive: %s", c.Store.Timeout))
	}

	switch c.Store.Driver {
	case DriverFile:
		if c.Store.DataDir == "" {
			errs = append(errs, errors.New("store.data_dir is required for the file driver"))
		}
	case DriverBolt:
		if c.Store.BoltPath == "" {
			errs = append(errs, errors.New("store.bolt_path is required for the bolt driver"))
		}
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("store.postgres_dsn is required for the postgres driver"))
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("store.mongo_uri is required for the mongo driver"))
		}
		if c.Store.MongoDatabase == "" {
			errs = append(errs, errors.New("store.mongo_database is required for the mongo driver"))
		}
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required for the redis driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of %s", c.Store.Driver, strings.Join(drivers, ", ")))
	}

	switch c.IDs.Strategy {
	case idgen.StrategySequential, idgen.StrategyUUID, idgen.StrategySnowflake:
	default:
		errs = append(errs, fmt.Errorf("ids.strategy %q is unknown", c.IDs.Strategy))
	}

	if c.Notify.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("notify.pool_size must be positive: %d", c.Notify.PoolSize))
	}
	if len(c.Notify.KafkaBrokers) > 0 && c.Notify.KafkaTopic == "" {
		errs = append(errs, errors.New("notify.kafka_topic is required when brokers are set"))
	}

	return errors.Join(errs...)
}

// KafkaEnabled reports whether catalog changes are forwarded to Kafka.
func (c NotifyConfig) KafkaEnabled() bool {
	return slices.ContainsFunc(c.KafkaBrokers, func(b string) bool {
		return strings.TrimSpace(b) != ""
	})
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 15*time.Second)

	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.data_dir", "data")
	v.SetDefault("store.timeout", 5*time.Second)
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.mongo_uri", "")
	v.SetDefault("store.mongo_database", "storefront")
	v.SetDefault("store.redis_addr", "")
	v.SetDefault("store.redis_prefix", "storefront")
	v.SetDefault("store.bolt_path", "data/storefront.db")
	v.SetDefault("store.instrument", true)

	v.SetDefault("ids.strategy", idgen.StrategySequential)
	v.SetDefault("ids.node", 1)

	v.SetDefault("catalog.link_base", "/api/products")

	v.SetDefault("notify.pool_size", 16)
	v.SetDefault("notify.kafka_brokers", []string{})
	v.SetDefault("notify.kafka_topic", "catalog-changed")

	v.SetDefault("logger.mode", "development")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.file_enable", false)
	v.SetDefault("logger.filename", "logs/storefront.log")
	v.SetDefault("logger.max_size_mb", 64)
	v.SetDefault("logger.max_backups", 7)
	v.SetDefault("logger.max_age_days", 7)
}
