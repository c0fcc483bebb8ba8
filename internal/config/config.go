package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=restoran port=5432 sslmode=disable"

type HTTPConfig struct {
	Port        string `mapstructure:"port"`
	CORSOrigins string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"automigrate"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTTTL    time.Duration `mapstructure:"jwt_ttl"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type OrdersConfig struct {
	Source       string `mapstructure:"source"` // postgres | mongo
	LookbackDays int    `mapstructure:"lookback_days"`
	Limit        int    `mapstructure:"limit"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type BucketConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Endpoint   string        `mapstructure:"endpoint"`
	AccessKey  string        `mapstructure:"access_key"`
	SecretKey  string        `mapstructure:"secret_key"`
	Name       string        `mapstructure:"name"`
	Secure     bool          `mapstructure:"secure"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

type BlockingConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type AnalyticsConfig struct {
	TopN     int    `mapstructure:"top_n"`
	Location string `mapstructure:"location"`
}

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Orders    OrdersConfig    `mapstructure:"orders"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Bucket    BucketConfig    `mapstructure:"bucket"`
	Blocking  BlockingConfig  `mapstructure:"blocking"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.cors_origins", "http://localhost:5173")
	v.SetDefault("database.dsn", defaultDSN)
	v.SetDefault("database.automigrate", true)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_ttl", 24*time.Hour)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.file", "")
	v.SetDefault("orders.source", "postgres")
	v.SetDefault("orders.lookback_days", 800)
	v.SetDefault("orders.limit", 0)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "restoran")
	v.SetDefault("mongo.collection", "orders")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "orders.changed")
	v.SetDefault("kafka.group_id", "restoran-analytics")
	v.SetDefault("bucket.enabled", false)
	v.SetDefault("bucket.endpoint", "localhost:9000")
	v.SetDefault("bucket.access_key", "")
	v.SetDefault("bucket.secret_key", "")
	v.SetDefault("bucket.name", "reports")
	v.SetDefault("bucket.secure", false)
	v.SetDefault("bucket.presign_ttl", time.Hour)
	v.SetDefault("blocking.sweep_interval", time.Minute)
	v.SetDefault("analytics.top_n", 5)
	v.SetDefault("analytics.location", "Asia/Tashkent")
}

// Load reads configuration from defaults, an optional file and the
// environment (HTTP_PORT, AUTH_JWT_SECRET, ...). A .env file in the working
// directory is loaded first when present.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	// env lists arrive split on commas but untrimmed
	cfg.Kafka.Brokers = splitList(strings.Join(cfg.Kafka.Brokers, ","))
	return &cfg, nil
}

// Validate enforces the settings the server cannot run without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (AUTH_JWT_SECRET) is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("auth.jwt_secret must be at least 32 characters")
	}
	switch c.Orders.Source {
	case "postgres", "mongo":
	default:
		return fmt.Errorf("orders.source must be postgres or mongo, got %q", c.Orders.Source)
	}
	if c.Bucket.Enabled && (c.Bucket.AccessKey == "" || c.Bucket.SecretKey == "") {
		return errors.New("bucket.access_key and bucket.secret_key are required when bucket is enabled")
	}
	if c.Analytics.Location != "" {
		if _, err := time.LoadLocation(c.Analytics.Location); err != nil {
			return fmt.Errorf("analytics.location: unknown zone %q", c.Analytics.Location)
		}
	}
	return nil
}

// Warnings lists settings that are fine for development but not production.
func (c *Config) Warnings() []string {
	var w []string
	if c.Database.DSN == defaultDSN {
		w = append(w, "database.dsn uses the default value, set DATABASE_DSN in production")
	}
	if c.HTTP.CORSOrigins == "http://localhost:5173" {
		w = append(w, "http.cors_origins uses the default value, set HTTP_CORS_ORIGINS in production")
	}
	return w
}

// CORSOrigins returns the allowed origins as a list.
func (c *Config) CORSOrigins() []string {
	return splitList(c.HTTP.CORSOrigins)
}

// Location is the zone reports are bucketed in. Validate rejects unknown
// names; an empty name means the process zone.
func (c *Config) Location() *time.Location {
	if c.Analytics.Location == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Analytics.Location)
	if err != nil {
		return time.Local
	}
	return loc
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
