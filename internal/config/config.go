package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	Events      EventsConfig
	Idempotency IdempotencyConfig
	JWT         JWTConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	Billing     BillingConfig
	Printer     PrinterConfig
	Logging     LoggingConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

// StoreConfig selects the document store backend: memory, bolt, postgres or mongo.
type StoreConfig struct {
	Driver   string
	BoltPath string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	Timezone     string
	MaxIdleConns int
	MaxOpenConns int
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// EventsConfig selects the notification bus: local or redis.
type EventsConfig struct {
	Driver        string
	ChannelPrefix string
}

// IdempotencyConfig controls replay of requests carrying an Idempotency-Key.
type IdempotencyConfig struct {
	Driver    string // memory or redis
	TTL       time.Duration
	CacheSize int
}

type JWTConfig struct {
	Secret      string
	ExpiryHours time.Duration
	Issuer      string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type BillingConfig struct {
	TickInterval time.Duration
	// Location used to bucket transactions into calendar days and months.
	Location *time.Location
	Currency string
}

type PrinterConfig struct {
	Type      string
	USBPath   string
	Address   string
	Width     int
	StoreName string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from path (a .env or yaml file, optional) and the
// environment. Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = ".env"
	}
	v.SetConfigFile(path)
	if strings.HasSuffix(path, ".env") {
		v.SetConfigType("env")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// no file, defaults and environment only
	}

	loc, err := time.LoadLocation(v.GetString("BILLING_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid BILLING_TIMEZONE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:  v.GetString("APP_NAME"),
			Env:   v.GetString("APP_ENV"),
			Port:  v.GetString("APP_PORT"),
			Debug: v.GetBool("APP_DEBUG"),
		},
		Store: StoreConfig{
			Driver:   strings.ToLower(v.GetString("STORE_DRIVER")),
			BoltPath: v.GetString("BOLT_PATH"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			Name:         v.GetString("DB_NAME"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			SSLMode:      v.GetString("DB_SSL_MODE"),
			Timezone:     v.GetString("DB_TIMEZONE"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DATABASE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Events: EventsConfig{
			Driver:        strings.ToLower(v.GetString("EVENTS_DRIVER")),
			ChannelPrefix: v.GetString("EVENTS_CHANNEL_PREFIX"),
		},
		Idempotency: IdempotencyConfig{
			Driver:    strings.ToLower(v.GetString("IDEMPOTENCY_DRIVER")),
			TTL:       time.Duration(v.GetInt("IDEMPOTENCY_TTL_HOURS")) * time.Hour,
			CacheSize: v.GetInt("IDEMPOTENCY_CACHE_SIZE"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: time.Duration(v.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
			Issuer:      v.GetString("JWT_ISSUER"),
		},
		CORS: CORSConfig{
			AllowedOrigins: stringList(v, "CORS_ALLOWED_ORIGINS"),
			AllowedMethods: stringList(v, "CORS_ALLOWED_METHODS"),
			AllowedHeaders: stringList(v, "CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: v.GetInt("RATE_LIMIT_DURATION"),
		},
		Billing: BillingConfig{
			TickInterval: time.Duration(v.GetInt("BILLING_TICK_MS")) * time.Millisecond,
			Location:     loc,
			Currency:     v.GetString("BILLING_CURRENCY"),
		},
		Printer: PrinterConfig{
			Type:      strings.ToLower(v.GetString("PRINTER_TYPE")),
			USBPath:   v.GetString("PRINTER_USB_PATH"),
			Address:   v.GetString("PRINTER_ADDRESS"),
			Width:     v.GetInt("PRINTER_WIDTH"),
			StoreName: v.GetString("STORE_NAME"),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "tempo-pos")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_DEBUG", true)

	v.SetDefault("STORE_DRIVER", "bolt")
	v.SetDefault("BOLT_PATH", "./storage/tempo.db")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "tempo")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "Asia/Jakarta")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 50)

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MONGO_DATABASE", "tempo")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("EVENTS_DRIVER", "local")
	v.SetDefault("EVENTS_CHANNEL_PREFIX", "tempo:events:")

	v.SetDefault("IDEMPOTENCY_DRIVER", "memory")
	v.SetDefault("IDEMPOTENCY_TTL_HOURS", 24)
	v.SetDefault("IDEMPOTENCY_CACHE_SIZE", 10000)

	v.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("JWT_ISSUER", "tempo-pos")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_DURATION", 60)

	v.SetDefault("BILLING_TICK_MS", 1000)
	v.SetDefault("BILLING_TIMEZONE", "Asia/Jakarta")
	v.SetDefault("BILLING_CURRENCY", "IDR")

	v.SetDefault("PRINTER_TYPE", "none")
	v.SetDefault("PRINTER_WIDTH", 32)
	v.SetDefault("STORE_NAME", "Tempo POS")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func validate(cfg *Config) error {
	switch cfg.Store.Driver {
	case "memory", "postgres", "mongo":
	case "bolt":
		if cfg.Store.BoltPath == "" {
			return fmt.Errorf("BOLT_PATH is required for the bolt store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}

	switch cfg.Events.Driver {
	case "local", "redis":
	default:
		return fmt.Errorf("unknown EVENTS_DRIVER %q", cfg.Events.Driver)
	}

	switch cfg.Idempotency.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown IDEMPOTENCY_DRIVER %q", cfg.Idempotency.Driver)
	}

	if cfg.Billing.TickInterval <= 0 {
		return fmt.Errorf("BILLING_TICK_MS must be positive")
	}
	if cfg.RateLimit.Requests <= 0 || cfg.RateLimit.Duration <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_DURATION must be positive")
	}
	if cfg.App.Env == "production" && cfg.JWT.Secret == "change-this-secret-in-production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

// stringList accepts either a real list or a comma separated string.
func stringList(v *viper.Viper, key string) []string {
	switch t := v.Get(key).(type) {
	case []string:
		return t
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return v.GetStringSlice(key)
	}
}

// NeedsRedis reports whether any configured component talks to redis.
func (c *Config) NeedsRedis() bool {
	return c.Events.Driver == "redis" || c.Idempotency.Driver == "redis"
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
