package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/readify/storefront/internal/domain"
)

type Config struct {
	HTTPPort           string        `yaml:"http_port"`
	GRPCPort           string        `yaml:"grpc_port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`

	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Orders   OrdersConfig   `yaml:"orders"`
	Backend  BackendConfig  `yaml:"backend"`
	Admin    AdminConfig    `yaml:"admin"`
	Payment  PaymentConfig  `yaml:"payment"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Sessions SessionsConfig `yaml:"sessions"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	// Backend is memory, redis or mongo.
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	MongoURI      string        `yaml:"mongo_uri"`
	MongoDB       string        `yaml:"mongo_db"`
	TTL           time.Duration `yaml:"ttl"`
}

type CatalogConfig struct {
	// Backend is memory or sqlite.
	Backend        string `yaml:"backend"`
	DBPath         string `yaml:"db_path"`
	MigrationsPath string `yaml:"migrations_path"`
}

// OrdersConfig enables the Postgres order store when Host is set.
type OrdersConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	User           string   `yaml:"user"`
	Password       string   `yaml:"password"`
	DBName         string   `yaml:"db_name"`
	MigrationsPath string   `yaml:"migrations_path"`
	KafkaBrokers   []string `yaml:"kafka_brokers"`
	KafkaTopic     string   `yaml:"kafka_topic"`
}

// BackendConfig enables the REST backend when URL is set.
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type AdminConfig struct {
	JWTSecret    string  `yaml:"jwt_secret"`
	PasswordHash string  `yaml:"password_hash"`
	LoginRate    float64 `yaml:"login_rate"`
	LoginBurst   int     `yaml:"login_burst"`
}

type PaymentConfig struct {
	Payee      domain.Payee  `yaml:"payee"`
	QREndpoint string        `yaml:"qr_endpoint"`
	QRSize     int           `yaml:"qr_size"`
	QRTimeout  time.Duration `yaml:"qr_timeout"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type CheckoutConfig struct {
	SettleDelay     time.Duration `yaml:"settle_delay"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
}

// SessionsConfig bounds how long per-session state stays in memory. Carts
// and admin flags survive in the store and are reloaded on the next request.
type SessionsConfig struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

func Default() *Config {
	return &Config{
		HTTPPort:           "8080",
		GRPCPort:           "50060",
		RequestTimeout:     30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 1 << 20, // 1MB
		Log:                LogConfig{Level: "info", Format: "json"},
		Store: StoreConfig{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			MongoURI:  "mongodb://localhost:27017",
			MongoDB:   "readify",
			TTL:       30 * 24 * time.Hour,
		},
		Catalog: CatalogConfig{
			Backend:        "memory",
			DBPath:         "readify.db",
			MigrationsPath: "internal/catalog/migrations",
		},
		Orders: OrdersConfig{
			Port:           5432,
			User:           "postgres",
			DBName:         "readify",
			MigrationsPath: "internal/orders/migrations",
			KafkaTopic:     "orders-settled",
		},
		Backend: BackendConfig{
			Token:   "demo-admin-token",
			Timeout: 10 * time.Second,
		},
		Admin: AdminConfig{LoginRate: 0.2, LoginBurst: 5},
		Payment: PaymentConfig{
			Payee:      domain.Payee{Handle: "readify@upi", Name: "Readify Books"},
			QREndpoint: "https://api.qrserver.com/v1/create-qr-code/",
			QRSize:     256,
			QRTimeout:  3 * time.Second,
		},
		SMTP:     SMTPConfig{Port: 587},
		Checkout: CheckoutConfig{DispatchTimeout: 10 * time.Second},
		Sessions: SessionsConfig{IdleTimeout: 30 * time.Minute, SweepInterval: 5 * time.Minute},
	}
}

// Load starts from defaults, applies the YAML file at path when path is
// non-empty, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var errs []error

	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = getEnv("GRPC_PORT", cfg.GRPCPort)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Store.Backend = getEnv("STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.RedisAddr = getEnv("REDIS_ADDR", cfg.Store.RedisAddr)
	cfg.Store.RedisPassword = getEnv("REDIS_PASSWORD", cfg.Store.RedisPassword)
	cfg.Store.MongoURI = getEnv("MONGO_URI", cfg.Store.MongoURI)
	cfg.Store.MongoDB = getEnv("MONGO_DB_NAME", cfg.Store.MongoDB)

	cfg.Catalog.Backend = getEnv("CATALOG_BACKEND", cfg.Catalog.Backend)
	cfg.Catalog.DBPath = getEnv("CATALOG_DB_PATH", cfg.Catalog.DBPath)
	cfg.Catalog.MigrationsPath = getEnv("MIGRATIONS_PATH", cfg.Catalog.MigrationsPath)

	cfg.Orders.Host = getEnv("ORDERS_DB_HOST", cfg.Orders.Host)
	cfg.Orders.Port = getEnvInt("ORDERS_DB_PORT", cfg.Orders.Port, &errs)
	cfg.Orders.User = getEnv("ORDERS_DB_USER", cfg.Orders.User)
	cfg.Orders.Password = getEnv("ORDERS_DB_PASSWORD", cfg.Orders.Password)
	cfg.Orders.DBName = getEnv("ORDERS_DB_NAME", cfg.Orders.DBName)
	cfg.Orders.MigrationsPath = getEnv("ORDERS_MIGRATIONS_PATH", cfg.Orders.MigrationsPath)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.Orders.KafkaBrokers = strings.Split(brokers, ",")
	}

	cfg.Backend.URL = getEnv("BACKEND_URL", cfg.Backend.URL)
	cfg.Backend.Token = getEnv("BACKEND_TOKEN", cfg.Backend.Token)

	cfg.Admin.JWTSecret = getEnv("ADMIN_JWT_SECRET", cfg.Admin.JWTSecret)
	cfg.Admin.PasswordHash = getEnv("ADMIN_PASSWORD_HASH", cfg.Admin.PasswordHash)

	cfg.Payment.Payee.Handle = getEnv("UPI_HANDLE", cfg.Payment.Payee.Handle)
	cfg.Payment.Payee.Name = getEnv("UPI_NAME", cfg.Payment.Payee.Name)
	cfg.Payment.QREndpoint = getEnv("QR_ENDPOINT", cfg.Payment.QREndpoint)

	cfg.SMTP.Host = getEnv("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = getEnvInt("SMTP_PORT", cfg.SMTP.Port, &errs)
	cfg.SMTP.User = getEnv("SMTP_USER", cfg.SMTP.User)
	cfg.SMTP.Password = getEnv("SMTP_PASS", cfg.SMTP.Password)
	cfg.SMTP.From = getEnv("SMTP_FROM", cfg.SMTP.From)

	cfg.Checkout.SettleDelay = getEnvDuration("SETTLE_DELAY", cfg.Checkout.SettleDelay, &errs)

	cfg.Sessions.IdleTimeout = getEnvDuration("SESSION_IDLE_TIMEOUT", cfg.Sessions.IdleTimeout, &errs)
	cfg.Sessions.SweepInterval = getEnvDuration("SESSION_SWEEP_INTERVAL", cfg.Sessions.SweepInterval, &errs)

	return errors.Join(errs...)
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "redis", "mongo":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Catalog.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown catalog backend %q", c.Catalog.Backend)
	}
	if c.Payment.Payee.Handle == "" {
		return errors.New("payee handle is required")
	}
	if c.Checkout.SettleDelay < 0 {
		return errors.New("settle delay must not be negative")
	}
	if c.Sessions.IdleTimeout <= 0 || c.Sessions.SweepInterval <= 0 {
		return errors.New("session idle timeout and sweep interval must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}
