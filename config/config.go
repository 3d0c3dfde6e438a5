package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Guest    GuestConfig    `mapstructure:"guest"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Twilio   TwilioConfig   `mapstructure:"twilio"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	GinMode        string   `mapstructure:"gin_mode"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	AllowedOrigin  string   `mapstructure:"allowed_origin"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	MaintenanceKey string        `mapstructure:"maintenance_key"`
}

type GuestConfig struct {
	SessionTTL          time.Duration `mapstructure:"session_ttl"`
	PartyTTL            time.Duration `mapstructure:"party_ttl"`
	BillRequestExpiry   time.Duration `mapstructure:"bill_request_expiry"`
	SweepInterval       time.Duration `mapstructure:"sweep_interval"`
	PinAttempts         int           `mapstructure:"pin_attempts"`
	OrderCooldown       time.Duration `mapstructure:"order_cooldown"`
	WaiterCallCooldown  time.Duration `mapstructure:"waiter_call_cooldown"`
	BillRequestCooldown time.Duration `mapstructure:"bill_request_cooldown"`
	OTPCooldown         time.Duration `mapstructure:"otp_cooldown"`
	OTPTTL              time.Duration `mapstructure:"otp_ttl"`
	OTPMaxAttempts      int           `mapstructure:"otp_max_attempts"`
	RateLimitMax        int           `mapstructure:"rate_limit_max"`
	RateLimitWindow     int           `mapstructure:"rate_limit_window_seconds"`
}

type NotifyConfig struct {
	RedisAddr    string   `mapstructure:"redis_addr"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
}

type LogConfig struct {
	Format string `mapstructure:"format"`
}

// Load reads .env (if present) and the process environment. Nested keys map to
// upper-case env names with underscores, e.g. guest.party_ttl -> GUEST_PARTY_TTL.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be set")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "debug")
	v.SetDefault("server.trusted_proxies", []string{"127.0.0.1"})
	v.SetDefault("server.allowed_origin", "*")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "root:root@tcp(127.0.0.1:3306)/tableside?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("auth.maintenance_key", "")

	v.SetDefault("guest.session_ttl", 12*time.Hour)
	v.SetDefault("guest.party_ttl", 2*time.Hour)
	v.SetDefault("guest.bill_request_expiry", 15*time.Minute)
	v.SetDefault("guest.sweep_interval", time.Minute)
	v.SetDefault("guest.pin_attempts", 20)
	v.SetDefault("guest.order_cooldown", 10*time.Second)
	v.SetDefault("guest.waiter_call_cooldown", 30*time.Second)
	v.SetDefault("guest.bill_request_cooldown", 10*time.Second)
	v.SetDefault("guest.otp_cooldown", 60*time.Second)
	v.SetDefault("guest.otp_ttl", 5*time.Minute)
	v.SetDefault("guest.otp_max_attempts", 5)
	v.SetDefault("guest.rate_limit_max", 30)
	v.SetDefault("guest.rate_limit_window_seconds", 60)

	v.SetDefault("notify.redis_addr", "")
	v.SetDefault("notify.kafka_brokers", []string{})
	v.SetDefault("notify.kafka_topic", "table-events")

	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.from", "")

	v.SetDefault("log.format", "text")
}

// InitDB opens the relational store. Duplicate-key errors are translated to
// gorm.ErrDuplicatedKey so callers can detect unique index collisions.
func InitDB(cfg DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	return db, nil
}
