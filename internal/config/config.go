// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	APIKey string `yaml:"api_key"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type VNPayConfig struct {
	TmnCode     string        `yaml:"tmn_code"`
	HashSecret  string        `yaml:"hash_secret"`
	PayURL      string        `yaml:"pay_url"`
	ReturnURL   string        `yaml:"return_url"`
	Locale      string        `yaml:"locale"`     // vn | en
	OrderType   string        `yaml:"order_type"` // provider category code
	ExpireAfter time.Duration `yaml:"expire_after"`
}

// FrontendConfig holds where the browser lands after the return callback.
// Empty URLs make the return endpoint answer with JSON instead of a redirect.
type FrontendConfig struct {
	SuccessURL string `yaml:"success_url"`
	FailureURL string `yaml:"failure_url"`
}

type PaymentConfig struct {
	VNPay        VNPayConfig    `yaml:"vnpay"`
	PremiumPrice int64          `yaml:"premium_price"` // VND
	Frontend     FrontendConfig `yaml:"frontend"`
	// Checkout attempts allowed per user per minute.
	CheckoutRateLimit int `yaml:"checkout_rate_limit"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Payment  PaymentConfig  `yaml:"payment"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, overlays secrets from the environment
// (a .env file next to the binary is loaded first when present) and applies defaults.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse decodes YAML bytes, applies environment overrides and defaults, and validates.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"DATABASE_URL", &cfg.Database.URL},
		{"REDIS_URL", &cfg.Redis.URL},
		{"REDIS_PASSWORD", &cfg.Redis.Password},
		{"VNPAY_TMN_CODE", &cfg.Payment.VNPay.TmnCode},
		{"VNPAY_HASH_SECRET", &cfg.Payment.VNPay.HashSecret},
		{"JWT_SECRET", &cfg.Auth.JWTSecret},
		{"ADMIN_API_KEY", &cfg.Admin.APIKey},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.dst = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = time.Hour
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	v := &cfg.Payment.VNPay
	if v.PayURL == "" {
		v.PayURL = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"
	}
	if v.Locale == "" {
		v.Locale = "vn"
	}
	if v.OrderType == "" {
		v.OrderType = "other"
	}
	if v.ExpireAfter <= 0 {
		v.ExpireAfter = 15 * time.Minute
	}
	if cfg.Payment.CheckoutRateLimit <= 0 {
		cfg.Payment.CheckoutRateLimit = 10
	}
}

// Minimal validation
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Payment.VNPay.TmnCode == "" || c.Payment.VNPay.HashSecret == "" {
		return errors.New("payment.vnpay.tmn_code and payment.vnpay.hash_secret are required")
	}
	if c.Payment.VNPay.ReturnURL == "" {
		return errors.New("payment.vnpay.return_url is required")
	}
	if c.Payment.PremiumPrice <= 0 {
		return errors.New("payment.premium_price must be positive")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
