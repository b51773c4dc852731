// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TTL       time.Duration `yaml:"ttl"`
}

type RetryConfig struct {
	Attempts       int           `yaml:"attempts"`
	BackoffBase    time.Duration `yaml:"backoff_base"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
}

type MomoConfig struct {
	PartnerCode string `yaml:"partner_code"`
	PartnerName string `yaml:"partner_name"`
	StoreID     string `yaml:"store_id"`
	AccessKey   string `yaml:"access_key"`
	SecretKey   string `yaml:"secret_key"`
	APIURL      string `yaml:"api_url"`
	RedirectURL string `yaml:"redirect_url"`
	IPNURL      string `yaml:"ipn_url"`
}

type SenpayConfig struct {
	MerchantID  string `yaml:"merchant_id"`
	SecretKey   string `yaml:"secret_key"`
	APIURL      string `yaml:"api_url"`
	CheckoutURL string `yaml:"checkout_url"`
	ReturnURL   string `yaml:"return_url"`
	IPNURL      string `yaml:"ipn_url"`
}

type PaymentConfig struct {
	// Expiry is the window a payment may stay pending before the sweeper
	// marks it expired.
	Expiry        time.Duration `yaml:"expiry"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	// ReconcileAfter is how old a pending payment must be before the
	// reconciler queries the provider for its outcome.
	ReconcileAfter    time.Duration `yaml:"reconcile_after"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	Retry             RetryConfig   `yaml:"retry"`
	Momo              MomoConfig    `yaml:"momo"`
	Senpay            SenpayConfig  `yaml:"senpay"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Payment  PaymentConfig  `yaml:"payment"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Auth.TTL <= 0 {
		cfg.Auth.TTL = 24 * time.Hour
	}
	if cfg.Payment.Expiry <= 0 {
		cfg.Payment.Expiry = 15 * time.Minute
	}
	if cfg.Payment.SweepInterval <= 0 {
		cfg.Payment.SweepInterval = time.Minute
	}
	if cfg.Payment.ReconcileAfter <= 0 {
		cfg.Payment.ReconcileAfter = 10 * time.Minute
	}
	if cfg.Payment.ReconcileInterval <= 0 {
		cfg.Payment.ReconcileInterval = 5 * time.Minute
	}
	r := &cfg.Payment.Retry
	if r.Attempts <= 0 {
		r.Attempts = 3
	}
	if r.BackoffBase <= 0 {
		r.BackoffBase = time.Second
	}
	if r.ConnectTimeout <= 0 {
		r.ConnectTimeout = 10 * time.Second
	}
	if r.ReadTimeout <= 0 {
		r.ReadTimeout = 30 * time.Second
	}
}

// validate fails boot on missing essentials. Provider secrets are fatal only
// outside dev mode so local runs can exercise a single provider.
func (cfg *Config) validate() error {
	if cfg.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" && !cfg.Runtime.Dev {
		return errors.New("auth.jwt_secret is required")
	}
	if cfg.Runtime.Dev {
		return nil
	}
	var missing []string
	if cfg.Payment.Momo.PartnerCode == "" {
		missing = append(missing, "payment.momo.partner_code")
	}
	if cfg.Payment.Momo.AccessKey == "" {
		missing = append(missing, "payment.momo.access_key")
	}
	if cfg.Payment.Momo.SecretKey == "" {
		missing = append(missing, "payment.momo.secret_key")
	}
	if cfg.Payment.Senpay.MerchantID == "" {
		missing = append(missing, "payment.senpay.merchant_id")
	}
	if cfg.Payment.Senpay.SecretKey == "" {
		missing = append(missing, "payment.senpay.secret_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required provider credentials: %v", missing)
	}
	return nil
}
