// Package config loads service settings from defaults, an optional YAML
// file, a .env file and DOJO_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting.
type Config struct {
	Env      string `yaml:"env" validate:"oneof=development production"`
	Addr     string `yaml:"addr" validate:"required"`
	DBPath   string `yaml:"db_path" validate:"required"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	SlowQuery   time.Duration `yaml:"slow_query" validate:"gt=0"`
	SlowRequest time.Duration `yaml:"slow_request" validate:"gt=0"`

	HTTP    HTTPConfig    `yaml:"http"`
	Email   EmailConfig   `yaml:"email"`
	Gateway GatewayConfig `yaml:"gateway"`
	Outbox  OutboxConfig  `yaml:"outbox"`
	Report  ReportConfig  `yaml:"report"`
}

// HTTPConfig covers the JSON API hardening.
type HTTPConfig struct {
	RatePerSecond  int      `yaml:"rate_per_second" validate:"min=1"`
	CSRFKey        string   `yaml:"csrf_key" validate:"omitempty,len=64,hexadecimal"` // 32 bytes, hex
	SecureCookies  bool     `yaml:"secure_cookies"`
	TrustedOrigins []string `yaml:"trusted_origins"`
}

// EmailConfig selects the email provider. An empty ResendKey means
// messages are logged, not delivered.
type EmailConfig struct {
	ResendKey       string   `yaml:"resend_key"`
	From            string   `yaml:"from" validate:"required"`
	ReplyTo         string   `yaml:"reply_to" validate:"omitempty,email"`
	StaffRecipients []string `yaml:"staff_recipients" validate:"dive,email"`
}

// GatewayConfig selects the payment gateway. An empty server key selects
// the manual gateway.
type GatewayConfig struct {
	MidtransServerKey string `yaml:"midtrans_server_key"`
	Production        bool   `yaml:"production"`
}

// OutboxConfig tunes the retry worker.
type OutboxConfig struct {
	Interval  time.Duration `yaml:"interval" validate:"gt=0"`
	BaseDelay time.Duration `yaml:"base_delay" validate:"gt=0"`
	MaxDelay  time.Duration `yaml:"max_delay" validate:"gtefield=BaseDelay"`
	BatchSize int           `yaml:"batch_size" validate:"min=1,max=500"`
}

// ReportConfig sets the risk report defaults.
type ReportConfig struct {
	LookbackDays int    `yaml:"lookback_days" validate:"min=1,max=366"`
	MinRisk      string `yaml:"min_risk" validate:"oneof=low medium high"`
}

// Default returns the development configuration.
func Default() Config {
	return Config{
		Env:         "development",
		Addr:        ":8080",
		DBPath:      "dojo.db",
		LogLevel:    "info",
		SlowQuery:   50 * time.Millisecond,
		SlowRequest: 200 * time.Millisecond,
		HTTP: HTTPConfig{
			RatePerSecond:  20,
			TrustedOrigins: []string{"localhost:8080", "127.0.0.1:8080"},
		},
		Email: EmailConfig{
			From: "Dojo <noreply@dojo.local>",
		},
		Outbox: OutboxConfig{
			Interval:  time.Minute,
			BaseDelay: 30 * time.Second,
			MaxDelay:  time.Hour,
			BatchSize: 50,
		},
		Report: ReportConfig{
			LookbackDays: 28,
			MinRisk:      "medium",
		},
	}
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

var validate = validator.New()

// Validate checks ranges and formats.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads .env (when present) into the process environment and builds
// the configuration from it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a configuration: defaults, then the YAML file named by
// DOJO_CONFIG, then DOJO_* variables.
// PRE: lookup behaves like os.LookupEnv
// POST: returned config passed Validate
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path, ok := lookup("DOJO_CONFIG"); ok && path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeYAML rejects unknown keys so typos do not silently fall back to defaults.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("DOJO_ENV", &cfg.Env)
	str("DOJO_ADDR", &cfg.Addr)
	str("DOJO_DB_PATH", &cfg.DBPath)
	str("DOJO_LOG_LEVEL", &cfg.LogLevel)
	str("DOJO_CSRF_KEY", &cfg.HTTP.CSRFKey)
	list("DOJO_TRUSTED_ORIGINS", &cfg.HTTP.TrustedOrigins)
	str("DOJO_RESEND_KEY", &cfg.Email.ResendKey)
	str("DOJO_EMAIL_FROM", &cfg.Email.From)
	str("DOJO_REPLY_TO", &cfg.Email.ReplyTo)
	list("DOJO_STAFF_EMAILS", &cfg.Email.StaffRecipients)
	str("DOJO_MIDTRANS_SERVER_KEY", &cfg.Gateway.MidtransServerKey)
	str("DOJO_REPORT_MIN_RISK", &cfg.Report.MinRisk)

	ints := []struct {
		key string
		dst *int
	}{
		{"DOJO_RATE_PER_SECOND", &cfg.HTTP.RatePerSecond},
		{"DOJO_OUTBOX_BATCH_SIZE", &cfg.Outbox.BatchSize},
		{"DOJO_REPORT_LOOKBACK_DAYS", &cfg.Report.LookbackDays},
	}
	for _, e := range ints {
		if v, ok := lookup(e.key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"DOJO_SLOW_QUERY", &cfg.SlowQuery},
		{"DOJO_SLOW_REQUEST", &cfg.SlowRequest},
		{"DOJO_OUTBOX_INTERVAL", &cfg.Outbox.Interval},
		{"DOJO_OUTBOX_BASE_DELAY", &cfg.Outbox.BaseDelay},
		{"DOJO_OUTBOX_MAX_DELAY", &cfg.Outbox.MaxDelay},
	}
	for _, e := range durations {
		if v, ok := lookup(e.key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = d
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"DOJO_SECURE_COOKIES", &cfg.HTTP.SecureCookies},
		{"DOJO_MIDTRANS_PRODUCTION", &cfg.Gateway.Production},
	}
	for _, e := range bools {
		if v, ok := lookup(e.key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = b
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
