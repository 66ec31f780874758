package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/autotopup-backend/internal/api/validate"
)

// EnvPrefix marks environment overrides; "__" separates nested keys (BANK_HTTP__PORT=9090).
const EnvPrefix = "BANK_"

var DefaultConfig = []byte(`
env: "dev"

logger:
  level: "info"

http:
  port: "8080"
  rate_rps: 100

database:
  url: ""
  migrate: true
  max_conns: 10

redis:
  addr: ""
  password: ""

kafka:
  brokers: []
  topic: "bank-events"

categorizer:
  url: ""
  port: "9000"
  timeout: "2s"
  large_amount_threshold: "700"

topup:
  manual_mode: "check"

auth:
  access_secret: "dev-access-secret"
  refresh_secret: "dev-refresh-secret"
  access_ttl: "15m"
  refresh_ttl: "168h"

seed:
  demo: true

workers: 4
`)

type Config struct {
	Env         string      `koanf:"env"`
	Logger      Logger      `koanf:"logger"`
	HTTP        HTTP        `koanf:"http"`
	Database    Database    `koanf:"database"`
	Redis       Redis       `koanf:"redis"`
	Kafka       Kafka       `koanf:"kafka"`
	Categorizer Categorizer `koanf:"categorizer"`
	TopUp       TopUp       `koanf:"topup"`
	Auth        Auth        `koanf:"auth"`
	Seed        Seed        `koanf:"seed"`
	Workers     int         `koanf:"workers"`
}

type Logger struct {
	Level string `koanf:"level"`
}

type HTTP struct {
	Port    string `koanf:"port"`
	RateRPS int    `koanf:"rate_rps"`
}

// Database with an empty URL selects the in-memory store.
type Database struct {
	URL      string `koanf:"url"`
	Migrate  bool   `koanf:"migrate"`
	MaxConns int32  `koanf:"max_conns"`
}

// Redis with an empty Addr keeps idempotency keys in process.
type Redis struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
}

// Kafka with no brokers publishes events to the log.
type Kafka struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

// Categorizer with an empty URL classifies in process.
type Categorizer struct {
	URL                  string        `koanf:"url"`
	Port                 string        `koanf:"port"`
	Timeout              time.Duration `koanf:"timeout"`
	LargeAmountThreshold string        `koanf:"large_amount_threshold"`
}

// LargeAmount is the parsed threshold; Validate has already rejected bad values.
func (c Categorizer) LargeAmount() decimal.Decimal {
	d, err := decimal.NewFromString(c.LargeAmountThreshold)
	if err != nil {
		return decimal.NewFromInt(700)
	}
	return d
}

const (
	ManualModeCheck = "check"
	ManualModeForce = "force"
)

type TopUp struct {
	ManualMode string `koanf:"manual_mode"`
}

type Auth struct {
	AccessSecret  string        `koanf:"access_secret"`
	RefreshSecret string        `koanf:"refresh_secret"`
	AccessTTL     time.Duration `koanf:"access_ttl"`
	RefreshTTL    time.Duration `koanf:"refresh_ttl"`
}

type Seed struct {
	Demo bool `koanf:"demo"`
}

// Load layers the defaults, the optional YAML file at path and BANK_ environment overrides.
func Load(path string) (*koanf.Koanf, Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(DefaultConfig), yaml.Parser()); err != nil {
		return nil, Config{}, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, Config{}, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, Config{}, err
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return nil, Config{}, err
	}
	return k, c, c.Validate()
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var bad []*validate.ErrField
	add := func(field, msg string) { bad = append(bad, &validate.ErrField{Field: field, Msg: msg}) }

	if c.HTTP.Port == "" {
		add("http.port", "cannot be empty")
	}
	if c.Categorizer.Timeout <= 0 {
		add("categorizer.timeout", "must be > 0")
	}
	if _, err := decimal.NewFromString(c.Categorizer.LargeAmountThreshold); err != nil {
		add("categorizer.large_amount_threshold", "must be a decimal")
	}
	bad = append(bad, validate.OneOf("topup.manual_mode", c.TopUp.ManualMode, ManualModeCheck, ManualModeForce))
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		add("auth", "secrets cannot be empty")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		add("auth", "ttls must be > 0")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		add("kafka.topic", "cannot be empty when brokers are set")
	}
	if c.Workers <= 0 {
		add("workers", "must be > 0")
	}
	return validate.Collect(bad...)
}

func (c *Config) IsProd() bool { return c.Env == "prod" }
