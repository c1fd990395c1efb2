// Package config loads the argo-signals configuration from a YAML file,
// a .env file and the process environment.
package config

import (
	"encoding/json"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"github.com/rxtech-lab/argo-signals/internal/analysis"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file configuration.
const (
	EnvTelegramBotToken = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID   = "TELEGRAM_CHAT_ID"
	EnvListen           = "ARGO_SIGNALS_LISTEN"
	EnvRedisAddress     = "REDIS_ADDR"
	EnvLogLevel         = "ARGO_SIGNALS_LOG_LEVEL"
)

// Seen store backends.
const (
	SeenBackendMemory = "memory"
	SeenBackendDuckDB = "duckdb"
	SeenBackendRedis  = "redis"
)

// TargetConfig is one (symbol, interval) pair to watch.
type TargetConfig struct {
	Symbol   string `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Binance symbol such as BTCUSDT" validate:"required,uppercase"`
	Interval string `yaml:"interval" json:"interval" jsonschema:"title=Interval,description=Kline interval such as 1h,default=1h" validate:"required,kline_interval"`
}

// SeenConfig selects where sent signal keys are remembered.
type SeenConfig struct {
	Backend      string `yaml:"backend" json:"backend" jsonschema:"title=Backend,enum=memory,enum=duckdb,enum=redis,default=memory" validate:"required,oneof=memory duckdb redis"`
	Capacity     int    `yaml:"capacity" json:"capacity" jsonschema:"title=Capacity,description=Keys kept before the oldest is evicted,default=200" validate:"min=1"`
	RedisAddress string `yaml:"redisAddress" json:"redisAddress" jsonschema:"title=Redis Address,description=host:port of the redis server" validate:"required_if=Backend redis"`
	RedisPrefix  string `yaml:"redisPrefix" json:"redisPrefix" jsonschema:"title=Redis Prefix"`
}

// TelegramConfig holds the bot credentials. Notifications are logged instead
// of sent when either credential is empty.
type TelegramConfig struct {
	BotToken string `yaml:"botToken" json:"botToken" jsonschema:"title=Bot Token"`
	ChatID   string `yaml:"chatId" json:"chatId" jsonschema:"title=Chat ID"`
	BaseURL  string `yaml:"baseUrl" json:"baseUrl" jsonschema:"title=Base URL,description=Telegram Bot API endpoint" validate:"omitempty,url"`
}

// Config is the full application configuration.
type Config struct {
	Targets        []TargetConfig `yaml:"targets" json:"targets" jsonschema:"title=Targets,description=Pairs analyzed by the watch command" validate:"dive"`
	Limit          int            `yaml:"limit" json:"limit" jsonschema:"title=Limit,description=Klines requested per analysis,default=480" validate:"min=100,max=1000"`
	MinSamples     int            `yaml:"minSamples" json:"minSamples" jsonschema:"title=Min Samples,default=100" validate:"min=100,ltefield=Limit"`
	Listen         string         `yaml:"listen" json:"listen" jsonschema:"title=Listen Address,default=:3001" validate:"required"`
	PollInterval   time.Duration  `yaml:"pollInterval" json:"pollInterval" jsonschema:"title=Poll Interval,description=Delay between watch rounds such as 1m" validate:"gte=1s"`
	Concurrency    int            `yaml:"concurrency" json:"concurrency" jsonschema:"title=Concurrency,default=4" validate:"min=1,max=64"`
	JournalPath    string         `yaml:"journalPath" json:"journalPath" jsonschema:"title=Journal Path,description=DuckDB file; empty keeps the journal in memory"`
	BinanceBaseURL string         `yaml:"binanceBaseUrl" json:"binanceBaseUrl" jsonschema:"title=Binance Base URL" validate:"omitempty,url"`
	LogLevel       string         `yaml:"logLevel" json:"logLevel" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"oneof=debug info warn error"`
	Seen           SeenConfig     `yaml:"seen" json:"seen"`
	Telegram       TelegramConfig `yaml:"telegram" json:"telegram"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Targets:      []TargetConfig{{Symbol: "BTCUSDT", Interval: "1h"}},
		Limit:        marketdata.DefaultLimit,
		MinSamples:   marketdata.DefaultMinCloses,
		Listen:       ":3001",
		PollInterval: time.Minute,
		Concurrency:  analysis.DefaultConcurrency,
		LogLevel:     "info",
		Seen: SeenConfig{
			Backend:  SeenBackendMemory,
			Capacity: 200,
		},
	}
}

// Load reads the YAML file at path on top of Default, applies the .env
// file and environment overrides, and validates the result. An empty path
// skips the file.
func Load(path string, envFiles ...string) (Config, error) {
	if err := LoadDotEnv(envFiles...); err != nil {
		return Config{}, err
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config file %s", path)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Parse decodes a YAML document on top of Default and validates it.
// The environment is not consulted.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadDotEnv loads variables from the given files (".env" when none are
// given) without overriding variables already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		err := godotenv.Load(file)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}

		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to load %s", file)
	}

	return nil
}

func (c *Config) applyEnv() {
	override := func(name string, field *string) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*field = v
		}
	}

	override(EnvTelegramBotToken, &c.Telegram.BotToken)
	override(EnvTelegramChatID, &c.Telegram.ChatID)
	override(EnvListen, &c.Listen)
	override(EnvRedisAddress, &c.Seen.RedisAddress)
	override(EnvLogLevel, &c.LogLevel)
}

// Validate checks field constraints and kline intervals.
func (c Config) Validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("kline_interval", func(fl validator.FieldLevel) bool {
		return marketdata.Interval(fl.Field().String()).Validate() == nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to register interval validation", err)
	}

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return nil
}

// AnalysisTargets converts the configured targets.
func (c Config) AnalysisTargets() []analysis.Target {
	targets := make([]analysis.Target, 0, len(c.Targets))
	for _, t := range c.Targets {
		targets = append(targets, analysis.Target{Symbol: t.Symbol, Interval: marketdata.Interval(t.Interval)})
	}

	return targets
}

// SourceConfig describes the Binance source for this configuration.
func (c Config) SourceConfig() marketdata.SourceConfig {
	return marketdata.SourceConfig{
		Type:      marketdata.SourceBinance,
		BaseURL:   c.BinanceBaseURL,
		Limit:     c.Limit,
		MinCloses: c.MinSamples,
	}
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Schema returns the JSON schema of Config.
func Schema() (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(Config{})

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to encode schema", err)
	}

	return string(data), nil
}
