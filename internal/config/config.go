// Package config loads the bot configuration from a YAML file, a .env file and the
// process environment, in that order of increasing priority.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type Config struct {
	Exchange ExchangeConfig `yaml:"exchange"`
	Strategy StrategyConfig `yaml:"strategy"`
	Journal  JournalConfig  `yaml:"journal"`
	Notify   NotifyConfig   `yaml:"notify"`
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
}

type ExchangeConfig struct {
	Name         string `yaml:"name"` // "binance" or "bybit"
	APIKey       string `yaml:"api_key"`
	APISecret    string `yaml:"api_secret"`
	RESTEndpoint string `yaml:"rest_endpoint"`
	WSEndpoint   string `yaml:"ws_endpoint"` // bybit only
	Testnet      bool   `yaml:"testnet"`
}

type StrategyConfig struct {
	Leverage        int     `yaml:"leverage"`
	TakeProfitPct   float64 `yaml:"take_profit_pct"` // 0.10 = 10%
	TriggerPct      float64 `yaml:"trigger_pct"`
	StopPct         float64 `yaml:"stop_pct"`
	PollIntervalMs  int     `yaml:"poll_interval_ms"`
	HedgeMode       bool    `yaml:"hedge_mode"`
	UnwindOnFailure bool    `yaml:"unwind_on_failure"`
	MarginAsset     string  `yaml:"margin_asset"`
}

func (s StrategyConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMs) * time.Millisecond
}

type JournalConfig struct {
	Path string `yaml:"path"` // empty disables the journal
}

type NotifyConfig struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID string `yaml:"telegram_chat_id"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"` // 0 disables the status server
	CORSOrigins []string `yaml:"cors_origins"`
}

func Defaults() Config {
	return Config{
		Exchange: ExchangeConfig{Name: "binance"},
		Strategy: StrategyConfig{
			Leverage:       5,
			TakeProfitPct:  0.10,
			TriggerPct:     0.10,
			StopPct:        0.05,
			PollIntervalMs: 1000,
			HedgeMode:      true,
			MarginAsset:    "USDT",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path on top of Defaults and applies environment overrides.
// A missing file is not an error: the bot can run on environment variables alone.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	// .env is optional.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	cfg.Exchange.Name = strings.ToLower(cfg.Exchange.Name)

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Exchange.Name {
	case "binance", "bybit":
	default:
		errs = append(errs, fmt.Errorf("exchange.name %q is not supported", c.Exchange.Name))
	}
	if c.Exchange.Name == "binance" && c.Exchange.WSEndpoint != "" {
		errs = append(errs, errors.New("exchange.ws_endpoint is only supported for bybit"))
	}
	if c.Exchange.APIKey == "" || c.Exchange.APISecret == "" {
		errs = append(errs, errors.New("exchange api key and secret are required"))
	}
	if c.Strategy.Leverage < 1 || c.Strategy.Leverage > 125 {
		errs = append(errs, fmt.Errorf("strategy.leverage %d out of range 1..125", c.Strategy.Leverage))
	}
	for name, v := range map[string]float64{
		"take_profit_pct": c.Strategy.TakeProfitPct,
		"trigger_pct":     c.Strategy.TriggerPct,
		"stop_pct":        c.Strategy.StopPct,
	} {
		if v <= 0 || v >= 1 {
			errs = append(errs, fmt.Errorf("strategy.%s %v out of range (0,1)", name, v))
		}
	}
	if c.Strategy.PollIntervalMs <= 0 {
		errs = append(errs, errors.New("strategy.poll_interval_ms must be positive"))
	}
	return errors.Join(errs...)
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	out := *c
	redact(&out.Exchange.APIKey)
	redact(&out.Exchange.APISecret)
	redact(&out.Notify.TelegramToken)
	if c.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	}
	return out
}

func redact(s *string) {
	if *s != "" {
		*s = "***"
	}
}
