package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type MarketConfig struct {
	QuoteBaseURL      string        `yaml:"quote_base_url"`
	RatesBaseURL      string        `yaml:"rates_base_url"`
	QuoteTTL          time.Duration `yaml:"quote_ttl"`
	RatesTTL          time.Duration `yaml:"rates_ttl"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type Config struct {
	LogLevel     string        `yaml:"log_level"`
	BaseCurrency string        `yaml:"base_currency"`
	Server       ServerConfig  `yaml:"server"`
	Market       MarketConfig  `yaml:"market"`
	Session      SessionConfig `yaml:"session"`
}

const (
	_logLevelDefault     = "info"
	_baseCurrencyDefault = "USD"
	_portDefault         = "8080"

	_quoteBaseURLDefault = "https://query1.finance.yahoo.com"
	_ratesBaseURLDefault = "https://api.frankfurter.app"
	_quoteTTLDefault     = 5 * time.Minute
	_ratesTTLDefault     = 1 * time.Hour
	_fetchTimeoutDefault = 5 * time.Second
	_rpmDefault          = 30

	_sessionTTLDefault = 30 * 24 * time.Hour
)

func (c *MarketConfig) Setup() error {
	if c.QuoteBaseURL == "" {
		c.QuoteBaseURL = _quoteBaseURLDefault
	}
	if c.RatesBaseURL == "" {
		c.RatesBaseURL = _ratesBaseURLDefault
	}
	if _, err := url.Parse(c.QuoteBaseURL); err != nil {
		return fmt.Errorf("%w: bad quote base url", err)
	}
	if _, err := url.Parse(c.RatesBaseURL); err != nil {
		return fmt.Errorf("%w: bad rates base url", err)
	}
	if c.QuoteTTL <= 0 {
		c.QuoteTTL = _quoteTTLDefault
	}
	if c.RatesTTL <= 0 {
		c.RatesTTL = _ratesTTLDefault
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = _fetchTimeoutDefault
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = _rpmDefault
	}
	return nil
}

func (c *Config) ValidateAndSetup() error {
	if c.LogLevel == "" {
		c.LogLevel = _logLevelDefault
	}
	if c.BaseCurrency == "" {
		c.BaseCurrency = _baseCurrencyDefault
	}
	if c.Server.Port == "" {
		c.Server.Port = _portDefault
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = _sessionTTLDefault
	}
	if err := c.Market.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup market cfg", err)
	}
	return nil
}

func Load(filename string) (Config, error) {
	var cfg Config
	input, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
