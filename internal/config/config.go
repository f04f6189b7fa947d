package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Trading struct {
	Providers       []string `yaml:"providers"` // empty = accept all providers
	Watchlist       []string `yaml:"watchlist"`
	WatchlistOnly   bool     `yaml:"watchlist_only"`
	NotionalUSD     float64  `yaml:"notional_usd"`
	MaxSpreadFrac   float64  `yaml:"max_spread_fraction"`
	EntryType       string   `yaml:"entry_type"`       // MKT | LMT
	TIF             string   `yaml:"tif"`              // DAY | GTC | IOC
	CooldownSeconds int      `yaml:"cooldown_seconds"` // 0 = no dedupe window
}

type Feed struct {
	Transport string `yaml:"transport"` // "sse" or "kafka"
	BaseURL   string `yaml:"base_url" env:"FEED_BASE_URL"`

	Kafka Kafka `yaml:"kafka"`

	ReconnectInitialMs int `yaml:"reconnect_initial_ms"`
	ReconnectMaxMs     int `yaml:"reconnect_max_ms"`
	ReconnectJitterMs  int `yaml:"reconnect_jitter_ms"`
	ChannelBuffer      int `yaml:"channel_buffer"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC"`
	GroupID string   `yaml:"group_id" env:"KAFKA_GROUP_ID"`
}

type Gateway struct {
	BaseURL          string `yaml:"base_url" env:"GATEWAY_BASE_URL"`
	TimeoutMs        int    `yaml:"timeout_ms"`
	RateLimitPerMin  int    `yaml:"rate_limit_per_minute"`
	WebsocketURL     string `yaml:"websocket_url" env:"GATEWAY_WS_URL"`
	ReconnectDelayMs int    `yaml:"reconnect_delay_ms"`
}

type Journal struct {
	Path string `yaml:"path"`
}

type Root struct {
	LogLevel    string  `yaml:"log_level" env:"LOG_LEVEL"`
	Trading     Trading `yaml:"trading"`
	Feed        Feed    `yaml:"feed"`
	Gateway     Gateway `yaml:"gateway"`
	Journal     Journal `yaml:"journal"`
	MetricsAddr string  `yaml:"metrics_addr" env:"METRICS_ADDR"`
}

// Load reads the YAML file, applies environment overrides, then fills
// defaults. A missing .env file is fine; an unreadable config file is not.
func Load(path string) (Root, error) {
	_ = godotenv.Load()

	var c Root
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("env overrides: %w", err)
	}

	applyDefaults(&c)
	return c, c.validate()
}

func applyDefaults(c *Root) {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Trading.NotionalUSD == 0 {
		c.Trading.NotionalUSD = 5000
	}
	if c.Trading.MaxSpreadFrac == 0 {
		c.Trading.MaxSpreadFrac = 0.01
	}
	if c.Trading.EntryType == "" {
		c.Trading.EntryType = "MKT"
	}
	if c.Trading.TIF == "" {
		c.Trading.TIF = "DAY"
	}

	if c.Feed.Transport == "" {
		c.Feed.Transport = "sse"
	}
	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = "http://localhost:8091"
	}
	if c.Feed.ReconnectInitialMs == 0 {
		c.Feed.ReconnectInitialMs = 500
	}
	if c.Feed.ReconnectMaxMs == 0 {
		c.Feed.ReconnectMaxMs = 30000
	}
	if c.Feed.ReconnectJitterMs == 0 {
		c.Feed.ReconnectJitterMs = 250
	}
	if c.Feed.ChannelBuffer == 0 {
		c.Feed.ChannelBuffer = 1024
	}
	if c.Feed.Kafka.GroupID == "" {
		c.Feed.Kafka.GroupID = "autotrader"
	}

	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = "https://localhost:5000/v1/api"
	}
	if c.Gateway.TimeoutMs == 0 {
		c.Gateway.TimeoutMs = 5000
	}
	if c.Gateway.RateLimitPerMin == 0 {
		c.Gateway.RateLimitPerMin = 60
	}
	if c.Gateway.WebsocketURL == "" {
		c.Gateway.WebsocketURL = "wss://localhost:5000/v1/api/ws"
	}
	if c.Gateway.ReconnectDelayMs == 0 {
		c.Gateway.ReconnectDelayMs = 3000
	}

	if c.Journal.Path == "" {
		c.Journal.Path = "data/orders.jsonl"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9180"
	}
}

func (c *Root) validate() error {
	switch c.Trading.EntryType {
	case "MKT", "LMT":
	default:
		return fmt.Errorf("invalid entry_type %q", c.Trading.EntryType)
	}
	switch c.Trading.TIF {
	case "DAY", "GTC", "IOC":
	default:
		return fmt.Errorf("invalid tif %q", c.Trading.TIF)
	}
	switch c.Feed.Transport {
	case "sse", "kafka":
	default:
		return fmt.Errorf("invalid feed transport %q", c.Feed.Transport)
	}
	if c.Trading.MaxSpreadFrac < 0 {
		return fmt.Errorf("max_spread_fraction must be >= 0")
	}
	return nil
}
