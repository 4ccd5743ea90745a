// Package config defines the top-level configuration for hedgesim and
// provides validation helpers.
package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// or YAML file and then optionally overridden by HEDGESIM_* environment
// variables.
type Config struct {
	Simulation SimulationConfig `toml:"simulation" yaml:"simulation"`
	Output     OutputConfig     `toml:"output" yaml:"output"`
	Compare    CompareConfig    `toml:"compare" yaml:"compare"`
	Quote      QuoteConfig      `toml:"quote" yaml:"quote"`
	Redis      RedisConfig      `toml:"redis" yaml:"redis"`
	Kafka      KafkaConfig      `toml:"kafka" yaml:"kafka"`
	Server     ServerConfig     `toml:"server" yaml:"server"`
	Notify     NotifyConfig     `toml:"notify" yaml:"notify"`
	Mode       string           `toml:"mode" yaml:"mode"`
	LogLevel   string           `toml:"log_level" yaml:"log_level"`
}

// SimulationConfig describes the option sold and how its hedge is run.
type SimulationConfig struct {
	Spot       float64 `toml:"spot" yaml:"spot"`
	Strike     float64 `toml:"strike" yaml:"strike"`
	Rate       float64 `toml:"rate" yaml:"rate"`
	Volatility float64 `toml:"volatility" yaml:"volatility"`
	// Drift is the real-world drift of the underlying. Unset means the
	// risk-free rate.
	Drift      *float64 `toml:"drift" yaml:"drift"`
	ExpiryDays float64  `toml:"expiry_days" yaml:"expiry_days"`
	Steps      int      `toml:"steps" yaml:"steps"`
	OptionType string   `toml:"option_type" yaml:"option_type"`
	Seed       uint64   `toml:"seed" yaml:"seed"`

	Contracts          float64 `toml:"contracts" yaml:"contracts"`
	TransactionCostBps float64 `toml:"transaction_cost_bps" yaml:"transaction_cost_bps"`
	RebalanceBand      float64 `toml:"rebalance_band" yaml:"rebalance_band"`
	Hedging            string  `toml:"hedging" yaml:"hedging"`
}

// OutputConfig selects where records go in run mode.
type OutputConfig struct {
	// Format is "csv" or "jsonl".
	Format string `toml:"format" yaml:"format"`
	// Path is the output file; empty or "-" writes to stdout.
	Path string `toml:"path" yaml:"path"`
}

// CompareConfig holds the volatility scenarios of compare mode.
type CompareConfig struct {
	Volatilities []float64 `toml:"volatilities" yaml:"volatilities"`
}

// QuoteConfig holds quote mode parameters.
type QuoteConfig struct {
	Spread float64 `toml:"spread" yaml:"spread"`
	// Strikes to quote; empty quotes simulation.strike only.
	Strikes []float64 `toml:"strikes" yaml:"strikes"`
	// DaysToExpiry overrides simulation.expiry_days when positive.
	DaysToExpiry float64 `toml:"days_to_expiry" yaml:"days_to_expiry"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled" yaml:"enabled"`
	Addr       string `toml:"addr" yaml:"addr"`
	Password   string `toml:"password" yaml:"password"`
	DB         int    `toml:"db" yaml:"db"`
	PoolSize   int    `toml:"pool_size" yaml:"pool_size"`
	MaxRetries int    `toml:"max_retries" yaml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled" yaml:"tls_enabled"`
	Channel    string `toml:"channel" yaml:"channel"`
	Stream     string `toml:"stream" yaml:"stream"`
	// StreamMaxLen caps the record stream; old entries are trimmed.
	StreamMaxLen int64  `toml:"stream_max_len" yaml:"stream_max_len"`
	Codec        string `toml:"codec" yaml:"codec"`
}

// KafkaConfig holds the record topic parameters.
type KafkaConfig struct {
	Enabled      bool     `toml:"enabled" yaml:"enabled"`
	Brokers      []string `toml:"brokers" yaml:"brokers"`
	Topic        string   `toml:"topic" yaml:"topic"`
	BatchSize    int      `toml:"batch_size" yaml:"batch_size"`
	WriteTimeout duration `toml:"write_timeout" yaml:"write_timeout"`
	Codec        string   `toml:"codec" yaml:"codec"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML accepts the same duration strings in YAML files.
func (d *duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port" yaml:"port"`
	CORSOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
	APIKey      string   `toml:"api_key" yaml:"api_key"`
	// RateLimit is requests per RateWindow per client; 0 disables it.
	RateLimit  int      `toml:"rate_limit" yaml:"rate_limit"`
	RateWindow duration `toml:"rate_window" yaml:"rate_window"`
	// MaxSteps caps the step count a single API request may ask for.
	MaxSteps int `toml:"max_steps" yaml:"max_steps"`
	// WSCodec is the frame encoding for websocket clients ("json" or "proto").
	WSCodec string `toml:"ws_codec" yaml:"ws_codec"`
	// Schedule is a cron spec with a seconds field (e.g. "*/30 * * * * *").
	// When set, serve mode runs the configured simulation on that schedule
	// with a fresh seed each time, feeding live dashboards. Empty disables it.
	Schedule string `toml:"schedule" yaml:"schedule"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token" yaml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id" yaml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url" yaml:"discord_webhook_url"`
	Events            []string `toml:"events" yaml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Simulation: SimulationConfig{
			Spot:       100,
			Strike:     100,
			Rate:       0.05,
			Volatility: 0.2,
			ExpiryDays: 30,
			Steps:      1000,
			OptionType: "call",
			Seed:       42,
			Contracts:  1,
			Hedging:    "delta",
		},
		Output: OutputConfig{
			Format: "csv",
		},
		Compare: CompareConfig{
			Volatilities: []float64{0.15, 0.80},
		},
		Quote: QuoteConfig{
			Spread: 0.04,
		},
		Redis: RedisConfig{
			Enabled:      false,
			Addr:         "localhost:6379",
			DB:           0,
			PoolSize:     10,
			MaxRetries:   3,
			TLSEnabled:   false,
			Channel:      "hedgesim:records",
			Stream:       "hedgesim:records:stream",
			StreamMaxLen: 10000,
			Codec:        "json",
		},
		Kafka: KafkaConfig{
			Enabled:      false,
			Brokers:      []string{"localhost:9092"},
			Topic:        "hedgesim.records",
			BatchSize:    100,
			WriteTimeout: duration{10 * time.Second},
			Codec:        "proto",
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   60,
			RateWindow:  duration{time.Minute},
			MaxSteps:    100_000,
			WSCodec:     "json",
		},
		Notify: NotifyConfig{
			Events: []string{"run_settled", "compare_done"},
		},
		Mode:     "run",
		LogLevel: "info",
	}
}

// ScheduleParser parses server.schedule: six fields starting with seconds,
// or a descriptor such as "@every 1m".
var ScheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"run":     true,
	"compare": true,
	"quote":   true,
	"serve":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validFormats = map[string]bool{
	"csv":   true,
	"jsonl": true,
}

var validCodecs = map[string]bool{
	"json":  true,
	"proto": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: run, compare, quote, serve)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Simulation parameters are checked by the domain so the API path
	// reports the same problems.
	if p, err := c.Params(); err != nil {
		errs = append(errs, "simulation: "+err.Error())
	} else if err := p.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			errs = append(errs, "simulation: "+line)
		}
	}

	// Output
	if !validFormats[strings.ToLower(c.Output.Format)] {
		errs = append(errs, fmt.Sprintf("output: unknown format %q (valid: csv, jsonl)", c.Output.Format))
	}

	// Compare
	if c.Mode == "compare" && len(c.Compare.Volatilities) == 0 {
		errs = append(errs, "compare: volatilities must not be empty")
	}
	for _, v := range c.Compare.Volatilities {
		if !(v >= 0) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Sprintf("compare: volatility %v must be non-negative", v))
		}
	}

	// Quote
	if !(c.Quote.Spread >= 0) {
		errs = append(errs, "quote: spread must be >= 0")
	}
	if c.Quote.DaysToExpiry < 0 {
		errs = append(errs, "quote: days_to_expiry must be >= 0")
	}
	for _, k := range c.Quote.Strikes {
		if !(k > 0) {
			errs = append(errs, fmt.Sprintf("quote: strike %v must be > 0", k))
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.StreamMaxLen < 0 {
			errs = append(errs, "redis: stream_max_len must be >= 0")
		}
		if !validCodecs[strings.ToLower(c.Redis.Codec)] {
			errs = append(errs, fmt.Sprintf("redis: unknown codec %q (valid: json, proto)", c.Redis.Codec))
		}
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, "kafka: brokers must not be empty")
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, "kafka: topic must not be empty")
		}
		if !validCodecs[strings.ToLower(c.Kafka.Codec)] {
			errs = append(errs, fmt.Sprintf("kafka: unknown codec %q (valid: json, proto)", c.Kafka.Codec))
		}
	}

	// Server
	if c.Mode == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be positive when rate_limit is set")
		}
		if c.Server.MaxSteps < 1 {
			errs = append(errs, "server: max_steps must be >= 1")
		}
		if !validCodecs[strings.ToLower(c.Server.WSCodec)] {
			errs = append(errs, fmt.Sprintf("server: unknown ws_codec %q (valid: json, proto)", c.Server.WSCodec))
		}
		if c.Server.Schedule != "" {
			if _, err := ScheduleParser.Parse(c.Server.Schedule); err != nil {
				errs = append(errs, fmt.Sprintf("server: schedule %q: %v", c.Server.Schedule, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Params converts the simulation section into the immutable parameters the
// simulator runs with. It fails only when the option type cannot be parsed;
// range checks are left to domain.Params.Validate.
func (c *Config) Params() (domain.Params, error) {
	s := c.Simulation
	typ, err := domain.ParseOptionType(s.OptionType)
	if err != nil {
		return domain.Params{}, &domain.ConfigError{
			Field: "option_type", Value: s.OptionType, Reason: "must be call or put",
		}
	}
	drift := s.Rate
	if s.Drift != nil {
		drift = *s.Drift
	}
	return domain.Params{
		Spot:               s.Spot,
		Strike:             s.Strike,
		Rate:               s.Rate,
		Volatility:         s.Volatility,
		Drift:              drift,
		Expiry:             s.ExpiryDays / daysPerYear,
		Steps:              s.Steps,
		OptionType:         typ,
		Seed:               s.Seed,
		Contracts:          s.Contracts,
		TransactionCostBps: s.TransactionCostBps,
		RebalanceBand:      s.RebalanceBand,
		Hedging:            strings.ToLower(strings.TrimSpace(s.Hedging)),
	}, nil
}

// daysPerYear converts expiry_days to the year fraction the pricer uses.
const daysPerYear = 365.0
