package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Load reads a configuration file at path, merges it on top of the built-in
// defaults, applies HEDGESIM_* environment variable overrides, and returns
// the final Config. Files ending in .yaml or .yml are decoded as YAML, all
// others as TOML. An empty path uses the defaults alone. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after
// Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.UnmarshalStrict(b, cfg); err != nil {
			return fmt.Errorf("config: decode %s: %w", path, err)
		}
	default:
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return fmt.Errorf("config: decode %s: %w", path, err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			keys := make([]string, len(undec))
			for i, k := range undec {
				keys[i] = k.String()
			}
			return fmt.Errorf("config: decode %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}
	return nil
}

// applyEnvOverrides reads well-known HEDGESIM_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the config file.
func applyEnvOverrides(cfg *Config) {
	// ── Simulation ──
	setFloat64(&cfg.Simulation.Spot, "HEDGESIM_SIMULATION_SPOT")
	setFloat64(&cfg.Simulation.Strike, "HEDGESIM_SIMULATION_STRIKE")
	setFloat64(&cfg.Simulation.Rate, "HEDGESIM_SIMULATION_RATE")
	setFloat64(&cfg.Simulation.Volatility, "HEDGESIM_SIMULATION_VOLATILITY")
	setFloat64Ptr(&cfg.Simulation.Drift, "HEDGESIM_SIMULATION_DRIFT")
	setFloat64(&cfg.Simulation.ExpiryDays, "HEDGESIM_SIMULATION_EXPIRY_DAYS")
	setInt(&cfg.Simulation.Steps, "HEDGESIM_SIMULATION_STEPS")
	setStr(&cfg.Simulation.OptionType, "HEDGESIM_SIMULATION_OPTION_TYPE")
	setUint64(&cfg.Simulation.Seed, "HEDGESIM_SIMULATION_SEED")
	setFloat64(&cfg.Simulation.Contracts, "HEDGESIM_SIMULATION_CONTRACTS")
	setFloat64(&cfg.Simulation.TransactionCostBps, "HEDGESIM_SIMULATION_TRANSACTION_COST_BPS")
	setFloat64(&cfg.Simulation.RebalanceBand, "HEDGESIM_SIMULATION_REBALANCE_BAND")
	setStr(&cfg.Simulation.Hedging, "HEDGESIM_SIMULATION_HEDGING")

	// ── Output ──
	setStr(&cfg.Output.Format, "HEDGESIM_OUTPUT_FORMAT")
	setStr(&cfg.Output.Path, "HEDGESIM_OUTPUT_PATH")

	// ── Compare / Quote ──
	setFloat64Slice(&cfg.Compare.Volatilities, "HEDGESIM_COMPARE_VOLATILITIES")
	setFloat64(&cfg.Quote.Spread, "HEDGESIM_QUOTE_SPREAD")
	setFloat64Slice(&cfg.Quote.Strikes, "HEDGESIM_QUOTE_STRIKES")
	setFloat64(&cfg.Quote.DaysToExpiry, "HEDGESIM_QUOTE_DAYS_TO_EXPIRY")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "HEDGESIM_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "HEDGESIM_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "HEDGESIM_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "HEDGESIM_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "HEDGESIM_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "HEDGESIM_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "HEDGESIM_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.Channel, "HEDGESIM_REDIS_CHANNEL")
	setStr(&cfg.Redis.Stream, "HEDGESIM_REDIS_STREAM")
	setInt64(&cfg.Redis.StreamMaxLen, "HEDGESIM_REDIS_STREAM_MAX_LEN")
	setStr(&cfg.Redis.Codec, "HEDGESIM_REDIS_CODEC")

	// ── Kafka ──
	setBool(&cfg.Kafka.Enabled, "HEDGESIM_KAFKA_ENABLED")
	setStringSlice(&cfg.Kafka.Brokers, "HEDGESIM_KAFKA_BROKERS")
	setStr(&cfg.Kafka.Topic, "HEDGESIM_KAFKA_TOPIC")
	setInt(&cfg.Kafka.BatchSize, "HEDGESIM_KAFKA_BATCH_SIZE")
	setDuration(&cfg.Kafka.WriteTimeout, "HEDGESIM_KAFKA_WRITE_TIMEOUT")
	setStr(&cfg.Kafka.Codec, "HEDGESIM_KAFKA_CODEC")

	// ── Server ──
	setInt(&cfg.Server.Port, "HEDGESIM_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "HEDGESIM_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "HEDGESIM_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "HEDGESIM_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "HEDGESIM_SERVER_RATE_WINDOW")
	setInt(&cfg.Server.MaxSteps, "HEDGESIM_SERVER_MAX_STEPS")
	setStr(&cfg.Server.WSCodec, "HEDGESIM_SERVER_WS_CODEC")
	setStr(&cfg.Server.Schedule, "HEDGESIM_SERVER_SCHEDULE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "HEDGESIM_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "HEDGESIM_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "HEDGESIM_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "HEDGESIM_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "HEDGESIM_MODE")
	setStr(&cfg.LogLevel, "HEDGESIM_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setFloat64Ptr(dst **float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = &f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

func setFloat64Slice(dst *[]float64, key string) {
	var parts []string
	setStringSlice(&parts, key)
	if len(parts) == 0 {
		return
	}
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return
		}
		out = append(out, f)
	}
	*dst = out
}
