package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/hedgesim/internal/cache/redis"
	"github.com/alanyoungcy/hedgesim/internal/codec"
	"github.com/alanyoungcy/hedgesim/internal/config"
	"github.com/alanyoungcy/hedgesim/internal/domain"
	"github.com/alanyoungcy/hedgesim/internal/notify"
	"github.com/alanyoungcy/hedgesim/internal/server/handler"
	"github.com/alanyoungcy/hedgesim/internal/sink"
)

// Dependencies bundles the optional transports the modes publish to. Every
// field except Notifier is nil when its backend is disabled.
type Dependencies struct {
	// Redis
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	BusCodec    codec.Codec
	BusChannel  string
	BusStream   string
	// Health holds the backends the health check probes.
	Health map[string]handler.Pinger

	// Kafka
	Kafka      *sink.KafkaConfig
	KafkaCodec codec.Codec
	KafkaBatch int

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs the concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Redis (live record bus, rate limiting, run locks) ---
	if cfg.Redis.Enabled {
		c, err := codec.ByName(cfg.Redis.Codec)
		if err != nil {
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.SignalBus = redis.NewSignalBus(redisClient, cfg.Redis.StreamMaxLen)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.BusCodec = c
		deps.BusChannel = cfg.Redis.Channel
		deps.BusStream = cfg.Redis.Stream
		deps.Health = map[string]handler.Pinger{"redis": redisClient}
		logger.InfoContext(ctx, "redis record bus enabled",
			slog.String("addr", cfg.Redis.Addr),
			slog.String("codec", c.Name()),
		)
	}

	// --- Kafka (record topic). Writers are opened per run. ---
	if cfg.Kafka.Enabled {
		c, err := codec.ByName(cfg.Kafka.Codec)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: kafka: %w", err)
		}
		deps.Kafka = &sink.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchSize:    cfg.Kafka.BatchSize,
			WriteTimeout: cfg.Kafka.WriteTimeout.Duration,
		}
		deps.KafkaCodec = c
		deps.KafkaBatch = cfg.Kafka.BatchSize
		logger.InfoContext(ctx, "kafka record topic enabled",
			slog.String("topic", cfg.Kafka.Topic),
			slog.String("codec", c.Name()),
		)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

// TransportSinks opens the bus and Kafka sinks for one run. The caller owns
// the returned sinks and must close them.
func (d *Dependencies) TransportSinks(runID string) ([]domain.RecordSink, error) {
	var out []domain.RecordSink
	if d.SignalBus != nil {
		out = append(out, sink.NewBus(d.SignalBus, d.BusCodec, runID, d.BusChannel, d.BusStream))
	}
	if d.Kafka != nil {
		w, err := sink.NewKafkaWriter(*d.Kafka)
		if err != nil {
			return nil, fmt.Errorf("wire: kafka: %w", err)
		}
		out = append(out, sink.NewKafka(w, d.KafkaCodec, runID, d.KafkaBatch))
	}
	return out, nil
}
