package config

import "slices"

const redacted = "***"

// RedactedConfig returns a copy of cfg that is safe to log: credentials are
// masked and slices are cloned so the copy shares no mutable state.
func RedactedConfig(cfg *Config) Config {
	out := *cfg
	for _, secret := range []*string{
		&out.Redis.Password,
		&out.Server.APIKey,
		&out.Notify.TelegramToken,
		&out.Notify.DiscordWebhookURL,
	} {
		if *secret != "" {
			*secret = redacted
		}
	}

	out.Notify.Events = slices.Clone(cfg.Notify.Events)
	out.Server.CORSOrigins = slices.Clone(cfg.Server.CORSOrigins)
	out.Kafka.Brokers = slices.Clone(cfg.Kafka.Brokers)
	out.Compare.Volatilities = slices.Clone(cfg.Compare.Volatilities)
	out.Quote.Strikes = slices.Clone(cfg.Quote.Strikes)
	if d := cfg.Simulation.Drift; d != nil {
		v := *d
		out.Simulation.Drift = &v
	}
	return out
}
