// Package config loads application configuration from environment variables.
package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; optional integrations are disabled when their
// variables are empty.
type Config struct {
	Env            string   // application environment (dev, prod)
	Port           string   // HTTP port to listen on
	LogLevel       string   // zerolog level name
	ServiceID      string   // deployment identifier reported by /whoami
	PublicBaseURL  string   // absolute base used for click-tracking links; empty = relative
	JWTSecret      string   // HS256 secret for ops routes; empty disables them
	TrustedProxies []string // CIDRs whose X-Forwarded-For is believed; empty = use the peer address

	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string

	RabbitURL       string // AMQP broker URL; empty disables click publishing
	ConsumerEnabled bool   // run the click log consumer in-process
	ClickLogDir     string // directory for clicks.log

	Providers       []string      // enabled marketplaces, e.g. seatgeek,stubhub
	UpstreamTimeout time.Duration // per-call timeout for provider APIs

	SeatGeek   ProviderConfig
	StubHub    ProviderConfig
	Partnerize PartnerizeConfig
	Experiment ExperimentConfig

	ClickLogCapacity int // in-memory click log size
}

// ProviderConfig configures one marketplace.
type ProviderConfig struct {
	WebBase       string // public site used for affiliate search links
	AffiliateCode string // partner code appended to links
	APIBase       string // event search API host
	Credential    string // API client id or bearer token
}

// PartnerizeConfig configures the affiliate network reporting proxy.
type PartnerizeConfig struct {
	BaseURL    string
	AppKey     string
	UserAPIKey string
}

// ExperimentConfig holds env-level defaults for the provider A/B split.
// Values stored in the ops KV store override them at request time.
type ExperimentConfig struct {
	ForcedProvider string // CFP_DEFAULT_PROVIDER: seatgeek|stubhub forces a side
	DefaultVariant string // variant for requests without an experiment key
	SplitPercent   int    // share of keyed traffic sent to SeatGeek
	Mode           string // weighted|parity
}

// Load reads configuration values from environment variables and returns a
// Config with defaults applied.
func Load() Config {
	cfg := Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", "8080"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		ServiceID:      envStr("RENDER_SERVICE_ID", ""),
		PublicBaseURL:  envStr("PUBLIC_BASE_URL", ""),
		JWTSecret:      envStr("JWT_SECRET", ""),
		TrustedProxies: envList("TRUSTED_PROXIES", ""),

		DBUser: envStr("DB_USER", ""),
		DBPass: envStr("DB_PASS", ""),
		DBHost: envStr("DB_HOST", ""),
		DBPort: envStr("DB_PORT", "3306"),
		DBName: envStr("DB_NAME", ""),

		RabbitURL:       envStr("RABBITMQ_URL", envStr("AMQP_URL", "")),
		ConsumerEnabled: envBool("CLICK_CONSUMER_ENABLED", false),
		ClickLogDir:     envStr("CLICK_LOG_DIR", "logs"),

		Providers:       envList("TICKET_PROVIDERS", "seatgeek,stubhub"),
		UpstreamTimeout: envDur("UPSTREAM_TIMEOUT", 10*time.Second),

		SeatGeek: ProviderConfig{
			WebBase:       envStr("SEATGEEK_WEB_BASE", "https://seatgeek.com"),
			AffiliateCode: envStr("SEATGEEK_AFFILIATE_CODE", ""),
			APIBase:       envStr("SEATGEEK_API_BASE", "https://api.seatgeek.com"),
			Credential:    envStr("SEATGEEK_CLIENT_ID", ""),
		},
		StubHub: ProviderConfig{
			WebBase:       envStr("STUBHUB_WEB_BASE", "https://www.stubhub.com"),
			AffiliateCode: envStr("STUBHUB_AFFILIATE_CODE", ""),
			APIBase:       envStr("STUBHUB_API_BASE", "https://api.stubhub.net"),
			Credential:    envStr("STUBHUB_ACCESS_TOKEN", ""),
		},
		Partnerize: PartnerizeConfig{
			BaseURL:    envStr("PARTNERIZE_BASE_URL", "https://api.partnerize.com"),
			AppKey:     envStr("PARTNERIZE_APP_KEY", ""),
			UserAPIKey: envStr("PARTNERIZE_USER_API_KEY", ""),
		},
		Experiment: ExperimentConfig{
			ForcedProvider: envStr("CFP_DEFAULT_PROVIDER", ""),
			DefaultVariant: envStr("CFP_DEFAULT_VARIANT", "seatgeek"),
			SplitPercent:   envInt("CFP_SPLIT_PERCENT", 50),
			Mode:           envStr("CFP_BUCKET_MODE", "weighted"),
		},

		ClickLogCapacity: envInt("CLICK_LOG_CAPACITY", 5000),
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 10 * time.Second
	}
	if cfg.ClickLogCapacity < 1 {
		log.Warn().Int("capacity", cfg.ClickLogCapacity).Msg("config: CLICK_LOG_CAPACITY must be positive, using 5000")
		cfg.ClickLogCapacity = 5000
	}
	return cfg
}

// DatabaseEnabled reports whether enough MySQL settings are present to
// open a connection.
func (c Config) DatabaseEnabled() bool {
	return c.DBUser != "" && c.DBHost != "" && c.DBName != ""
}
