package config

// Redis backs the feature-flag KV store, the click rate limiter and the
// event search cache.  Every consumer treats a nil client as "Redis is not
// available" and degrades to in-memory or pass-through behavior.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewRedisClient builds a client from REDIS_URL, or from REDIS_ADDR /
// REDIS_HOST+REDIS_PORT, REDIS_PASSWORD, REDIS_DB and REDIS_TLS.  It returns
// nil when no address is configured or the server does not answer a ping.
func NewRedisClient() *redis.Client {
	var opts *redis.Options
	if url := envStr("REDIS_URL", ""); url != "" {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			log.Warn().Err(err).Msg("redis: invalid REDIS_URL, continuing without redis")
			return nil
		}
		opts = parsed
	} else {
		addr := envStr("REDIS_ADDR", "")
		if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
			addr = host + ":" + port
		}
		if addr == "" {
			return nil
		}
		opts = &redis.Options{
			Addr:     addr,
			Password: envStr("REDIS_PASSWORD", ""),
			DB:       envInt("REDIS_DB", 0),
		}
		if envBool("REDIS_TLS", false) {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", opts.Addr).Msg("redis: ping failed, continuing without redis")
		_ = client.Close()
		return nil
	}
	return client
}
