package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// KVStore is a small key/value and hash store.  It writes to Redis when a
// client is configured and falls back to process memory when Redis is
// missing or failing, so ops endpoints keep answering during an outage.
type KVStore struct {
	rdb *redis.Client

	mu   sync.RWMutex
	kv   map[string]string
	hash map[string]map[string]string
}

// NewKVStore wraps rdb; a nil client keeps everything in memory.
func NewKVStore(rdb *redis.Client) *KVStore {
	return &KVStore{
		rdb:  rdb,
		kv:   map[string]string{},
		hash: map[string]map[string]string{},
	}
}

// Backend names the active storage for diagnostics.
func (s *KVStore) Backend() string {
	if s.rdb == nil {
		return "memory"
	}
	return "redis"
}

// Get returns the value of key or ErrNotFound.
func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	if s.rdb != nil {
		v, err := s.rdb.Get(ctx, key).Result()
		if err == nil {
			return v, nil
		}
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		s.degraded("get", key, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.kv[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if s.rdb != nil {
		err := s.rdb.Set(ctx, key, value, 0).Err()
		if err == nil {
			return nil
		}
		s.degraded("set", key, err)
	}
	s.mu.Lock()
	s.kv[key] = value
	s.mu.Unlock()
	return nil
}

// HSet stores field=value in the hash name.
func (s *KVStore) HSet(ctx context.Context, name, field, value string) error {
	if s.rdb != nil {
		err := s.rdb.HSet(ctx, name, field, value).Err()
		if err == nil {
			return nil
		}
		s.degraded("hset", name, err)
	}
	s.mu.Lock()
	h, ok := s.hash[name]
	if !ok {
		h = map[string]string{}
		s.hash[name] = h
	}
	h[field] = value
	s.mu.Unlock()
	return nil
}

// HGetAll returns a copy of the hash name; a missing hash is empty.
func (s *KVStore) HGetAll(ctx context.Context, name string) (map[string]string, error) {
	if s.rdb != nil {
		m, err := s.rdb.HGetAll(ctx, name).Result()
		if err == nil {
			return m, nil
		}
		s.degraded("hgetall", name, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.hash[name]))
	for k, v := range s.hash[name] {
		out[k] = v
	}
	return out, nil
}

// HGet returns one field of the hash name or ErrNotFound.
func (s *KVStore) HGet(ctx context.Context, name, field string) (string, error) {
	all, err := s.HGetAll(ctx, name)
	if err != nil {
		return "", err
	}
	v, ok := all[field]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *KVStore) degraded(op, key string, err error) {
	log.Warn().Err(err).Str("op", op).Str("key", redactKey(key)).Msg("kv: redis unavailable, using memory")
}

// redactKey keeps hook and token names out of logs verbatim.
func redactKey(k string) string {
	if strings.HasPrefix(k, "HOOK_") || strings.Contains(strings.ToUpper(k), "TOKEN") {
		return k[:min(len(k), 5)] + "***"
	}
	return k
}
