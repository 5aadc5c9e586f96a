package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/stegverse/cfp-tickets/internal/experiment"
	"github.com/stegverse/cfp-tickets/internal/model"
)

// ConfigHash is the KV hash holding operator settings as JSON values.
const ConfigHash = "config"

// Experiment flag fields inside ConfigHash.
const (
	FlagOverride       = "experiment.override"
	FlagSplitPercent   = "experiment.split_percent"
	FlagDefaultVariant = "experiment.default_variant"
	FlagMode           = "experiment.mode"
)

// FlagRepo reads and writes operator settings stored in the config hash.
type FlagRepo struct {
	KV *KVStore
}

// SetJSON stores value JSON-encoded under key.
func (r *FlagRepo) SetJSON(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("%w: %s is not JSON", ErrInvalidValue, key)
	}
	return r.KV.HSet(ctx, ConfigHash, key, string(value))
}

// List returns every setting decoded from JSON.  Values that are not valid
// JSON are returned as plain strings.
func (r *FlagRepo) List(ctx context.Context) (map[string]any, error) {
	raw, err := r.KV.HGetAll(ctx, ConfigHash)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			decoded = v
		}
		out[k] = decoded
	}
	return out, nil
}

// Get returns one decoded setting or ErrNotFound.
func (r *FlagRepo) Get(ctx context.Context, key string) (any, error) {
	v, err := r.KV.HGet(ctx, ConfigHash, key)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal([]byte(v), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidValue, key)
	}
	return decoded, nil
}

// Experiment overlays the experiment flags found in the store onto base.
// Unset or malformed flags leave the base value in place.
func (r *FlagRepo) Experiment(ctx context.Context, base experiment.Config) (experiment.Config, error) {
	raw, err := r.KV.HGetAll(ctx, ConfigHash)
	if err != nil {
		return base, err
	}
	cfg := base
	if s, ok := flagString(raw[FlagOverride]); ok {
		if p, ok := model.ParseProvider(s); ok {
			cfg.Override = p
		}
	}
	if s, ok := flagString(raw[FlagDefaultVariant]); ok {
		if p, ok := model.ParseProvider(s); ok && p.IsVariant() {
			cfg.DefaultVariant = p
		}
	}
	if s, ok := flagString(raw[FlagSplitPercent]); ok {
		if n, err := strconv.Atoi(s); err == nil {
			cfg.SplitPercent = n
		}
	}
	if s, ok := flagString(raw[FlagMode]); ok {
		cfg.Mode = experiment.ParseMode(s)
	}
	return cfg, nil
}

// flagString accepts both JSON strings ("\"stubhub\"") and bare JSON
// numbers ("70") stored by the ops endpoint.
func flagString(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	var s string
	if err := json.Unmarshal([]byte(v), &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal([]byte(v), &n); err == nil {
		return n.String(), true
	}
	return v, true
}
