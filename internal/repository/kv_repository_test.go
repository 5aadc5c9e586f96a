package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stegverse/cfp-tickets/internal/experiment"
	"github.com/stegverse/cfp-tickets/internal/model"
)

func TestKVStore_MemoryFallback(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore(nil)
	assert.Equal(t, "memory", s.Backend())

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "SCW_API_LAST_BOOT", "1700000000"))
	v, err := s.Get(ctx, "SCW_API_LAST_BOOT")
	require.NoError(t, err)
	assert.Equal(t, "1700000000", v)

	require.NoError(t, s.HSet(ctx, "config", "a", "1"))
	all, err := s.HGetAll(ctx, "config")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1"}, all)

	all["b"] = "mutated"
	again, _ := s.HGetAll(ctx, "config")
	assert.NotContains(t, again, "b")

	_, err = s.HGet(ctx, "config", "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFlagRepo_SetGetList(t *testing.T) {
	ctx := context.Background()
	r := &FlagRepo{KV: NewKVStore(nil)}

	require.NoError(t, r.SetJSON(ctx, "banner", json.RawMessage(`{"on":true}`)))
	assert.ErrorIs(t, r.SetJSON(ctx, "bad", json.RawMessage(`{`)), ErrInvalidValue)

	v, err := r.Get(ctx, "banner")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"on": true}, v)

	_, err = r.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFlagRepo_ExperimentOverlay(t *testing.T) {
	ctx := context.Background()
	r := &FlagRepo{KV: NewKVStore(nil)}
	base := experiment.DefaultConfig()

	cfg, err := r.Experiment(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, base, cfg)

	require.NoError(t, r.SetJSON(ctx, FlagOverride, json.RawMessage(`"StubHub"`)))
	require.NoError(t, r.SetJSON(ctx, FlagSplitPercent, json.RawMessage(`70`)))
	require.NoError(t, r.SetJSON(ctx, FlagMode, json.RawMessage(`"parity"`)))
	require.NoError(t, r.SetJSON(ctx, FlagDefaultVariant, json.RawMessage(`"auto"`)))

	cfg, err = r.Experiment(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, model.ProviderStubHub, cfg.Override)
	assert.Equal(t, 70, cfg.SplitPercent)
	assert.Equal(t, experiment.ModeParity, cfg.Mode)
	assert.Equal(t, model.ProviderSeatGeek, cfg.DefaultVariant, "auto is not a default variant")
}

func TestEventKey(t *testing.T) {
	assert.Equal(t, "texas tech vs baylor", EventKey("  Texas   Tech vs\tBaylor "))
}
