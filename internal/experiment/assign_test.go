package experiment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stegverse/cfp-tickets/internal/model"
)

func TestAssign_ExplicitChoiceWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Override = model.ProviderStubHub

	assert.Equal(t, model.ProviderSeatGeek, Assign(model.ProviderSeatGeek, "user-1", cfg))
	assert.Equal(t, model.ProviderStubHub, Assign(model.ProviderStubHub, "", cfg))
}

func TestAssign_OverrideBeatsHashing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Override = model.ProviderStubHub
	for i := 0; i < 50; i++ {
		assert.Equal(t, model.ProviderStubHub, Assign(model.ProviderAuto, fmt.Sprintf("k-%d", i), cfg))
	}
}

func TestAssign_NoKeyUsesDefault(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, model.ProviderSeatGeek, Assign(model.ProviderAuto, "", cfg))

	cfg.DefaultVariant = model.ProviderStubHub
	assert.Equal(t, model.ProviderStubHub, Assign(model.ProviderAuto, "", cfg))

	cfg.DefaultVariant = model.ProviderAuto
	assert.Equal(t, model.ProviderSeatGeek, Assign(model.ProviderAuto, "", cfg))
}

func TestAssign_Deterministic(t *testing.T) {
	for _, mode := range []Mode{ModeWeighted, ModeParity} {
		cfg := DefaultConfig()
		cfg.Mode = mode
		first := Assign(model.ProviderAuto, "session-abc", cfg)
		for i := 0; i < 100; i++ {
			assert.Equal(t, first, Assign(model.ProviderAuto, "session-abc", cfg), "mode %s", mode)
		}
	}
}

func TestAssign_SplitExtremes(t *testing.T) {
	cfg := DefaultConfig()
	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("key-%d", i)
		cfg.SplitPercent = 100
		assert.Equal(t, model.ProviderSeatGeek, Assign(model.ProviderAuto, key, cfg))
		cfg.SplitPercent = 0
		assert.Equal(t, model.ProviderStubHub, Assign(model.ProviderAuto, key, cfg))
		cfg.SplitPercent = 250
		assert.Equal(t, model.ProviderSeatGeek, Assign(model.ProviderAuto, key, cfg))
	}
}

func TestAssign_SplitFairness(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		split int
		want  float64
	}{
		{"weighted even", ModeWeighted, 50, 0.50},
		{"weighted skewed", ModeWeighted, 20, 0.20},
		{"parity", ModeParity, 0, 0.50},
	}
	const samples = 10000
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{DefaultVariant: model.ProviderSeatGeek, Mode: tt.mode, SplitPercent: tt.split}
			seatGeek := 0
			for i := 0; i < samples; i++ {
				if Assign(model.ProviderAuto, fmt.Sprintf("visitor-%06d", i), cfg) == model.ProviderSeatGeek {
					seatGeek++
				}
			}
			share := float64(seatGeek) / samples
			assert.InDelta(t, tt.want, share, 0.05)
		})
	}
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeParity, ParseMode("Parity"))
	assert.Equal(t, ModeParity, ParseMode("legacy"))
	assert.Equal(t, ModeWeighted, ParseMode(""))
	assert.Equal(t, ModeWeighted, ParseMode("weighted"))
	assert.Equal(t, ModeWeighted, ParseMode("nonsense"))
}
