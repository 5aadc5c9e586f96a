// Package experiment assigns ticket searches to a marketplace variant for
// A/B measurement.  Assignment is a pure function of the request choice,
// the experiment key and an explicit Config value; nothing is read from
// process state.
package experiment

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"

	"github.com/stegverse/cfp-tickets/internal/model"
)

// Mode selects how a hashed experiment key is reduced to a variant.
type Mode string

const (
	// ModeWeighted reduces the digest modulo 100 and compares it against
	// SplitPercent.
	ModeWeighted Mode = "weighted"
	// ModeParity is the historic even/odd coin flip over the first four hex
	// characters of the digest.  Kept so users bucketed before the weighted
	// split keep their assignment.
	ModeParity Mode = "parity"
)

// ParseMode maps operator input to a Mode, defaulting to ModeWeighted.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "parity", "even_odd", "legacy":
		return ModeParity
	}
	return ModeWeighted
}

// Config carries the operator-controlled knobs of the experiment.
//
// Fields:
//	DefaultVariant - variant used when the request has no experiment key.
//	Override       - forced variant for every auto request; ProviderAuto
//	                 (or empty) disables the override.
//	SplitPercent   - share of keys, 0..100, routed to SeatGeek in weighted mode.
//	Mode           - reduction used for keyed requests.
type Config struct {
	DefaultVariant model.Provider
	Override       model.Provider
	SplitPercent   int
	Mode           Mode
}

// DefaultConfig is a 50/50 weighted split defaulting to SeatGeek.
func DefaultConfig() Config {
	return Config{
		DefaultVariant: model.ProviderSeatGeek,
		Override:       model.ProviderAuto,
		SplitPercent:   50,
		Mode:           ModeWeighted,
	}
}

// Assign picks the variant for one request.  An explicit concrete choice
// always wins, then the operator override, then the default variant for
// keyless requests; keyed requests are bucketed by a SHA-256 digest of the
// key so the same key lands in the same variant across restarts.
func Assign(choice model.Provider, experimentKey string, cfg Config) model.Provider {
	if choice.IsVariant() {
		return choice
	}
	if cfg.Override.IsVariant() {
		return cfg.Override
	}
	if experimentKey == "" {
		if cfg.DefaultVariant.IsVariant() {
			return cfg.DefaultVariant
		}
		return model.ProviderSeatGeek
	}

	digest := sha256.Sum256([]byte(experimentKey))
	if cfg.Mode == ModeParity {
		// first 4 hex chars == first 2 bytes
		if binary.BigEndian.Uint16(digest[:2])%2 == 0 {
			return model.ProviderSeatGeek
		}
		return model.ProviderStubHub
	}

	bucket := binary.BigEndian.Uint64(digest[:8]) % 100
	if int(bucket) < clampPercent(cfg.SplitPercent) {
		return model.ProviderSeatGeek
	}
	return model.ProviderStubHub
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
