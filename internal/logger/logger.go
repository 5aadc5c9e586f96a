// Package logger configures the process-wide zerolog logger.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global level and output.  Outside production the output is
// the human-readable console writer; production emits JSON lines.  An
// unknown level falls back to info.
func Init(level, env string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if strings.EqualFold(env, "prod") || strings.EqualFold(env, "production") {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "cfp-tickets").Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.000"})
	}
	log.Info().Str("level", lvl.String()).Str("env", env).Msg("logger initialized")
}
