package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInit_Levels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	Init("debug", "dev")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	Init("WARN", "prod")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	Init("chatty", "dev")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
