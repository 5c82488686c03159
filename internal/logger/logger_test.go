package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLevels(t *testing.T) {
	cases := map[string]zap.AtomicLevel{
		"debug":   zap.NewAtomicLevelAt(zap.DebugLevel),
		"warn":    zap.NewAtomicLevelAt(zap.WarnLevel),
		"error":   zap.NewAtomicLevelAt(zap.ErrorLevel),
		"":        zap.NewAtomicLevelAt(zap.InfoLevel),
		"verbose": zap.NewAtomicLevelAt(zap.InfoLevel),
	}
	for in, want := range cases {
		log, err := New(in, "production")
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(want.Level()), in)
		if want.Level() > zap.DebugLevel {
			assert.False(t, log.Core().Enabled(want.Level()-1), in)
		}
	}
}

func TestDevelopment(t *testing.T) {
	log, err := New("info", "development")
	require.NoError(t, err)
	assert.NotNil(t, log)
}
