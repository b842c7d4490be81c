package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.Selection.ScoreMargin)
	assert.Equal(t, 40, cfg.Selection.BaseScore)
	assert.Equal(t, "comms", cfg.Transport.Subprotocol)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Selection.ScoreMargin = -1
	cfg.Comms.HeartbeatInterval = 0
	cfg.Transport.Subprotocol = ""

	err := cfg.Validate()
	require.Error(t, err)

	verrs, ok := err.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, verrs, 3)
}
