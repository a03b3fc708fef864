package config

import (
	"testing"
	"time"

	"surveylens/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "GIN_MODE", "UI_PORT", "DATA_FILE", "SHEET_NAME", "MAX_UPLOAD_MB", "ANALYSIS_IN_PLACE", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.GinMode)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "8081", cfg.UI.Port)
	assert.Equal(t, 32, cfg.Data.MaxUploadMB)
	assert.Equal(t, int64(32<<20), cfg.Data.MaxUploadBytes())
	assert.False(t, cfg.Analysis.InPlace)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("DATA_FILE", "survey.xlsx")
	t.Setenv("SHEET_NAME", "Responses")
	t.Setenv("ANALYSIS_IN_PLACE", "true")
	t.Setenv("DATA_LENIENT_NUMBERS", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, "survey.xlsx", cfg.Data.File)
	assert.Equal(t, "Responses", cfg.Data.Sheet)
	assert.True(t, cfg.Analysis.InPlace)
	assert.True(t, cfg.Data.LenientNumbers)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("PORT", "eighty")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
