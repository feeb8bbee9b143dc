package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, 4096, cfg.NET.ReadBufferSize)
	require.Equal(t, 15*time.Second, cfg.NET.KeepAliveTimeout)
	require.False(t, cfg.NET.AllowProxy)
	require.Equal(t, int64(1<<20), cfg.Body.SpoolThreshold)
	require.True(t, cfg.Body.AllowSpooling)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LUMEN_READ_BUFFER_SIZE", "8192")
	t.Setenv("LUMEN_KEEP_ALIVE_TIMEOUT", "30s")
	t.Setenv("LUMEN_ALLOW_PROXY", "true")
	t.Setenv("LUMEN_MAX_BODY_SIZE", "1048576")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, 8192, cfg.NET.ReadBufferSize)
	require.Equal(t, 30*time.Second, cfg.NET.KeepAliveTimeout)
	require.True(t, cfg.NET.AllowProxy)
	require.Equal(t, int64(1048576), cfg.Body.MaxSize)
	// untouched knobs keep their defaults
	require.Equal(t, int64(1<<20), cfg.Body.SpoolThreshold)
}
