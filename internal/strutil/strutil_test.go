package strutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	require.Equal(t, "localhost:80", NormalizeAddress("localhost:80"))
	require.Equal(t, "0.0.0.0:80", NormalizeAddress(":80"))
}

func TestSkipLeadingWS(t *testing.T) {
	require.Equal(t, "GET", string(SkipLeadingWS([]byte("\r\n GET"))))
	require.Equal(t, "GET", string(SkipLeadingWS([]byte("GET"))))
	require.Empty(t, SkipLeadingWS([]byte("  \t")))
}

func TestCmpFold(t *testing.T) {
	require.True(t, CmpFold("Content-Length", "content-length"))
	require.True(t, CmpFold("gzip", "GZIP"))
	require.False(t, CmpFold("gzip", "gzippy"))
	require.False(t, CmpFold("close", "clos"))
}

func TestParsePort(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		port, ok := ParsePort("8080")
		require.True(t, ok)
		require.Equal(t, uint16(8080), port)

		port, ok = ParsePort("65535")
		require.True(t, ok)
		require.Equal(t, uint16(65535), port)

		port, ok = ParsePort("0")
		require.True(t, ok)
		require.Zero(t, port)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, sample := range []string{"", "65536", "123456789", "80a", "-1", " 80"} {
			_, ok := ParsePort(sample)
			require.False(t, ok, sample)
		}
	})
}
