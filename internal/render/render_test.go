package render

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-web/lumen/http/proto"
	"github.com/lumen-web/lumen/http/status"
	"github.com/lumen-web/lumen/kv"
)

func TestHead(t *testing.T) {
	t.Run("default reason phrase", func(t *testing.T) {
		head := Head(nil, proto.HTTP11, status.NotFound, "", nil)
		require.Equal(t, "HTTP/1.1 404 Not Found\r\n\r\n", string(head))
	})

	t.Run("custom status and headers", func(t *testing.T) {
		head := Head(nil, proto.HTTP10, status.OK, "Fine", []kv.Pair{
			{Key: "Content-Length", Value: "2"},
			{Key: "Connection", Value: "close"},
		})
		require.Equal(t,
			"HTTP/1.0 200 Fine\r\nContent-Length: 2\r\nConnection: close\r\n\r\n",
			string(head))
	})

	t.Run("appends to scratch", func(t *testing.T) {
		scratch := make([]byte, 0, 128)
		head := Head(scratch, proto.HTTP11, status.OK, "", nil)
		require.Equal(t, "HTTP/1.1 200 OK\r\n\r\n", string(head))
	})
}

func TestContentLength(t *testing.T) {
	require.Equal(t, kv.Pair{Key: "Content-Length", Value: "1234"}, ContentLength(1234))
}
