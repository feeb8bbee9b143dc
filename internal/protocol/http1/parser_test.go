package http1

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-web/lumen/http"
	"github.com/lumen-web/lumen/http/method"
	"github.com/lumen-web/lumen/http/proto"
	"github.com/lumen-web/lumen/http/status"
	"github.com/lumen-web/lumen/internal/cleanup"
	"github.com/lumen-web/lumen/internal/timer"
	"github.com/lumen-web/lumen/transport/dummy"
)

func newBenchRequest() *http.Request {
	return http.NewRequest(
		dummy.NewClient(),
		cleanup.New(),
		timer.NewWheel(timer.DefaultTick, timer.DefaultSlots),
	)
}

func parse(t *testing.T, raw string) (*http.Request, helper, error) {
	t.Helper()

	req := newBenchRequest()
	h := newHelper(4096)
	err := parseRequest(req, []byte(raw), &h, false)

	return req, h, err
}

func TestParseRequestLine(t *testing.T) {
	t.Run("GET with query and fragment", func(t *testing.T) {
		req, _, err := parse(t, "GET /a/b?x=1&y=%20#frag HTTP/1.1\r\nHost: h\r\n\r\n")
		require.NoError(t, err)
		require.Equal(t, method.GET, req.Method)
		require.Equal(t, proto.HTTP11, req.Protocol)
		require.Equal(t, "/a/b", req.URL)
		require.Equal(t, "/a/b", req.OriginalURL)
		require.Equal(t, "x=1&y=%20", req.RawQuery)
		require.Equal(t, "frag", req.Fragment)
		require.True(t, req.Conn.KeepAlive)

		params, err := req.Query()
		require.NoError(t, err)
		require.Equal(t, "1", params.Value("x"))
		require.Equal(t, " ", params.Value("y"))
	})

	t.Run("percent-decoded path", func(t *testing.T) {
		req, _, err := parse(t, "GET /a%20b HTTP/1.1\r\n\r\n")
		require.NoError(t, err)
		require.Equal(t, "/a b", req.URL)
	})

	t.Run("NUL escape is refused", func(t *testing.T) {
		_, _, err := parse(t, "GET /a%00b HTTP/1.1\r\n\r\n")
		require.Equal(t, status.ErrBadRequest, err)
	})

	t.Run("all methods", func(t *testing.T) {
		for _, sample := range []struct {
			line string
			want method.Method
		}{
			{"GET / HTTP/1.1", method.GET},
			{"HEAD / HTTP/1.1", method.HEAD},
			{"POST / HTTP/1.1", method.POST},
			{"OPTIONS / HTTP/1.1", method.OPTIONS},
			{"DELETE / HTTP/1.1", method.DELETE},
		} {
			req, _, err := parse(t, sample.line+"\r\n\r\n")
			require.NoError(t, err, sample.line)
			require.Equal(t, sample.want, req.Method)
		}
	})

	t.Run("method-less line is not allowed", func(t *testing.T) {
		_, _, err := parse(t, "/ HTTP/1.0\r\n\r\n")
		require.Equal(t, status.ErrMethodNotAllowed, err)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, _, err := parse(t, "BREW /pot HTTP/1.1\r\n\r\n")
		require.Equal(t, status.ErrMethodNotAllowed, err)
	})

	t.Run("path must start with a slash", func(t *testing.T) {
		_, _, err := parse(t, "GET example.com/ HTTP/1.1\r\n\r\n")
		require.Equal(t, status.ErrBadRequest, err)
	})

	t.Run("leading whitespace is skipped", func(t *testing.T) {
		req, _, err := parse(t, "\r\nGET / HTTP/1.1\r\n\r\n")
		require.NoError(t, err)
		require.Equal(t, method.GET, req.Method)
	})

	t.Run("HTTP/1.0", func(t *testing.T) {
		req, _, err := parse(t, "GET / HTTP/1.0\r\n\r\n")
		require.NoError(t, err)
		require.Equal(t, proto.HTTP10, req.Protocol)
		require.False(t, req.Conn.KeepAlive)
	})

	t.Run("unsupported version", func(t *testing.T) {
		for _, v := range []string{"HTTP/2.0", "HTTP/0.9", "SPDY/1.1"} {
			_, _, err := parse(t, "GET / "+v+"\r\n\r\n")
			require.Equal(t, status.ErrBadRequest, err, v)
		}
	})

	t.Run("request line too short", func(t *testing.T) {
		_, _, err := parse(t, "GET / HTP/11\r\n\r\n")
		require.Error(t, err)
	})
}

func TestParseHeaders(t *testing.T) {
	t.Run("interesting set", func(t *testing.T) {
		req, _, err := parse(t, strings.Join([]string{
			"POST /submit HTTP/1.1",
			"Accept-Encoding: gzip, deflate",
			"Authorization: Basic dXNlcjpwYXNz",
			"Connection: keep-alive",
			"Content-Length: 11",
			"Content-Type: text/plain",
			"Cookie: a=b",
			"If-Modified-Since: Sun, 06 Nov 1994 08:49:37 GMT",
			"Range: bytes=0-4",
			"", "",
		}, "\r\n"))
		require.NoError(t, err)

		h := req.Headers
		require.Equal(t, "gzip, deflate", h.AcceptEncoding)
		require.Equal(t, "Basic dXNlcjpwYXNz", h.Authorization)
		require.Equal(t, "keep-alive", h.Connection)
		require.Equal(t, "11", h.ContentLength)
		require.Equal(t, "text/plain", h.ContentType)
		require.Equal(t, "a=b", h.Cookie)
		require.Equal(t, "Sun, 06 Nov 1994 08:49:37 GMT", h.IfModifiedSince)
		require.Equal(t, "bytes=0-4", h.RangeRaw)
		require.Len(t, h.Lines, 8)
	})

	t.Run("classification is spelling-exact, lookup is not", func(t *testing.T) {
		req, _, err := parse(t, "GET / HTTP/1.1\r\ncontent-length: 5\r\n\r\n")
		require.NoError(t, err)
		require.Empty(t, req.Headers.ContentLength)

		value, ok := req.Header("Content-Length")
		require.True(t, ok)
		require.Equal(t, "5", value)
	})

	t.Run("cap is 32 headers", func(t *testing.T) {
		build := func(n int) string {
			var sb strings.Builder
			sb.WriteString("GET / HTTP/1.1\r\n")
			for i := 0; i < n; i++ {
				sb.WriteString("X-Filler: yes\r\n")
			}
			sb.WriteString("\r\n")

			return sb.String()
		}

		req, _, err := parse(t, build(32))
		require.NoError(t, err)
		require.Len(t, req.Headers.Lines, 32)

		_, _, err = parse(t, build(33))
		require.Equal(t, status.ErrTooLarge, err)
	})

	t.Run("lone CR is malformed", func(t *testing.T) {
		_, _, err := parse(t, "GET / HTTP/1.1\r\nHost: h\rX: y\r\n\r\n")
		require.Equal(t, status.ErrBadRequest, err)
	})

	t.Run("pipelined tail is recorded", func(t *testing.T) {
		first := "GET /1 HTTP/1.1\r\n\r\n"
		_, h, err := parse(t, first+"GET /2 HTTP/1.1\r\n\r\n")
		require.NoError(t, err)
		require.Equal(t, len(first), h.nextRequest)
	})

	t.Run("no tail means no next request", func(t *testing.T) {
		_, h, err := parse(t, "GET /1 HTTP/1.1\r\n\r\n")
		require.NoError(t, err)
		require.Equal(t, -1, h.nextRequest)
	})
}

func TestParseConnection(t *testing.T) {
	samples := []struct {
		version   string
		header    string
		keepAlive bool
		upgrade   bool
	}{
		{"HTTP/1.1", "", true, false},
		{"HTTP/1.1", "Connection: close\r\n", false, false},
		{"HTTP/1.1", "Connection: keep-alive\r\n", true, false},
		{"HTTP/1.1", "Connection: Upgrade\r\n", true, true},
		{"HTTP/1.1", "Connection: close, Upgrade\r\n", false, true},
		{"HTTP/1.0", "", false, false},
		{"HTTP/1.0", "Connection: keep-alive\r\n", true, false},
		{"HTTP/1.0", "Connection: close\r\n", false, false},
	}

	for _, sample := range samples {
		t.Run(sample.version+" "+sample.header, func(t *testing.T) {
			req, _, err := parse(t, "GET / "+sample.version+"\r\n"+sample.header+"\r\n")
			require.NoError(t, err)
			require.Equal(t, sample.keepAlive, req.Conn.KeepAlive)
			require.Equal(t, sample.upgrade, req.Conn.Upgrade)
		})
	}
}

func TestParseIsPure(t *testing.T) {
	raw := "GET /a?x=1#f HTTP/1.1\r\nHost: h\r\nRange: bytes=1-2\r\n\r\n"

	first, _, err := parse(t, raw)
	require.NoError(t, err)
	second, _, err := parse(t, raw)
	require.NoError(t, err)

	require.Equal(t, first.URL, second.URL)
	require.Equal(t, first.RawQuery, second.RawQuery)
	require.Equal(t, first.Fragment, second.Fragment)
	require.Equal(t, first.Headers.Lines, second.Headers.Lines)
	require.Equal(t, first.Headers.RangeRaw, second.Headers.RangeRaw)
}

func BenchmarkParseRequest(b *testing.B) {
	raw := []byte("GET /a/b/c?x=1&y=2 HTTP/1.1\r\nHost: example.com\r\nAccept-Encoding: gzip\r\nConnection: keep-alive\r\n\r\n")
	req := newBenchRequest()
	scratch := make([]byte, len(raw))

	b.SetBytes(int64(len(raw)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		copy(scratch, raw)
		h := newHelper(4096)
		req.Reset()
		if err := parseRequest(req, scratch, &h, false); err != nil {
			b.Fatal(err)
		}
	}
}
