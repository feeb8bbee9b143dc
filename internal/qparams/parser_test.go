package qparams

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-web/lumen/kv"
)

func parse(t *testing.T, data string, sep byte, decode Decoder) (*kv.Storage, error) {
	t.Helper()
	s := kv.New()
	err := Parse([]byte(data), s, sep, decode)
	return s, err
}

func TestParseQuery(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		s, err := parse(t, "x=1&y=%20", '&', URL)
		require.NoError(t, err)
		require.Equal(t, 2, s.Len())
		require.Equal(t, "1", s.Value("x"))
		require.Equal(t, " ", s.Value("y"))
	})

	t.Run("sorted by key", func(t *testing.T) {
		s, err := parse(t, "zz=1&a=2&m=3", '&', URL)
		require.NoError(t, err)

		pairs := s.Expose()
		for i := 1; i < len(pairs); i++ {
			require.LessOrEqual(t, pairs[i-1].Key, pairs[i].Key)
		}
	})

	t.Run("flag without value", func(t *testing.T) {
		s, err := parse(t, "debug&x=1", '&', URL)
		require.NoError(t, err)
		require.Equal(t, "", s.Value("debug"))
		require.True(t, s.Has("debug"))
	})

	t.Run("encoded key", func(t *testing.T) {
		s, err := parse(t, "a%20b=c", '&', URL)
		require.NoError(t, err)
		require.Equal(t, "c", s.Value("a b"))
	})

	t.Run("first duplicate wins", func(t *testing.T) {
		s, err := parse(t, "k=first&k=second", '&', URL)
		require.NoError(t, err)
		require.Equal(t, "first", s.Value("k"))
	})

	t.Run("empty key discards everything", func(t *testing.T) {
		s, err := parse(t, "a=1&=2", '&', URL)
		require.Error(t, err)
		require.True(t, s.Empty())
	})

	t.Run("trailing separator discards everything", func(t *testing.T) {
		s, err := parse(t, "a=1&", '&', URL)
		require.Error(t, err)
		require.True(t, s.Empty())
	})

	t.Run("empty input", func(t *testing.T) {
		s, err := parse(t, "", '&', URL)
		require.NoError(t, err)
		require.True(t, s.Empty())
	})
}

func TestParseCookies(t *testing.T) {
	t.Run("identity values", func(t *testing.T) {
		s, err := parse(t, "session=abc%20def; theme=dark", ';', Identity)
		require.NoError(t, err)
		// cookie values are never decoded
		require.Equal(t, "abc%20def", s.Value("session"))
		require.Equal(t, "dark", s.Value("theme"))
	})

	t.Run("valueless cookie", func(t *testing.T) {
		s, err := parse(t, "crumb; k=v", ';', Identity)
		require.NoError(t, err)
		require.True(t, s.Has("crumb"))
		require.Equal(t, "v", s.Value("k"))
	})
}
