package uridecode

import (
	"github.com/lumen-web/lumen/http/status"
	"github.com/lumen-web/lumen/internal/hexconv"
)

// InPlace translates %XY escapes and '+' into their true form, rewriting b
// from the front. The decoded prefix of b is returned; callers must use the
// returned slice, as b's tail is left stale. A '%' that is not followed by
// two hex digits is copied literally. Decoding to a NUL byte is refused so
// that no consumer can be tricked into a hidden truncation.
func InPlace(b []byte) ([]byte, error) {
	w := 0
	for r := 0; r < len(b); r++ {
		switch c := b[r]; c {
		case '%':
			if r+2 >= len(b) || !hexconv.Is(b[r+1]) || !hexconv.Is(b[r+2]) {
				b[w] = c
				w++
				continue
			}

			decoded := hexconv.Parse(b[r+1])<<4 | hexconv.Parse(b[r+2])
			if decoded == 0 {
				return nil, status.ErrURIDecoding
			}

			b[w] = decoded
			w++
			r += 2
		case '+':
			b[w] = ' '
			w++
		default:
			b[w] = c
			w++
		}
	}

	return b[:w], nil
}
