package qparams

import (
	"bytes"

	"github.com/indigo-web/utils/uf"
	"github.com/lumen-web/lumen/http/status"
	"github.com/lumen-web/lumen/internal/uridecode"
	"github.com/lumen-web/lumen/kv"
)

// Decoder decodes a key or value in place and returns the shortened slice.
type Decoder func(b []byte) ([]byte, error)

// URL is the decoder for query strings and form bodies.
func URL(b []byte) ([]byte, error) {
	return uridecode.InPlace(b)
}

// Identity leaves cookie values untouched.
func Identity(b []byte) ([]byte, error) {
	return b, nil
}

// Parse splits data into key=value pairs on the separator and collects them
// into the storage, sorted by key. Keys are always passed through the
// decoder and must come out non-empty; a token without '=' yields an empty
// value, which is never decoded. Any failure discards the whole storage:
// a half-parsed parameter set is worse than none.
func Parse(data []byte, into *kv.Storage, sep byte, decode Decoder) error {
	if len(data) == 0 {
		return nil
	}

	for {
		for len(data) > 0 && (data[0] == ' ' || data[0] == sep) {
			data = data[1:]
		}
		if len(data) == 0 {
			into.Clear()
			return status.ErrBadRequest
		}

		token := data
		last := false
		if i := bytes.IndexByte(data, sep); i == -1 {
			data, last = nil, true
		} else {
			token, data = data[:i], data[i+1:]
		}

		key := token
		var value []byte
		if i := bytes.IndexByte(token, '='); i != -1 {
			key = token[:i]

			decoded, err := decode(token[i+1:])
			if err != nil {
				into.Clear()
				return err
			}
			value = decoded
		}

		decoded, err := decode(key)
		if err != nil || len(decoded) == 0 {
			into.Clear()
			return status.ErrBadRequest
		}

		into.Add(uf.B2S(decoded), uf.B2S(value))

		if last {
			break
		}
	}

	into.Sort()

	return nil
}
