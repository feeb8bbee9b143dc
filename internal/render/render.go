// Package render serializes response heads. It deliberately knows nothing
// about requests or response builders: callers hand it primitives.
package render

import (
	"strconv"

	"github.com/lumen-web/lumen/http/proto"
	"github.com/lumen-web/lumen/http/status"
	"github.com/lumen-web/lumen/kv"
)

// Head appends a serialized response head to dst, including the terminating
// empty line. No Content-Length is added implicitly; callers that send a
// body must pass it as a header pair.
func Head(dst []byte, protocol proto.Protocol, code status.Code, text status.Status, headers []kv.Pair) []byte {
	if text == "" {
		text = status.Text(code)
	}

	dst = append(dst, protocol.String()...)
	dst = append(dst, ' ')
	dst = strconv.AppendUint(dst, uint64(code), 10)
	dst = append(dst, ' ')
	dst = append(dst, text...)
	dst = append(dst, '\r', '\n')

	for _, h := range headers {
		dst = append(dst, h.Key...)
		dst = append(dst, ':', ' ')
		dst = append(dst, h.Value...)
		dst = append(dst, '\r', '\n')
	}

	return append(dst, '\r', '\n')
}

// ContentLength renders the header pair for a body of n bytes.
func ContentLength(n int) kv.Pair {
	return kv.Pair{Key: "Content-Length", Value: strconv.Itoa(n)}
}
