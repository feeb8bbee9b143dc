package http1

import (
	"errors"
	"io"
	"os"

	"github.com/lumen-web/lumen/http/status"
)

type verdict uint8

const (
	vDone verdict = iota + 1
	vTryAgain
	vYieldTryAgain
	vTooLarge
	vTimeout
)

// finalizer is a pure predicate on the buffer state: it alone decides
// whether the read loop keeps going.
type finalizer func(buf []byte, packets int) verdict

// readFrom appends client data to buf's tail until the finalizer is
// satisfied, and returns the grown slice. buf's capacity is the hard bound;
// bytes past it stay queued in the client for the next read. With tryFirst
// the finalizer runs once before any I/O, which lets an already-buffered
// pipelined request complete without touching the socket.
func (c *conn) readFrom(buf []byte, fin finalizer, tryFirst bool) ([]byte, error) {
	packets := 0

	if tryFirst {
		switch fin(buf, packets) {
		case vDone:
			return buf, nil
		case vTooLarge:
			return buf, status.ErrTooLarge
		case vTimeout:
			return buf, status.ErrRequestTimeout
		}
	}

	for {
		chunk, err := c.client.Read()
		if len(chunk) == 0 {
			switch {
			case err == nil || errors.Is(err, io.EOF):
				// orderly shutdown: nothing to respond to
				return buf, status.ErrCloseConnection
			case errors.Is(err, os.ErrDeadlineExceeded):
				return buf, status.ErrRequestTimeout
			case len(buf) == 0:
				return buf, status.ErrBadRequest
			default:
				return buf, status.ErrCloseConnection
			}
		}

		n := copy(buf[len(buf):cap(buf)], chunk)
		buf = buf[:len(buf)+n]
		if n < len(chunk) {
			// the rest belongs to whatever comes after this read's bound
			c.client.Pushback(chunk[n:])
		}

		switch fin(buf, packets) {
		case vDone:
			return buf, nil
		case vTooLarge:
			return buf, status.ErrTooLarge
		case vTimeout:
			return buf, status.ErrRequestTimeout
		}

		packets++
	}
}
