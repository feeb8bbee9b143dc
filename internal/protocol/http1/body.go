package http1

import (
	"strconv"
	"time"

	"github.com/lumen-web/lumen/http/status"
	"github.com/lumen-web/lumen/internal/spool"
)

// readBody ingests a POST body. The declared length is mandatory and
// checked against the cap before a single byte is allocated. Bodies wholly
// inside the request buffer become zero-copy spans; everything else moves
// into a spool buffer first.
func (c *conn) readBody(h *helper) error {
	req := c.req

	raw := req.Headers.ContentLength
	if len(raw) == 0 {
		return status.ErrBadRequest
	}
	size, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || size < 0 {
		return status.ErrBadRequest
	}
	if size >= c.cfg.Body.MaxSize {
		return status.ErrBodyTooLarge
	}

	have := 0
	if h.nextRequest >= 0 {
		have = len(c.buf) - h.nextRequest

		if int64(have) >= size {
			req.Body = c.buf[h.nextRequest : h.nextRequest+int(size)]
			h.nextRequest += int(size)
			if h.nextRequest >= len(c.buf) {
				h.nextRequest = -1
			}

			return nil
		}
	}

	body, err := spool.Alloc(size, c.cfg.Body.SpoolThreshold, c.cfg.Body.AllowSpooling, c.cleanups)
	if err != nil {
		return status.ErrInternalServerError
	}

	if have > 0 {
		copy(body, c.buf[h.nextRequest:])
	}
	h.nextRequest = -1

	h.deadline = time.Now().Add(c.cfg.NET.KeepAliveTimeout)
	h.packetBudget = nPackets(size)

	// finalize before reading: a zero-length body is already complete
	filled, err := c.readFrom(body[:have], h.bodyFinalizer, true)
	if err != nil {
		return err
	}
	req.Body = filled

	return nil
}
