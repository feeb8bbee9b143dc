package http1

import (
	"bytes"
	"time"
)

// mtuEstimate is half of a typical 1480-byte MTU: being pessimistic here
// means the packet budget errors out only after roughly twice the expected
// packet count.
const mtuEstimate = 740

// nPackets derives the read budget for an expected payload size.
func nPackets(size int64) int {
	n := int(size / mtuEstimate)
	if n < 1 {
		return 1
	}

	return n
}

// helper carries the per-request parsing state that doesn't belong on the
// user-visible request object: framing positions, read budgets and the
// rewrite counter.
type helper struct {
	// pipelined is the next-request latch: the previous request left a tail
	// in the buffer, so framing may already be complete.
	pipelined bool
	// nextRequest is the offset of the next pipelined request inside the
	// buffer, or -1. It always points past this request's CRLFCRLF and any
	// consumed body bytes.
	nextRequest int

	packetBudget int
	deadline     time.Time
	rewrites     int
}

func newHelper(bufferSize int) helper {
	return helper{
		nextRequest:  -1,
		packetBudget: nPackets(int64(bufferSize)),
	}
}

var crlfcrlf = []byte("\r\n\r\n")

// headerFinalizer decides when the request head is complete. A set
// pipelined latch is consumed as completion on its own: the tail was read
// together with the previous request.
func (h *helper) headerFinalizer(buf []byte, packets int) verdict {
	if packets > h.packetBudget {
		return vTimeout
	}
	if len(buf) < 4 {
		return vYieldTryAgain
	}
	if len(buf) == cap(buf) {
		return vTooLarge
	}
	if h.pipelined {
		h.pipelined = false
		return vDone
	}
	if bytes.Contains(buf, crlfcrlf) {
		return vDone
	}

	return vTryAgain
}

// bodyFinalizer completes when the declared size has arrived. Unlike the
// header read it is also guarded by wall-clock time: large uploads from
// slow but legitimate senders take arbitrarily many packets.
func (h *helper) bodyFinalizer(buf []byte, packets int) verdict {
	if len(buf) == cap(buf) {
		return vDone
	}
	if time.Now().After(h.deadline) {
		return vTimeout
	}
	if packets > h.packetBudget {
		return vTimeout
	}

	return vTryAgain
}
