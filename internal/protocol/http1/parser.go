package http1

import (
	"bytes"
	"strings"

	"github.com/indigo-web/utils/uf"
	"github.com/lumen-web/lumen/http"
	"github.com/lumen-web/lumen/http/method"
	"github.com/lumen-web/lumen/http/proto"
	"github.com/lumen-web/lumen/http/status"
	"github.com/lumen-web/lumen/internal/proxyproto"
	"github.com/lumen-web/lumen/internal/strutil"
	"github.com/lumen-web/lumen/internal/uridecode"
)

const minRequestLine = len("/ HTTP/1.0")

// parseRequest frames a complete request head out of buf. All spans handed
// to the request alias buf; the only mutation is the in-place percent
// decoding of the path, which can only shrink its span.
func parseRequest(req *http.Request, buf []byte, h *helper, allowProxy bool) error {
	pos := 0

	if allowProxy {
		info, consumed, err := proxyproto.Decode(buf)
		if err != nil {
			return status.ErrBadRequest
		}
		if info.Present {
			req.Proxy = info
			pos = consumed
		}
	}

	skipped := strutil.SkipLeadingWS(buf[pos:])
	pos = len(buf) - len(skipped)

	m, advance := identifyMethod(buf[pos:])
	if m == method.Unknown {
		return status.ErrMethodNotAllowed
	}
	req.Method = m
	pos += advance

	if pos >= len(buf) || buf[pos] != '/' {
		return status.ErrBadRequest
	}

	cr := bytes.IndexByte(buf[pos:], '\r')
	if cr == -1 || cr < minRequestLine {
		return status.ErrBadRequest
	}
	crAbs := pos + cr

	switch proto.FromBytes(buf[crAbs-len("HTTP/1.x") : crAbs]) {
	case proto.HTTP10:
		req.Protocol = proto.HTTP10
	case proto.HTTP11:
		req.Protocol = proto.HTTP11
	default:
		return status.ErrBadRequest
	}

	// the target ends right before " HTTP/1.x"
	target := buf[pos : crAbs-len(" HTTP/1.x")]

	// fragments tend to be short and sit at the end, so scan backwards;
	// query strings tend to be long, so scan forward
	rawPath := target
	if i := bytes.LastIndexByte(target, '#'); i != -1 {
		req.Fragment = uf.B2S(target[i+1:])
		rawPath = target[:i]
	}
	if i := bytes.IndexByte(rawPath, '?'); i != -1 {
		req.RawQuery = uf.B2S(rawPath[i+1:])
		rawPath = rawPath[:i]
	}

	if err := parseHeaders(req, buf, crAbs+2, h); err != nil {
		return err
	}

	decoded, err := uridecode.InPlace(rawPath)
	if err != nil {
		return status.ErrBadRequest
	}
	req.URL = uf.B2S(decoded)
	req.OriginalURL = req.URL

	parseConnectionHeader(req)

	return nil
}

// identifyMethod recognizes the method by its first four bytes and skips
// the canonical token plus the following space, the way the original wire
// format guarantees it.
func identifyMethod(b []byte) (method.Method, int) {
	if len(b) < 4 {
		return method.Unknown, 0
	}

	switch string(b[:4]) {
	case "GET ":
		return method.GET, len("GET ")
	case "HEAD":
		return method.HEAD, len("HEAD ")
	case "POST":
		return method.POST, len("POST ")
	case "OPTI":
		return method.OPTIONS, len("OPTIONS ")
	case "DELE":
		return method.DELETE, len("DELETE ")
	}

	return method.Unknown, 0
}

// parseHeaders walks CRLF-terminated lines from pos until the empty line,
// recording each span in the request's header table. A byte following the
// terminator marks the start of the next pipelined request.
func parseHeaders(req *http.Request, buf []byte, pos int, h *helper) error {
	h.nextRequest = -1

	for {
		if pos >= len(buf) {
			return status.ErrBadRequest
		}

		cr := bytes.IndexByte(buf[pos:], '\r')
		if cr == -1 {
			return status.ErrBadRequest
		}
		crAbs := pos + cr
		if crAbs+1 >= len(buf) || buf[crAbs+1] != '\n' {
			return status.ErrBadRequest
		}

		if cr == 0 {
			if crAbs+2 < len(buf) {
				h.nextRequest = crAbs + 2
			}

			return nil
		}

		line := uf.B2S(buf[pos:crAbs])
		if !req.Headers.Append(line) {
			return status.ErrTooLarge
		}
		classifyHeader(&req.Headers, line)

		pos = crAbs + 2
	}
}

// classifyHeader picks out the headers the core consumes itself. The match
// is exact, including case: these are the spellings every real client
// sends, and anything else still reaches the generic lookup.
func classifyHeader(t *http.HeaderTable, line string) {
	if len(line) < 4 {
		return
	}

	switch line[:4] {
	case "Acce":
		if v, ok := strings.CutPrefix(line, "Accept-Encoding: "); ok {
			t.AcceptEncoding = v
		}
	case "Auth":
		if v, ok := strings.CutPrefix(line, "Authorization: "); ok {
			t.Authorization = v
		}
	case "Conn":
		if v, ok := strings.CutPrefix(line, "Connection: "); ok {
			t.Connection = v
		}
	case "Cont":
		if v, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			t.ContentLength = v
		} else if v, ok := strings.CutPrefix(line, "Content-Type: "); ok {
			t.ContentType = v
		}
	case "Cook":
		if v, ok := strings.CutPrefix(line, "Cookie: "); ok {
			t.Cookie = v
		}
	case "If-M":
		if v, ok := strings.CutPrefix(line, "If-Modified-Since: "); ok {
			t.IfModifiedSince = v
		}
	case "Rang":
		if v, ok := strings.CutPrefix(line, "Range: "); ok {
			t.RangeRaw = v
		}
	}
}

// parseConnectionHeader settles keep-alive for the request and raises the
// connection's upgrade flag. HTTP/1.1 keeps the connection unless told
// "close"; HTTP/1.0 drops it unless told "keep-alive".
func parseConnectionHeader(req *http.Request) {
	var isKeepAlive, isClose bool

	raw := req.Headers.Connection
	for len(raw) > 0 {
		var token string
		if i := strings.IndexByte(raw, ','); i == -1 {
			token, raw = raw, ""
		} else {
			token, raw = raw[:i], raw[i+1:]
		}

		token = strutil.RStripWS(strutil.LStripWS(token))
		switch {
		case strutil.CmpFold(token, "keep-alive"):
			isKeepAlive = true
		case strutil.CmpFold(token, "close"):
			isClose = true
		case strutil.CmpFold(token, "upgrade"):
			req.Conn.Upgrade = true
		}
	}

	if req.Protocol != proto.HTTP10 {
		isKeepAlive = !isClose
	}

	req.Conn.KeepAlive = isKeepAlive
}

// splitTarget re-separates fragment and query after a handler rewrote the
// URL. Decoding is not repeated: rewritten URLs are handler-produced, not
// wire input.
func splitTarget(target string) (path, query, fragment string) {
	if i := strings.LastIndexByte(target, '#'); i != -1 {
		fragment = target[i+1:]
		target = target[:i]
	}
	if i := strings.IndexByte(target, '?'); i != -1 {
		query = target[i+1:]
		target = target[:i]
	}

	return target, query, fragment
}
