package http

import (
	"math"
	"net"
	"strings"
	"time"

	"github.com/indigo-web/utils/uf"
	"github.com/lumen-web/lumen/http/method"
	"github.com/lumen-web/lumen/http/proto"
	"github.com/lumen-web/lumen/internal/cleanup"
	"github.com/lumen-web/lumen/internal/proxyproto"
	"github.com/lumen-web/lumen/internal/qparams"
	"github.com/lumen-web/lumen/internal/strutil"
	"github.com/lumen-web/lumen/internal/timer"
	"github.com/lumen-web/lumen/kv"
	"github.com/lumen-web/lumen/transport"
)

// ConnState carries the flags that outlive a single request on the
// connection.
type ConnState struct {
	KeepAlive   bool
	Upgrade     bool
	WebSocket   bool
	HeadersSent bool
}

// Environment contains contextual values set during routing.
type Environment struct {
	// RouteData is whatever the matched route registered as its user data.
	RouteData any
}

// Encodings reports which response encodings the client accepts.
type Encodings struct {
	Gzip    bool
	Deflate bool
}

// Request represents a single parsed HTTP request. String fields are views
// into the connection buffer: they cost nothing to produce but are valid
// only until the connection starts reading the next request.
type Request struct {
	Method   method.Method
	Protocol proto.Protocol

	// URL is the percent-decoded request path. Routing strips the matched
	// prefix off it; OriginalURL always keeps the full decoded path.
	URL         string
	OriginalURL string

	// RawQuery and Fragment are the undecoded spans after '?' and '#'.
	RawQuery string
	Fragment string

	Headers HeaderTable

	// Body is the raw request body, present on POST once ingested.
	Body []byte

	Proxy proxyproto.Info
	Conn  *ConnState
	Env   Environment

	client   transport.Client
	cleanups *cleanup.Stack
	wheel    *timer.Wheel
	response *Response

	query   *kv.Storage
	cookies *kv.Storage
	form    *kv.Storage

	latch struct {
		query, cookies, form     bool
		byteRange, ims, encoding bool
	}
	rangeFrom, rangeTo int64
	modifiedSince      time.Time
	imsValid           bool
	encodings          Encodings

	rewritten      bool
	rewriteScratch []byte
	hijacked       bool
}

func NewRequest(client transport.Client, cleanups *cleanup.Stack, wheel *timer.Wheel) *Request {
	r := &Request{
		Protocol: proto.HTTP11,
		Conn:     new(ConnState),
		client:   client,
		cleanups: cleanups,
		wheel:    wheel,
		response: NewResponse(),
	}
	r.Headers.Reset()

	return r
}

// Reset prepares the object for the next request on the same connection.
// Proxy info and connection state survive: they belong to the connection.
func (r *Request) Reset() {
	r.Method = method.Unknown
	r.Protocol = proto.HTTP11
	r.URL = ""
	r.OriginalURL = ""
	r.RawQuery = ""
	r.Fragment = ""
	r.Headers.Reset()
	r.Body = nil
	r.Env = Environment{}

	if r.query != nil {
		r.query.Clear()
	}
	if r.cookies != nil {
		r.cookies.Clear()
	}
	if r.form != nil {
		r.form.Clear()
	}

	r.latch.query = false
	r.latch.cookies = false
	r.latch.form = false
	r.latch.byteRange = false
	r.latch.ims = false
	r.latch.encoding = false
	r.rewritten = false
}

// Header finds any request header by name, case-insensitively.
func (r *Request) Header(name string) (string, bool) {
	return r.Headers.Lookup(name)
}

func (r *Request) ContentType() string {
	return r.Headers.ContentType
}

func (r *Request) Authorization() string {
	return r.Headers.Authorization
}

// Query returns the parsed query parameters, sorted by key. Parsing happens
// on first call only; a malformed query string yields an empty set and the
// error, once.
func (r *Request) Query() (*kv.Storage, error) {
	if r.latch.query {
		return r.query, nil
	}
	r.latch.query = true

	if r.query == nil {
		r.query = kv.New()
	}
	if len(r.RawQuery) == 0 {
		return r.query, nil
	}

	return r.query, qparams.Parse(uf.S2B(r.RawQuery), r.query, '&', qparams.URL)
}

// Cookies returns the parsed Cookie header pairs. Cookie values are not
// percent-decoded; they are passed through as-is.
func (r *Request) Cookies() (*kv.Storage, error) {
	if r.latch.cookies {
		return r.cookies, nil
	}
	r.latch.cookies = true

	if r.cookies == nil {
		r.cookies = kv.New()
	}
	if len(r.Headers.Cookie) == 0 {
		return r.cookies, nil
	}

	return r.cookies, qparams.Parse(uf.S2B(r.Headers.Cookie), r.cookies, ';', qparams.Identity)
}

const formContentType = "application/x-www-form-urlencoded"

// Form returns the parsed form body. Anything but urlencoded content is
// treated as an empty form rather than an error: the body stays available
// raw via Body.
func (r *Request) Form() (*kv.Storage, error) {
	if r.latch.form {
		return r.form, nil
	}
	r.latch.form = true

	if r.form == nil {
		r.form = kv.New()
	}
	if !strings.HasPrefix(r.Headers.ContentType, formContentType) || len(r.Body) == 0 {
		return r.form, nil
	}

	return r.form, qparams.Parse(r.Body, r.form, '&', qparams.URL)
}

// Range returns the parsed Range header. ok is false when the header is
// absent or malformed; to==-1 means open-ended. The suffix form "-n" (the
// last n bytes) reads as from==0,to==n, the same pair "0-n" (the first n+1
// bytes) yields.
func (r *Request) Range() (from, to int64, ok bool) {
	if !r.latch.byteRange {
		r.latch.byteRange = true
		r.rangeFrom, r.rangeTo = parseRange(r.Headers.RangeRaw)
	}

	if r.rangeFrom == -1 && r.rangeTo == -1 {
		return 0, 0, false
	}

	return r.rangeFrom, r.rangeTo, true
}

// IfModifiedSince returns the parsed If-Modified-Since date. Unparsable
// dates read as an absent header.
func (r *Request) IfModifiedSince() (time.Time, bool) {
	if !r.latch.ims {
		r.latch.ims = true
		r.modifiedSince, r.imsValid = parseHTTPDate(r.Headers.IfModifiedSince)
	}

	return r.modifiedSince, r.imsValid
}

// AcceptEncoding reports the response encodings the client can take. Only
// exact tokens count: "gzippy" accepts nothing.
func (r *Request) AcceptEncoding() Encodings {
	if !r.latch.encoding {
		r.latch.encoding = true
		r.encodings = parseAcceptEncoding(r.Headers.AcceptEncoding)
	}

	return r.encodings
}

// RemoteAddr returns the numeric peer address: the PROXY-preamble source
// when the request came through a proxy, the socket peer otherwise.
func (r *Request) RemoteAddr() string {
	if r.Proxy.Present {
		if r.Proxy.Family == proxyproto.Unspec {
			return "*unspecified*"
		}

		return r.Proxy.Source.Addr().String()
	}

	addr := r.client.Remote()
	if addr == nil {
		return ""
	}

	if host, _, err := net.SplitHostPort(addr.String()); err == nil {
		return host
	}

	return addr.String()
}

// Sleep suspends request processing for roughly d via the connection's
// timer wheel. The pending timer is cancelled if the connection dies first.
func (r *Request) Sleep(d time.Duration) {
	ch := make(chan struct{})
	t := r.wheel.Add(d, func() {
		close(ch)
	})
	r.cleanups.Defer(func() {
		r.wheel.Del(t)
	})

	<-ch
}

// Rewrite replaces the request URL and asks the dispatcher for another
// routing round. The new URL is copied into request-owned scratch, so the
// handler may pass any string without lifetime obligations.
func (r *Request) Rewrite(url string) {
	r.rewriteScratch = append(r.rewriteScratch[:0], url...)
	r.URL = uf.B2S(r.rewriteScratch)
	r.rewritten = true
}

// TakeRewritten consumes the rewrite flag.
func (r *Request) TakeRewritten() bool {
	rewritten := r.rewritten
	r.rewritten = false

	return rewritten
}

// Respond returns the connection's response builder, cleared.
//
// WARNING: the builder is shared along the whole connection, so holding the
// returned pointer across requests observes someone else's response.
func (r *Request) Respond() *Response {
	return r.response.Clear()
}

// Hijack hands the raw client over to the caller. The connection is no
// longer processed as HTTP afterwards.
func (r *Request) Hijack() transport.Client {
	r.hijacked = true
	return r.client
}

func (r *Request) Hijacked() bool {
	return r.hijacked
}

// Cleanups exposes the connection's scoped-release stack, so handlers can
// tie resources to the connection's lifetime.
func (r *Request) Cleanups() *cleanup.Stack {
	return r.cleanups
}

const rangePrefix = "bytes="

func parseRange(raw string) (from, to int64) {
	if len(raw) <= len(rangePrefix) || !strings.HasPrefix(raw, rangePrefix) {
		return -1, -1
	}

	rest := raw[len(rangePrefix):]

	first, n, ok := readUint(rest)
	if ok && n > 0 {
		if n == len(rest) || rest[n] != '-' {
			// bare "bytes=10" parses like "10-": open-ended
			return int64(first), -1
		}

		second, m, ok2 := readUint(rest[n+1:])
		if !ok2 {
			return -1, -1
		}
		if m > 0 {
			return int64(first), int64(second)
		}

		return int64(first), -1
	}
	if !ok {
		return -1, -1
	}

	// suffix form: "-n" means the last n bytes
	if len(rest) > 0 && rest[0] == '-' {
		second, m, ok2 := readUint(rest[1:])
		if ok2 && m > 0 {
			return 0, int64(second)
		}
	}

	return -1, -1
}

// readUint consumes a leading decimal run. ok turns false only on overflow
// past the signed-offset maximum; n == 0 means no digits were present.
func readUint(s string) (value uint64, n int, ok bool) {
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		value = value*10 + uint64(s[n]-'0')
		if value > math.MaxInt64 {
			return 0, n, false
		}
		n++
	}

	return value, n, true
}

var httpDateLayouts = [...]string{time.RFC1123, "Monday, 02-Jan-06 15:04:05 MST", time.ANSIC}

func parseHTTPDate(raw string) (time.Time, bool) {
	if len(raw) == 0 {
		return time.Time{}, false
	}

	for _, layout := range httpDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func parseAcceptEncoding(raw string) (enc Encodings) {
	for len(raw) > 0 {
		var token string
		if i := strings.IndexByte(raw, ','); i == -1 {
			token, raw = raw, ""
		} else {
			token, raw = raw[:i], raw[i+1:]
		}

		token = strutil.RStripWS(strutil.LStripWS(token))
		// quality markers don't matter here: any mention is acceptance
		if i := strings.IndexByte(token, ';'); i != -1 {
			token = strutil.RStripWS(token[:i])
		}

		switch {
		case strutil.CmpFold(token, "gzip"):
			enc.Gzip = true
		case strutil.CmpFold(token, "deflate"):
			enc.Deflate = true
		}
	}

	return enc
}
