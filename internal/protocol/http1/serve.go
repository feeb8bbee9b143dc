package http1

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/lumen-web/lumen/auth"
	"github.com/lumen-web/lumen/config"
	"github.com/lumen-web/lumen/http"
	"github.com/lumen-web/lumen/http/method"
	"github.com/lumen-web/lumen/http/status"
	"github.com/lumen-web/lumen/internal/cleanup"
	"github.com/lumen-web/lumen/internal/render"
	"github.com/lumen-web/lumen/internal/timer"
	"github.com/lumen-web/lumen/kv"
	"github.com/lumen-web/lumen/router"
	"github.com/lumen-web/lumen/transport"
)

const maxRewrites = 4

type conn struct {
	cfg        *config.Config
	mux        *router.Mux
	authorizer auth.Authorizer
	log        logrus.FieldLogger
	client     transport.Client
	wheel      *timer.Wheel
	cleanups   *cleanup.Stack
	req        *http.Request

	// buf is the connection's request buffer. Its capacity never changes,
	// so every span handed out stays valid until the next request reuses it.
	buf []byte
	// next is the buffer offset of a pipelined request left over by the
	// previous one, or -1.
	next int

	allowProxy bool

	headScratch []byte
	pairScratch []kv.Pair
}

// Serve runs the HTTP/1.x request loop over a single connection until it
// is closed, upgraded or hijacked.
func Serve(
	cfg *config.Config,
	mux *router.Mux,
	authorizer auth.Authorizer,
	log logrus.FieldLogger,
	wheel *timer.Wheel,
	client transport.Client,
) {
	cleanups := cleanup.New()
	defer cleanups.Release()

	c := &conn{
		cfg:        cfg,
		mux:        mux,
		authorizer: authorizer,
		log:        log,
		client:     client,
		wheel:      wheel,
		cleanups:   cleanups,
		req:        http.NewRequest(client, cleanups, wheel),
		buf:        make([]byte, 0, cfg.NET.ReadBufferSize),
		next:       -1,
		allowProxy: cfg.NET.AllowProxy,
	}

	for c.processRequest() {
	}
}

// processRequest runs one read→parse→dispatch→respond cycle and reports
// whether the connection should take another one.
func (c *conn) processRequest() bool {
	h := newHelper(cap(c.buf))
	c.req.Reset()
	c.req.Conn.HeadersSent = false

	if err := c.readRequest(&h); err != nil {
		if errors.Is(err, status.ErrCloseConnection) {
			return false
		}

		c.respond(c.errorResponse(err))

		return false
	}

	err := parseRequest(c.req, c.buf, &h, c.allowProxy)
	// the preamble, if any, arrives once per connection
	c.allowProxy = false

	if err != nil {
		c.respond(c.errorResponse(err))
		c.next = h.nextRequest

		// a bad request may still be followed by a good pipelined one
		return c.next >= 0
	}

	resp := c.dispatch(&h)

	if c.req.Conn.WebSocket || c.req.Hijacked() {
		// the connection no longer speaks plain HTTP; hand it over
		return false
	}

	if !c.respond(resp) {
		return false
	}

	c.next = h.nextRequest

	return c.req.Conn.KeepAlive || c.next >= 0
}

// readRequest moves any pipelined tail to the buffer's front, then reads
// until the head is complete.
func (c *conn) readRequest(h *helper) error {
	if c.next >= 0 && c.next < len(c.buf) {
		tail := len(c.buf) - c.next
		copy(c.buf, c.buf[c.next:])
		c.buf = c.buf[:tail]
		h.pipelined = true
	} else {
		c.buf = c.buf[:0]
	}
	c.next = -1

	buf, err := c.readFrom(c.buf, h.headerFinalizer, h.pipelined)
	c.buf = buf

	return err
}

// dispatch resolves the URL against the trie and runs the route pipeline:
// prefix strip, authorization, slash removal, accept-encoding, body
// admission, handler, and at most maxRewrites rewrite rounds.
func (c *conn) dispatch(h *helper) *http.Response {
	req := c.req

	for {
		route, ok := c.mux.Lookup(req.URL)
		if !ok {
			return c.errorResponse(status.ErrNotFound)
		}

		if err := c.prepare(route, h); err != nil {
			if errors.Is(err, status.ErrCloseConnection) {
				// the peer went away mid-body: nothing to respond to
				req.Conn.KeepAlive = false
				req.Conn.HeadersSent = true

				return nil
			}

			return c.errorResponse(err)
		}

		resp := route.Handler(req)

		if route.CanRewrite && req.TakeRewritten() {
			h.rewrites++
			if h.rewrites > maxRewrites {
				return c.errorResponse(status.ErrInternalServerError)
			}

			path, query, fragment := splitTarget(req.URL)
			req.URL = path
			req.RawQuery = query
			req.Fragment = fragment

			continue
		}

		return resp
	}
}

func (c *conn) prepare(route *router.Route, h *helper) error {
	req := c.req
	req.Env.RouteData = route.UserData
	req.URL = req.URL[len(route.Prefix):]

	if route.MustAuthorize {
		if !c.authorizer.Authorize(req.Headers.Authorization, route.Realm, route.PasswordFile) {
			return status.ErrUnauthorized
		}
	}

	if route.StripSlashes {
		for len(req.URL) > 0 && req.URL[0] == '/' {
			req.URL = req.URL[1:]
		}
	}

	if route.ParseAcceptEncoding {
		req.AcceptEncoding()
	}

	if req.Method == method.POST {
		if !route.AllowBody {
			return status.ErrMethodNotAllowed
		}

		if err := c.readBody(h); err != nil {
			return err
		}
	}

	return nil
}

func (c *conn) errorResponse(err error) *http.Response {
	code := status.CodeOf(err)

	return c.req.Respond().Code(code).String(string(status.Text(code)))
}

// respond serializes and writes the response. Reports false when the
// connection is beyond saving.
func (c *conn) respond(resp *http.Response) bool {
	req := c.req

	if req.Conn.HeadersSent {
		return true
	}
	if resp == nil {
		resp = req.Respond()
	}

	code, text, headers, body := resp.Expose()

	pairs := append(c.pairScratch[:0], headers...)
	pairs = append(pairs, render.ContentLength(len(body)))
	if req.Conn.KeepAlive {
		pairs = append(pairs, kv.Pair{Key: "Connection", Value: "keep-alive"})
	} else {
		pairs = append(pairs, kv.Pair{Key: "Connection", Value: "close"})
	}
	c.pairScratch = pairs

	head := render.Head(c.headScratch[:0], req.Protocol, code, text, pairs)
	c.headScratch = head

	if _, err := c.client.Write(head); err != nil {
		c.log.WithError(err).Debug("dropping connection: response write failed")
		return false
	}
	req.Conn.HeadersSent = true

	if len(body) > 0 && req.Method != method.HEAD {
		if _, err := c.client.Write(body); err != nil {
			c.log.WithError(err).Debug("dropping connection: response write failed")
			return false
		}
	}

	return true
}
