// Package router maps URL path prefixes to handlers. Lookup is a
// longest-prefix match over a byte trie; everything that happens after the
// match (authorization, body admission, rewrites) is driven by the flags a
// route was registered with.
package router

import (
	"github.com/lumen-web/lumen/http"
)

// Handler produces a response for a request. A nil response renders as an
// empty 200.
type Handler func(r *http.Request) *http.Response

// Route is the record a prefix resolves to.
type Route struct {
	Prefix  string
	Handler Handler

	// MustAuthorize gates the route behind the mux's Authorizer.
	MustAuthorize bool
	Realm         string
	PasswordFile  string

	// StripSlashes removes repeated leading '/' from the remaining path.
	StripSlashes bool
	// ParseAcceptEncoding parses the Accept-Encoding header eagerly before
	// the handler runs.
	ParseAcceptEncoding bool
	// AllowBody admits POST requests; without it POSTs get 405.
	AllowBody bool
	// CanRewrite lets the handler trigger another routing round via
	// Request.Rewrite.
	CanRewrite bool

	// UserData is surfaced to the handler via Request.Env.RouteData.
	UserData any
}

type Option func(*Route)

func WithAuth(realm, passwordFile string) Option {
	return func(r *Route) {
		r.MustAuthorize = true
		r.Realm = realm
		r.PasswordFile = passwordFile
	}
}

func StripSlashes() Option {
	return func(r *Route) {
		r.StripSlashes = true
	}
}

func ParseAcceptEncoding() Option {
	return func(r *Route) {
		r.ParseAcceptEncoding = true
	}
}

func AllowBody() Option {
	return func(r *Route) {
		r.AllowBody = true
	}
}

func CanRewrite() Option {
	return func(r *Route) {
		r.CanRewrite = true
	}
}

func WithUserData(data any) Option {
	return func(r *Route) {
		r.UserData = data
	}
}

type node struct {
	children map[byte]*node
	route    *Route
}

// Mux is the URL map. It is built once at startup and read concurrently by
// every connection afterwards; Route must not be called once serving began.
type Mux struct {
	root node
}

func New() *Mux {
	return new(Mux)
}

// Route registers a handler under a path prefix.
func (m *Mux) Route(prefix string, handler Handler, opts ...Option) *Mux {
	route := &Route{
		Prefix:  prefix,
		Handler: handler,
	}
	for _, opt := range opts {
		opt(route)
	}

	n := &m.root
	for i := 0; i < len(prefix); i++ {
		if n.children == nil {
			n.children = make(map[byte]*node)
		}

		next, ok := n.children[prefix[i]]
		if !ok {
			next = new(node)
			n.children[prefix[i]] = next
		}
		n = next
	}
	n.route = route

	return m
}

// Lookup finds the route with the longest registered prefix of path.
func (m *Mux) Lookup(path string) (*Route, bool) {
	n := &m.root
	match := n.route

	for i := 0; i < len(path); i++ {
		next, ok := n.children[path[i]]
		if !ok {
			break
		}

		n = next
		if n.route != nil {
			match = n.route
		}
	}

	return match, match != nil
}
