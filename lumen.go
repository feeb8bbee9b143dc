// Package lumen is a small, fast HTTP/1.x server core: a zero-copy request
// parser, a prefix-routed dispatch pipeline and a cooperative per-connection
// serving loop, glued to plain TCP listeners.
package lumen

import (
	"net"

	"github.com/sirupsen/logrus"

	"github.com/lumen-web/lumen/auth"
	"github.com/lumen-web/lumen/config"
	"github.com/lumen-web/lumen/internal/protocol/http1"
	"github.com/lumen-web/lumen/internal/strutil"
	"github.com/lumen-web/lumen/internal/timer"
	"github.com/lumen-web/lumen/router"
	"github.com/lumen-web/lumen/transport"
)

// App wires the URL map, configuration and listeners together.
type App struct {
	cfg        *config.Config
	mux        *router.Mux
	authorizer auth.Authorizer
	log        logrus.FieldLogger
	tcp        *transport.TCP
	wheel      *timer.Wheel
}

func New() *App {
	return &App{
		cfg:        config.Default(),
		mux:        router.New(),
		authorizer: auth.NewBasicFile(),
		log:        logrus.StandardLogger(),
		tcp:        transport.NewTCP(),
		wheel:      timer.NewWheel(timer.DefaultTick, timer.DefaultSlots),
	}
}

// Tune replaces the default configuration.
func (a *App) Tune(cfg *config.Config) *App {
	a.cfg = cfg
	return a
}

// UseLogger replaces the default process-global logger.
func (a *App) UseLogger(log logrus.FieldLogger) *App {
	a.log = log
	return a
}

// UseAuthorizer replaces the basic-auth password file backend.
func (a *App) UseAuthorizer(authorizer auth.Authorizer) *App {
	a.authorizer = authorizer
	return a
}

// Route registers a handler under a path prefix. See router.Option for the
// per-route switches.
func (a *App) Route(prefix string, handler router.Handler, opts ...router.Option) *App {
	a.mux.Route(prefix, handler, opts...)
	return a
}

// Mux exposes the underlying URL map for direct registration.
func (a *App) Mux() *router.Mux {
	return a.mux
}

// Bind binds the listening address ahead of Serve. Useful with ":0" when
// the effective address is needed before serving starts.
func (a *App) Bind(addr string) error {
	return a.tcp.Bind(strutil.NormalizeAddress(addr))
}

// Addr returns the bound listening address, or nil before Bind.
func (a *App) Addr() net.Addr {
	return a.tcp.Addr()
}

// Serve binds the address, unless Bind already did, and processes
// connections until Stop is called.
func (a *App) Serve(addr string) error {
	if a.tcp.Addr() == nil {
		if err := a.Bind(addr); err != nil {
			return err
		}
	}

	a.wheel.Start()
	defer a.wheel.Stop()

	a.log.WithField("addr", a.tcp.Addr()).Info("listening")

	return a.tcp.Listen(func(netConn net.Conn) {
		client := transport.NewClient(
			netConn,
			a.cfg.NET.KeepAliveTimeout,
			make([]byte, a.cfg.NET.ReadBufferSize),
		)

		log := a.log.WithField("remote", netConn.RemoteAddr())
		log.Debug("connection accepted")
		http1.Serve(a.cfg, a.mux, a.authorizer, log, a.wheel, client)
		log.Debug("connection done")
	})
}

// Stop interrupts the accept loop and waits for the active connections to
// drain.
func (a *App) Stop() {
	a.tcp.Stop()
	a.tcp.Close()
	a.tcp.Wait()
}
