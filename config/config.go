package config

import (
	"time"

	"github.com/mstoykov/envconfig"
)

type (
	NET struct {
		// ReadBufferSize is the capacity of the per-connection request
		// buffer. A whole request head, and any pipelined tail, must fit it.
		ReadBufferSize int `envconfig:"READ_BUFFER_SIZE"`
		// KeepAliveTimeout bounds how long a read may stall: it is both the
		// idle deadline between requests and the wall-clock budget for
		// slow body uploads.
		KeepAliveTimeout time.Duration `envconfig:"KEEP_ALIVE_TIMEOUT"`
		// AllowProxy enables PROXY v1/v2 preamble parsing on accepted
		// connections. Enable only for listeners behind a trusted proxy.
		AllowProxy bool `envconfig:"ALLOW_PROXY"`
	}

	Body struct {
		// MaxSize is the hard cap for a declared Content-Length. Anything at
		// or above it is rejected before allocation.
		MaxSize int64 `envconfig:"MAX_BODY_SIZE"`
		// SpoolThreshold is the size at which bodies leave the heap for a
		// file-backed mapping.
		SpoolThreshold int64 `envconfig:"SPOOL_THRESHOLD"`
		// AllowSpooling permits file-backed buffers for large bodies. With
		// it disabled, bodies past SpoolThreshold fail with 500.
		AllowSpooling bool `envconfig:"ALLOW_SPOOLING"`
	}
)

type Config struct {
	NET  NET
	Body Body
}

func Default() *Config {
	return &Config{
		NET: NET{
			ReadBufferSize:   4096,
			KeepAliveTimeout: 15 * time.Second,
			AllowProxy:       false,
		},
		Body: Body{
			MaxSize:        10 << 20,
			SpoolThreshold: 1 << 20,
			AllowSpooling:  true,
		},
	}
}

// FromEnv returns the defaults overridden by LUMEN_-prefixed environment
// variables, e.g. LUMEN_MAX_BODY_SIZE or LUMEN_KEEP_ALIVE_TIMEOUT.
func FromEnv() (*Config, error) {
	cfg := Default()

	if err := envconfig.Process("lumen", &cfg.NET); err != nil {
		return nil, err
	}
	if err := envconfig.Process("lumen", &cfg.Body); err != nil {
		return nil, err
	}

	return cfg, nil
}
