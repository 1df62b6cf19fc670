// Package live serves a loom engine over a websocket: each session owns one
// in-memory document and one update engine, renders a view value into it,
// and streams the recorded patches to a thin client as JSON frames.
package live

import (
	"log/slog"
	"time"

	"github.com/loom-ui/loom/pkg/loom"
	"github.com/loom-ui/loom/pkg/snapshot"
)

// View produces the root renderable value for a session. It is re-invoked
// whenever the session re-renders from the top.
type View func(s *Session) any

// Config configures a live server and its sessions.
type Config struct {
	// View is the root view rendered into every session. Required.
	View View

	// ReadTimeout bounds how long a read waits before the connection is
	// considered dead.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration

	// Store, when set, receives a session snapshot on disconnect so the
	// session can be resumed later.
	Store snapshot.Store

	// Logger receives structured session logs.
	Logger *slog.Logger

	// EngineOptions are applied to every session's engine.
	EngineOptions []loom.Option
}

// Option configures a live server.
type Option func(*Config)

// WithReadTimeout sets the connection read timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReadTimeout = d }
}

// WithWriteTimeout sets the frame write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) { c.WriteTimeout = d }
}

// WithStore sets the snapshot store sessions detach to.
func WithStore(store snapshot.Store) Option {
	return func(c *Config) { c.Store = store }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithEngineOptions sets options applied to every session engine.
func WithEngineOptions(opts ...loom.Option) Option {
	return func(c *Config) { c.EngineOptions = append(c.EngineOptions, opts...) }
}

func defaultConfig(view View) Config {
	return Config{
		View:         view,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		Logger:       slog.Default(),
	}
}
