// Package config implements the Config contract consumed by the core
// engine: timeouts, the driver factory, the prelude command list, the
// high-availability role check, and the retry oracle the Client's
// reconnection state machine asks before replaying a failed attempt.
package config

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/pior/rdb/driver"
	"github.com/pior/rdb/resp"
)

// Config is the contract the core engine depends on. The zero-value
// behavior of every method must be safe for a Client to call before any
// connection exists.
type Config interface {
	ID() string
	ConnectTimeout() time.Duration
	ReadTimeout() time.Duration
	WriteTimeout() time.Duration
	NewDriver(ctx context.Context, connectTimeout, readTimeout, writeTimeout time.Duration) (driver.Driver, error)
	Prelude() []*resp.Command
	IsSentinel() bool
	CheckRole(role string) error
	RetryConnecting(tries int, err error) bool
}

// ErrFailover is returned by CheckRole when the connected node's reported
// ROLE does not match what the high-availability discovery configuration
// expects (e.g. a replica answered when a primary was required).
var ErrFailover = errors.New("config: connected node failed role check")

// staticConfig is the plain (non-sentinel) Config implementation: one fixed
// address, dialed directly.
type staticConfig struct {
	addr   string
	id     string
	dialer *net.Dialer

	connectTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration

	auth     string
	username string
	db       int

	maxRetries int
	breaker    *retryBreaker
}

// Option configures a Config built by New or NewSentinel.
type Option func(*staticConfig)

// WithID sets the client name sent via CLIENT SETNAME during the prelude.
func WithID(id string) Option { return func(c *staticConfig) { c.id = id } }

// WithAuth sets credentials sent via AUTH during the prelude. An empty
// username sends a single-argument AUTH (password-only, pre-ACL).
func WithAuth(username, password string) Option {
	return func(c *staticConfig) { c.username, c.auth = username, password }
}

// WithDB selects a logical database via SELECT during the prelude.
func WithDB(db int) Option { return func(c *staticConfig) { c.db = db } }

// WithDialer overrides the net.Dialer used to open new connections.
func WithDialer(d *net.Dialer) Option { return func(c *staticConfig) { c.dialer = d } }

// WithTimeouts sets the default connect/read/write timeouts. A Client may
// still override these per-instance after construction.
func WithTimeouts(connect, read, write time.Duration) Option {
	return func(c *staticConfig) {
		c.connectTimeout, c.readTimeout, c.writeTimeout = connect, read, write
	}
}

// WithMaxRetries caps how many times a retryable operation's connection
// attempt is replayed before RetryConnecting gives up. Zero means "retry
// forever until the circuit breaker trips."
func WithMaxRetries(n int) Option { return func(c *staticConfig) { c.maxRetries = n } }

// WithCircuitBreaker installs a retry-gating circuit breaker tuned by the
// given parameters (see newRetryBreaker). Passing maxRequests == 0 disables
// the breaker: RetryConnecting then defers to MaxRetries alone.
func WithCircuitBreaker(maxRequests uint32, interval, timeout time.Duration) Option {
	return func(c *staticConfig) {
		if maxRequests > 0 {
			c.breaker = newRetryBreaker(maxRequests, interval, timeout)
		}
	}
}

// New builds a plain (non-sentinel) Config for a single server address.
func New(addr string, opts ...Option) Config {
	c := &staticConfig{
		addr:           addr,
		dialer:         &net.Dialer{},
		connectTimeout: 5 * time.Second,
		readTimeout:    3 * time.Second,
		writeTimeout:   3 * time.Second,
		maxRetries:     3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *staticConfig) ID() string                      { return c.id }
func (c *staticConfig) ConnectTimeout() time.Duration    { return c.connectTimeout }
func (c *staticConfig) ReadTimeout() time.Duration       { return c.readTimeout }
func (c *staticConfig) WriteTimeout() time.Duration      { return c.writeTimeout }
func (c *staticConfig) IsSentinel() bool                 { return false }

func (c *staticConfig) NewDriver(ctx context.Context, connectTimeout, readTimeout, writeTimeout time.Duration) (driver.Driver, error) {
	return driver.Dial(ctx, c.dialer, c.addr, connectTimeout, readTimeout, writeTimeout)
}

// Prelude builds the fixed opening exchange: AUTH (if configured), SELECT
// (if a non-zero DB was configured). CLIENT SETNAME and ROLE are appended by
// the core itself (spec.md §4.1), not here, since they depend on Client
// state (id) and discovery mode (sentinel) the Config doesn't own.
func (c *staticConfig) Prelude() []*resp.Command {
	var cmds []*resp.Command
	if c.auth != "" {
		var cmd *resp.Command
		if c.username != "" {
			cmd, _ = resp.CoerceCommand("AUTH", c.username, c.auth)
		} else {
			cmd, _ = resp.CoerceCommand("AUTH", c.auth)
		}
		cmds = append(cmds, cmd)
	}
	if c.db != 0 {
		cmd, _ := resp.CoerceCommand("SELECT", c.db)
		cmds = append(cmds, cmd)
	}
	return cmds
}

// CheckRole always succeeds for a plain (non-sentinel) Config: there is no
// discovery-driven expectation to violate.
func (c *staticConfig) CheckRole(role string) error { return nil }

// RetryConnecting implements the retry oracle: it caps attempts at
// MaxRetries (0 meaning unbounded) and, if a circuit breaker was configured,
// additionally refuses once the breaker has tripped open — so a Client
// stops hammering a server that is failing fast rather than slowly
// exhausting MaxRetries against a connection that will never succeed.
func (c *staticConfig) RetryConnecting(tries int, err error) bool {
	if c.maxRetries > 0 && tries >= c.maxRetries {
		return false
	}
	if c.breaker != nil {
		return c.breaker.Allow(err)
	}
	return true
}
