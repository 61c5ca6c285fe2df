package rdb

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/pior/rdb/config"
	"github.com/pior/rdb/driver"
	"github.com/pior/rdb/resp"
)

// Client is the core command-execution engine: it owns at most one live
// Connection (invariant I1), lazily (re)establishes it, runs the prelude,
// enforces retry policy, and serves Call, CallOnce, BlockingCall, Pipelined,
// Multi, PubSub, and the scan operations.
//
// A Client is not safe for concurrent use from multiple goroutines; this is
// documented rather than enforced by a mutex, since the cost of silently
// serializing what the caller is responsible for avoiding would hide bugs
// rather than fix them. External pooling provides parallelism by owning
// multiple Clients.
type Client struct {
	cfg config.Config
	id  string

	connectTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration

	conn *Connection

	disableReconnection bool

	middlewares *Middlewares
	logger      *slog.Logger
	stats       *stats
}

// Option configures a Client built by NewFromConfig or NewFromOptions. Some
// options (WithAddr, WithAuth, WithDB) only take effect through
// NewFromOptions, since NewFromConfig's Config is already built.
type Option func(*clientOptions)

type clientOptions struct {
	addr         string
	auth, user   string
	db           int
	id           string
	connect      time.Duration
	read, write  time.Duration
	middlewares  *Middlewares
	logger       *slog.Logger
}

// WithAddr sets the server address a NewFromOptions Client dials.
func WithAddr(addr string) Option { return func(o *clientOptions) { o.addr = addr } }

// WithID sets the client name sent via CLIENT SETNAME during the prelude.
func WithID(id string) Option { return func(o *clientOptions) { o.id = id } }

// WithAuth sets credentials a NewFromOptions Client authenticates with
// during the prelude.
func WithAuth(username, password string) Option {
	return func(o *clientOptions) { o.user, o.auth = username, password }
}

// WithDB selects a logical database a NewFromOptions Client selects during
// the prelude.
func WithDB(db int) Option { return func(o *clientOptions) { o.db = db } }

// WithTimeouts sets the initial connect/read/write timeouts.
func WithTimeouts(connect, read, write time.Duration) Option {
	return func(o *clientOptions) { o.connect, o.read, o.write = connect, read, write }
}

// WithMiddlewares overrides the Middlewares registry this Client routes
// user-initiated commands through. Without this option, a Client falls back
// to the package-level DefaultMiddlewares registry.
func WithMiddlewares(m *Middlewares) Option { return func(o *clientOptions) { o.middlewares = m } }

// WithLogger overrides the structured logger used for internal bookkeeping
// the caller has no other way to observe (reconnections, failed role
// checks, best-effort UNWATCH). Defaults to a slog.Logger writing to
// os.Stderr.
func WithLogger(logger *slog.Logger) Option { return func(o *clientOptions) { o.logger = logger } }

func resolveOptions(opts []Option) *clientOptions {
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func newClient(cfg config.Config, o *clientOptions) *Client {
	c := &Client{
		cfg:            cfg,
		id:             cfg.ID(),
		connectTimeout: cfg.ConnectTimeout(),
		readTimeout:    cfg.ReadTimeout(),
		writeTimeout:   cfg.WriteTimeout(),
		middlewares:    DefaultMiddlewares,
		logger:         slog.New(slog.NewTextHandler(os.Stderr, nil)),
		stats:          &stats{},
	}
	if o.id != "" {
		c.id = o.id
	}
	if o.connect != 0 || o.read != 0 || o.write != 0 {
		c.connectTimeout, c.readTimeout, c.writeTimeout = o.connect, o.read, o.write
	}
	if o.middlewares != nil {
		c.middlewares = o.middlewares
	}
	if o.logger != nil {
		c.logger = o.logger
	}
	return c
}

// NewFromConfig builds a Client around an existing Config.
func NewFromConfig(cfg config.Config, opts ...Option) (*Client, error) {
	return newClient(cfg, resolveOptions(opts)), nil
}

// NewFromOptions builds a Client around a default Config constructed from
// opts. It is a convenience over NewFromConfig(config.New(...), ...) for
// callers who don't need a custom Config implementation; WithAddr is
// required.
func NewFromOptions(opts ...Option) (*Client, error) {
	o := resolveOptions(opts)
	if o.addr == "" {
		return nil, errMissingAddr
	}

	var cfgOpts []config.Option
	if o.id != "" {
		cfgOpts = append(cfgOpts, config.WithID(o.id))
	}
	if o.auth != "" {
		cfgOpts = append(cfgOpts, config.WithAuth(o.user, o.auth))
	}
	if o.db != 0 {
		cfgOpts = append(cfgOpts, config.WithDB(o.db))
	}
	if o.connect != 0 || o.read != 0 || o.write != 0 {
		cfgOpts = append(cfgOpts, config.WithTimeouts(o.connect, o.read, o.write))
	}

	cfg := config.New(o.addr, cfgOpts...)
	return newClient(cfg, o), nil
}

var errMissingAddr = &missingAddrError{}

type missingAddrError struct{}

func (e *missingAddrError) Error() string { return "rdb: NewFromOptions requires WithAddr" }

// Call sends one command and returns its decoded reply. It retries on
// connection-class failures per the config's retry policy. A server-
// reported logical error (e.g. a wrong-type or wrong-arity reply) is
// surfaced as a *CommandError, not silently returned inside reply.
func (c *Client) Call(ctx context.Context, args ...any) (resp.Reply, error) {
	cmd, err := resp.CoerceCommand(args...)
	if err != nil {
		return resp.Reply{}, err
	}
	var reply resp.Reply
	err = c.ensureConnected(ctx, true, func(conn *Connection) error {
		reply, err = c.middlewares.Call(ctx, cmd, c.cfg, func() (resp.Reply, error) {
			return checkedCall(ctx, conn, cmd, driver.UseDefaultTimeout)
		})
		return err
	})
	return reply, err
}

// CallOnce is like Call but never retries, even on a transient failure: the
// initial connection attempt may still retry, but once a command has been
// sent, a connection-class failure surfaces immediately.
func (c *Client) CallOnce(ctx context.Context, args ...any) (resp.Reply, error) {
	cmd, err := resp.CoerceCommand(args...)
	if err != nil {
		return resp.Reply{}, err
	}
	var reply resp.Reply
	err = c.ensureConnected(ctx, false, func(conn *Connection) error {
		reply, err = c.middlewares.Call(ctx, cmd, c.cfg, func() (resp.Reply, error) {
			return checkedCall(ctx, conn, cmd, driver.UseDefaultTimeout)
		})
		return err
	})
	return reply, err
}

// BlockingCall is like Call but overrides the read timeout for this one
// command. A zero or negative timeout means "wait forever." A finite
// timeout that expires raises a ReadTimeoutError, which — since no bytes
// were consumed for that reply — is a connection-class error and may still
// trigger a retry unless the caller used a non-retryable scope around it.
func (c *Client) BlockingCall(ctx context.Context, timeout time.Duration, args ...any) (resp.Reply, error) {
	cmd, err := resp.CoerceCommand(args...)
	if err != nil {
		return resp.Reply{}, err
	}
	var reply resp.Reply
	err = c.ensureConnected(ctx, true, func(conn *Connection) error {
		reply, err = c.middlewares.Call(ctx, cmd, c.cfg, func() (resp.Reply, error) {
			return checkedCall(ctx, conn, cmd, timeout)
		})
		return err
	})
	return reply, err
}

// checkedCall runs cmd on conn and converts a server-reported error reply
// into a *CommandError, the same way the EXEC path and the prelude already
// do for their own replies. CommandError isn't connection-class, so it
// surfaces immediately without tripping the retry loop.
func checkedCall(ctx context.Context, conn *Connection, cmd *resp.Command, timeout time.Duration) (resp.Reply, error) {
	reply, err := conn.Call(ctx, cmd, timeout)
	if err != nil {
		return reply, err
	}
	if reply.IsError() {
		return reply, ParseCommandError(reply.Err)
	}
	return reply, nil
}

// Pipelined lets fn populate a Pipeline, then sends every buffered command
// as one batch and returns the collected replies in insertion order. An
// empty pipeline returns an empty slice without touching the wire.
func (c *Client) Pipelined(ctx context.Context, fn func(p *Pipeline)) ([]resp.Reply, error) {
	p := newPipeline()
	fn(p)
	if p.Empty() {
		return nil, nil
	}

	var replies []resp.Reply
	err := c.ensureConnected(ctx, p.Retryable(), func(conn *Connection) error {
		var err error
		replies, err = c.middlewares.CallPipelined(ctx, p.batch.commands, c.cfg, func() ([]resp.Reply, error) {
			return conn.CallPipelined(ctx, p.batch.commands, p.batch.timeouts)
		})
		return err
	})
	return replies, err
}

// Multi executes a transaction: WATCH (if watch is non-empty), MULTI, the
// commands fn appends, and EXEC. With watch, retry is disabled for the
// whole scope, since optimistic-lock state cannot be replayed safely; a
// CallOnce inside fn also makes the transaction non-retryable. fn runs
// before anything is sent. If the pipelined exchange fails, or EXEC's
// results carry a command error, a best-effort UNWATCH is issued on the
// still-connected Connection before the error is returned, avoiding leaked
// watch state (open question resolution: gated on connected? && watch, per
// DESIGN.md).
func (c *Client) Multi(ctx context.Context, watch []string, fn func(t *Transaction)) ([]resp.Reply, error) {
	t := newTransaction(watch)
	fn(t)

	retryable := !t.Watched() && t.pipeline.Retryable()
	var results []resp.Reply
	err := c.ensureConnected(ctx, retryable, func(conn *Connection) error {
		if t.Watched() {
			watchCmd, _ := resp.CoerceCommand(append([]any{"WATCH"}, toAnySlice(watch)...)...)
			if _, err := conn.Call(ctx, watchCmd, driver.UseDefaultTimeout); err != nil {
				return err
			}
		}

		batch, empty := t.finalize()
		if empty {
			results = nil
			return nil
		}

		replies, err := c.middlewares.CallPipelined(ctx, batch.commands, c.cfg, func() ([]resp.Reply, error) {
			return conn.CallPipelined(ctx, batch.commands, batch.timeouts)
		})
		if err != nil {
			c.bestEffortUnwatch(ctx, conn, t)
			return err
		}

		execReply := replies[len(replies)-1]
		if execReply.IsNil() {
			results = nil
			return nil
		}
		results = execReply.Array
		for _, r := range results {
			if r.IsError() {
				c.bestEffortUnwatch(ctx, conn, t)
				return ParseCommandError(r.Err)
			}
		}
		return nil
	})
	return results, err
}

// bestEffortUnwatch issues UNWATCH on conn when the transaction declared
// watch keys and the connection is still usable; failures are logged, not
// propagated, since the caller's original error takes precedence.
func (c *Client) bestEffortUnwatch(ctx context.Context, conn *Connection, t *Transaction) {
	if !t.Watched() || !conn.Connected() {
		return
	}
	cmd, _ := resp.CoerceCommand("UNWATCH")
	if _, err := conn.Call(ctx, cmd, driver.UseDefaultTimeout); err != nil {
		c.logger.Debug("rdb: best-effort UNWATCH failed", "error", err)
	}
}

// PubSub transitions the owned Connection into a PubSub handle; the Client
// drops its reference (I3) and must reconnect on the next command.
func (c *Client) PubSub(ctx context.Context) (*PubSub, error) {
	var ps *PubSub
	err := c.ensureConnected(ctx, true, func(conn *Connection) error {
		ps = newPubSub(conn)
		c.conn = nil
		return nil
	})
	return ps, err
}

// Scan returns a restartable iterator over SCAN.
func (c *Client) Scan(ctx context.Context, match string, count int) *ScanIterator {
	return newScanIterator(ctx, c, scanTemplate{name: "SCAN", match: match, count: count})
}

// SScan returns a restartable iterator over SSCAN for the given set key.
func (c *Client) SScan(ctx context.Context, key, match string, count int) *ScanIterator {
	return newScanIterator(ctx, c, scanTemplate{name: "SSCAN", key: key, hasKey: true, match: match, count: count})
}

// HScan returns a restartable pair iterator over HSCAN for the given hash
// key.
func (c *Client) HScan(ctx context.Context, key, match string, count int) *PairScanIterator {
	return newPairScanIterator(ctx, c, scanTemplate{name: "HSCAN", key: key, hasKey: true, match: match, count: count})
}

// ZScan returns a restartable pair iterator over ZSCAN for the given sorted
// set key.
func (c *Client) ZScan(ctx context.Context, key, match string, count int) *PairScanIterator {
	return newPairScanIterator(ctx, c, scanTemplate{name: "ZSCAN", key: key, hasKey: true, match: match, count: count})
}

// ScanEach drives SCAN to completion, invoking fn for every key.
func (c *Client) ScanEach(ctx context.Context, match string, count int, fn func(elem []byte) error) error {
	return scanEach(ctx, c, scanTemplate{name: "SCAN", match: match, count: count}, fn)
}

// PairScanEach drives HSCAN to completion over key, invoking fn for every
// field/value pair.
func (c *Client) PairScanEach(ctx context.Context, key, match string, count int, fn func(k, v []byte) error) error {
	return pairScanEach(ctx, c, scanTemplate{name: "HSCAN", key: key, hasKey: true, match: match, count: count}, fn)
}

// scanCall implements scanCaller for the iterators above: every scan page
// request goes through Call (and therefore through the retry machinery and
// Middlewares) like any other command.
func (c *Client) scanCall(ctx context.Context, args ...any) (resp.Reply, error) {
	return c.Call(ctx, args...)
}

// Close closes and drops any live Connection. Idempotent.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Connected reports whether a live Connection exists and reports itself
// healthy.
func (c *Client) Connected() bool {
	return c.conn != nil && c.conn.Connected()
}

// Size always returns 1: a marker used by pooled wrappers; a plain Client
// represents a single logical connection.
func (c *Client) Size() int { return 1 }

// With yields the Client itself, so that callers can be written uniformly
// across pooled and unpooled usage.
func (c *Client) With(ctx context.Context, fn func(c *Client) error) error {
	return fn(c)
}

// SetTimeout sets all three timeouts to one value and, if a Connection is
// live, pushes the read/write timeouts to it immediately (the connect
// timeout affects only future opens).
func (c *Client) SetTimeout(d time.Duration) {
	c.connectTimeout, c.readTimeout, c.writeTimeout = d, d, d
	c.pushTimeouts()
}

// SetReadTimeout sets the read timeout and pushes it to a live Connection.
func (c *Client) SetReadTimeout(d time.Duration) {
	c.readTimeout = d
	c.pushTimeouts()
}

// SetWriteTimeout sets the write timeout and pushes it to a live
// Connection.
func (c *Client) SetWriteTimeout(d time.Duration) {
	c.writeTimeout = d
	c.pushTimeouts()
}

func (c *Client) pushTimeouts() {
	if c.conn == nil {
		return
	}
	c.conn.SetReadTimeout(c.readTimeout)
	c.conn.SetWriteTimeout(c.writeTimeout)
}

// ensureConnected implements the retry/reconnection state machine
// (Idle → Attempting → {Success, TransientFailure, FatalFailure}):
//
//   - If disableReconnection is set, the current Connection is used
//     verbatim and any error propagates (I2).
//   - Else if retryable, a Connection is obtained or opened and op is run
//     in a loop: on a connection-class error the Connection is torn down
//     and, if config.RetryConnecting permits, retried; otherwise the error
//     surfaces. Non-connection-class errors propagate immediately without
//     tearing down the Connection.
//   - Else (retryable == false), a Connection is first acquired through a
//     retryable nested call — so the initial open may still retry — then
//     disableReconnection is set for the duration of op, restored on exit.
//     A connection-class error from op tears the Connection down and
//     surfaces without a retry.
func (c *Client) ensureConnected(ctx context.Context, retryable bool, op func(conn *Connection) error) error {
	if c.disableReconnection {
		conn, err := c.currentConnection(ctx)
		if err != nil {
			return err
		}
		return op(conn)
	}

	if !retryable {
		conn, err := c.connectWithRetry(ctx)
		if err != nil {
			return err
		}
		prev := c.disableReconnection
		c.disableReconnection = true
		defer func() { c.disableReconnection = prev }()
		err = op(conn)
		if err == nil {
			c.stats.recordCall()
			return nil
		}
		if isConnectionClass(err) {
			c.teardown()
			c.stats.recordError()
		}
		return err
	}

	tries := 0
	for {
		conn, err := c.currentConnection(ctx)
		if err != nil {
			if !isConnectionClass(err) {
				return err
			}
			c.teardown()
			c.stats.recordError()
			if !c.cfg.RetryConnecting(tries, err) {
				return err
			}
			c.stats.recordRetry()
			tries++
			c.logger.Debug("rdb: retrying connection attempt", "tries", tries, "error", err)
			continue
		}

		err = op(conn)
		if err == nil {
			c.stats.recordCall()
			return nil
		}
		if !isConnectionClass(err) {
			return err
		}

		c.teardown()
		c.stats.recordError()
		if !c.cfg.RetryConnecting(tries, err) {
			return err
		}
		c.stats.recordRetry()
		tries++
		c.logger.Debug("rdb: retrying after connection error", "tries", tries, "error", err)
	}
}

// connectWithRetry obtains a Connection, retrying the initial open itself
// on a connection-class failure per config.RetryConnecting — so even a
// non-retryable operation's first connect attempt is governed by the
// config's retry policy (RetryConnecting) before disableReconnection is
// set for the operation itself.
func (c *Client) connectWithRetry(ctx context.Context) (*Connection, error) {
	tries := 0
	for {
		conn, err := c.currentConnection(ctx)
		if err == nil {
			return conn, nil
		}
		if !isConnectionClass(err) {
			return nil, err
		}
		c.teardown()
		c.stats.recordError()
		if !c.cfg.RetryConnecting(tries, err) {
			return nil, err
		}
		c.stats.recordRetry()
		tries++
		c.logger.Debug("rdb: retrying connection attempt", "tries", tries, "error", err)
	}
}

func (c *Client) teardown() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// currentConnection returns the live Connection, opening and priming one
// (via the prelude) if none exists.
func (c *Client) currentConnection(ctx context.Context) (*Connection, error) {
	if c.conn != nil {
		return c.conn, nil
	}

	drv, err := c.cfg.NewDriver(ctx, c.connectTimeout, c.readTimeout, c.writeTimeout)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, newConnectTimeoutError(err)
		}
		return nil, newConnectionError(err)
	}
	conn := newConnection(drv)

	if err := c.runPrelude(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	c.conn = conn
	return conn, nil
}

// toAnySlice adapts a []string to []any for variadic coercion helpers.
func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
