// Package driver implements the Driver contract against a real net.Conn:
// dialing, per-call read/write deadlines, pipelined flush/read, and the raw
// write/read pair PubSub needs once it detaches from the retry machinery.
package driver

import (
	"bufio"
	"context"
	"errors"
	"math"
	"net"
	"sync"
	"time"

	"github.com/pior/rdb/resp"
)

// ErrClosed is returned by any operation attempted after Close.
var ErrClosed = errors.New("driver: connection closed")

// UseDefaultTimeout is the Call sentinel meaning "no per-call override —
// use the driver's configured default read timeout." It has to be
// distinct from every real timeout value a caller might pass, including
// zero and negative ones: those are BlockingCall's own "wait forever"
// request and must reach applyReadDeadline unchanged, not be replaced by
// the default.
const UseDefaultTimeout time.Duration = math.MinInt64

// NetDriver is a net.Conn-backed Driver. It owns exactly one TCP connection
// and is not safe for concurrent use, matching the single-flight-per-Client
// model described by the core's concurrency model: callers serialize their
// own access.
type NetDriver struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer

	mu           sync.Mutex
	closed       bool
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Dial opens a new NetDriver against addr, using dialer and connectTimeout
// for the TCP handshake and readTimeout/writeTimeout as the default
// per-operation deadlines.
func Dial(ctx context.Context, dialer *net.Dialer, addr string, connectTimeout, readTimeout, writeTimeout time.Duration) (*NetDriver, error) {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	dialCtx := ctx
	if connectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, connectTimeout)
		defer cancel()
	}

	conn, err := dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	return &NetDriver{
		conn:         conn,
		r:            bufio.NewReader(conn),
		w:            bufio.NewWriter(conn),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}, nil
}

// Call writes cmd and reads back exactly one reply, applying timeout as the
// read deadline. Pass UseDefaultTimeout for "use the driver's configured
// default read timeout"; any other value, including zero or negative, is
// used as given — zero or negative disables the deadline entirely (blocks
// forever), matching BlockingCall's "zero or negative means wait forever"
// contract. The write half always uses the driver's configured write
// timeout since a write is never meant to block for the caller's data.
func (d *NetDriver) Call(ctx context.Context, cmd *resp.Command, timeout time.Duration) (resp.Reply, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return resp.Reply{}, ErrClosed
	}

	if err := d.applyWriteDeadline(ctx, d.writeTimeout); err != nil {
		return resp.Reply{}, classifyWriteError(err)
	}
	if err := resp.WriteCommand(d.w, cmd); err != nil {
		return resp.Reply{}, classifyWriteError(err)
	}

	readTimeout := d.readTimeout
	if timeout != UseDefaultTimeout {
		readTimeout = timeout
	}
	if err := d.applyReadDeadline(ctx, readTimeout); err != nil {
		return resp.Reply{}, classifyReadError(err)
	}

	reply, err := resp.ReadReply(d.r)
	if err != nil {
		return resp.Reply{}, classifyReadError(err)
	}
	return reply, nil
}

// CallPipelined writes every command in cmds back to back, flushes once,
// then reads back len(cmds) replies in order. timeouts, if non-nil, maps a
// command index to a per-command read deadline override.
func (d *NetDriver) CallPipelined(ctx context.Context, cmds []*resp.Command, timeouts map[int]time.Duration) ([]resp.Reply, error) {
	if len(cmds) == 0 {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	if err := d.applyWriteDeadline(ctx, d.writeTimeout); err != nil {
		return nil, classifyWriteError(err)
	}
	for _, cmd := range cmds {
		if err := resp.WriteCommandNoFlush(d.w, cmd); err != nil {
			return nil, classifyWriteError(err)
		}
	}
	if err := d.w.Flush(); err != nil {
		return nil, classifyWriteError(err)
	}

	replies := make([]resp.Reply, len(cmds))
	for i := range cmds {
		readTimeout := d.readTimeout
		if to, ok := timeouts[i]; ok {
			readTimeout = to
		}
		if err := d.applyReadDeadline(ctx, readTimeout); err != nil {
			return nil, classifyReadError(err)
		}
		reply, err := resp.ReadReply(d.r)
		if err != nil {
			return nil, classifyReadError(err)
		}
		replies[i] = reply
	}
	return replies, nil
}

// Write sends cmd without reading a reply, for PubSub's fire-and-forget
// SUBSCRIBE/PSUBSCRIBE/UNSUBSCRIBE framing.
func (d *NetDriver) Write(ctx context.Context, cmd *resp.Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if err := d.applyWriteDeadline(ctx, d.writeTimeout); err != nil {
		return classifyWriteError(err)
	}
	if err := resp.WriteCommand(d.w, cmd); err != nil {
		return classifyWriteError(err)
	}
	return nil
}

// Read reads one reply without writing a command first, for PubSub's
// asynchronously arriving messages. A zero or negative timeout blocks
// forever.
func (d *NetDriver) Read(ctx context.Context, timeout time.Duration) (resp.Reply, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return resp.Reply{}, ErrClosed
	}
	if err := d.applyReadDeadline(ctx, timeout); err != nil {
		return resp.Reply{}, classifyReadError(err)
	}
	reply, err := resp.ReadReply(d.r)
	if err != nil {
		return resp.Reply{}, classifyReadError(err)
	}
	return reply, nil
}

// Close closes the underlying connection. Idempotent.
func (d *NetDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.conn.Close()
}

// Connected reports whether Close has not been called. It does not perform
// a liveness probe against the server.
func (d *NetDriver) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed
}

// SetReadTimeout updates the default read deadline used by future calls.
func (d *NetDriver) SetReadTimeout(timeout time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readTimeout = timeout
}

// SetWriteTimeout updates the default write deadline used by future calls.
func (d *NetDriver) SetWriteTimeout(timeout time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeTimeout = timeout
}

func (d *NetDriver) applyWriteDeadline(ctx context.Context, timeout time.Duration) error {
	return d.applyDeadline(ctx, timeout, d.conn.SetWriteDeadline)
}

func (d *NetDriver) applyReadDeadline(ctx context.Context, timeout time.Duration) error {
	return d.applyDeadline(ctx, timeout, d.conn.SetReadDeadline)
}

// applyDeadline combines a per-call timeout (0 or negative means "no
// deadline from this source") with the context's deadline, if any, and
// applies whichever is sooner.
func (d *NetDriver) applyDeadline(ctx context.Context, timeout time.Duration, set func(time.Time) error) error {
	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok {
		if deadline.IsZero() || ctxDeadline.Before(deadline) {
			deadline = ctxDeadline
		}
	}
	return set(deadline)
}

// classifyReadError wraps a raw I/O error from the read half of a call as a
// resp-level error so that ShouldCloseConnection sees it consistently,
// whether it came from the network (net.Error) or from resp's own framing
// parser (*resp.ParseError, already conforms).
func classifyReadError(err error) error {
	if _, ok := err.(*resp.ParseError); ok {
		return err
	}
	return &readError{err: err}
}

type readError struct{ err error }

func (e *readError) Error() string              { return "driver: read failed: " + e.err.Error() }
func (e *readError) Unwrap() error               { return e.err }
func (e *readError) ShouldCloseConnection() bool { return true }

var _ error = (*readError)(nil)

// classifyWriteError wraps a raw I/O error from the write half of a call
// (setting the write deadline, or the write itself) as a resp-level error.
// WriteError is a distinct type from readError so that rdb's classifyError
// can tell a write-phase deadline failure apart from a read-phase one and
// raise the matching WriteTimeoutError/ReadTimeoutError.
func classifyWriteError(err error) error {
	return NewWriteError(err)
}

// WriteError wraps a failure writing a command or its deadline. Exported so
// callers outside this package can distinguish a write-phase failure from a
// read-phase one via errors.As, the same way they'd distinguish any other
// typed error in this taxonomy.
type WriteError struct{ err error }

// NewWriteError wraps err as a write-phase failure, the same way Call does
// internally.
func NewWriteError(err error) *WriteError {
	return &WriteError{err: err}
}

func (e *WriteError) Error() string              { return "driver: write failed: " + e.err.Error() }
func (e *WriteError) Unwrap() error               { return e.err }
func (e *WriteError) ShouldCloseConnection() bool { return true }

var _ error = (*WriteError)(nil)
