package rdb

import (
	"context"
	"time"

	"github.com/pior/rdb/driver"
	"github.com/pior/rdb/resp"
)

// Connection is a one-shot handle over a driver.Driver: single-command,
// pipelined, and raw read/write operations with per-call timeout overrides.
// A Client owns at most one live Connection at a time (invariant I1).
type Connection struct {
	drv driver.Driver
}

func newConnection(drv driver.Driver) *Connection {
	return &Connection{drv: drv}
}

// Call sends cmd and returns its decoded reply. driver.UseDefaultTimeout
// defers to the Driver's configured default; any other value, including
// zero or negative, is used as given (zero or negative means "wait
// forever").
func (c *Connection) Call(ctx context.Context, cmd *resp.Command, timeout time.Duration) (resp.Reply, error) {
	reply, err := c.drv.Call(ctx, cmd, timeout)
	if err != nil {
		return resp.Reply{}, classifyError(err)
	}
	return reply, nil
}

// CallPipelined sends cmds back to back and reads len(cmds) replies back in
// order, applying any per-index timeout override.
func (c *Connection) CallPipelined(ctx context.Context, cmds []*resp.Command, timeouts map[int]time.Duration) ([]resp.Reply, error) {
	replies, err := c.drv.CallPipelined(ctx, cmds, timeouts)
	if err != nil {
		return nil, classifyError(err)
	}
	return replies, nil
}

// Write sends cmd without reading a reply, for PubSub's fire-and-forget
// subscribe/unsubscribe framing.
func (c *Connection) Write(ctx context.Context, cmd *resp.Command) error {
	if err := c.drv.Write(ctx, cmd); err != nil {
		return classifyError(err)
	}
	return nil
}

// Read reads the next reply without writing a command first, for PubSub's
// asynchronously arriving events. A zero or negative timeout blocks
// forever.
func (c *Connection) Read(ctx context.Context, timeout time.Duration) (resp.Reply, error) {
	reply, err := c.drv.Read(ctx, timeout)
	if err != nil {
		return resp.Reply{}, classifyError(err)
	}
	return reply, nil
}

// Close closes the underlying Driver.
func (c *Connection) Close() error {
	return c.drv.Close()
}

// Connected reports whether the underlying Driver still considers itself
// open.
func (c *Connection) Connected() bool {
	return c.drv.Connected()
}

// SetReadTimeout pushes a new default read timeout to the live Driver.
func (c *Connection) SetReadTimeout(timeout time.Duration) {
	c.drv.SetReadTimeout(timeout)
}

// SetWriteTimeout pushes a new default write timeout to the live Driver.
func (c *Connection) SetWriteTimeout(timeout time.Duration) {
	c.drv.SetWriteTimeout(timeout)
}
