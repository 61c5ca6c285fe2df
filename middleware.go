package rdb

import (
	"context"

	"github.com/pior/rdb/config"
	"github.com/pior/rdb/resp"
)

// Middleware decorates command and pipeline execution. Implementations call
// next exactly once (to forward the call down the chain) or not at all (to
// short-circuit it), and may inspect or transform the result.
type Middleware interface {
	Call(ctx context.Context, cmd *resp.Command, cfg config.Config, next func() (resp.Reply, error)) (resp.Reply, error)
	CallPipelined(ctx context.Context, cmds []*resp.Command, cfg config.Config, next func() ([]resp.Reply, error)) ([]resp.Reply, error)
}

// Middlewares is an ordered, registration-time-extensible chain of
// Middleware. It is a process-wide collaborator by default (see
// DefaultMiddlewares) but is always injected into a Client explicitly,
// never reached for through a hidden global inside the state machine.
type Middlewares struct {
	chain []Middleware
}

// NewMiddlewares returns an empty Middlewares registry.
func NewMiddlewares() *Middlewares {
	return &Middlewares{}
}

// Register appends mw to the chain. Registration is expected at startup,
// not concurrently with in-flight commands.
func (m *Middlewares) Register(mw Middleware) {
	m.chain = append(m.chain, mw)
}

// Call runs cmd through every registered Middleware, innermost call last,
// then invokes terminal as the bottom of the chain.
func (m *Middlewares) Call(ctx context.Context, cmd *resp.Command, cfg config.Config, terminal func() (resp.Reply, error)) (resp.Reply, error) {
	next := terminal
	for i := len(m.chain) - 1; i >= 0; i-- {
		mw, n := m.chain[i], next
		next = func() (resp.Reply, error) { return mw.Call(ctx, cmd, cfg, n) }
	}
	return next()
}

// CallPipelined runs cmds through every registered Middleware the same way
// Call does for a single command.
func (m *Middlewares) CallPipelined(ctx context.Context, cmds []*resp.Command, cfg config.Config, terminal func() ([]resp.Reply, error)) ([]resp.Reply, error) {
	next := terminal
	for i := len(m.chain) - 1; i >= 0; i-- {
		mw, n := m.chain[i], next
		next = func() ([]resp.Reply, error) { return mw.CallPipelined(ctx, cmds, cfg, n) }
	}
	return next()
}

// DefaultMiddlewares is the process-wide registry a Client falls back to
// when constructed without WithMiddlewares. Register plug-ins against it at
// startup; it is never mutated mid-command by this package.
var DefaultMiddlewares = NewMiddlewares()
