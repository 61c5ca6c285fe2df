package driver

import (
	"context"
	"time"

	"github.com/pior/rdb/resp"
)

// Driver is the contract the core engine depends on for all I/O: a single
// connection to the server, with per-call timeouts and the raw write/read
// primitives PubSub needs once it owns the connection exclusively.
//
// NetDriver is this package's concrete implementation; tests substitute
// internal/rdbtest.MockDriver, which satisfies the same interface without
// touching a socket.
type Driver interface {
	Call(ctx context.Context, cmd *resp.Command, timeout time.Duration) (resp.Reply, error)
	CallPipelined(ctx context.Context, cmds []*resp.Command, timeouts map[int]time.Duration) ([]resp.Reply, error)
	Write(ctx context.Context, cmd *resp.Command) error
	Read(ctx context.Context, timeout time.Duration) (resp.Reply, error)
	Close() error
	Connected() bool
	SetReadTimeout(time.Duration)
	SetWriteTimeout(time.Duration)
}

var _ Driver = (*NetDriver)(nil)
