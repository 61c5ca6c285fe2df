package rdb

import (
	"context"
	"errors"
	"time"

	"github.com/pior/rdb/resp"
)

// ErrPubSubClosed is returned by Call and NextEvent after Close. It is a
// *ConnectionError so that callers checking the connection-class taxonomy
// via errors.As recognize a closed PubSub the same way they'd recognize any
// other dead connection, not just callers who know to check this sentinel
// by name.
var ErrPubSubClosed = newConnectionError(errors.New("connection was closed or lost"))

// PubSub is a mode a Client hands its Connection off to: after the handoff
// the Client has no Connection and the PubSub owns it exclusively (I3).
// PubSub is not re-attachable to the Client it came from.
type PubSub struct {
	conn   *Connection
	closed bool
}

func newPubSub(conn *Connection) *PubSub {
	return &PubSub{conn: conn}
}

// Call writes a command (SUBSCRIBE, PSUBSCRIBE, UNSUBSCRIBE, ...) and
// returns immediately; the corresponding confirmation and any subsequent
// published messages arrive asynchronously via NextEvent.
func (p *PubSub) Call(ctx context.Context, args ...any) error {
	if p.closed {
		return ErrPubSubClosed
	}
	cmd, err := resp.CoerceCommand(args...)
	if err != nil {
		return err
	}
	return p.conn.Write(ctx, cmd)
}

// NextEvent reads the next pub/sub push. A read-timeout returns (nil, nil)
// rather than an error — the null-event sentinel callers poll on. Any other
// read failure is returned as a ConnectionError.
func (p *PubSub) NextEvent(ctx context.Context, timeout time.Duration) (*resp.Message, error) {
	if p.closed {
		return nil, ErrPubSubClosed
	}
	reply, err := p.conn.Read(ctx, timeout)
	if err != nil {
		var timeoutErr *ReadTimeoutError
		if errors.As(err, &timeoutErr) {
			return nil, nil
		}
		return nil, err
	}
	msg, err := resp.ParseMessage(reply)
	if err != nil {
		return nil, newConnectionError(err)
	}
	return msg, nil
}

// Close closes the underlying Connection. After Close, Call and NextEvent
// return ErrPubSubClosed.
func (p *PubSub) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.conn.Close()
}
