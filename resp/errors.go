package resp

import (
	"errors"
	"fmt"
)

// ErrorWithConnectionState is implemented by every wire-level error so that
// callers can decide, without a type switch, whether the connection that
// produced the error is still safe to reuse.
//
// Mirrors the error taxonomy used by text-based key/value wire protocols:
// a parse failure leaves the stream's framing undefined and the connection
// must be closed, while a reply that merely carries a server-side logical
// error (wrong number of arguments, wrong type, ...) leaves the stream
// intact and the connection can be reused.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ParseError indicates the client failed to parse a server reply: a
// malformed type byte, a bulk string whose length prefix didn't match its
// trailing CRLF, or an unexpected EOF mid-reply. The connection's framing is
// no longer trustworthy and must be closed.
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resp: parse error: %s: %v", e.Message, e.Err)
	}
	return "resp: parse error: " + e.Message
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) ShouldCloseConnection() bool { return true }

// ShouldCloseConnection reports whether err, if non-nil, indicates the
// connection it came from must be closed rather than reused. Unrecognized
// error types are treated conservatively (close).
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}
	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}
	return true
}
