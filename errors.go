package rdb

import (
	"errors"

	"github.com/pior/rdb/driver"
	"github.com/pior/rdb/resp"
)

// Error is the marker interface implemented by every error type in this
// package's taxonomy, so callers can distinguish "an rdb error" from an
// arbitrary error bubbling up from elsewhere with a single type switch or
// an errors.As check against this interface.
type Error interface {
	error
	rdbError()
}

type baseError struct{ msg string }

func (e *baseError) Error() string { return e.msg }
func (e *baseError) rdbError()     {}

// connectionClass is embedded by every connection-layer error (the
// ConnectionError family). It is what the retry state machine's
// isConnectionClass check looks for via errors.As: embedding, rather than a
// type switch over every concrete subtype, is what lets ReadTimeoutError,
// ConnectTimeoutError, FailoverError, and so on all satisfy the same check
// that ConnectionError itself does.
type connectionClass struct {
	baseError
	Err error
}

func (e *connectionClass) Unwrap() error       { return e.Err }
func (e *connectionClass) isConnectionClass() {}

type connectionClassError interface {
	error
	isConnectionClass()
}

// ConnectionError is a transport-layer failure: the Connection is no longer
// trustworthy and must be torn down. Retried per the config's retry oracle
// when the operation is retryable.
type ConnectionError struct{ connectionClass }

func newConnectionError(err error) *ConnectionError {
	return &ConnectionError{connectionClass{
		baseError: baseError{msg: "rdb: connection error: " + err.Error()}, Err: err,
	}}
}

// FailoverError reports that a freshly connected node failed the
// configuration's high-availability role check (e.g. a replica answered
// when a primary was required).
type FailoverError struct{ connectionClass }

func newFailoverError(err error) *FailoverError {
	return &FailoverError{connectionClass{
		baseError: baseError{msg: "rdb: failover: " + err.Error()}, Err: err,
	}}
}

// TimeoutError reports that an operation's deadline expired.
type TimeoutError struct{ connectionClass }

// ReadTimeoutError reports that reading a reply exceeded its deadline. Since
// no bytes were consumed for that reply, the Connection's framing is
// corrupt and it must be closed; ReadTimeoutError is therefore treated as a
// connection-class failure and may trigger a retry.
type ReadTimeoutError struct{ TimeoutError }

func newReadTimeoutError(err error) *ReadTimeoutError {
	return &ReadTimeoutError{TimeoutError{connectionClass{
		baseError: baseError{msg: "rdb: read timeout: " + err.Error()}, Err: err,
	}}}
}

// WriteTimeoutError reports that writing a command exceeded its deadline.
type WriteTimeoutError struct{ TimeoutError }

func newWriteTimeoutError(err error) *WriteTimeoutError {
	return &WriteTimeoutError{TimeoutError{connectionClass{
		baseError: baseError{msg: "rdb: write timeout: " + err.Error()}, Err: err,
	}}}
}

// ConnectTimeoutError reports that opening a new Connection exceeded its
// deadline.
type ConnectTimeoutError struct{ TimeoutError }

func newConnectTimeoutError(err error) *ConnectTimeoutError {
	return &ConnectTimeoutError{TimeoutError{connectionClass{
		baseError: baseError{msg: "rdb: connect timeout: " + err.Error()}, Err: err,
	}}}
}

// CheckoutTimeoutError is reserved for a future pooled wrapper around
// Client: it completes the taxonomy so such a wrapper can raise it without
// adding a new root type, but this repository owns no pool and never
// raises it itself.
type CheckoutTimeoutError struct{ ConnectTimeoutError }

// CommandError is a server-reported logical error carried in a reply (as
// opposed to a transport failure). ParseCommandError dispatches on the
// reply's leading code to produce a more specific subtype when one is
// registered.
type CommandError struct {
	baseError
	Code    string
	Message string
}

// AuthenticationError corresponds to the server code WRONGPASS.
type AuthenticationError struct{ CommandError }

// PermissionError corresponds to the server code NOPERM.
type PermissionError struct{ CommandError }

var commandErrorRegistry = map[string]func(serverErr *resp.ServerError) Error{
	"WRONGPASS": func(e *resp.ServerError) Error {
		return &AuthenticationError{CommandError{
			baseError: baseError{msg: e.Error()}, Code: e.Code, Message: e.Message,
		}}
	},
	"NOPERM": func(e *resp.ServerError) Error {
		return &PermissionError{CommandError{
			baseError: baseError{msg: e.Error()}, Code: e.Code, Message: e.Message,
		}}
	},
}

// RegisterCommandError extends the registry ParseCommandError consults.
// Registration is expected at package init time, not concurrently with
// in-flight commands.
func RegisterCommandError(code string, ctor func(serverErr *resp.ServerError) Error) {
	commandErrorRegistry[code] = ctor
}

// ParseCommandError builds the most specific CommandError subtype
// registered for serverErr's code, falling back to the base CommandError
// when the code is unrecognized.
func ParseCommandError(serverErr *resp.ServerError) Error {
	if ctor, ok := commandErrorRegistry[serverErr.Code]; ok {
		return ctor(serverErr)
	}
	return &CommandError{
		baseError: baseError{msg: serverErr.Error()}, Code: serverErr.Code, Message: serverErr.Message,
	}
}

// classifyError turns a raw error surfaced from driver/resp into the rdb
// taxonomy. resp.ShouldCloseConnection decides whether err is connection-class
// at all; anything it says isn't (returned unmodified) is left for the
// caller to inspect instead of being wrapped into the taxonomy. For an err
// that is connection-class, a deadline-related cause becomes a
// WriteTimeoutError or ReadTimeoutError depending on which phase produced
// it; everything else becomes a plain ConnectionError.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if !resp.ShouldCloseConnection(err) {
		return err
	}

	var netErr interface{ Timeout() bool }
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		return newConnectionError(err)
	}

	var writeErr *driver.WriteError
	if errors.As(err, &writeErr) {
		return newWriteTimeoutError(err)
	}
	return newReadTimeoutError(err)
}

// isConnectionClass reports whether err should trigger the retry
// machinery's teardown-and-retry path: true for ConnectionError and every
// type that embeds its connectionClass marker (FailoverError,
// TimeoutError, ReadTimeoutError, WriteTimeoutError, ConnectTimeoutError,
// CheckoutTimeoutError).
func isConnectionClass(err error) bool {
	var connErr connectionClassError
	return errors.As(err, &connErr)
}
