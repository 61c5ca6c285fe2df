// Package resp implements the Codec contract: building validated commands
// from user-supplied arguments and speaking RESP2 (the wire protocol used by
// Redis-family servers) to encode them and decode replies.
package resp

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrEmptyCommand is returned by CoerceCommand when the argument vector
// flattens down to zero tokens.
var ErrEmptyCommand = errors.New("resp: command has no arguments")

// Command is a validated, immutable argument vector ready to be written to
// the wire. It is produced exclusively by CoerceCommand.
type Command struct {
	args [][]byte
}

// Args returns the command's argument tokens. The returned slice must not be
// mutated by callers.
func (c *Command) Args() [][]byte { return c.args }

// Name returns the command's first token (e.g. "GET", "MULTI"), or "" for a
// zero-value Command.
func (c *Command) Name() string {
	if len(c.args) == 0 {
		return ""
	}
	return string(c.args[0])
}

// Len returns the number of argument tokens.
func (c *Command) Len() int { return len(c.args) }

// String renders the command for logs and error messages. It never includes
// more than the first few tokens, since values can be arbitrarily large
// binary blobs.
func (c *Command) String() string {
	if len(c.args) == 0 {
		return "<empty>"
	}
	s := string(c.args[0])
	for i := 1; i < len(c.args) && i < 3; i++ {
		s += " " + string(c.args[i])
	}
	if len(c.args) > 3 {
		s += " ..."
	}
	return s
}

// CoerceCommand validates and flattens a user-supplied argument vector into a
// Command. It is the Codec contract's coerce_command! operation.
//
// Accepted token types: string, []byte, fmt.Stringer, int, int64, uint64 and
// float64 (formatted with strconv), bool (sent as "1" or "0") and nil (sent
// as an empty token). Other numeric types, such as int32 or float32, are
// rejected. A []string argument is flattened in place, and a []any argument
// is flattened recursively, so callers can build variadic commands from a
// slice (e.g. CoerceCommand("MSET", pairs)).
//
// An empty result (no tokens after flattening) is rejected.
func CoerceCommand(args ...any) (*Command, error) {
	tokens := make([][]byte, 0, len(args))
	for _, a := range args {
		var err error
		tokens, err = appendToken(tokens, a)
		if err != nil {
			return nil, err
		}
	}
	if len(tokens) == 0 {
		return nil, ErrEmptyCommand
	}
	return &Command{args: tokens}, nil
}

func appendToken(tokens [][]byte, a any) ([][]byte, error) {
	switch v := a.(type) {
	case string:
		tokens = append(tokens, []byte(v))
	case []byte:
		tokens = append(tokens, v)
	case fmt.Stringer:
		tokens = append(tokens, []byte(v.String()))
	case []string:
		for _, s := range v {
			tokens = append(tokens, []byte(s))
		}
	case []any:
		for _, e := range v {
			var err error
			tokens, err = appendToken(tokens, e)
			if err != nil {
				return nil, err
			}
		}
	case int:
		tokens = append(tokens, strconv.AppendInt(nil, int64(v), 10))
	case int64:
		tokens = append(tokens, strconv.AppendInt(nil, v, 10))
	case uint64:
		tokens = append(tokens, strconv.AppendUint(nil, v, 10))
	case float64:
		tokens = append(tokens, strconv.AppendFloat(nil, v, 'f', -1, 64))
	case bool:
		if v {
			tokens = append(tokens, []byte("1"))
		} else {
			tokens = append(tokens, []byte("0"))
		}
	case nil:
		tokens = append(tokens, []byte{})
	default:
		return nil, fmt.Errorf("resp: unsupported argument type %T", a)
	}
	return tokens, nil
}
