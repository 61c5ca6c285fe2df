package rdb

import (
	"context"

	"github.com/pior/rdb/resp"
)

// runPrelude issues the fixed opening exchange on a freshly dialed
// Connection as a single pipelined batch, bypassing Middlewares entirely:
// the config's static commands, CLIENT SETNAME if an id was set, and ROLE
// if the config is a high-availability discovery config. A ROLE reply that
// fails the config's check raises a FailoverError and the caller is
// expected to close and discard the Connection.
func (c *Client) runPrelude(ctx context.Context, conn *Connection) error {
	cmds := append([]*resp.Command{}, c.cfg.Prelude()...)

	if c.id != "" {
		setName, err := resp.CoerceCommand("CLIENT", "SETNAME", c.id)
		if err != nil {
			return err
		}
		cmds = append(cmds, setName)
	}

	checkingRole := c.cfg.IsSentinel()
	if checkingRole {
		role, err := resp.CoerceCommand("ROLE")
		if err != nil {
			return err
		}
		cmds = append(cmds, role)
	}

	if len(cmds) == 0 {
		return nil
	}

	replies, err := conn.CallPipelined(ctx, cmds, nil)
	if err != nil {
		return err
	}

	for _, reply := range replies {
		if reply.IsError() {
			return ParseCommandError(reply.Err)
		}
	}

	if checkingRole {
		roleReply := replies[len(replies)-1]
		if len(roleReply.Array) == 0 {
			return newFailoverError(errEmptyRoleReply)
		}
		reportedRole := roleReply.Array[0].Str
		if err := c.cfg.CheckRole(reportedRole); err != nil {
			return newFailoverError(err)
		}
	}

	return nil
}

var errEmptyRoleReply = &emptyRoleReplyError{}

type emptyRoleReplyError struct{}

func (e *emptyRoleReplyError) Error() string { return "rdb: ROLE reply was empty" }
