package config

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/pior/rdb/driver"
	"github.com/pior/rdb/resp"
)

// sentinelConfig is the high-availability discovery Config variant: instead
// of a fixed address it holds a list of sentinel addresses to query for the
// current primary, and enforces the discovered node's ROLE on every new
// connection via CheckRole.
type sentinelConfig struct {
	staticConfig
	sentinels  []string
	masterName string
	wantRole   string
}

// SentinelOption configures a Config built by NewSentinel.
type SentinelOption func(*sentinelConfig)

// WithSentinelID, WithSentinelAuth, WithSentinelDB, WithSentinelDialer and
// WithSentinelTimeouts mirror the plain Option constructors but apply to a
// sentinel-discovered Config.
func WithSentinelID(id string) SentinelOption {
	return func(c *sentinelConfig) { c.id = id }
}

func WithSentinelAuth(username, password string) SentinelOption {
	return func(c *sentinelConfig) { c.username, c.auth = username, password }
}

func WithSentinelDB(db int) SentinelOption {
	return func(c *sentinelConfig) { c.db = db }
}

func WithSentinelDialer(d *net.Dialer) SentinelOption {
	return func(c *sentinelConfig) { c.dialer = d }
}

func WithSentinelTimeouts(connect, read, write time.Duration) SentinelOption {
	return func(c *sentinelConfig) {
		c.connectTimeout, c.readTimeout, c.writeTimeout = connect, read, write
	}
}

func WithSentinelMaxRetries(n int) SentinelOption {
	return func(c *sentinelConfig) { c.maxRetries = n }
}

// WithReplica requests a replica node instead of the primary: CheckRole then
// expects "slave" rather than "master".
func WithReplica() SentinelOption {
	return func(c *sentinelConfig) { c.wantRole = "slave" }
}

// NewSentinel builds a Config that discovers its target address by querying
// one of sentinelAddrs for masterName's current primary (or a replica, with
// WithReplica) before every new connection, and verifies the discovered
// node's ROLE on connect so a stale or mid-failover address is rejected
// rather than silently used.
func NewSentinel(sentinelAddrs []string, masterName string, opts ...SentinelOption) Config {
	c := &sentinelConfig{
		staticConfig: staticConfig{
			dialer:         &net.Dialer{},
			connectTimeout: 5 * time.Second,
			readTimeout:    3 * time.Second,
			writeTimeout:   3 * time.Second,
			maxRetries:     3,
		},
		sentinels:  sentinelAddrs,
		masterName: masterName,
		wantRole:   "master",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *sentinelConfig) IsSentinel() bool { return true }

// NewDriver queries the sentinels for the current address of masterName (or
// a replica), then dials it directly; the ROLE check happens afterward, in
// the core's prelude, via CheckRole.
func (c *sentinelConfig) NewDriver(ctx context.Context, connectTimeout, readTimeout, writeTimeout time.Duration) (driver.Driver, error) {
	addr, err := c.discover(ctx)
	if err != nil {
		return nil, err
	}
	return driver.Dial(ctx, c.dialer, addr, connectTimeout, readTimeout, writeTimeout)
}

// discover asks each configured sentinel in turn for masterName's address
// (or a replica's), returning the first one that answers.
func (c *sentinelConfig) discover(ctx context.Context) (string, error) {
	var lastErr error
	for _, sentinelAddr := range c.sentinels {
		addr, err := c.askSentinel(ctx, sentinelAddr)
		if err == nil {
			return addr, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("config: no sentinel reachable for %q: %w", c.masterName, lastErr)
}

func (c *sentinelConfig) askSentinel(ctx context.Context, sentinelAddr string) (string, error) {
	d, err := driver.Dial(ctx, c.dialer, sentinelAddr, c.connectTimeout, c.readTimeout, c.writeTimeout)
	if err != nil {
		return "", err
	}
	defer d.Close()

	var cmd *resp.Command
	if c.wantRole == "slave" {
		cmd, _ = resp.CoerceCommand("SENTINEL", "slaves", c.masterName)
	} else {
		cmd, _ = resp.CoerceCommand("SENTINEL", "get-master-addr-by-name", c.masterName)
	}

	reply, err := d.Call(ctx, cmd, c.readTimeout)
	if err != nil {
		return "", err
	}
	if reply.IsError() {
		return "", reply.Err
	}

	if c.wantRole == "slave" {
		return firstReplicaAddr(reply)
	}
	return masterAddrFromReply(reply)
}

func masterAddrFromReply(reply resp.Reply) (string, error) {
	if reply.IsNil() || len(reply.Array) != 2 {
		return "", fmt.Errorf("config: sentinel returned no address for master")
	}
	return net.JoinHostPort(reply.Array[0].Str, reply.Array[1].Str), nil
}

// firstReplicaAddr picks the first replica from SENTINEL slaves' array of
// flattened field/value arrays, reading the "ip" and "port" fields out.
func firstReplicaAddr(reply resp.Reply) (string, error) {
	if reply.IsNil() || len(reply.Array) == 0 {
		return "", fmt.Errorf("config: sentinel reported no replicas")
	}
	fields := reply.Array[0].Array
	var ip, port string
	for i := 0; i+1 < len(fields); i += 2 {
		switch strings.ToLower(fields[i].Str) {
		case "ip":
			ip = fields[i+1].Str
		case "port":
			port = fields[i+1].Str
		}
	}
	if ip == "" || port == "" {
		return "", fmt.Errorf("config: sentinel replica entry missing ip/port")
	}
	return net.JoinHostPort(ip, port), nil
}

// CheckRole enforces that the node this Config just connected to reports the
// expected ROLE, rejecting a connection made mid-failover to a node that
// hasn't caught up with the sentinel's view yet.
func (c *sentinelConfig) CheckRole(role string) error {
	if !strings.EqualFold(role, c.wantRole) {
		return fmt.Errorf("%w: want %q, got %q", ErrFailover, c.wantRole, role)
	}
	return nil
}
