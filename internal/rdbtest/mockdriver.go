// Package rdbtest provides a scriptable Driver double used by the core
// engine's own tests, mirroring the teacher's internal/testutils connection
// double: the tests that exercise retry, reconnection and pipelining drive
// this mock rather than a real socket.
package rdbtest

import (
	"context"
	"sync"
	"time"

	"github.com/pior/rdb/driver"
	"github.com/pior/rdb/resp"
)

var _ driver.Driver = (*MockDriver)(nil)

// Call records one Call/CallPipelined/Write invocation the mock observed,
// for assertions like "the driver saw exactly one command". Read is not
// recorded.
type Call struct {
	Pipelined bool
	Commands  []*resp.Command
}

// MockDriver is a scriptable Driver: callers queue up replies (or errors) to
// return, and MockDriver hands them out in order as the engine calls Call,
// CallPipelined, Write, and Read. It never touches a network.
type MockDriver struct {
	mu sync.Mutex

	script []scriptedStep
	pos    int

	calls  []Call
	closed bool

	readTimeout  time.Duration
	writeTimeout time.Duration
}

type scriptedStep struct {
	reply  resp.Reply
	replies []resp.Reply
	err    error
}

// NewMockDriver returns a MockDriver with an empty script; use QueueReply /
// QueueReplies / QueueError to program its responses before handing it to a
// Client under test.
func NewMockDriver() *MockDriver {
	return &MockDriver{}
}

// QueueReply schedules reply as the result of the next Call or Read.
func (m *MockDriver) QueueReply(reply resp.Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptedStep{reply: reply})
}

// QueueReplies schedules replies as the result of the next CallPipelined.
func (m *MockDriver) QueueReplies(replies ...resp.Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptedStep{replies: replies})
}

// QueueError schedules err as the result of the next Call, CallPipelined, or
// Read.
func (m *MockDriver) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptedStep{err: err})
}

// Calls returns every invocation the mock has observed so far, in order.
func (m *MockDriver) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Call/CallPipelined/Write invocations
// observed.
func (m *MockDriver) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MockDriver) next() (scriptedStep, error) {
	if m.pos >= len(m.script) {
		return scriptedStep{}, errScriptExhausted
	}
	step := m.script[m.pos]
	m.pos++
	return step, nil
}

func (m *MockDriver) Call(ctx context.Context, cmd *resp.Command, timeout time.Duration) (resp.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Commands: []*resp.Command{cmd}})

	step, err := m.next()
	if err != nil {
		return resp.Reply{}, err
	}
	if step.err != nil {
		return resp.Reply{}, step.err
	}
	return step.reply, nil
}

func (m *MockDriver) CallPipelined(ctx context.Context, cmds []*resp.Command, timeouts map[int]time.Duration) ([]resp.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(cmds) == 0 {
		return nil, nil
	}

	m.calls = append(m.calls, Call{Pipelined: true, Commands: cmds})

	step, err := m.next()
	if err != nil {
		return nil, err
	}
	if step.err != nil {
		return nil, step.err
	}
	return step.replies, nil
}

func (m *MockDriver) Write(ctx context.Context, cmd *resp.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Commands: []*resp.Command{cmd}})
	return nil
}

func (m *MockDriver) Read(ctx context.Context, timeout time.Duration) (resp.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	step, err := m.next()
	if err != nil {
		return resp.Reply{}, err
	}
	if step.err != nil {
		return resp.Reply{}, step.err
	}
	return step.reply, nil
}

func (m *MockDriver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockDriver) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

func (m *MockDriver) SetReadTimeout(timeout time.Duration)  { m.readTimeout = timeout }
func (m *MockDriver) SetWriteTimeout(timeout time.Duration) { m.writeTimeout = timeout }

var errScriptExhausted = &scriptExhaustedError{}

type scriptExhaustedError struct{}

func (e *scriptExhaustedError) Error() string              { return "rdbtest: mock driver script exhausted" }
func (e *scriptExhaustedError) ShouldCloseConnection() bool { return true }
