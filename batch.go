package rdb

import (
	"time"

	"github.com/pior/rdb/resp"
)

// Batch is an ordered buffer of Commands plus aggregate metadata: whether
// the whole batch is safe to replay on a new Connection after a
// connection-class failure, and any per-command timeout overrides.
type Batch struct {
	commands  []*resp.Command
	retryable bool
	timeouts  map[int]time.Duration
}

func newBatch() *Batch {
	return &Batch{retryable: true}
}

// Size returns the number of buffered commands.
func (b *Batch) Size() int { return len(b.commands) }

// Empty reports whether no commands have been buffered.
func (b *Batch) Empty() bool { return len(b.commands) == 0 }

// Retryable reports whether the whole batch may be replayed verbatim on a
// new Connection after a connection-class failure.
func (b *Batch) Retryable() bool { return b.retryable }

// Timeouts returns the sparse command-index → timeout override mapping; nil
// if no command in the batch overrode its timeout.
func (b *Batch) Timeouts() map[int]time.Duration { return b.timeouts }

func (b *Batch) append(cmd *resp.Command) int {
	b.commands = append(b.commands, cmd)
	return len(b.commands) - 1
}

// Pipeline is a Batch a caller populates inside Client.Pipelined.
type Pipeline struct {
	batch *Batch
}

func newPipeline() *Pipeline {
	return &Pipeline{batch: newBatch()}
}

// Call coerces args into a Command and appends it, leaving the pipeline's
// retryability unchanged.
func (p *Pipeline) Call(args ...any) error {
	cmd, err := resp.CoerceCommand(args...)
	if err != nil {
		return err
	}
	p.batch.append(cmd)
	return nil
}

// CallOnce coerces args into a Command, appends it, and marks the whole
// pipeline non-retryable: once any command was added this way, the
// pipeline as a whole may not be blindly replayed.
func (p *Pipeline) CallOnce(args ...any) error {
	cmd, err := resp.CoerceCommand(args...)
	if err != nil {
		return err
	}
	p.batch.append(cmd)
	p.batch.retryable = false
	return nil
}

// BlockingCall coerces args into a Command, appends it, and records timeout
// as that command's per-index read-timeout override.
func (p *Pipeline) BlockingCall(timeout time.Duration, args ...any) error {
	cmd, err := resp.CoerceCommand(args...)
	if err != nil {
		return err
	}
	idx := p.batch.append(cmd)
	if p.batch.timeouts == nil {
		p.batch.timeouts = make(map[int]time.Duration)
	}
	p.batch.timeouts[idx] = timeout
	return nil
}

// Size returns the number of buffered commands.
func (p *Pipeline) Size() int { return p.batch.Size() }

// Empty reports whether no commands have been buffered.
func (p *Pipeline) Empty() bool { return p.batch.Empty() }

// Retryable reports whether the pipeline may be replayed verbatim.
func (p *Pipeline) Retryable() bool { return p.batch.Retryable() }
