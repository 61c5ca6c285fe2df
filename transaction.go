package rdb

import (
	"time"

	"github.com/pior/rdb/resp"
)

// Transaction is a Pipeline pre-populated with MULTI and terminated with
// EXEC by the builder once the user callback returns. Its emptiness
// predicate is "contains only the framing pair" (size ≤ 2); its
// retryability additionally depends on whether an optimistic-lock key set
// (watch) was declared, since watched state cannot be replayed safely.
type Transaction struct {
	pipeline *Pipeline
	watch    []string
}

func newTransaction(watch []string) *Transaction {
	t := &Transaction{pipeline: newPipeline(), watch: watch}
	multi, _ := resp.CoerceCommand("MULTI")
	t.pipeline.batch.append(multi)
	return t
}

// Call appends a command to the transaction body.
func (t *Transaction) Call(args ...any) error { return t.pipeline.Call(args...) }

// CallOnce appends a command and marks the transaction non-retryable.
func (t *Transaction) CallOnce(args ...any) error { return t.pipeline.CallOnce(args...) }

// BlockingCall appends a command with a per-command timeout override.
func (t *Transaction) BlockingCall(timeout time.Duration, args ...any) error {
	return t.pipeline.BlockingCall(timeout, args...)
}

// Empty reports whether the user callback appended no commands beyond the
// MULTI framing (EXEC has not been appended yet at the point callers may
// observe this).
func (t *Transaction) Empty() bool { return t.pipeline.Size() <= 1 }

// Watched reports whether this transaction declared optimistic-lock keys.
func (t *Transaction) Watched() bool { return len(t.watch) > 0 }

// finalize appends EXEC and returns the underlying batch plus whether it
// was empty (only the MULTI/EXEC framing pair, size ≤ 2).
func (t *Transaction) finalize() (*Batch, bool) {
	exec, _ := resp.CoerceCommand("EXEC")
	t.pipeline.batch.append(exec)
	return t.pipeline.batch, t.pipeline.batch.Size() <= 2
}
