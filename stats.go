package rdb

import "sync/atomic"

// stats holds a Client's atomic call/retry/error counters.
type stats struct {
	calls   uint64
	retries uint64
	errors  uint64
}

func (s *stats) recordCall()  { atomic.AddUint64(&s.calls, 1) }
func (s *stats) recordRetry() { atomic.AddUint64(&s.retries, 1) }
func (s *stats) recordError() { atomic.AddUint64(&s.errors, 1) }

// Calls returns the number of operations that ultimately succeeded.
func (s *stats) Calls() uint64 { return atomic.LoadUint64(&s.calls) }

// Retries returns the number of reconnection attempts made.
func (s *stats) Retries() uint64 { return atomic.LoadUint64(&s.retries) }

// Errors returns the number of connection-class failures observed.
func (s *stats) Errors() uint64 { return atomic.LoadUint64(&s.errors) }

// Stats returns a snapshot of this Client's call/retry/error counters.
func (c *Client) Stats() (calls, retries, errors uint64) {
	return c.stats.Calls(), c.stats.Retries(), c.stats.Errors()
}
