package rdb

import (
	"context"

	"github.com/pior/rdb/resp"
)

const scanDone = "0"

var errMalformedScanReply = &malformedScanReplyError{}

type malformedScanReplyError struct{}

func (e *malformedScanReplyError) Error() string {
	return "rdb: scan reply did not have the [cursor, elements] shape"
}

// scanTemplate describes how to build and advance a cursor-paginated scan
// command: the fixed command name, any key argument before the cursor
// (SSCAN/HSCAN/ZSCAN), and the cursor's position within the argument
// vector (position 1 for SCAN, position 2 for the keyed variants).
type scanTemplate struct {
	name   string
	key    string
	hasKey bool
	match  string
	count  int
}

func (t scanTemplate) build(cursor string) []any {
	args := []any{t.name}
	if t.hasKey {
		args = append(args, t.key)
	}
	args = append(args, cursor)
	if t.match != "" {
		args = append(args, "MATCH", t.match)
	}
	if t.count > 0 {
		args = append(args, "COUNT", t.count)
	}
	return args
}

type scanCaller interface {
	scanCall(ctx context.Context, args ...any) (resp.Reply, error)
}

// ScanIterator lazily walks a list-scan (SCAN, SSCAN): each page yields a
// flat run of elements. It is restartable: a fresh Client.Scan/SScan call
// always starts a new iterator from cursor zero.
type ScanIterator struct {
	client   scanCaller
	ctx      context.Context
	template scanTemplate

	page    []resp.Reply
	pos     int
	cursor  string
	started bool
	done    bool
	err     error
	elem    []byte
}

func newScanIterator(ctx context.Context, c scanCaller, t scanTemplate) *ScanIterator {
	return &ScanIterator{client: c, ctx: ctx, template: t, cursor: scanDone}
}

// Next advances to the next element, fetching additional pages from the
// server as needed. It returns false when iteration is exhausted or an
// error occurred (see Err).
func (it *ScanIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for {
		if it.pos < len(it.page) {
			it.elem = it.page[it.pos].Bytes()
			it.pos++
			return true
		}
		if it.started && it.cursor == scanDone {
			return false
		}
		if it.done {
			return false
		}
		if !it.fetch() {
			return false
		}
	}
}

func (it *ScanIterator) fetch() bool {
	cursor := scanDone
	if it.started {
		cursor = it.cursor
	}
	it.started = true

	reply, err := it.client.scanCall(it.ctx, it.template.build(cursor)...)
	if err != nil {
		it.err = err
		return false
	}
	if len(reply.Array) != 2 {
		it.err = errMalformedScanReply
		return false
	}
	it.cursor = reply.Array[0].Str
	it.page = reply.Array[1].Array
	it.pos = 0
	if it.cursor == scanDone {
		it.done = true
	}
	return true
}

// Err returns the first error encountered while scanning, if any.
func (it *ScanIterator) Err() error { return it.err }

// Elem returns the element Next most recently advanced to.
func (it *ScanIterator) Elem() []byte { return it.elem }

// PairScanIterator lazily walks a pair-scan (HSCAN, ZSCAN): each page
// yields field/value (or member/score) pairs, consuming two elements per
// advance.
type PairScanIterator struct {
	inner *ScanIterator
	key   []byte
	value []byte
}

func newPairScanIterator(ctx context.Context, c scanCaller, t scanTemplate) *PairScanIterator {
	return &PairScanIterator{inner: newScanIterator(ctx, c, t)}
}

// Next advances to the next pair.
func (it *PairScanIterator) Next() bool {
	if !it.inner.Next() {
		return false
	}
	it.key = it.inner.Elem()
	if !it.inner.Next() {
		it.inner.err = errOddPairScan
		return false
	}
	it.value = it.inner.Elem()
	return true
}

var errOddPairScan = &pairScanError{}

type pairScanError struct{}

func (e *pairScanError) Error() string { return "rdb: pair-scan page had an odd number of elements" }

// Err returns the first error encountered while scanning, if any.
func (it *PairScanIterator) Err() error { return it.inner.Err() }

// Elem returns the (key, value) pair Next most recently advanced to.
func (it *PairScanIterator) Elem() (key, value []byte) { return it.key, it.value }

// scanEach drives a list-scan to completion, invoking fn for every element
// in server order, until the cursor returns to "0".
func scanEach(ctx context.Context, c scanCaller, t scanTemplate, fn func(elem []byte) error) error {
	it := newScanIterator(ctx, c, t)
	for it.Next() {
		if err := fn(it.Elem()); err != nil {
			return err
		}
	}
	return it.Err()
}

// pairScanEach drives a pair-scan to completion, invoking fn for every
// field/value pair in server order.
func pairScanEach(ctx context.Context, c scanCaller, t scanTemplate, fn func(key, value []byte) error) error {
	it := newPairScanIterator(ctx, c, t)
	for it.Next() {
		key, value := it.Elem()
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return it.Err()
}
