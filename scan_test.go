package rdb

import (
	"context"
	"testing"

	"github.com/pior/rdb/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedScanner is a scanCaller double that hands out a fixed sequence of
// replies, one per scanCall, independent of the Client/Connection plumbing.
type scriptedScanner struct {
	pages []resp.Reply
	pos   int
	seen  [][]any
}

func (s *scriptedScanner) scanCall(ctx context.Context, args ...any) (resp.Reply, error) {
	s.seen = append(s.seen, args)
	if s.pos >= len(s.pages) {
		return resp.Reply{}, errBoom
	}
	page := s.pages[s.pos]
	s.pos++
	return page, nil
}

func TestScanTemplate_Build_PlainScan(t *testing.T) {
	tmpl := scanTemplate{name: "SCAN", match: "user:*", count: 50}
	args := tmpl.build("0")
	assert.Equal(t, []any{"SCAN", "0", "MATCH", "user:*", "COUNT", 50}, args)
}

func TestScanTemplate_Build_KeyedScan(t *testing.T) {
	tmpl := scanTemplate{name: "HSCAN", key: "myhash", hasKey: true}
	args := tmpl.build("17")
	assert.Equal(t, []any{"HSCAN", "myhash", "17"}, args)
}

func TestScanIterator_DrainsMultiplePages(t *testing.T) {
	scanner := &scriptedScanner{pages: []resp.Reply{
		replyArray(replyBulk("5"), replyArray(replyBulk("a"), replyBulk("b"))),
		replyArray(replyBulk("0"), replyArray(replyBulk("c"))),
	}}
	it := newScanIterator(context.Background(), scanner, scanTemplate{name: "SCAN"})

	var seen []string
	for it.Next() {
		seen = append(seen, string(it.Elem()))
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.Equal(t, 2, scanner.pos)
}

func TestScanIterator_EmptyDatabaseYieldsNothing(t *testing.T) {
	scanner := &scriptedScanner{pages: []resp.Reply{
		replyArray(replyBulk("0"), replyArray()),
	}}
	it := newScanIterator(context.Background(), scanner, scanTemplate{name: "SCAN"})
	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
}

func TestScanIterator_MalformedReply(t *testing.T) {
	scanner := &scriptedScanner{pages: []resp.Reply{replyBulk("oops")}}
	it := newScanIterator(context.Background(), scanner, scanTemplate{name: "SCAN"})
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), errMalformedScanReply)
}

func TestScanIterator_PropagatesCallError(t *testing.T) {
	scanner := &scriptedScanner{}
	it := newScanIterator(context.Background(), scanner, scanTemplate{name: "SCAN"})
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), errBoom)
}

func TestScanIterator_Restartable(t *testing.T) {
	tmpl := scanTemplate{name: "SCAN"}
	scanner1 := &scriptedScanner{pages: []resp.Reply{replyArray(replyBulk("0"), replyArray(replyBulk("a")))}}
	it1 := newScanIterator(context.Background(), scanner1, tmpl)
	var first []string
	for it1.Next() {
		first = append(first, string(it1.Elem()))
	}
	require.NoError(t, it1.Err())

	scanner2 := &scriptedScanner{pages: []resp.Reply{replyArray(replyBulk("0"), replyArray(replyBulk("a")))}}
	it2 := newScanIterator(context.Background(), scanner2, tmpl)
	var second []string
	for it2.Next() {
		second = append(second, string(it2.Elem()))
	}
	require.NoError(t, it2.Err())
	assert.Equal(t, first, second)
}

func TestPairScanIterator_DrainsPairs(t *testing.T) {
	scanner := &scriptedScanner{pages: []resp.Reply{
		replyArray(replyBulk("0"), replyArray(
			replyBulk("f1"), replyBulk("v1"), replyBulk("f2"), replyBulk("v2"),
		)),
	}}
	it := newPairScanIterator(context.Background(), scanner, scanTemplate{name: "HSCAN", key: "h", hasKey: true})

	var keys, values []string
	for it.Next() {
		k, v := it.Elem()
		keys = append(keys, string(k))
		values = append(values, string(v))
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"f1", "f2"}, keys)
	assert.Equal(t, []string{"v1", "v2"}, values)
}

func TestPairScanIterator_OddPageIsAnError(t *testing.T) {
	scanner := &scriptedScanner{pages: []resp.Reply{
		replyArray(replyBulk("0"), replyArray(replyBulk("f1"), replyBulk("v1"), replyBulk("f2"))),
	}}
	it := newPairScanIterator(context.Background(), scanner, scanTemplate{name: "HSCAN", key: "h", hasKey: true})

	require.True(t, it.Next())
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), errOddPairScan)
}

func TestScanEach_InvokesCallbackForEveryElement(t *testing.T) {
	scanner := &scriptedScanner{pages: []resp.Reply{
		replyArray(replyBulk("0"), replyArray(replyBulk("a"), replyBulk("b"))),
	}}
	var seen []string
	err := scanEach(context.Background(), scanner, scanTemplate{name: "SCAN"}, func(elem []byte) error {
		seen = append(seen, string(elem))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestScanEach_StopsOnCallbackError(t *testing.T) {
	scanner := &scriptedScanner{pages: []resp.Reply{
		replyArray(replyBulk("5"), replyArray(replyBulk("a"), replyBulk("b"))),
		replyArray(replyBulk("0"), replyArray(replyBulk("c"))),
	}}
	var seen []string
	err := scanEach(context.Background(), scanner, scanTemplate{name: "SCAN"}, func(elem []byte) error {
		seen = append(seen, string(elem))
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"a"}, seen)
}

func TestPairScanEach_InvokesCallbackForEveryPair(t *testing.T) {
	scanner := &scriptedScanner{pages: []resp.Reply{
		replyArray(replyBulk("0"), replyArray(replyBulk("f1"), replyBulk("v1"))),
	}}
	var pairs [][2]string
	err := pairScanEach(context.Background(), scanner, scanTemplate{name: "HSCAN", key: "h", hasKey: true}, func(key, value []byte) error {
		pairs = append(pairs, [2]string{string(key), string(value)})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"f1", "v1"}}, pairs)
}
