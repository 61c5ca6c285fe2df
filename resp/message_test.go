package resp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage_Message(t *testing.T) {
	reply := Reply{Type: TypeArray, Array: []Reply{
		{Type: TypeBulkString, Str: "message"},
		{Type: TypeBulkString, Str: "news"},
		{Type: TypeBulkString, Str: "hello"},
	}}
	msg, err := ParseMessage(reply)
	require.NoError(t, err)
	assert.Equal(t, "message", msg.Kind)
	assert.Equal(t, "news", msg.Channel)
	assert.Equal(t, "hello", string(msg.Payload))
	assert.Empty(t, msg.Pattern)
}

func TestParseMessage_PMessage(t *testing.T) {
	reply := Reply{Type: TypeArray, Array: []Reply{
		{Type: TypeBulkString, Str: "pmessage"},
		{Type: TypeBulkString, Str: "news.*"},
		{Type: TypeBulkString, Str: "news.sports"},
		{Type: TypeBulkString, Str: "hello"},
	}}
	msg, err := ParseMessage(reply)
	require.NoError(t, err)
	assert.Equal(t, "pmessage", msg.Kind)
	assert.Equal(t, "news.*", msg.Pattern)
	assert.Equal(t, "news.sports", msg.Channel)
	assert.Equal(t, "hello", string(msg.Payload))
}

func TestParseMessage_SubscribeConfirmation(t *testing.T) {
	reply := Reply{Type: TypeArray, Array: []Reply{
		{Type: TypeBulkString, Str: "subscribe"},
		{Type: TypeBulkString, Str: "news"},
		{Type: TypeInteger, Int: 1},
	}}
	msg, err := ParseMessage(reply)
	require.NoError(t, err)
	assert.Equal(t, "subscribe", msg.Kind)
	assert.Equal(t, "news", msg.Channel)
}

func TestParseMessage_RejectsNonArray(t *testing.T) {
	_, err := ParseMessage(Reply{Type: TypeSimpleString, Str: "OK"})
	assert.ErrorIs(t, err, ErrNotAMessage)
}

func TestParseMessage_RejectsShortArray(t *testing.T) {
	reply := Reply{Type: TypeArray, Array: []Reply{
		{Type: TypeBulkString, Str: "message"},
		{Type: TypeBulkString, Str: "news"},
	}}
	_, err := ParseMessage(reply)
	assert.ErrorIs(t, err, ErrNotAMessage)
}

func TestParseMessage_RejectsUnknownKind(t *testing.T) {
	reply := Reply{Type: TypeArray, Array: []Reply{
		{Type: TypeBulkString, Str: "bogus"},
		{Type: TypeBulkString, Str: "a"},
		{Type: TypeBulkString, Str: "b"},
	}}
	_, err := ParseMessage(reply)
	assert.ErrorIs(t, err, ErrNotAMessage)
}
