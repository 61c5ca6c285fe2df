package resp

import "errors"

// Message is a parsed pub/sub push: an array reply of the shape
// ["message", channel, payload] or ["pmessage", pattern, channel, payload].
type Message struct {
	Kind    string // "message", "pmessage", "subscribe", "unsubscribe", "psubscribe", "punsubscribe"
	Pattern string // set only for pmessage/psubscribe/punsubscribe
	Channel string
	Payload []byte
}

// ErrNotAMessage is returned by ParseMessage when reply is not shaped like
// a pub/sub push.
var ErrNotAMessage = errors.New("resp: reply is not a pub/sub message")

// ParseMessage interprets reply as a pub/sub push array.
func ParseMessage(reply Reply) (*Message, error) {
	if reply.Type != TypeArray || len(reply.Array) < 3 {
		return nil, ErrNotAMessage
	}
	kind := reply.Array[0].Str
	switch kind {
	case "pmessage":
		if len(reply.Array) < 4 {
			return nil, ErrNotAMessage
		}
		return &Message{
			Kind: kind, Pattern: reply.Array[1].Str,
			Channel: reply.Array[2].Str, Payload: reply.Array[3].Bytes(),
		}, nil
	case "psubscribe", "punsubscribe":
		return &Message{Kind: kind, Pattern: reply.Array[1].Str, Payload: reply.Array[2].Bytes()}, nil
	case "message", "subscribe", "unsubscribe":
		return &Message{Kind: kind, Channel: reply.Array[1].Str, Payload: reply.Array[2].Bytes()}, nil
	default:
		return nil, ErrNotAMessage
	}
}
