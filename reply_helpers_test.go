package rdb

import "github.com/pior/rdb/resp"

func replyOK() resp.Reply {
	return resp.Reply{Type: resp.TypeSimpleString, Str: "OK"}
}

func replyQueued() resp.Reply {
	return resp.Reply{Type: resp.TypeSimpleString, Str: "QUEUED"}
}

func replyBulk(s string) resp.Reply {
	return resp.Reply{Type: resp.TypeBulkString, Str: s}
}

func replyInt(n int64) resp.Reply {
	return resp.Reply{Type: resp.TypeInteger, Int: n}
}

func replyArray(elems ...resp.Reply) resp.Reply {
	return resp.Reply{Type: resp.TypeArray, Array: elems}
}

func replyNilArray() resp.Reply {
	return resp.Reply{Type: resp.TypeArray, Nil: true}
}

func replyErr(code, message string) resp.Reply {
	return resp.Reply{Type: resp.TypeError, Err: &resp.ServerError{Code: code, Message: message}}
}
