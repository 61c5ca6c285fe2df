package config

import "github.com/pior/rdb/resp"

func replyBulk(s string) resp.Reply {
	return resp.Reply{Type: resp.TypeBulkString, Str: s}
}

func replyArray(elems ...resp.Reply) resp.Reply {
	return resp.Reply{Type: resp.TypeArray, Array: elems}
}
