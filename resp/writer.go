package resp

import (
	"bufio"
	"strconv"
	"sync"
)

const crlf = "\r\n"

// bufferPool recycles the scratch buffers WriteCommand uses to build the
// "*<n>\r\n$<len>\r\n<arg>\r\n..." frame before copying it to the
// destination writer. Pipelines and transactions push many commands through
// this path back to back, so pooling keeps the hot path allocation-free.
var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 256)
		return &b
	},
}

func getScratch() *[]byte {
	return bufferPool.Get().(*[]byte)
}

func putScratch(b *[]byte) {
	*b = (*b)[:0]
	bufferPool.Put(b)
}

// WriteCommand serializes cmd as a RESP2 array of bulk strings and writes it
// to w, flushing if w is a *bufio.Writer.
func WriteCommand(w *bufio.Writer, cmd *Command) error {
	scratch := getScratch()
	defer putScratch(scratch)

	buf := *scratch
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(cmd.Len()), 10)
	buf = append(buf, crlf...)

	for _, arg := range cmd.Args() {
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(arg)), 10)
		buf = append(buf, crlf...)
		buf = append(buf, arg...)
		buf = append(buf, crlf...)
	}
	*scratch = buf

	if _, err := w.Write(buf); err != nil {
		return err
	}
	return w.Flush()
}

// WriteCommandNoFlush is WriteCommand without the trailing Flush, for callers
// batching several commands before a single flush (pipelines, transactions).
func WriteCommandNoFlush(w *bufio.Writer, cmd *Command) error {
	scratch := getScratch()
	defer putScratch(scratch)

	buf := *scratch
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(cmd.Len()), 10)
	buf = append(buf, crlf...)

	for _, arg := range cmd.Args() {
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(arg)), 10)
		buf = append(buf, crlf...)
		buf = append(buf, arg...)
		buf = append(buf, crlf...)
	}
	*scratch = buf

	_, err := w.Write(buf)
	return err
}
