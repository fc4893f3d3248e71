package codec

import (
	"sync"

	"github.com/wippyai/marshal/wire"
)

// Pool limits to prevent memory bloat
const poolMaxCap = 1 << 20 // max retained writer capacity

var writerPool = sync.Pool{
	New: func() any {
		return wire.NewWriter()
	},
}

func getWriter() *wire.Writer {
	return writerPool.Get().(*wire.Writer)
}

func putWriter(w *wire.Writer) {
	if w == nil || w.Cap() > poolMaxCap {
		return // reject oversized
	}
	w.Reset()
	writerPool.Put(w)
}
