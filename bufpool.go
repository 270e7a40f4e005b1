package rpccodec

import (
	"bytes"
	"sync"
)

// bytesBufPool reuses buffers for rendering textual payloads and receiving
// frames. This reduces GC pressure by avoiding frequent allocations. We pool
// *bytes.Buffer because they are easily reset and resized.
var bytesBufPool = sync.Pool{
	New: func() any {
		// A 4KB default is chosen to avoid re-allocations for common payload sizes.
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// maxPooledBuffer keeps one oversized payload from pinning its buffer in the pool.
const maxPooledBuffer = 1 << 20

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() <= maxPooledBuffer {
		bytesBufPool.Put(buf)
	}
}
