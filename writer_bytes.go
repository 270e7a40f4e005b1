package rpccodec

import "encoding/binary"

const (
	wordSize = 4

	// headroom is the largest atomic write. The buffer always keeps this much
	// free space before a write starts, so no write straddles a growth step.
	headroom = 8
)

// BytesWriter is a little-endian word sink over a byte slice that doubles its
// capacity whenever less than headroom bytes remain.
type BytesWriter struct {
	B []byte // destination slice
	N int    // current write position
}

// NewBytesWriter creates a BytesWriter with at least size bytes of capacity,
// rounded up to a whole number of words.
func NewBytesWriter(size int) *BytesWriter {
	size = Roundup(max(size, 2*headroom), wordSize)
	return &BytesWriter{B: make([]byte, size)}
}

func (w *BytesWriter) reserve() {
	for len(w.B)-w.N < headroom {
		next := make([]byte, len(w.B)*2)
		copy(next, w.B[:w.N])
		w.B = next
	}
}

// PutUint32 appends one word.
func (w *BytesWriter) PutUint32(v uint32) {
	w.reserve()
	binary.LittleEndian.PutUint32(w.B[w.N:], v)
	w.N += wordSize
}

// PutUint64 appends two words, low word first.
func (w *BytesWriter) PutUint64(lo, hi uint32) {
	w.reserve()
	binary.LittleEndian.PutUint32(w.B[w.N:], lo)
	binary.LittleEndian.PutUint32(w.B[w.N+wordSize:], hi)
	w.N += 2 * wordSize
}

// Reset allows the underlying byte slice to be reused.
func (w *BytesWriter) Reset() { w.N = 0 }

// Len returns the number of bytes written.
func (w *BytesWriter) Len() int { return w.N }

// Size returns the capacity of the underlying byte slice.
func (w *BytesWriter) Size() int { return len(w.B) }

// Bytes returns a slice view of the written data.
func (w *BytesWriter) Bytes() []byte { return w.B[:w.N] }
