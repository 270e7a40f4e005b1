package rpccodec

import "encoding/binary"

// BytesReader reads little-endian words and raw byte runs from a slice
// without copying.
type BytesReader struct {
	B []byte // source slice
	N int    // current read position
}

// NewBytesReader creates a new BytesReader.
func NewBytesReader(b []byte) *BytesReader {
	return &BytesReader{B: b}
}

// Uint32 reads one word. ok is false if fewer than four bytes remain.
func (r *BytesReader) Uint32() (v uint32, ok bool) {
	if r.Available() < wordSize {
		return 0, false
	}
	v = binary.LittleEndian.Uint32(r.B[r.N:])
	r.N += wordSize
	return v, true
}

// Next returns the next n bytes as a view of the source slice.
func (r *BytesReader) Next(n int) ([]byte, bool) {
	if n < 0 || n > r.Available() {
		return nil, false
	}
	b := r.B[r.N : r.N+n]
	r.N += n
	return b, true
}

// Len returns the number of bytes read.
func (r *BytesReader) Len() int { return r.N }

// Size returns the size of the underlying byte slice.
func (r *BytesReader) Size() int { return len(r.B) }

// Available returns the number of bytes available for reading.
func (r *BytesReader) Available() int {
	length := len(r.B) - r.N
	if length <= 0 {
		return 0
	}
	return length
}
