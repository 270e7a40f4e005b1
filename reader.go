package rpccodec

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Reader provides a buffered reader that simplifies reading transport frames.
// It wraps bufio.Reader and tracks the first error. Subsequent reads become no-ops.
type Reader struct {
	r     *bufio.Reader
	count int64 // total bytes read
	err   error // first error encountered.
	order binary.ByteOrder
}

const defaultBufferSize = 4096

// NewReaderSize creates a new Reader with a specified buffer size.
func NewReaderSize(r io.Reader, size int) (*Reader, error) {
	if r == nil {
		return nil, ErrNilIO
	}
	// Reuse the buffer of an already-buffered reader to prevent
	// unpredictable double-buffering.
	if br, ok := r.(*bufio.Reader); ok && br.Size() >= size {
		return &Reader{r: br, order: binary.LittleEndian}, nil
	}
	return &Reader{r: bufio.NewReaderSize(r, size), order: binary.LittleEndian}, nil
}

// NewReader creates a new Reader with a default buffer size.
func NewReader(r io.Reader) (*Reader, error) {
	return NewReaderSize(r, defaultBufferSize)
}

// Read implements the io.Reader interface.
func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.r.Read(p)
	r.count += int64(n)
	r.setError(err)
	return n, r.err
}

func (r *Reader) Count() int64 { return r.count }
func (r *Reader) Err() error   { return r.err }
func (r *Reader) IsEOF() bool  { return r.err == io.EOF }

// setError records the first non-nil error.
func (r *Reader) setError(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

// readFull is an internal helper to read an exact number of bytes.
func (r *Reader) readFull(n int) []byte {
	if r.err != nil {
		return nil
	}
	buf := make([]byte, n)
	read, err := io.ReadFull(r.r, buf)
	r.count += int64(read)
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			// A partial read is different from a clean end-of-stream.
			err = ErrTruncatedData
		}
		r.setError(err)
		return nil
	}
	return buf
}

func (r *Reader) ReadUint32(dest *uint32) {
	buf := r.readFull(4)
	if r.err == nil {
		*dest = r.order.Uint32(buf)
	}
}

// ReadLimited reads exactly n bytes. Memory grows with the bytes that actually
// arrive, not with n.
func (r *Reader) ReadLimited(n int64) []byte {
	if r.err != nil {
		return nil
	}
	buf, err := readLimited(r.r, n)
	r.count += int64(len(buf))
	r.setError(err)
	return buf
}
