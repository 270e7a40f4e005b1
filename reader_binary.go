package rpccodec

import (
	"math"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// BinaryReader decodes a payload produced by BinaryWriter.
type BinaryReader struct {
	words   *BytesReader
	strings *StringTable
	objects *objectReader
	guard   *Guard
	header  header
	opts    *options
	obs     observer
	err     error // first error encountered. Subsequent reads become no-ops.
}

var _ StreamReader = (*BinaryReader)(nil)

// NewBinaryReader opens a split payload: the header plus payload words, and
// the string table that travelled beside them.
func NewBinaryReader(payload []byte, strings []string, dispatch TypeDispatch, opts ...Option) (*BinaryReader, error) {
	r := newBinaryReader(dispatch, opts)
	if err := r.open(payload, strings); err != nil {
		r.fail(err)
		return nil, err
	}
	return r, nil
}

// NewBinaryReaderBlob opens a combined blob as produced by BinaryWriter.Bytes.
func NewBinaryReaderBlob(blob []byte, dispatch TypeDispatch, opts ...Option) (*BinaryReader, error) {
	r := newBinaryReader(dispatch, opts)
	payload, strings, err := splitBlob(blob)
	if err == nil {
		err = r.open(payload, strings)
	}
	if err != nil {
		r.fail(err)
		return nil, err
	}
	return r, nil
}

func newBinaryReader(dispatch TypeDispatch, opts []Option) *BinaryReader {
	o := newOptions(opts)
	return &BinaryReader{
		objects: newObjectReader(dispatch),
		opts:    o,
		obs:     observer{variant: variantBinary, enabled: o.metrics},
	}
}

func (r *BinaryReader) open(payload []byte, strings []string) error {
	if len(payload) < headerSize {
		return corruptf("payload of %d bytes is shorter than the header", len(payload))
	}
	if err := r.header.UnmarshalBinary(payload[:headerSize]); err != nil {
		return err
	}
	if v := r.header.Version; v < r.opts.minVersion || v > r.opts.maxVersion {
		return corruptf("unsupported version %d, accepting [%d, %d]", v, r.opts.minVersion, r.opts.maxVersion)
	}
	body := payload[headerSize:]
	if uint64(r.header.Length) != uint64(len(body)) {
		return corruptf("declared length %d, have %d bytes", r.header.Length, len(body))
	}
	if len(body)%wordSize != 0 {
		return corruptf("payload length %d is not word aligned", len(body))
	}
	if err := checkStrings(strings); err != nil {
		return err
	}
	r.words = NewBytesReader(body)
	r.strings = newStringTableFrom(strings)
	r.guard = NewGuard(len(body)/wordSize + len(strings))
	r.obs.payload(directionDecode, len(payload))
	return nil
}

// splitBlob separates a combined blob into payload and string table. Every
// declared count and length is checked against the bytes that remain before
// anything is allocated for it.
func splitBlob(blob []byte) ([]byte, []string, error) {
	var h header
	if err := h.UnmarshalBinary(blob); err != nil {
		return nil, nil, err
	}
	if uint64(h.Length) > uint64(len(blob)-headerSize) {
		return nil, nil, corruptf("declared length %d exceeds blob of %d bytes", h.Length, len(blob))
	}
	end := headerSize + int(h.Length)
	rest := NewBytesReader(blob[end:])
	count, ok := rest.Uint32()
	if !ok {
		return nil, nil, corruptf("missing string table")
	}
	// Each entry needs at least its length word.
	if uint64(count) > uint64(rest.Available()/wordSize) {
		return nil, nil, corruptf("string count %d exceeds remaining %d bytes", count, rest.Available())
	}
	strings := make([]string, 0, count)
	for i := range count {
		n, ok := rest.Uint32()
		if !ok {
			return nil, nil, corruptf("string %d: missing length", i+1)
		}
		b, ok := rest.Next(int(n))
		if !ok {
			return nil, nil, corruptf("string %d: length %d exceeds remaining %d bytes", i+1, n, rest.Available())
		}
		strings = append(strings, string(b))
	}
	if rest.Available() != 0 {
		return nil, nil, corruptf("%d trailing bytes after string table", rest.Available())
	}
	return blob[:end], strings, nil
}

// fail records the first error and reports it.
func (r *BinaryReader) fail(err error) {
	if r.err != nil || err == nil {
		return
	}
	r.err = err
	r.obs.decodeError(err)
	r.opts.logger.Warn("binary decode aborted", zap.String("kind", errorKind(err)), zap.Error(err))
}

func (r *BinaryReader) Version() uint32 { return r.header.Version }
func (r *BinaryReader) Flags() uint32   { return r.header.Flags }
func (r *BinaryReader) Err() error      { return r.err }

// Remaining returns the number of unread payload words.
func (r *BinaryReader) Remaining() int { return r.words.Available() / wordSize }

// Guard exposes the reader's resource guard.
func (r *BinaryReader) Guard() *Guard { return r.guard }

func (r *BinaryReader) word() (uint32, bool) {
	if r.err != nil {
		return 0, false
	}
	v, ok := r.words.Uint32()
	if !ok {
		r.fail(illegalf("read past end of payload"))
		return 0, false
	}
	return v, true
}

// --- Primitive Read Operations ---

func (r *BinaryReader) ReadBool(dest *bool) {
	if w, ok := r.word(); ok {
		v, err := wordBool(w)
		store(r, dest, v, err)
	}
}

func (r *BinaryReader) ReadInt8(dest *int8) {
	if w, ok := r.word(); ok {
		v, err := wordInt8(w)
		store(r, dest, v, err)
	}
}

func (r *BinaryReader) ReadInt16(dest *int16) {
	if w, ok := r.word(); ok {
		v, err := wordInt16(w)
		store(r, dest, v, err)
	}
}

func (r *BinaryReader) ReadChar(dest *uint16) {
	if w, ok := r.word(); ok {
		v, err := wordChar(w)
		store(r, dest, v, err)
	}
}

func (r *BinaryReader) ReadInt32(dest *int32) {
	if w, ok := r.word(); ok {
		*dest = int32(w)
	}
}

func (r *BinaryReader) ReadInt64(dest *int64) {
	lo, ok := r.word()
	if !ok {
		return
	}
	if hi, ok := r.word(); ok {
		*dest = joinLong(lo, hi)
	}
}

func (r *BinaryReader) ReadFloat32(dest *float32) {
	if w, ok := r.word(); ok {
		*dest = math.Float32frombits(w)
	}
}

func (r *BinaryReader) ReadFloat64(dest *float64) {
	var bits int64
	r.ReadInt64(&bits)
	if r.err == nil {
		*dest = math.Float64frombits(uint64(bits))
	}
}

func (r *BinaryReader) ReadString(dest *string) {
	var s *string
	r.ReadStringRef(&s)
	if r.err == nil {
		if s == nil {
			*dest = ""
		} else {
			*dest = *s
		}
	}
}

func (r *BinaryReader) ReadStringRef(dest **string) {
	w, ok := r.word()
	if !ok {
		return
	}
	if w == 0 {
		*dest = nil
		return
	}
	if w > math.MaxInt32 {
		r.fail(corruptf("string index %d out of range", w))
		return
	}
	s, err := r.strings.At(int(w))
	if err != nil {
		r.fail(err)
		return
	}
	*dest = &s
}

func (r *BinaryReader) ReadObject() any {
	if r.err != nil {
		return nil
	}
	obj, err := r.objects.read(r)
	if err != nil {
		r.fail(err)
		return nil
	}
	return obj
}

// Claim reserves n slots against the payload budget.
func (r *BinaryReader) Claim(n int) error {
	if r.err != nil {
		return r.err
	}
	if err := r.guard.Claim(n); err != nil {
		if errors.Is(err, ErrResourceLimitExceeded) {
			r.obs.guardTrip()
		}
		r.fail(err)
	}
	return r.err
}
