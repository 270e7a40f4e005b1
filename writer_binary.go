package rpccodec

import (
	"encoding/binary"
	"math"

	"go.uber.org/zap"
)

// BinaryWriter encodes an object graph into little-endian words.
//
// Layout: [version][flags][payloadLength][payload words...]. The string table
// travels beside the words (Payload) or after them in one blob (Bytes).
type BinaryWriter struct {
	buf       *BytesWriter
	strings   *StringTable
	objects   *objectWriter
	opts      *options
	obs       observer
	err       error // first error encountered. Subsequent writes become no-ops.
	finalized bool
}

var _ StreamWriter = (*BinaryWriter)(nil)

// NewBinaryWriter creates a writer that resolves object types through dispatch.
func NewBinaryWriter(dispatch TypeDispatch, opts ...Option) *BinaryWriter {
	o := newOptions(opts)
	w := &BinaryWriter{
		buf:     NewBytesWriter(o.capacity),
		strings: NewStringTable(),
		objects: newObjectWriter(dispatch),
		opts:    o,
		obs:     observer{variant: variantBinary, enabled: o.metrics},
	}
	w.buf.PutUint32(o.version)
	w.buf.PutUint32(o.flags)
	w.buf.PutUint32(0) // length, fixed up by Finalize
	return w
}

// setError records the first non-nil error.
func (w *BinaryWriter) setError(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

func (w *BinaryWriter) writable() bool {
	if w.err != nil {
		return false
	}
	if w.finalized {
		w.err = illegalf("write after finalize")
		return false
	}
	return true
}

func (w *BinaryWriter) Flags() uint32 { return w.opts.flags }
func (w *BinaryWriter) Err() error    { return w.err }

// --- Primitive Write Operations ---

func (w *BinaryWriter) WriteBool(v bool) {
	if w.writable() {
		w.buf.PutUint32(boolWord(v))
	}
}

func (w *BinaryWriter) WriteInt8(v int8) {
	if w.writable() {
		w.buf.PutUint32(uint32(int32(v)))
	}
}

func (w *BinaryWriter) WriteInt16(v int16) {
	if w.writable() {
		w.buf.PutUint32(uint32(int32(v)))
	}
}

func (w *BinaryWriter) WriteChar(v uint16) {
	if w.writable() {
		w.buf.PutUint32(uint32(v))
	}
}

func (w *BinaryWriter) WriteInt32(v int32) {
	if w.writable() {
		w.buf.PutUint32(uint32(v))
	}
}

func (w *BinaryWriter) WriteInt64(v int64) {
	if w.writable() {
		w.buf.PutUint64(splitLong(v))
	}
}

func (w *BinaryWriter) WriteFloat32(v float32) {
	if w.writable() {
		w.buf.PutUint32(math.Float32bits(v))
	}
}

// WriteFloat64 writes the raw bits of v through the long path.
func (w *BinaryWriter) WriteFloat64(v float64) {
	w.WriteInt64(int64(math.Float64bits(v)))
}

func (w *BinaryWriter) WriteString(s string) {
	if !w.writable() {
		return
	}
	if err := validString(s); err != nil {
		w.err = err
		return
	}
	w.buf.PutUint32(uint32(w.strings.Intern(s)))
}

func (w *BinaryWriter) WriteStringRef(s *string) {
	if s == nil {
		w.WriteInt32(0)
		return
	}
	w.WriteString(*s)
}

func (w *BinaryWriter) WriteObject(obj any) {
	if w.writable() {
		w.setError(w.objects.write(w, obj))
	}
}

// Finalize fixes up the length word and seals the stream. It can be called
// exactly once, and fails if any earlier write failed.
func (w *BinaryWriter) Finalize() error {
	if w.err != nil {
		return w.err
	}
	if w.finalized {
		w.err = illegalf("finalize called twice")
		return w.err
	}
	length := w.buf.Len() - headerSize
	if uint64(length) > math.MaxUint32 {
		w.err = illegalf("payload of %d bytes exceeds the length word", length)
		return w.err
	}
	h := header{Version: w.opts.version, Flags: w.opts.flags, Length: uint32(length)}
	if _, err := h.MarshalTo(w.buf.Bytes()[:headerSize]); err != nil {
		w.err = err
		return w.err
	}
	w.finalized = true

	w.obs.payload(directionEncode, w.buf.Len())
	w.opts.logger.Debug("binary payload finalized",
		zap.Int("bytes", w.buf.Len()),
		zap.Int("strings", w.strings.Len()),
		zap.Int("objects", w.objects.count()))
	return nil
}

// Payload returns the header plus payload words and the string table as
// separate frames, without copying.
func (w *BinaryWriter) Payload() ([]byte, []string, error) {
	if err := w.sealed(); err != nil {
		return nil, nil, err
	}
	return w.buf.Bytes(), w.strings.Values(), nil
}

// Bytes returns a single blob:
// header | payload | [stringCount]{[byteLen][utf8 bytes]}*stringCount.
func (w *BinaryWriter) Bytes() ([]byte, error) {
	if err := w.sealed(); err != nil {
		return nil, err
	}
	size := w.buf.Len() + wordSize
	for _, s := range w.strings.Values() {
		size += wordSize + len(s)
	}
	out := make([]byte, 0, size)
	out = append(out, w.buf.Bytes()...)
	out = binary.LittleEndian.AppendUint32(out, uint32(w.strings.Len()))
	for _, s := range w.strings.Values() {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(s)))
		out = append(out, s...)
	}
	return out, nil
}

func (w *BinaryWriter) sealed() error {
	if w.err != nil {
		return w.err
	}
	if !w.finalized {
		return illegalf("payload read before finalize")
	}
	return nil
}
