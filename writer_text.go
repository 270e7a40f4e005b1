package rpccodec

import (
	"bytes"
	"strconv"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// TextWriter encodes an object graph into one '|'-separated token string:
// version|flags|stringCount|strings...|data tokens...
// String table entries are the only free-form tokens and are always escaped,
// so the separator never appears unescaped inside a token.
type TextWriter struct {
	tokens    []string
	strings   *StringTable
	objects   *objectWriter
	opts      *options
	obs       observer
	err       error
	finalized bool
	payload   string
}

var _ StreamWriter = (*TextWriter)(nil)

// NewTextWriter creates a writer that resolves object types through dispatch.
func NewTextWriter(dispatch TypeDispatch, opts ...Option) *TextWriter {
	o := newOptions(opts)
	return &TextWriter{
		strings: NewStringTable(),
		objects: newObjectWriter(dispatch),
		opts:    o,
		obs:     observer{variant: variantText, enabled: o.metrics},
	}
}

func (w *TextWriter) setError(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

func (w *TextWriter) writable() bool {
	if w.err != nil {
		return false
	}
	if w.finalized {
		w.err = illegalf("write after finalize")
		return false
	}
	return true
}

func (w *TextWriter) append(tok string) {
	if w.writable() {
		w.tokens = append(w.tokens, tok)
	}
}

func (w *TextWriter) Flags() uint32 { return w.opts.flags }
func (w *TextWriter) Err() error    { return w.err }

func (w *TextWriter) WriteBool(v bool)       { w.append(formatBool(v)) }
func (w *TextWriter) WriteInt8(v int8)       { w.append(strconv.FormatInt(int64(v), 10)) }
func (w *TextWriter) WriteInt16(v int16)     { w.append(strconv.FormatInt(int64(v), 10)) }
func (w *TextWriter) WriteChar(v uint16)     { w.append(strconv.FormatUint(uint64(v), 10)) }
func (w *TextWriter) WriteInt32(v int32)     { w.append(strconv.FormatInt(int64(v), 10)) }
func (w *TextWriter) WriteFloat32(v float32) { w.append(formatFloat(float64(v), 32)) }
func (w *TextWriter) WriteFloat64(v float64) { w.append(formatFloat(v, 64)) }

// WriteInt64 emits an opaque base-64 token instead of decimal digits, so the
// value survives hosts that coerce numeric tokens to double precision.
func (w *TextWriter) WriteInt64(v int64) { w.append(encodeLong(v)) }

func (w *TextWriter) WriteString(s string) {
	if !w.writable() {
		return
	}
	if err := validString(s); err != nil {
		w.err = err
		return
	}
	w.tokens = append(w.tokens, strconv.Itoa(w.strings.Intern(s)))
}

func (w *TextWriter) WriteStringRef(s *string) {
	if s == nil {
		w.WriteInt32(0)
		return
	}
	w.WriteString(*s)
}

func (w *TextWriter) WriteObject(obj any) {
	if w.writable() {
		w.setError(w.objects.write(w, obj))
	}
}

// Finalize renders the payload and seals the stream. It can be called exactly once.
func (w *TextWriter) Finalize() error {
	if w.err != nil {
		return w.err
	}
	if w.finalized {
		w.err = illegalf("finalize called twice")
		return w.err
	}
	w.finalized = true

	buf := bytesBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer putBuffer(buf)

	buf.WriteString(strconv.FormatUint(uint64(w.opts.version), 10))
	buf.WriteByte(separator)
	buf.WriteString(strconv.FormatUint(uint64(w.opts.flags), 10))
	buf.WriteByte(separator)
	buf.WriteString(strconv.Itoa(w.strings.Len()))
	escaped := lo.Map(w.strings.Values(), func(s string, _ int) string {
		return escapeString(s, w.opts.asciiOnly)
	})
	for _, tok := range escaped {
		buf.WriteByte(separator)
		buf.WriteString(tok)
	}
	for _, tok := range w.tokens {
		buf.WriteByte(separator)
		buf.WriteString(tok)
	}
	w.payload = buf.String()
	w.tokens = nil

	w.obs.payload(directionEncode, len(w.payload))
	w.opts.logger.Debug("text payload finalized",
		zap.Int("bytes", len(w.payload)),
		zap.Int("strings", w.strings.Len()),
		zap.Int("objects", w.objects.count()))
	return nil
}

// Payload returns the finalized payload.
func (w *TextWriter) Payload() (string, error) {
	if w.err != nil {
		return "", w.err
	}
	if !w.finalized {
		return "", illegalf("payload read before finalize")
	}
	return w.payload, nil
}
