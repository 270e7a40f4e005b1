package rpccodec

import (
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// textHeaderTokens is version, flags and string count.
const textHeaderTokens = 3

// TextReader decodes a payload produced by TextWriter.
type TextReader struct {
	tokens  []string // data tokens only
	pos     int
	strings *StringTable
	objects *objectReader
	guard   *Guard
	version uint32
	flags   uint32
	opts    *options
	obs     observer
	err     error
}

var _ StreamReader = (*TextReader)(nil)

// NewTextReader parses the header and string table of payload. Data tokens are
// decoded lazily as the reads come in.
func NewTextReader(payload string, dispatch TypeDispatch, opts ...Option) (*TextReader, error) {
	o := newOptions(opts)
	r := &TextReader{
		objects: newObjectReader(dispatch),
		opts:    o,
		obs:     observer{variant: variantText, enabled: o.metrics},
	}
	if err := r.open(payload); err != nil {
		r.fail(err)
		return nil, err
	}
	return r, nil
}

func (r *TextReader) open(payload string) error {
	tokens := strings.Split(payload, string(separator))
	if len(tokens) < textHeaderTokens {
		return corruptf("payload has %d tokens, header needs %d", len(tokens), textHeaderTokens)
	}
	version, err := parseUint(tokens[0], 32)
	if err != nil {
		return errors.Wrap(err, "version")
	}
	flags, err := parseUint(tokens[1], 32)
	if err != nil {
		return errors.Wrap(err, "flags")
	}
	if v := uint32(version); v < r.opts.minVersion || v > r.opts.maxVersion {
		return corruptf("unsupported version %d, accepting [%d, %d]", v, r.opts.minVersion, r.opts.maxVersion)
	}
	count, err := parseUint(tokens[2], 32)
	if err != nil {
		return errors.Wrap(err, "string count")
	}
	rest := tokens[textHeaderTokens:]
	if count > uint64(len(rest)) {
		return corruptf("string count %d exceeds remaining %d tokens", count, len(rest))
	}
	values := make([]string, count)
	for i := range values {
		if values[i], err = unescapeString(rest[i]); err != nil {
			return errors.Wrapf(err, "string %d", i+1)
		}
	}
	if err := checkStrings(values); err != nil {
		return err
	}

	r.version = uint32(version)
	r.flags = uint32(flags)
	r.tokens = rest[count:]
	r.strings = newStringTableFrom(values)
	r.guard = NewGuard(len(r.tokens) + len(values))
	r.obs.payload(directionDecode, len(payload))
	return nil
}

func (r *TextReader) fail(err error) {
	if r.err != nil || err == nil {
		return
	}
	r.err = err
	r.obs.decodeError(err)
	r.opts.logger.Warn("text decode aborted",
		zap.String("kind", errorKind(err)),
		zap.Int("token", r.pos),
		zap.Error(err))
}

func (r *TextReader) Version() uint32 { return r.version }
func (r *TextReader) Flags() uint32   { return r.flags }
func (r *TextReader) Err() error      { return r.err }

// Remaining returns the number of unread data tokens.
func (r *TextReader) Remaining() int { return len(r.tokens) - r.pos }

// Guard exposes the reader's resource guard.
func (r *TextReader) Guard() *Guard { return r.guard }

func (r *TextReader) next() (string, bool) {
	if r.err != nil {
		return "", false
	}
	if r.pos >= len(r.tokens) {
		r.fail(illegalf("read past end of payload"))
		return "", false
	}
	tok := r.tokens[r.pos]
	r.pos++
	return tok, true
}

func (r *TextReader) ReadBool(dest *bool) {
	if tok, ok := r.next(); ok {
		v, err := parseBool(tok)
		store(r, dest, v, err)
	}
}

func (r *TextReader) ReadInt8(dest *int8) {
	if tok, ok := r.next(); ok {
		v, err := parseInt(tok, 8)
		store(r, dest, int8(v), err)
	}
}

func (r *TextReader) ReadInt16(dest *int16) {
	if tok, ok := r.next(); ok {
		v, err := parseInt(tok, 16)
		store(r, dest, int16(v), err)
	}
}

func (r *TextReader) ReadChar(dest *uint16) {
	if tok, ok := r.next(); ok {
		v, err := parseUint(tok, 16)
		store(r, dest, uint16(v), err)
	}
}

func (r *TextReader) ReadInt32(dest *int32) {
	if tok, ok := r.next(); ok {
		v, err := parseInt(tok, 32)
		store(r, dest, int32(v), err)
	}
}

func (r *TextReader) ReadInt64(dest *int64) {
	if tok, ok := r.next(); ok {
		v, err := decodeLong(tok)
		store(r, dest, v, err)
	}
}

func (r *TextReader) ReadFloat32(dest *float32) {
	if tok, ok := r.next(); ok {
		v, err := parseFloat(tok, 32)
		store(r, dest, float32(v), err)
	}
}

func (r *TextReader) ReadFloat64(dest *float64) {
	if tok, ok := r.next(); ok {
		v, err := parseFloat(tok, 64)
		store(r, dest, v, err)
	}
}

func (r *TextReader) ReadString(dest *string) {
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

func (r *TextReader) ReadStringRef(dest **string) {
	var idx int32
	r.ReadInt32(&idx)
	if r.err != nil {
		return
	}
	if idx == 0 {
		*dest = nil
		return
	}
	s, err := r.strings.At(int(idx))
	if err != nil {
		r.fail(err)
		return
	}
	*dest = &s
}

func (r *TextReader) ReadObject() any {
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
func (r *TextReader) Claim(n int) error {
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
