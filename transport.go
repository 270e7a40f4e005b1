package rpccodec

import (
	"io"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Transport moves complete binary payloads. The codec never streams: a
// payload is handed over whole in both directions.
type Transport interface {
	Send(payload []byte) error
	Receive() ([]byte, error)
}

// StreamTransport frames binary blobs on a byte stream as [frameLen:4][blob].
// A failed Send or Receive leaves the stream unusable.
type StreamTransport struct {
	r    *Reader
	w    *Writer
	opts *options
}

var _ Transport = (*StreamTransport)(nil)

// NewStreamTransport creates a transport over a connection-like stream.
func NewStreamTransport(rw io.ReadWriter, opts ...Option) (*StreamTransport, error) {
	if rw == nil {
		return nil, ErrNilIO
	}
	return NewStreamTransportPair(rw, rw, opts...)
}

// NewStreamTransportPair creates a transport with separate inbound and outbound streams.
func NewStreamTransportPair(in io.Reader, out io.Writer, opts ...Option) (*StreamTransport, error) {
	r, err := NewReader(in)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(out)
	if err != nil {
		return nil, err
	}
	return &StreamTransport{r: r, w: w, opts: newOptions(opts)}, nil
}

// Send writes one frame and flushes it.
func (t *StreamTransport) Send(payload []byte) error {
	if len(payload) > t.opts.maxFrame {
		return errors.Wrapf(ErrFrameTooLarge, "outbound frame of %d bytes, limit %d", len(payload), t.opts.maxFrame)
	}
	t.w.WriteUint32(uint32(len(payload)))
	t.w.WriteBytes(payload)
	_, err := t.w.Result()
	return err
}

// Receive reads one frame. io.EOF is returned unwrapped when the peer closed
// the stream on a frame boundary.
func (t *StreamTransport) Receive() ([]byte, error) {
	var n uint32
	t.r.ReadUint32(&n)
	if err := t.r.Err(); err != nil {
		return nil, err
	}
	if uint64(n) > uint64(t.opts.maxFrame) {
		t.opts.logger.Warn("inbound frame rejected", zap.Uint32("size", n), zap.Int("limit", t.opts.maxFrame))
		err := errors.Wrapf(ErrFrameTooLarge, "inbound frame of %d bytes, limit %d", n, t.opts.maxFrame)
		t.r.setError(err)
		return nil, err
	}
	payload := t.r.ReadLimited(int64(n))
	if err := t.r.Err(); err != nil {
		return nil, err
	}
	return payload, nil
}

// SendObject marshals root and sends it as one frame.
func SendObject(t Transport, dispatch TypeDispatch, root any, opts ...Option) error {
	blob, err := Marshal(dispatch, root, opts...)
	if err != nil {
		return err
	}
	return t.Send(blob)
}

// ReceiveObject receives one frame and unmarshals it.
func ReceiveObject(t Transport, dispatch TypeDispatch, opts ...Option) (any, error) {
	blob, err := t.Receive()
	if err != nil {
		return nil, err
	}
	return Unmarshal(dispatch, blob, opts...)
}
