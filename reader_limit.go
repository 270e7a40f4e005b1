package rpccodec

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
)

// readLimited reads exactly n bytes from r through an io.LimitedReader into a
// pooled buffer, so a peer that declares a large frame and then stalls or
// hangs up costs only what it actually sent.
func readLimited(r io.Reader, n int64) ([]byte, error) {
	buf := bytesBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer putBuffer(buf)

	got, err := buf.ReadFrom(&io.LimitedReader{R: r, N: n})
	if err != nil {
		return nil, err
	}
	if got < n {
		return nil, errors.Wrapf(ErrTruncatedData, "frame declared %d bytes, received %d", n, got)
	}
	return bytes.Clone(buf.Bytes()), nil
}
