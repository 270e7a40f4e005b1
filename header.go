package rpccodec

import (
	"encoding/binary"
	"io"
)

// headerSize is the fixed binary prefix: version, flags, payload length.
const headerSize = 3 * wordSize

// header is the fixed-size binary prefix, encoded word by word in
// little-endian order.
type header struct {
	Version uint32
	Flags   uint32
	Length  uint32 // payload bytes following the header
}

// MarshalTo encodes the header into p.
func (h *header) MarshalTo(p []byte) (int, error) {
	n, err := binary.Encode(p, binary.LittleEndian, h)
	if err != nil {
		return n, io.ErrShortWrite // binary.Encode only fails on a short buffer
	}
	return n, nil
}

// UnmarshalBinary decodes the header from the start of data.
func (h *header) UnmarshalBinary(data []byte) error {
	if _, err := binary.Decode(data, binary.LittleEndian, h); err != nil {
		return corruptf("header needs %d bytes, have %d", headerSize, len(data))
	}
	return nil
}
