package rpccodec

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// failingWriter rejects every write.
type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

// --- Transport Test Suite ---

type TransportTestSuite struct {
	suite.Suite
	buf       *bytes.Buffer
	transport *StreamTransport
}

// SetupTest runs before each test in the suite, ensuring a clean state.
func (s *TransportTestSuite) SetupTest() {
	s.buf = &bytes.Buffer{}
	var err error
	s.transport, err = NewStreamTransport(s.buf, WithMaxFrameSize(1024))
	s.Require().NoError(err)
}

func (s *TransportTestSuite) TestConstructors() {
	s.T().Run("RejectsNilStreams", func(t *testing.T) {
		_, err := NewStreamTransport(nil)
		assert.ErrorIs(t, err, ErrNilIO)
		_, err = NewStreamTransportPair(nil, &bytes.Buffer{})
		assert.ErrorIs(t, err, ErrNilIO)
		_, err = NewStreamTransportPair(&bytes.Buffer{}, nil)
		assert.ErrorIs(t, err, ErrNilIO)
	})
}

func (s *TransportTestSuite) TestFraming() {
	s.Require().NoError(s.transport.Send([]byte{0xAA, 0xBB}))
	s.Assert().Equal([]byte{2, 0, 0, 0, 0xAA, 0xBB}, s.buf.Bytes())

	s.Require().NoError(s.transport.Send(nil))
	s.Require().NoError(s.transport.Send([]byte("third")))

	for _, want := range [][]byte{{0xAA, 0xBB}, {}, []byte("third")} {
		got, err := s.transport.Receive()
		s.Require().NoError(err)
		s.Assert().Equal(want, got)
	}

	_, err := s.transport.Receive()
	s.Assert().ErrorIs(err, io.EOF, "a clean close between frames is plain EOF")
}

func (s *TransportTestSuite) TestObjects() {
	registry := newTestRegistry()
	s.Require().NoError(SendObject(s.transport, registry, newCycle()))

	root, err := ReceiveObject(s.transport, registry)
	s.Require().NoError(err)
	a := root.(*node)
	s.Assert().Same(a, a.Peer.Peer)
}

func (s *TransportTestSuite) TestOversizedFrames() {
	s.T().Run("Outbound", func(t *testing.T) {
		buf := &bytes.Buffer{}
		tr, err := NewStreamTransport(buf, WithMaxFrameSize(4))
		require.NoError(t, err)
		assert.ErrorIs(t, tr.Send(make([]byte, 5)), ErrFrameTooLarge)
		assert.Zero(t, buf.Len(), "nothing reaches the wire")
		require.NoError(t, tr.Send(make([]byte, 4)))
	})

	s.T().Run("Inbound", func(t *testing.T) {
		buf := &bytes.Buffer{}
		buf.Write(binary.LittleEndian.AppendUint32(nil, 1<<30))
		tr, err := NewStreamTransport(buf, WithMaxFrameSize(1024))
		require.NoError(t, err)

		_, err = tr.Receive()
		assert.ErrorIs(t, err, ErrFrameTooLarge)

		// The stream is out of sync now; the failure is latched.
		buf.Write([]byte{0, 0, 0, 0})
		_, err = tr.Receive()
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	})
}

func (s *TransportTestSuite) TestTruncatedFrames() {
	s.T().Run("LengthWord", func(t *testing.T) {
		tr, err := NewStreamTransport(bytes.NewBuffer([]byte{1, 0}))
		require.NoError(t, err)
		_, err = tr.Receive()
		assert.ErrorIs(t, err, ErrTruncatedData)
	})

	s.T().Run("Body", func(t *testing.T) {
		frame := binary.LittleEndian.AppendUint32(nil, 100)
		frame = append(frame, make([]byte, 10)...)
		tr, err := NewStreamTransport(bytes.NewBuffer(frame))
		require.NoError(t, err)
		_, err = tr.Receive()
		assert.ErrorIs(t, err, ErrTruncatedData)
	})
}

func (s *TransportTestSuite) TestWriteFailureIsLatched() {
	boom := errors.New("connection reset")
	tr, err := NewStreamTransportPair(&bytes.Buffer{}, failingWriter{err: boom})
	s.Require().NoError(err)

	s.Assert().ErrorIs(tr.Send([]byte("x")), boom)
	s.Assert().ErrorIs(tr.Send(nil), boom)
}

func (s *TransportTestSuite) TestOverPipe() {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	registry := newTestRegistry()
	ct, err := NewStreamTransport(client)
	s.Require().NoError(err)
	st, err := NewStreamTransport(server)
	s.Require().NoError(err)

	done := make(chan error, 1)
	go func() {
		// Echo one object back with its weight bumped.
		root, err := ReceiveObject(st, registry)
		if err != nil {
			done <- err
			return
		}
		n := root.(*node)
		n.Weight++
		done <- SendObject(st, registry, n)
	}()

	s.Require().NoError(SendObject(ct, registry, &node{Name: "ping", Weight: 41}))
	reply, err := ReceiveObject(ct, registry)
	s.Require().NoError(err)
	s.Require().NoError(<-done)
	s.Assert().EqualValues(42, reply.(*node).Weight)
}

// TestTransport runs the TransportTestSuite.
func TestTransport(t *testing.T) {
	suite.Run(t, new(TransportTestSuite))
}

func TestWireReaderWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf)
	require.NoError(t, err)
	w.WriteUint32(0xDDEEFF00)
	w.WriteBytes([]byte{1, 2, 3})
	n, err := w.Result()
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.Equal(t, []byte{0x00, 0xFF, 0xEE, 0xDD, 1, 2, 3}, buf.Bytes())

	r, err := NewReader(buf)
	require.NoError(t, err)
	var v uint32
	r.ReadUint32(&v)
	assert.Equal(t, uint32(0xDDEEFF00), v)
	assert.Equal(t, []byte{1, 2, 3}, r.ReadLimited(3))
	require.NoError(t, r.Err())
	assert.EqualValues(t, 7, r.Count())

	r.ReadUint32(&v)
	assert.True(t, r.IsEOF())
	assert.Equal(t, uint32(0xDDEEFF00), v, "failed reads leave dest untouched")
}
