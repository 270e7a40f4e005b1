package rpccodec

import (
	"encoding/binary"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

// --- Mocks and Helpers ---

// node is a graph vertex whose Peer may point anywhere, including back at itself.
type node struct {
	Name   string
	Weight int64
	Peer   *node
	Tags   []string
}

// sample carries one field of every primitive kind.
type sample struct {
	Flag   bool
	Byte   int8
	Short  int16
	Char   uint16
	Int    int32
	Long   int64
	Float  float32
	Double float64
	Label  *string
}

// opaque is registered for writing only, so it can never be instantiated.
type opaque struct{ ID int32 }

// matrix is a collection-heavy type used to drive nested claims.
type matrix struct {
	Rows  [][]int32
	Index map[string]int32
}

// box is a value type whose field holds an unhashable dynamic value.
type box struct{ V any }

// boxHandler fills a box at instantiation, since a value cannot be
// populated after it is handed back.
func boxHandler() Handler[box] {
	return Handler[box]{
		New: func(sr StreamReader) (box, error) {
			ids, err := ReadSlice(sr, func(sr StreamReader) int32 {
				var v int32
				sr.ReadInt32(&v)
				return v
			})
			return box{V: ids}, err
		},
		Write: func(sw StreamWriter, b box) error {
			ids, _ := b.V.([]int32)
			WriteSlice(sw, ids, StreamWriter.WriteInt32)
			return sw.Err()
		},
	}
}

func newTestRegistry() *Registry {
	r := NewRegistry()
	MustRegister(r, "test.Node", Handler[*node]{
		New: func(StreamReader) (*node, error) { return &node{}, nil },
		Read: func(sr StreamReader, n *node) error {
			sr.ReadString(&n.Name)
			sr.ReadInt64(&n.Weight)
			peer, _ := sr.ReadObject().(*node)
			n.Peer = peer
			tags, err := ReadSlice(sr, func(sr StreamReader) string {
				var s string
				sr.ReadString(&s)
				return s
			})
			n.Tags = tags
			return err
		},
		Write: func(sw StreamWriter, n *node) error {
			sw.WriteString(n.Name)
			sw.WriteInt64(n.Weight)
			sw.WriteObject(n.Peer)
			WriteSlice(sw, n.Tags, StreamWriter.WriteString)
			return sw.Err()
		},
	})
	MustRegister(r, "test.Sample", Handler[*sample]{
		New: func(StreamReader) (*sample, error) { return &sample{}, nil },
		Read: func(sr StreamReader, s *sample) error {
			sr.ReadBool(&s.Flag)
			sr.ReadInt8(&s.Byte)
			sr.ReadInt16(&s.Short)
			sr.ReadChar(&s.Char)
			sr.ReadInt32(&s.Int)
			sr.ReadInt64(&s.Long)
			sr.ReadFloat32(&s.Float)
			sr.ReadFloat64(&s.Double)
			sr.ReadStringRef(&s.Label)
			return sr.Err()
		},
		Write: func(sw StreamWriter, s *sample) error {
			sw.WriteBool(s.Flag)
			sw.WriteInt8(s.Byte)
			sw.WriteInt16(s.Short)
			sw.WriteChar(s.Char)
			sw.WriteInt32(s.Int)
			sw.WriteInt64(s.Long)
			sw.WriteFloat32(s.Float)
			sw.WriteFloat64(s.Double)
			sw.WriteStringRef(s.Label)
			return sw.Err()
		},
	})
	MustRegister(r, "test.Opaque", Handler[*opaque]{
		Write: func(sw StreamWriter, o *opaque) error {
			sw.WriteInt32(o.ID)
			return sw.Err()
		},
	})
	MustRegister(r, "test.Matrix", Handler[*matrix]{
		New: func(StreamReader) (*matrix, error) { return &matrix{}, nil },
		Read: func(sr StreamReader, m *matrix) error {
			var err error
			m.Rows, err = ReadSlice(sr, func(sr StreamReader) []int32 {
				row, _ := ReadSlice(sr, func(sr StreamReader) int32 {
					var v int32
					sr.ReadInt32(&v)
					return v
				})
				return row
			})
			if err != nil {
				return err
			}
			m.Index, err = ReadMap(sr,
				func(sr StreamReader) string {
					var k string
					sr.ReadString(&k)
					return k
				},
				func(sr StreamReader) int32 {
					var v int32
					sr.ReadInt32(&v)
					return v
				})
			return err
		},
		Write: func(sw StreamWriter, m *matrix) error {
			WriteSlice(sw, m.Rows, func(sw StreamWriter, row []int32) {
				WriteSlice(sw, row, StreamWriter.WriteInt32)
			})
			WriteMap(sw, m.Index, StreamWriter.WriteString, StreamWriter.WriteInt32)
			return sw.Err()
		},
	})
	return r
}

// failingDispatch declines every object with a plain error.
type failingDispatch struct{}

func (failingDispatch) SignatureOf(any) (string, error) {
	return "", errors.New("dispatch is closed")
}

func (failingDispatch) Handler(string) (*TypeHandler, bool) { return nil, false }

// newCycle builds a <-> b.
func newCycle() *node {
	a := &node{Name: "a", Weight: 1}
	b := &node{Name: "b", Weight: 2, Peer: a}
	a.Peer = b
	return a
}

// openPayload opens a hand-built binary payload.
func openPayload(t *testing.T, dispatch TypeDispatch, strings []string, words ...uint32) *BinaryReader {
	t.Helper()
	payload := binary.LittleEndian.AppendUint32(nil, ProtocolVersion)
	payload = binary.LittleEndian.AppendUint32(payload, 0)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(words)*wordSize))
	for _, w := range words {
		payload = binary.LittleEndian.AppendUint32(payload, w)
	}
	r, err := NewBinaryReader(payload, strings, dispatch)
	require.NoError(t, err)
	return r
}
