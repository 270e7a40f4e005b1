package rpccodec

// StreamWriter is the contract type handlers write through. The binary and
// textual writers both satisfy it, so a handler never knows which one it has.
//
// Writes do not return errors. The first failure is latched, every later call
// becomes a no-op, and Err reports it.
type StreamWriter interface {
	WriteBool(v bool)
	WriteInt8(v int8)
	WriteInt16(v int16)
	WriteChar(v uint16)
	WriteInt32(v int32)
	WriteInt64(v int64)
	WriteFloat32(v float32)
	WriteFloat64(v float64)

	// WriteString interns s in the string table and writes its index.
	WriteString(s string)
	// WriteStringRef is WriteString with nil written as the null index.
	WriteStringRef(s *string)

	// WriteObject writes a reference to obj, and on first sight its signature
	// and fields. nil and typed nil references are written as the null index.
	// Pointers are tracked by address, so a repeat reuses the first index.
	// Values of non-pointer types have no identity: equal values are written
	// in full each time and decode as distinct objects.
	WriteObject(obj any)

	Flags() uint32
	Err() error
}

// StreamReader is the read-side counterpart of StreamWriter.
//
// Reads store into dest only on success. After the first failure every read is
// a no-op and Err reports the failure; a decode that failed must be discarded
// as a whole.
type StreamReader interface {
	ReadBool(dest *bool)
	ReadInt8(dest *int8)
	ReadInt16(dest *int16)
	ReadChar(dest *uint16)
	ReadInt32(dest *int32)
	ReadInt64(dest *int64)
	ReadFloat32(dest *float32)
	ReadFloat64(dest *float64)

	// ReadString reads a string table reference. The null index reads as "".
	ReadString(dest *string)
	// ReadStringRef reads a string table reference, keeping null as nil.
	ReadStringRef(dest **string)

	// ReadObject reads an object reference, materializing the object on its
	// first occurrence.
	ReadObject() any

	// Claim must be called with the element count before allocating any
	// container whose size comes from the stream.
	Claim(n int) error

	Version() uint32
	Flags() uint32
	Err() error
}

// failer latches the first error of a stream.
type failer interface {
	fail(err error)
}

// store assigns v to dest, or latches err instead.
func store[T any](f failer, dest *T, v T, err error) {
	if err != nil {
		f.fail(err)
		return
	}
	*dest = v
}
