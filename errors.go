package rpccodec

import "github.com/cockroachdb/errors"

var (
	// ErrCorruptPayload indicates a malformed header, an out-of-range reference
	// index, a truncated or malformed token, or a bad escape sequence.
	// It is always fatal for the whole decode.
	ErrCorruptPayload = errors.New("rpccodec: corrupt payload")

	// ErrResourceLimitExceeded indicates that a decode tried to claim more slots
	// than the payload could possibly back. Treat it as a hostile-input signal.
	ErrResourceLimitExceeded = errors.New("rpccodec: resource limit exceeded")

	// ErrNotInstantiable indicates the type dispatch has no instantiator for a
	// signature found in the payload.
	ErrNotInstantiable = errors.New("rpccodec: type not instantiable")

	// ErrNotSerializable indicates the type dispatch declined to serialize a value.
	ErrNotSerializable = errors.New("rpccodec: type not serializable")

	// ErrIllegalState indicates a protocol misuse: a write after Finalize, a second
	// Finalize, an accessor before Finalize, or a read past the declared payload end.
	ErrIllegalState = errors.New("rpccodec: illegal state")

	// ErrNilIO indicates that a transport was constructed with a nil io.Reader/io.Writer.
	ErrNilIO = errors.New("rpccodec: transport called with a nil io.Reader/io.Writer")

	// ErrFrameTooLarge indicates an inbound frame declared a size above the
	// configured maximum. Nothing is allocated for it.
	ErrFrameTooLarge = errors.New("rpccodec: frame exceeds maximum size")

	// ErrTruncatedData indicates the underlying stream ended before a complete
	// frame was read.
	ErrTruncatedData = errors.New("rpccodec: truncated data")
)

// corruptf wraps ErrCorruptPayload with context.
func corruptf(format string, args ...any) error {
	return errors.Wrapf(ErrCorruptPayload, format, args...)
}

// illegalf wraps ErrIllegalState with context.
func illegalf(format string, args ...any) error {
	return errors.Wrapf(ErrIllegalState, format, args...)
}

// errorKind maps an error onto the taxonomy label used by metrics and logs.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrCorruptPayload):
		return "corrupt"
	case errors.Is(err, ErrResourceLimitExceeded):
		return "resource_limit"
	case errors.Is(err, ErrNotInstantiable):
		return "not_instantiable"
	case errors.Is(err, ErrNotSerializable):
		return "not_serializable"
	case errors.Is(err, ErrIllegalState):
		return "illegal_state"
	default:
		return "other"
	}
}
