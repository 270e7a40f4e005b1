package rpccodec

import "go.uber.org/zap"

const (
	// ProtocolVersion is the header version written by default and the only
	// version accepted by default.
	ProtocolVersion uint32 = 1

	// DefaultInitialCapacity is the starting size in bytes of a binary writer buffer.
	DefaultInitialCapacity = 64

	// DefaultMaxFrameSize bounds a single inbound transport frame.
	DefaultMaxFrameSize = 64 << 20
)

type options struct {
	version    uint32
	flags      uint32
	minVersion uint32
	maxVersion uint32
	asciiOnly  bool
	capacity   int
	maxFrame   int
	logger     *zap.Logger
	metrics    bool
}

// Option configures a writer, reader or transport.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{
		version:    ProtocolVersion,
		minVersion: ProtocolVersion,
		maxVersion: ProtocolVersion,
		capacity:   DefaultInitialCapacity,
		maxFrame:   DefaultMaxFrameSize,
		logger:     zap.NewNop(),
		metrics:    true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithVersion sets the header version a writer emits.
func WithVersion(v uint32) Option {
	return func(o *options) { o.version = v }
}

// WithFlags sets the header flags a writer emits.
func WithFlags(flags uint32) Option {
	return func(o *options) { o.flags = flags }
}

// WithVersionRange sets the inclusive range of header versions a reader accepts.
func WithVersionRange(min, max uint32) Option {
	return func(o *options) {
		o.minVersion = min
		o.maxVersion = max
	}
}

// WithASCIIOnly makes the textual writer escape every non-ASCII rune as \uXXXX.
func WithASCIIOnly() Option {
	return func(o *options) { o.asciiOnly = true }
}

// WithInitialCapacity sets the initial binary buffer size in bytes.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithMaxFrameSize sets the largest frame a transport accepts (default: 64 MiB).
func WithMaxFrameSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxFrame = n
		}
	}
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics toggles the package collectors for this stream.
func WithMetrics(enabled bool) Option {
	return func(o *options) { o.metrics = enabled }
}
