package codec

import "github.com/wippyai/marshal/reftable"

// Safety limits applied when an Options field is zero.
const (
	DefaultMaxDepth          = 512
	DefaultMaxStringSize     = 16 << 20 // 16 MB
	DefaultMaxSequenceLength = 1 << 20  // 1M elements
)

// Options configures encoding and decoding.
type Options struct {
	// Observer, when set, is subscribed to the reference table of every
	// call.
	Observer reftable.Observer

	// MaxDepth bounds composite nesting on both sides.
	MaxDepth int

	// MaxStringSize bounds decoded string, symbol and bytes lengths.
	MaxStringSize int

	// MaxSequenceLength bounds decoded sequence, mapping and field counts.
	MaxSequenceLength int
}

// DefaultOptions returns the default limits.
func DefaultOptions() Options {
	return Options{
		MaxDepth:          DefaultMaxDepth,
		MaxStringSize:     DefaultMaxStringSize,
		MaxSequenceLength: DefaultMaxSequenceLength,
	}
}

// Normalize replaces zero or negative limits with their defaults.
func (o Options) Normalize() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxStringSize <= 0 {
		o.MaxStringSize = DefaultMaxStringSize
	}
	if o.MaxSequenceLength <= 0 {
		o.MaxSequenceLength = DefaultMaxSequenceLength
	}
	return o
}
