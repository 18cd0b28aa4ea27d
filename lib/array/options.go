package array

import (
	"errors"
	"fmt"
)

const (
	// DefaultMaxShardSize is the default maximum encoded size of a shard in bytes
	DefaultMaxShardSize = 12000
	// DefaultPrefix is the default namespace of the shard and index keys
	DefaultPrefix = "array"

	// minShardSize is the size of an encoded empty shard ("[]")
	minShardSize = 2
)

var (
	// ErrInvalidOptions is returned by the constructors for an empty id or a shard size
	// that cannot even hold an empty shard.
	ErrInvalidOptions = errors.New("array: invalid options")

	// ErrElementTooLarge is returned by Add if a single element can never be stored,
	// either because its encoding exceeds MaxShardSize or because the store rejects it.
	ErrElementTooLarge = errors.New("array: element too large")
)

// Options configures an Array
type Options struct {
	MaxShardSize int    // Maximum encoded size of a single shard in bytes (0 = DefaultMaxShardSize)
	Prefix       string // Namespace of the keys ("" = DefaultPrefix)
}

// DefaultOptions returns the default options
func DefaultOptions() *Options {
	return &Options{
		MaxShardSize: DefaultMaxShardSize,
		Prefix:       DefaultPrefix,
	}
}

// withDefaults returns a copy of opts with all zero fields set to their defaults
func (opts *Options) withDefaults() Options {
	res := *DefaultOptions()
	if opts == nil {
		return res
	}
	if opts.MaxShardSize != 0 {
		res.MaxShardSize = opts.MaxShardSize
	}
	if opts.Prefix != "" {
		res.Prefix = opts.Prefix
	}
	return res
}

func validate(id string, opts Options) error {
	if id == "" {
		return fmt.Errorf("%w: id must not be empty", ErrInvalidOptions)
	}
	if opts.MaxShardSize < minShardSize {
		return fmt.Errorf("%w: max shard size %d is smaller than an empty shard (%d bytes)", ErrInvalidOptions, opts.MaxShardSize, minShardSize)
	}
	return nil
}
