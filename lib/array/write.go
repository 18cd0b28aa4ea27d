package array

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// errShardFull marks a shard whose encoding exceeds MaxShardSize
var errShardFull = errors.New("shard exceeds max shard size")

// Add appends value to the array.
//
// The current shard is rewritten with value appended. If the result does not
// fit (it exceeds MaxShardSize or the store rejects it), trailing elements are
// moved to the next shard until it does. Overflow is never reported to the
// caller, ErrElementTooLarge is returned only for elements that can never be
// stored. Other store errors are returned wrapped.
func (a *Array[T]) Add(value T) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.add(value)
}

// AddAll appends all values in order. It stops at the first error, the values
// before it stay appended.
func (a *Array[T]) AddAll(values ...T) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, v := range values {
		if err := a.add(v); err != nil {
			return err
		}
	}
	return nil
}

// add appends a single value. The caller must hold a.mu.
func (a *Array[T]) add(value T) error {
	state, err := a.ensureLoaded()
	if err != nil {
		return err
	}

	// reject elements that would not even fit into a shard of their own
	solo, err := a.codec.encode([]T{value})
	if err != nil {
		return fmt.Errorf("array %s: encode element: %w", a.id, err)
	}
	if len(solo) > a.opts.MaxShardSize {
		return fmt.Errorf("%w: encoded size %d exceeds the shard size %d", ErrElementTooLarge, len(solo), a.opts.MaxShardSize)
	}

	run := append(slices.Clone(state.shards[state.current]), value)
	return a.writeRun(state, run)
}

// writeRun stores pending at the current shard. Elements that do not fit are
// carried over to the next shard, which becomes the current one, until every
// element is stored.
//
// Every iteration of the outer loop stores at least one element on a fresh
// shard (or fails), so the loop ends after at most len(pending) shards.
func (a *Array[T]) writeRun(state *loadedState[T], pending []T) error {
	index := state.current
	fresh := len(state.shards[index]) == 0

	for {
		var carry []T

		// shrink pending from the back until the shard is stored
		for {
			rejected, err := a.writeShard(state, index, pending)
			if err != nil {
				return err
			}
			if rejected == nil {
				break
			}
			if len(pending) == 0 {
				// even an empty shard is rejected
				return fmt.Errorf("array %s: write shard %d: %w", a.id, index, rejected)
			}
			if fresh && len(pending) == 1 {
				// a single element on an otherwise empty shard will never fit
				return fmt.Errorf("%w: shard %d: %w", ErrElementTooLarge, index, rejected)
			}
			last := len(pending) - 1
			carry = append([]T{pending[last]}, carry...)
			pending = pending[:last]
			a.metrics.shardOverflows.Inc()
		}

		if len(carry) == 0 {
			return nil
		}

		// continue behind the last known shard
		next := state.current + 1
		if len(state.shards) > 0 {
			next = max(next, slices.Max(state.indices())+1)
		}
		if err := a.store.Set(indexKey(a.opts.Prefix, a.id), []byte(strconv.Itoa(next))); err != nil {
			return fmt.Errorf("array %s: write index: %w", a.id, err)
		}
		log.Debugf("array %s: shard %d is full, continuing with shard %d", a.id, index, next)

		state.current = next
		index = next
		pending = carry
		fresh = true
	}
}

// writeShard encodes and stores a single shard and caches the decoded form of
// the stored value on success. A shard that does not fit is reported through rejected: errShardFull
// if the encoding exceeds MaxShardSize (the store is not contacted), otherwise
// the error of the store. A non-nil err is not recoverable by splitting.
func (a *Array[T]) writeShard(state *loadedState[T], index int, elements []T) (rejected, err error) {
	data, err := a.codec.encode(elements)
	if err != nil {
		return nil, fmt.Errorf("array %s: encode shard %d: %w", a.id, index, err)
	}
	if len(data) > a.opts.MaxShardSize {
		return errShardFull, nil
	}
	if err := a.store.Set(shardKey(a.opts.Prefix, a.id, index), data); err != nil {
		log.Debugf("array %s: store rejected shard %d (%d bytes): %v", a.id, index, len(data), err)
		return err, nil
	}
	a.metrics.shardWrites.Inc()

	// cache what a reload would see, encoding and transformer may be lossy
	stored, err := a.codec.decode(data)
	if err != nil {
		log.Warningf("array %s: shard %d is not decodable, treating it as empty: %v", a.id, index, err)
		a.metrics.invalidKeys.Inc()
		stored = []T{}
	}
	state.shards[index] = stored
	return nil, nil
}
