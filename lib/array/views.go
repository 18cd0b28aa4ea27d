package array

import (
	"iter"
	"reflect"
)

// ShardInfo describes a single shard of an array
type ShardInfo struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
	Len   int    `json:"len"`   // number of elements
	Bytes int    `json:"bytes"` // encoded size
}

// snapshot returns the shards of the array in ascending index order.
// The returned slices are shared with the cache, they are never modified in
// place (writes replace whole shards).
func (a *Array[T]) snapshot() ([][]T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state, err := a.ensureLoaded()
	if err != nil {
		return nil, err
	}

	indices := state.indices()
	shards := make([][]T, len(indices))
	for i, index := range indices {
		shards[i] = state.shards[index]
	}
	return shards, nil
}

// All returns an iterator over the positions and elements of the array.
// Every range over the iterator loads the array if necessary and traverses a
// snapshot of all shards. If loading fails the sequence is empty and Err
// reports the error.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		shards, err := a.snapshot()
		a.mu.Lock()
		a.iterErr = err
		a.mu.Unlock()
		if err != nil {
			return
		}

		i := 0
		for _, shard := range shards {
			for _, v := range shard {
				if !yield(i, v) {
					return
				}
				i++
			}
		}
	}
}

// Values returns an iterator over the elements of the array, see All.
func (a *Array[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range a.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Err returns the error that ended the last iteration over All or Values early.
// Every iteration replaces it, so a later successful iteration (including one
// running concurrently) resets it to nil. Read it right after the range loop
// and use GetAll when several goroutines iterate the same array.
func (a *Array[T]) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.iterErr
}

// GetAll returns all elements in order
func (a *Array[T]) GetAll() ([]T, error) {
	shards, err := a.snapshot()
	if err != nil {
		return nil, err
	}
	size := 0
	for _, shard := range shards {
		size += len(shard)
	}
	res := make([]T, 0, size)
	for _, shard := range shards {
		res = append(res, shard...)
	}
	return res, nil
}

// Size returns the number of elements
func (a *Array[T]) Size() (int, error) {
	shards, err := a.snapshot()
	if err != nil {
		return 0, err
	}
	size := 0
	for _, shard := range shards {
		size += len(shard)
	}
	return size, nil
}

// Has reports whether the array contains an element deeply equal to value
func (a *Array[T]) Has(value T) (bool, error) {
	return a.Some(func(v T) bool {
		return reflect.DeepEqual(v, value)
	})
}

// Find returns the first element matching fn
func (a *Array[T]) Find(fn func(T) bool) (T, bool, error) {
	var zero T
	shards, err := a.snapshot()
	if err != nil {
		return zero, false, err
	}
	for _, shard := range shards {
		for _, v := range shard {
			if fn(v) {
				return v, true, nil
			}
		}
	}
	return zero, false, nil
}

// Filter returns all elements matching fn in order
func (a *Array[T]) Filter(fn func(T) bool) ([]T, error) {
	shards, err := a.snapshot()
	if err != nil {
		return nil, err
	}
	res := make([]T, 0)
	for _, shard := range shards {
		for _, v := range shard {
			if fn(v) {
				res = append(res, v)
			}
		}
	}
	return res, nil
}

// Map returns the result of fn for every element of a in order.
// It is a function because methods cannot have type parameters.
func Map[T, R any](a *Array[T], fn func(T) R) ([]R, error) {
	shards, err := a.snapshot()
	if err != nil {
		return nil, err
	}
	res := make([]R, 0)
	for _, shard := range shards {
		for _, v := range shard {
			res = append(res, fn(v))
		}
	}
	return res, nil
}

// ForEach calls fn for every element in order
func (a *Array[T]) ForEach(fn func(T)) error {
	shards, err := a.snapshot()
	if err != nil {
		return err
	}
	for _, shard := range shards {
		for _, v := range shard {
			fn(v)
		}
	}
	return nil
}

// Some reports whether fn returns true for at least one element
func (a *Array[T]) Some(fn func(T) bool) (bool, error) {
	_, found, err := a.Find(fn)
	return found, err
}

// Every reports whether fn returns true for all elements (true for an empty array)
func (a *Array[T]) Every(fn func(T) bool) (bool, error) {
	found, err := a.Some(func(v T) bool { return !fn(v) })
	if err != nil {
		return false, err
	}
	return !found, nil
}

// Shards describes the cached shards in ascending index order
func (a *Array[T]) Shards() ([]ShardInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state, err := a.ensureLoaded()
	if err != nil {
		return nil, err
	}

	infos := make([]ShardInfo, 0, len(state.shards))
	for _, index := range state.indices() {
		elements := state.shards[index]
		data, err := a.codec.encode(elements)
		if err != nil {
			return nil, err
		}
		infos = append(infos, ShardInfo{
			Index: index,
			Key:   shardKey(a.opts.Prefix, a.id, index),
			Len:   len(elements),
			Bytes: len(data),
		})
	}
	return infos, nil
}
