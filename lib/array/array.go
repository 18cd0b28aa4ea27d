package array

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/ValentinKolb/dArray/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("array")

// loadedState is the in-memory mirror of all shards of an array.
// A nil *loadedState means the array is unloaded.
type loadedState[T any] struct {
	current int         // index of the shard new elements are appended to
	shards  map[int][]T // shard index -> decoded elements
}

// indices returns the shard indices in ascending order
func (s *loadedState[T]) indices() []int {
	return slices.Sorted(maps.Keys(s.shards))
}

// Array is an append-only list of elements of type T that is stored in a
// store.IStore with bounded values. The elements are split across shards
// whose encoded size never exceeds Options.MaxShardSize.
//
// Keys used in the store:
//
//	{prefix}:{id}{n}       shard n, a JSON array of elements
//	{prefix}:index_{id}    index of the shard new elements are appended to
//
// The shards are loaded lazily on first use and cached afterward. The cache
// assumes that no one else writes the keys of the array. Use Unload to force a
// reload after external changes.
//
// All methods are safe for concurrent use. Two Array values with the same
// prefix and id are not coordinated.
type Array[T any] struct {
	mu      sync.Mutex
	store   store.IStore
	id      string
	opts    Options
	codec   codec[T]
	metrics *arrayMetrics

	state   *loadedState[T]
	iterErr error // error of the last iteration (see Err)
}

// New creates an array that stores its elements as plain JSON.
// No I/O is performed until the array is first used.
func New[T any](s store.IStore, id string, opts *Options) (*Array[T], error) {
	return newArray(s, id, identityCodec[T](), opts)
}

// NewWithTransformer creates an array that passes every element through t
// before encoding (OnWrite) and after decoding (OnRead).
func NewWithTransformer[T, U any](s store.IStore, id string, t Transformer[T, U], opts *Options) (*Array[T], error) {
	if t == nil {
		return nil, fmt.Errorf("%w: transformer must not be nil", ErrInvalidOptions)
	}
	return newArray(s, id, transformCodec(t), opts)
}

func newArray[T any](s store.IStore, id string, c codec[T], opts *Options) (*Array[T], error) {
	if s == nil {
		return nil, fmt.Errorf("%w: store must not be nil", ErrInvalidOptions)
	}
	o := opts.withDefaults()
	if err := validate(id, o); err != nil {
		return nil, err
	}
	return &Array[T]{
		store:   s,
		id:      id,
		opts:    o,
		codec:   c,
		metrics: newArrayMetrics(o.Prefix),
	}, nil
}

// ID returns the id of the array
func (a *Array[T]) ID() string {
	return a.id
}

// String returns the id of the array
func (a *Array[T]) String() string {
	return a.id
}

// --------------------------------------------------------------------------
// Loading
// --------------------------------------------------------------------------

// ensureLoaded returns the cache, loading it from the store if necessary.
// The caller must hold a.mu.
func (a *Array[T]) ensureLoaded() (*loadedState[T], error) {
	if a.state != nil {
		return a.state, nil
	}
	state, err := a.load()
	if err != nil {
		return nil, err
	}
	a.state = state
	return state, nil
}

// load reads the index and all shards of the array from the store.
// Malformed keys and values are logged and skipped, store errors are returned.
func (a *Array[T]) load() (*loadedState[T], error) {
	a.metrics.loads.Inc()

	state := &loadedState[T]{shards: make(map[int][]T)}

	// current shard index
	raw, ok, err := a.store.Get(indexKey(a.opts.Prefix, a.id))
	if err != nil {
		return nil, fmt.Errorf("array %s: read index: %w", a.id, err)
	}
	if ok && len(raw) > 0 {
		current, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil || current < 0 {
			log.Warningf("array %s: invalid shard index %q, using 0", a.id, raw)
			a.metrics.invalidKeys.Inc()
		} else {
			state.current = current
		}
	}

	// shards
	keyPrefix := shardKeyPrefix(a.opts.Prefix, a.id)
	keys, err := a.store.Keys(keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("array %s: list shards: %w", a.id, err)
	}

	for _, key := range keys {
		index, ok := parseShardIndex(key, keyPrefix)
		if !ok {
			log.Warningf("array %s: found invalid shard key %q", a.id, key)
			a.metrics.invalidKeys.Inc()
			continue
		}

		value, found, err := a.store.Get(key)
		if err != nil {
			return nil, fmt.Errorf("array %s: read shard %d: %w", a.id, index, err)
		}
		if !found {
			// deleted since the enumeration
			continue
		}

		elements, err := a.codec.decode(value)
		if err != nil {
			log.Warningf("array %s: shard %d is not decodable, treating it as empty: %v", a.id, index, err)
			a.metrics.invalidKeys.Inc()
			elements = []T{}
		}
		state.shards[index] = elements
	}

	log.Debugf("array %s: loaded %d shards, current shard %d", a.id, len(state.shards), state.current)
	return state, nil
}

// Unload drops the cache without touching the store. The next operation
// reloads the array.
func (a *Array[T]) Unload() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = nil
}

// Clear deletes all shards and the index of the array from the store and
// unloads the cache. Clearing an empty array is a no-op.
func (a *Array[T]) Clear() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	keyPrefix := shardKeyPrefix(a.opts.Prefix, a.id)
	keys, err := a.store.Keys(keyPrefix)
	if err != nil {
		return fmt.Errorf("array %s: list shards: %w", a.id, err)
	}

	// the cache no longer matches the store, even if a delete fails below
	a.state = nil

	for _, key := range keys {
		if _, ok := parseShardIndex(key, keyPrefix); !ok {
			// belongs to another array sharing the prefix
			continue
		}
		if err := a.store.Delete(key); err != nil {
			return fmt.Errorf("array %s: delete %s: %w", a.id, key, err)
		}
	}

	if err := a.store.Delete(indexKey(a.opts.Prefix, a.id)); err != nil {
		return fmt.Errorf("array %s: delete index: %w", a.id, err)
	}
	return nil
}

// CurrentShard returns the index of the shard new elements are appended to
func (a *Array[T]) CurrentShard() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state, err := a.ensureLoaded()
	if err != nil {
		return 0, err
	}
	return state.current, nil
}
