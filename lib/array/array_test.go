package array

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ValentinKolb/dArray/lib/db"
	"github.com/ValentinKolb/dArray/lib/db/engines/maple"
	"github.com/ValentinKolb/dArray/lib/store"
	"github.com/ValentinKolb/dArray/lib/store/lstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func newStore() store.IStore {
	return lstore.NewLocalStore(func() db.KVDB {
		return maple.NewMapleDB(nil)
	})
}

// faultyStore injects errors into a working store
type faultyStore struct {
	store.IStore
	failSet  func(key string, value []byte) error
	failKeys error
}

func (f *faultyStore) Set(key string, value []byte) error {
	if f.failSet != nil {
		if err := f.failSet(key, value); err != nil {
			return err
		}
	}
	return f.IStore.Set(key, value)
}

func (f *faultyStore) Keys(prefix string) ([]string, error) {
	if f.failKeys != nil {
		return nil, f.failKeys
	}
	return f.IStore.Keys(prefix)
}

// storedShards returns the raw values of all shards of id keyed by shard key
func storedShards(t *testing.T, s store.IStore, prefix, id string) map[string]string {
	t.Helper()
	keys, err := s.Keys(shardKeyPrefix(prefix, id))
	require.NoError(t, err)
	res := make(map[string]string, len(keys))
	for _, key := range keys {
		value, ok, err := s.Get(key)
		require.NoError(t, err)
		require.True(t, ok)
		res[key] = string(value)
	}
	return res
}

func storedIndex(t *testing.T, s store.IStore, prefix, id string) (string, bool) {
	t.Helper()
	value, ok, err := s.Get(indexKey(prefix, id))
	require.NoError(t, err)
	return string(value), ok
}

// --------------------------------------------------------------------------
// Construction
// --------------------------------------------------------------------------

func TestNew(t *testing.T) {
	s := newStore()

	a, err := New[string](s, "users", nil)
	require.NoError(t, err)
	assert.Equal(t, "users", a.ID())
	assert.Equal(t, "users", a.String())
	assert.Equal(t, *DefaultOptions(), a.opts)

	a, err = New[string](s, "users", &Options{MaxShardSize: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, a.opts.MaxShardSize)
	assert.Equal(t, DefaultPrefix, a.opts.Prefix)

	tests := []struct {
		name  string
		store store.IStore
		id    string
		opts  *Options
	}{
		{name: "empty id", store: s, id: ""},
		{name: "nil store", store: nil, id: "users"},
		{name: "shard size below empty shard", store: s, id: "users", opts: &Options{MaxShardSize: 1}},
		{name: "negative shard size", store: s, id: "users", opts: &Options{MaxShardSize: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New[string](tt.store, tt.id, tt.opts)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}

	_, err = NewWithTransformer[string, string](s, "users", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestNewPerformsNoIO(t *testing.T) {
	s := &faultyStore{IStore: newStore(), failKeys: errors.New("unreachable")}
	_, err := New[int](s, "numbers", nil)
	assert.NoError(t, err)
}

// --------------------------------------------------------------------------
// Write path
// --------------------------------------------------------------------------

func TestRoundTrip(t *testing.T) {
	s := newStore()
	a, err := New[string](s, "list", &Options{MaxShardSize: 100})
	require.NoError(t, err)

	expected := make([]string, 1000)
	for i := range expected {
		expected[i] = fmt.Sprintf("element-%d", i)
		require.NoError(t, a.Add(expected[i]))
	}

	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, expected, all)

	size, err := a.Size()
	require.NoError(t, err)
	assert.Equal(t, 1000, size)

	shards := storedShards(t, s, DefaultPrefix, "list")
	assert.Greater(t, len(shards), 1)
	for key, value := range shards {
		assert.LessOrEqual(t, len(value), 100, "shard %s exceeds the limit", key)
	}

	current, err := a.CurrentShard()
	require.NoError(t, err)
	index, ok := storedIndex(t, s, DefaultPrefix, "list")
	require.True(t, ok)
	assert.Equal(t, fmt.Sprint(current), index)
	assert.Equal(t, len(shards)-1, current)
}

func TestAddAll(t *testing.T) {
	a, err := New[int](newStore(), "numbers", &Options{MaxShardSize: 10})
	require.NoError(t, err)

	require.NoError(t, a.AddAll(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))

	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, all)
}

func TestOverflowCascade(t *testing.T) {
	s := newStore()
	// `["0"]` has 5 bytes, two elements never fit
	a, err := New[string](s, "chars", &Options{MaxShardSize: 5})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, a.Add(fmt.Sprint(i)))
	}

	shards := storedShards(t, s, DefaultPrefix, "chars")
	require.Len(t, shards, 10)
	for i := 0; i < 10; i++ {
		assert.Equal(t, fmt.Sprintf(`["%d"]`, i), shards[fmt.Sprintf("array:chars%d", i)])
	}

	index, ok := storedIndex(t, s, DefaultPrefix, "chars")
	require.True(t, ok)
	assert.Equal(t, "9", index)

	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}, all)
}

func TestOverflowKeepsOrder(t *testing.T) {
	s := newStore()
	a, err := New[string](s, "list", &Options{MaxShardSize: 24})
	require.NoError(t, err)

	long := strings.Repeat("b", 20)
	require.NoError(t, a.Add("a"))
	require.NoError(t, a.Add(long))

	assert.Equal(t, map[string]string{
		"array:list0": `["a"]`,
		"array:list1": `["` + long + `"]`,
	}, storedShards(t, s, DefaultPrefix, "list"))

	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", long}, all)
}

func TestElementLargerThanShard(t *testing.T) {
	s := newStore()
	a, err := New[string](s, "list", &Options{MaxShardSize: 20})
	require.NoError(t, err)

	require.NoError(t, a.Add("a"))

	// `["bbbbbbbbbbbbbbbbbbbb"]` has 24 bytes
	err = a.Add(strings.Repeat("b", 20))
	assert.ErrorIs(t, err, ErrElementTooLarge)

	// nothing changed
	assert.Equal(t, map[string]string{"array:list0": `["a"]`}, storedShards(t, s, DefaultPrefix, "list"))
	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, all)
}

func TestStoreCeiling(t *testing.T) {
	// the store rejects values the array itself would accept
	s := store.WithValueLimit(newStore(), 20)
	a, err := New[string](s, "list", nil)
	require.NoError(t, err)

	expected := []string{"one", "two", "three", "four", "five", "six", "seven"}
	require.NoError(t, a.AddAll(expected...))

	for key, value := range storedShards(t, s, DefaultPrefix, "list") {
		assert.LessOrEqual(t, len(value), 20, "shard %s exceeds the store limit", key)
	}

	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, expected, all)
}

func TestElementRejectedByStore(t *testing.T) {
	s := store.WithValueLimit(newStore(), 10)
	a, err := New[string](s, "list", nil)
	require.NoError(t, err)

	require.NoError(t, a.Add("a"))

	err = a.Add("this value is too long for the store")
	assert.ErrorIs(t, err, ErrElementTooLarge)
	assert.True(t, store.IsValueTooLarge(err))

	// the array stays usable
	require.NoError(t, a.Add("b"))
	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, all)

	a.Unload()
	all, err = a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, all)
}

func TestElementRejectedAfterOverflow(t *testing.T) {
	s := store.WithValueLimit(newStore(), 12)
	a, err := New[string](s, "list", nil)
	require.NoError(t, err)

	require.NoError(t, a.AddAll("a", "b"))

	// the run overflows shard 0, the carried element is rejected on shard 1
	err = a.Add("too long for the store")
	assert.ErrorIs(t, err, ErrElementTooLarge)

	// shard 0 is rewritten unchanged and the index already points to shard 1
	assert.Equal(t, map[string]string{DefaultPrefix + ":list0": `["a","b"]`}, storedShards(t, s, DefaultPrefix, "list"))
	index, ok := storedIndex(t, s, DefaultPrefix, "list")
	require.True(t, ok)
	assert.Equal(t, "1", index)

	require.NoError(t, a.Add("c"))
	a.Unload()
	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, all)
}

func TestRejectedEmptyShardIsFatal(t *testing.T) {
	s := &faultyStore{IStore: newStore()}
	a, err := New[string](s, "list", nil)
	require.NoError(t, err)
	require.NoError(t, a.Add("a"))

	quota := errors.New("quota exceeded")
	s.failSet = func(string, []byte) error { return quota }

	err = a.Add("b")
	require.Error(t, err)
	assert.ErrorIs(t, err, quota)
	assert.NotErrorIs(t, err, ErrElementTooLarge)
}

func TestIndexWriteError(t *testing.T) {
	s := &faultyStore{IStore: newStore()}
	a, err := New[string](s, "list", &Options{MaxShardSize: 5})
	require.NoError(t, err)
	require.NoError(t, a.Add("a"))

	indexErr := errors.New("index not writable")
	s.failSet = func(key string, _ []byte) error {
		if key == indexKey(DefaultPrefix, "list") {
			return indexErr
		}
		return nil
	}

	assert.ErrorIs(t, a.Add("b"), indexErr)

	current, err := a.CurrentShard()
	require.NoError(t, err)
	assert.Equal(t, 0, current, "the current shard must match the persisted index")
}

func TestEncodeError(t *testing.T) {
	a, err := New[any](newStore(), "list", nil)
	require.NoError(t, err)

	err = a.Add(make(chan int))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrElementTooLarge)
}

// --------------------------------------------------------------------------
// Load
// --------------------------------------------------------------------------

func TestReloadConsistency(t *testing.T) {
	s := newStore()
	a, err := New[int](s, "numbers", &Options{MaxShardSize: 32})
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		require.NoError(t, a.Add(i))
	}

	before, err := a.GetAll()
	require.NoError(t, err)
	currentBefore, err := a.CurrentShard()
	require.NoError(t, err)

	// unload the same instance
	a.Unload()
	after, err := a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// a fresh instance over the same store
	b, err := New[int](s, "numbers", &Options{MaxShardSize: 32})
	require.NoError(t, err)
	fresh, err := b.GetAll()
	require.NoError(t, err)
	assert.Equal(t, before, fresh)

	currentFresh, err := b.CurrentShard()
	require.NoError(t, err)
	assert.Equal(t, currentBefore, currentFresh)

	// appending continues on the current shard
	require.NoError(t, b.Add(200))
	all, err := b.GetAll()
	require.NoError(t, err)
	assert.Equal(t, append(before, 200), all)
}

func TestLoadSkipsMalformedData(t *testing.T) {
	s := newStore()
	require.NoError(t, s.Set("array:list0", []byte(`["a"]`)))
	require.NoError(t, s.Set("array:list1", []byte(`not json`)))
	require.NoError(t, s.Set("array:list2", []byte(``)))
	require.NoError(t, s.Set("array:list3", []byte(`["b","c"]`)))
	require.NoError(t, s.Set("array:listx", []byte(`["invalid key"]`)))
	require.NoError(t, s.Set("array:list-1", []byte(`["negative"]`)))
	require.NoError(t, s.Set("array:index_list", []byte("3")))

	a, err := New[string](s, "list", nil)
	require.NoError(t, err)

	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, all)

	current, err := a.CurrentShard()
	require.NoError(t, err)
	assert.Equal(t, 3, current)

	shards, err := a.Shards()
	require.NoError(t, err)
	require.Len(t, shards, 4)
	assert.Equal(t, ShardInfo{Index: 1, Key: "array:list1", Len: 0, Bytes: 2}, shards[1])
}

func TestLoadInvalidIndex(t *testing.T) {
	s := newStore()
	require.NoError(t, s.Set("array:list0", []byte(`["a"]`)))
	require.NoError(t, s.Set("array:index_list", []byte("garbage")))

	a, err := New[string](s, "list", nil)
	require.NoError(t, err)

	current, err := a.CurrentShard()
	require.NoError(t, err)
	assert.Equal(t, 0, current)

	require.NoError(t, a.Add("b"))
	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, all)
}

func TestLoadError(t *testing.T) {
	listErr := errors.New("store unavailable")
	s := &faultyStore{IStore: newStore(), failKeys: listErr}
	a, err := New[string](s, "list", nil)
	require.NoError(t, err)

	_, err = a.GetAll()
	assert.ErrorIs(t, err, listErr)
	assert.ErrorIs(t, a.Add("a"), listErr)

	count := 0
	for range a.Values() {
		count++
	}
	assert.Equal(t, 0, count)
	assert.ErrorIs(t, a.Err(), listErr)

	// the store recovers, the next iteration resets the error
	s.failKeys = nil
	require.NoError(t, a.Add("a"))
	for range a.Values() {
		count++
	}
	assert.Equal(t, 1, count)
	assert.NoError(t, a.Err())
}

func TestArraysSharingPrefix(t *testing.T) {
	s := newStore()
	list, err := New[string](s, "list", nil)
	require.NoError(t, err)
	lists, err := New[string](s, "lists", nil)
	require.NoError(t, err)

	require.NoError(t, list.Add("a"))
	require.NoError(t, lists.Add("b"))

	all, err := list.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, all)

	// clearing one array keeps the other
	require.NoError(t, list.Clear())
	all, err = lists.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, all)
}

// --------------------------------------------------------------------------
// Clear / Unload
// --------------------------------------------------------------------------

func TestClear(t *testing.T) {
	s := newStore()
	a, err := New[string](s, "list", &Options{MaxShardSize: 5})
	require.NoError(t, err)
	require.NoError(t, a.AddAll("a", "b", "c"))

	require.NoError(t, a.Clear())

	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, storedShards(t, s, DefaultPrefix, "list"))
	_, ok := storedIndex(t, s, DefaultPrefix, "list")
	assert.False(t, ok)

	// idempotent
	require.NoError(t, a.Clear())
	require.NoError(t, a.Clear())

	// writing starts again at shard 0
	require.NoError(t, a.Add("d"))
	assert.Equal(t, map[string]string{"array:list0": `["d"]`}, storedShards(t, s, DefaultPrefix, "list"))
}

func TestClearReloads(t *testing.T) {
	s := newStore()
	a, err := New[string](s, "list", nil)
	require.NoError(t, err)
	require.NoError(t, a.Add("a"))
	require.NoError(t, a.Clear())

	// written by someone else after the clear
	require.NoError(t, s.Set("array:list0", []byte(`["external"]`)))

	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"external"}, all)
}

func TestUnloadDoesNotTouchStore(t *testing.T) {
	s := newStore()
	a, err := New[string](s, "list", nil)
	require.NoError(t, err)
	require.NoError(t, a.Add("a"))

	a.Unload()
	assert.Len(t, storedShards(t, s, DefaultPrefix, "list"), 1)

	// external change becomes visible after an unload
	require.NoError(t, s.Set("array:list0", []byte(`["a","b"]`)))
	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, all)
}

// --------------------------------------------------------------------------
// Transformer
// --------------------------------------------------------------------------

type point struct {
	X, Y int
}

var pointTransformer = TransformerFunc[point, [2]int]{
	Write: func(p point) [2]int { return [2]int{p.X, p.Y} },
	Read:  func(v [2]int) point { return point{X: v[0], Y: v[1]} },
}

func TestTransformerRoundTrip(t *testing.T) {
	s := newStore()
	opts := &Options{Prefix: "points", MaxShardSize: 16}

	a, err := NewWithTransformer[point, [2]int](s, "path", pointTransformer, opts)
	require.NoError(t, err)

	expected := []point{{1, 2}, {3, 4}, {5, 6}, {7, 8}}
	require.NoError(t, a.AddAll(expected...))

	// the stored form is the transformed one
	value, ok, err := s.Get("points:path0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[[1,2],[3,4]]`, string(value))

	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Equal(t, expected, all)

	// and across a reload
	b, err := NewWithTransformer[point, [2]int](s, "path", pointTransformer, opts)
	require.NoError(t, err)
	all, err = b.GetAll()
	require.NoError(t, err)
	assert.Equal(t, expected, all)

	ok, err = b.Has(point{5, 6})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheMatchesStoredForm(t *testing.T) {
	t.Run("json numbers", func(t *testing.T) {
		a, err := New[any](newStore(), "list", nil)
		require.NoError(t, err)
		require.NoError(t, a.Add(1))

		before, err := a.GetAll()
		require.NoError(t, err)
		assert.Equal(t, []any{float64(1)}, before)
		has, err := a.Has(float64(1))
		require.NoError(t, err)
		assert.True(t, has)

		a.Unload()
		after, err := a.GetAll()
		require.NoError(t, err)
		assert.Equal(t, before, after)
		has, err = a.Has(float64(1))
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("lossy transformer", func(t *testing.T) {
		lower := TransformerFunc[string, string]{
			Write: strings.ToLower,
			Read:  func(s string) string { return s },
		}
		a, err := NewWithTransformer[string, string](newStore(), "list", lower, &Options{MaxShardSize: 16})
		require.NoError(t, err)
		require.NoError(t, a.AddAll("Hello", "WORLD", "Go"))

		before, err := a.GetAll()
		require.NoError(t, err)
		assert.Equal(t, []string{"hello", "world", "go"}, before)

		a.Unload()
		after, err := a.GetAll()
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

// --------------------------------------------------------------------------
// Views
// --------------------------------------------------------------------------

func TestViews(t *testing.T) {
	a, err := New[int](newStore(), "numbers", &Options{MaxShardSize: 12})
	require.NoError(t, err)
	require.NoError(t, a.AddAll(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))

	even := func(v int) bool { return v%2 == 0 }

	v, found, err := a.Find(func(v int) bool { return v > 4 })
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 5, v)

	_, found, err = a.Find(func(v int) bool { return v > 100 })
	require.NoError(t, err)
	assert.False(t, found)

	filtered, err := a.Filter(even)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6, 8, 10}, filtered)

	mapped, err := Map(a, func(v int) string { return fmt.Sprint(v * v) })
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "4", "9", "16", "25", "36", "49", "64", "81", "100"}, mapped)

	sum := 0
	require.NoError(t, a.ForEach(func(v int) { sum += v }))
	assert.Equal(t, 55, sum)

	some, err := a.Some(even)
	require.NoError(t, err)
	assert.True(t, some)

	every, err := a.Every(even)
	require.NoError(t, err)
	assert.False(t, every)

	every, err = a.Every(func(v int) bool { return v > 0 })
	require.NoError(t, err)
	assert.True(t, every)

	has, err := a.Has(7)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = a.Has(11)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestViewsOnEmptyArray(t *testing.T) {
	a, err := New[int](newStore(), "empty", nil)
	require.NoError(t, err)

	all, err := a.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)

	size, err := a.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, size)

	every, err := a.Every(func(int) bool { return false })
	require.NoError(t, err)
	assert.True(t, every)

	some, err := a.Some(func(int) bool { return true })
	require.NoError(t, err)
	assert.False(t, some)

	shards, err := a.Shards()
	require.NoError(t, err)
	assert.Empty(t, shards)
}

func TestHasDeepEquality(t *testing.T) {
	type user struct {
		Name  string
		Roles []string
	}
	a, err := New[user](newStore(), "users", nil)
	require.NoError(t, err)
	require.NoError(t, a.Add(user{Name: "alice", Roles: []string{"admin"}}))

	has, err := a.Has(user{Name: "alice", Roles: []string{"admin"}})
	require.NoError(t, err)
	assert.True(t, has)

	has, err = a.Has(user{Name: "alice", Roles: []string{"user"}})
	require.NoError(t, err)
	assert.False(t, has)
}

func TestIterators(t *testing.T) {
	a, err := New[string](newStore(), "list", &Options{MaxShardSize: 10})
	require.NoError(t, err)
	require.NoError(t, a.AddAll("a", "b", "c", "d"))

	// re-iterable
	for i := 0; i < 2; i++ {
		var values []string
		for v := range a.Values() {
			values = append(values, v)
		}
		assert.Equal(t, []string{"a", "b", "c", "d"}, values)
	}

	// positions span shards
	positions := map[int]string{}
	for i, v := range a.All() {
		positions[i] = v
	}
	assert.Equal(t, map[int]string{0: "a", 1: "b", 2: "c", 3: "d"}, positions)

	// early break
	var first []string
	for v := range a.Values() {
		first = append(first, v)
		if len(first) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, first)

	// writes during an iteration do not affect it
	count := 0
	for range a.Values() {
		if count == 0 {
			require.NoError(t, a.Add("e"))
		}
		count++
	}
	assert.Equal(t, 4, count)
	assert.NoError(t, a.Err())
}

func TestShards(t *testing.T) {
	a, err := New[string](newStore(), "list", &Options{MaxShardSize: 10})
	require.NoError(t, err)
	require.NoError(t, a.AddAll("a", "b", "c"))

	shards, err := a.Shards()
	require.NoError(t, err)
	assert.Equal(t, []ShardInfo{
		{Index: 0, Key: "array:list0", Len: 2, Bytes: 9},
		{Index: 1, Key: "array:list1", Len: 1, Bytes: 5},
	}, shards)
}

// --------------------------------------------------------------------------
// Concurrency
// --------------------------------------------------------------------------

func TestConcurrentAdds(t *testing.T) {
	s := newStore()
	a, err := New[string](s, "list", &Options{MaxShardSize: 64})
	require.NoError(t, err)

	workers, perWorker := 8, 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				assert.NoError(t, a.Add(fmt.Sprintf("%d-%d", worker, i)))
			}
		}(w)
	}
	wg.Wait()

	size, err := a.Size()
	require.NoError(t, err)
	assert.Equal(t, workers*perWorker, size)

	// every worker's elements stay in its own order
	all, err := a.GetAll()
	require.NoError(t, err)
	next := make([]int, workers)
	for _, v := range all {
		var worker, i int
		_, err := fmt.Sscanf(v, "%d-%d", &worker, &i)
		require.NoError(t, err)
		assert.Equal(t, next[worker], i)
		next[worker]++
	}

	for key, value := range storedShards(t, s, DefaultPrefix, "list") {
		assert.LessOrEqual(t, len(value), 64, "shard %s exceeds the limit", key)
	}
}

// --------------------------------------------------------------------------
// Internals
// --------------------------------------------------------------------------

func TestParseShardIndex(t *testing.T) {
	tests := []struct {
		key   string
		index int
		ok    bool
	}{
		{"array:list0", 0, true},
		{"array:list42", 42, true},
		{"array:list", 0, false},
		{"array:listx", 0, false},
		{"array:list-1", 0, false},
		{"array:list+1", 0, false},
		{"array:list01", 0, false},
		{"array:list1a", 0, false},
		{"other:list1", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			index, ok := parseShardIndex(tt.key, "array:list")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.index, index)
		})
	}
}

func TestEncodeList(t *testing.T) {
	data, err := encodeList[string](nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = encodeList([]string{"<a&b>"})
	require.NoError(t, err)
	assert.Equal(t, `["<a&b>"]`, string(data))

	values, err := decodeList[string]([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, values)
	assert.Empty(t, values)
}

func TestMetrics(t *testing.T) {
	m := newArrayMetrics("metrics-test")
	writes, overflows, loads := m.shardWrites.Get(), m.shardOverflows.Get(), m.loads.Get()

	a, err := New[string](newStore(), "list", &Options{Prefix: "metrics-test", MaxShardSize: 5})
	require.NoError(t, err)
	require.NoError(t, a.AddAll("a", "b"))

	assert.Equal(t, loads+1, m.loads.Get())
	// shard 0, shard 0 again and shard 1
	assert.Equal(t, writes+3, m.shardWrites.Get())
	assert.Equal(t, overflows+1, m.shardOverflows.Get())
}
