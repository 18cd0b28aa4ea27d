package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/dArray/lib/db"
	"github.com/ValentinKolb/dArray/lib/db/engines/maple"
	"github.com/ValentinKolb/dArray/lib/store"
	"github.com/ValentinKolb/dArray/lib/store/lstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStore() store.IStore {
	return lstore.NewLocalStore(func() db.KVDB {
		return maple.NewMapleDB(nil)
	})
}

func TestErrorCodes(t *testing.T) {
	err := store.NewError(store.RetCValueTooLarge, "too big")
	assert.Equal(t, "KVStoreError (code ValueTooLarge): too big", err.Error())

	wrapped := fmt.Errorf("write shard: %w", err)
	assert.Equal(t, store.RetCValueTooLarge, store.CodeOf(wrapped))
	assert.True(t, store.IsValueTooLarge(wrapped))

	assert.Equal(t, store.RetCSuccess, store.CodeOf(nil))
	assert.Equal(t, store.RetCInternalError, store.CodeOf(errors.New("boom")))
	assert.False(t, store.IsValueTooLarge(nil))
	assert.False(t, store.IsValueTooLarge(store.NewError(store.RetCInternalError, "")))
}

func TestWithValueLimit(t *testing.T) {
	s := store.WithValueLimit(newLocalStore(), 8)

	require.NoError(t, s.Set("fits", []byte("12345678")))

	err := s.Set("too-big", []byte("123456789"))
	require.Error(t, err)
	assert.True(t, store.IsValueTooLarge(err))

	ok, err := s.Has("too-big")
	require.NoError(t, err)
	assert.False(t, ok, "rejected values must not be written")

	value, ok, err := s.Get("fits")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "12345678", string(value))

	info, err := s.GetDBInfo()
	require.NoError(t, err)
	assert.Equal(t, 1, info.KeyCount)
}

func TestWithValueLimitDisabled(t *testing.T) {
	inner := newLocalStore()
	assert.Same(t, inner, store.WithValueLimit(inner, 0))
	assert.Same(t, inner, store.WithValueLimit(inner, -1))
}

func TestLocalStore(t *testing.T) {
	s := newLocalStore()

	require.NoError(t, s.Set("array:users0", []byte(`["a"]`)))
	require.NoError(t, s.Set("array:users1", []byte(`["b"]`)))
	require.NoError(t, s.Set("array:index_users", []byte("1")))

	keys, err := s.Keys("array:users")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"array:users0", "array:users1"}, keys)

	require.NoError(t, s.Delete("array:users1"))
	require.NoError(t, s.Delete("array:users1"), "deleting a missing key is not an error")

	ok, err := s.Has("array:users1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Get("array:users1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStoreSnapshot(t *testing.T) {
	path := t.TempDir() + "/shard.snap.zst"

	src := newLocalStore()
	require.NoError(t, src.Set("array:list0", []byte(`[1]`)))
	require.NoError(t, src.Set("array:list1", []byte(`[2]`)))
	require.NoError(t, src.(lstore.Snapshotter).SaveSnapshot(path))

	dst := newLocalStore()
	require.NoError(t, dst.(lstore.Snapshotter).LoadSnapshot(path))

	value, ok, err := dst.Get("array:list1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[2]", string(value))

	// writes after a restore must not be treated as stale
	require.NoError(t, dst.Set("array:list1", []byte(`[3]`)))
	value, _, err = dst.Get("array:list1")
	require.NoError(t, err)
	assert.Equal(t, "[3]", string(value))
}
