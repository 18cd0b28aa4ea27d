package lstore

import (
	"sync/atomic"

	"github.com/ValentinKolb/dArray/lib/db"
	"github.com/ValentinKolb/dArray/lib/db/snapshot"
	"github.com/ValentinKolb/dArray/lib/store"
)

// Snapshotter is implemented by local stores. It persists the underlying
// database to a compressed snapshot file and restores it again.
type Snapshotter interface {
	SaveSnapshot(path string) error
	LoadSnapshot(path string) error
}

type storeImpl struct {
	db    db.KVDB
	index atomic.Uint64
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
// This works by using the maple engine from the db package directly.
// The returned store also implements Snapshotter.
func NewLocalStore(factory store.DBFactory) store.IStore {
	return &storeImpl{
		db:    factory(),
		index: atomic.Uint64{},
	}
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	if !s.db.SupportsFeature(db.FeatureSet) {
		return store.NewError(store.RetCUnsupportedOperation, "Set operation is not supported")
	}
	s.db.Set(key, value, s.incAndGetIndex())
	return nil
}

func (s *storeImpl) Delete(key string) error {
	if !s.db.SupportsFeature(db.FeatureDelete) {
		return store.NewError(store.RetCUnsupportedOperation, "Delete operation is not supported")
	}
	s.db.Delete(key, s.incAndGetIndex())
	return nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if !s.db.SupportsFeature(db.FeatureGet) {
		return nil, false, store.NewError(store.RetCUnsupportedOperation, "Get operation is not supported")
	}
	val, ok := s.db.Get(key)
	return val, ok, nil
}

func (s *storeImpl) Has(key string) (bool, error) {
	if !s.db.SupportsFeature(db.FeatureHas) {
		return false, store.NewError(store.RetCUnsupportedOperation, "Has operation is not supported")
	}
	return s.db.Has(key), nil
}

func (s *storeImpl) Keys(prefix string) ([]string, error) {
	if !s.db.SupportsFeature(db.FeatureKeys) {
		return nil, store.NewError(store.RetCUnsupportedOperation, "Keys operation is not supported")
	}
	return s.db.Keys(prefix), nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}

// --------------------------------------------------------------------------
// Snapshots
// --------------------------------------------------------------------------

func (s *storeImpl) SaveSnapshot(path string) error {
	if err := snapshot.WriteFile(s.db, path); err != nil {
		return store.NewError(store.RetCInternalError, err.Error())
	}
	return nil
}

// LoadSnapshot replaces the content of the store. The write index continues
// after the highest index found in the snapshot. A missing file is reported
// with an error wrapping os.ErrNotExist.
func (s *storeImpl) LoadSnapshot(path string) error {
	if err := snapshot.ReadFile(s.db, path); err != nil {
		return err
	}
	for {
		curr := s.index.Load()
		next := s.db.WriteIdx()
		if next <= curr || s.index.CompareAndSwap(curr, next) {
			return nil
		}
	}
}
