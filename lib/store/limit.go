package store

import (
	"fmt"

	"github.com/ValentinKolb/dArray/lib/db"
)

// limitedStore rejects values larger than max bytes before they reach the wrapped store
type limitedStore struct {
	IStore
	max int
}

// WithValueLimit wraps s so that Set fails with RetCValueTooLarge for values
// longer than max bytes. All other operations are passed through unchanged.
// A max <= 0 disables the limit and returns s itself.
func WithValueLimit(s IStore, max int) IStore {
	if max <= 0 {
		return s
	}
	return &limitedStore{IStore: s, max: max}
}

func (l *limitedStore) Set(key string, value []byte) error {
	if len(value) > l.max {
		return NewError(RetCValueTooLarge, fmt.Sprintf("value for key %q has %d bytes, the limit is %d", key, len(value), l.max))
	}
	return l.IStore.Set(key, value)
}

// GetDBInfo adds the configured limit to the info of the wrapped store
func (l *limitedStore) GetDBInfo() (db.DatabaseInfo, error) {
	info, err := l.IStore.GetDBInfo()
	if err != nil {
		return info, err
	}
	info.Metadata = &struct {
		MaxValueSize int         `json:"max_value_size"`
		Engine       interface{} `json:"engine"`
	}{
		MaxValueSize: l.max,
		Engine:       info.Metadata,
	}
	return info, nil
}
