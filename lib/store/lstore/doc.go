// Package lstore implements a local, in-memory, single-node key-value store based on the
// store.IStore interface. It provides a thin wrapper around any db.KVDB
// implementation with automatic write index management.
//
// Key Features:
//   - In-memory storage, optionally persisted to zstd compressed snapshot files
//   - Direct integration with db.KVDB implementations
//   - Automatic write index progression using atomic operations
//   - Feature detection to handle unsupported operations gracefully
//   - Thread-safe operations for concurrent access
//
// Implementation Details:
//
//   - Write Index Management: The store maintains an atomic counter that automatically
//     increments with each write operation. This provides a monotonically increasing
//     logical timestamp that ensures consistent ordering of operations.
//
//   - Feature Detection: Before executing operations, the store checks if the underlying
//     db.KVDB implementation supports the requested feature through the SupportsFeature
//     method. Unsupported operations return RetCUnsupportedOperation.
//
//   - Snapshots: the store returned by NewLocalStore implements Snapshotter. The
//     server uses it to restore shards on start and to save them on shutdown.
//
// Usage Example:
//
//	// Create a store with a maple database backend
//	factory := func() db.KVDB { return maple.NewMapleDB(nil) }
//	s := lstore.NewLocalStore(factory)
//
//	// Store a shard record
//	err := s.Set("array:users0", []byte(`["alice"]`))
//
//	// Enumerate the shard records of an array
//	keys, err := s.Keys("array:users")
//
// For distributed scenarios requiring consensus across multiple nodes, consider
// using the dstore package instead, which provides a RAFT-based implementation
// of the same interface.
package lstore
