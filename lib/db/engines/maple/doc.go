// Package maple implements an in-memory key-value database (KVDB) with
// sharded, lock-free maps. It provides a complete implementation of the
// db.KVDB interface including prefix enumeration of keys, which the sharded
// arrays use to discover their shard records.
//
// Key Components:
//
//   - mapleImpl: The central database structure implementing db.KVDB. It manages
//     the shards and the monotonically increasing write index. The write index
//     itself is provided by the caller (lstore uses an atomic counter, dstore the
//     raft log index) so maple can be embedded into replicated state machines.
//
//   - Shard: A partition of the key space backed by an xsync.MapOf. Keys are
//     hashed with a per-database seed and the higher bits of the hash select the shard.
//
//   - Entry: Value, write index and the original string key. Keeping the key in
//     the entry makes Keys(prefix) possible and lets Get/Has detect hash collisions.
//
// Persistence:
//
//	Save writes a binary snapshot (magic number, version, seed, entries with
//	key, index and value). Load replaces the current content with a snapshot.
//	Snapshots can be taken while the database is in use. For compressed
//	snapshot files see the snapshot package.
//
// Usage Example:
//
//	database := maple.NewMapleDB(nil)
//	database.Set("array:users0", []byte(`["alice"]`), 1)
//	keys := database.Keys("array:users") // ["array:users0"]
package maple
