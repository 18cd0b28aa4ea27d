// Package db provides a standardized interface for the key-value engines that
// back the dArray stores. It defines the KVDB interface so that stores
// (lstore, dstore) and snapshot tooling can work with any engine while the
// engine details stay hidden.
//
// The package focuses on:
//   - A unified interface for key-value operations
//   - Prefix enumeration of keys, which the sharded arrays rely on to find
//     their shard records
//   - Feature discovery through capability flags
//   - Standardized persistence operations
//
// Key Components:
//
//   - KVDB Interface: The core interface that all database implementations must satisfy.
//     It provides methods for basic operations (Set, Get, Has, Delete), key
//     enumeration (Keys), metadata retrieval (GetInfo) and persistence (Save, Load).
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method. This allows stores to
//     return a typed "unsupported operation" error instead of failing silently.
//
//   - Database Information: The DatabaseInfo structure reports the size, number of
//     keys and implementation specific metadata of a database.
//
// Note on the write index:
//
//	All write operations take a write-index parameter that serves as a logical
//	timestamp. Writes carrying an index lower than the one already stored for a
//	key are ignored, which keeps replicated state machines deterministic when
//	entries are re-applied. The index only ever increases (see SetWriteIdx).
//
// Related Packages:
//
//   - engines/maple: sharded in-memory implementation of KVDB
//   - snapshot: compressed snapshot files for any KVDB supporting Save/Load
//   - testing: a conformance suite and benchmarks for KVDB implementations
package db
