// Package store provides a high-level interface for key-value storage operations
// with unified error handling. It serves as an abstraction layer over the
// lower-level db.KVDB implementations, adding write index management and
// standardized error reporting.
//
// The package focuses on:
//   - A unified interface (IStore) for key-value operations across different backends
//   - Prefix enumeration of keys, which the sharded arrays in lib/array build on
//   - Pluggable storage backend architecture through DBFactory pattern
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for interacting with
//     a key-value store. All implementations share this common interface, allowing
//     applications to switch between different storage backends without code changes.
//
//   - Error System: A structured error reporting mechanism using typed error codes
//     (RetCode) and descriptive messages. CodeOf and IsValueTooLarge inspect
//     wrapped errors.
//
//   - Value ceiling: WithValueLimit decorates any IStore so that values larger
//     than a fixed number of bytes are rejected with RetCValueTooLarge. Hosts
//     with bounded records (and the tests of lib/array) use it.
//
// Implementations:
//
//	- Local Store (lstore): A simple, non-distributed implementation that directly
//	  utilizes a db.KVDB instance. It manages write index progression internally
//	  using atomic operations to ensure thread safety.
//	  Available in the "github.com/ValentinKolb/dArray/lib/store/lstore" package.
//
//	- Distributed Store (dstore): A implementation built on the Dragonboat
//	  RAFT consensus library. It replicates storage operations across multiple nodes
//	  with strong consistency guarantees.
//	  Available in the "github.com/ValentinKolb/dArray/lib/store/dstore" package.
//
//	- RPC Store: a client for a remote dArray server, see rpc/client.
package store
