// Package rpc provides the remote procedure call layer that exposes the key-value
// stores backing the sharded arrays over the network. It enables an array to live
// in one process while its shards are stored by a server in another.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP).
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: RPC client implementing store.IStore, so that lib/array can be used
//     on top of a remote store transparently.
//
//   - server: RPC server hosting local and distributed stores, optionally limited
//     in their value size, plus a Prometheus metrics endpoint.
package rpc
