// Package cmd implements the command-line interface of dArray. It provides a
// hierarchical command structure with operations for running the server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts and configures the dArray server
//   - kv: Raw key-value operations on a shard (get, set, del, has, keys)
//   - array: Sharded array operations (add, list, find, shards, clear, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as an environment variable DARRAY_<FLAG>
// (e.g. DARRAY_TRANSPORT_ENDPOINTS). .env and .env.local are loaded on start.
//
// See darray -help for a list of all commands.
package cmd
