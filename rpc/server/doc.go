// Package server implements the RPC server. It hosts any number of store shards
// and routes every request to the shard named in the request frame.
//
// The package focuses on:
//   - Server-side RPC request handling for store operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Flexible shard configuration with support for local and distributed stores
//   - Value size limits, snapshots of local shards and Prometheus metrics
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a store.IStore.
//
//   - NewIStoreServerAdapter: Factory function creating an adapter for key-value
//     store operations, translating RPC requests to store.IStore method calls.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Type: common.ShardTypeLocalIStore},
//	  },
//	  Transport:       common.ServerTransportConfig{Endpoint: "0.0.0.0:8080"},
//	  MaxValueSize:    12000,
//	  MetricsEndpoint: "0.0.0.0:9090",
//	  SnapshotDir:     "snapshots",
//	  TimeoutSecond:   5,
//	  LogLevel:        "info",
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPDefaultServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Serve until SIGINT or SIGTERM
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// The server supports two types of shards, which can be mixed within a single server:
//
//   - ShardTypeLocalIStore: A local store implementation, suitable for single-node deployments
//     or development environments. If SnapshotDir is set, the shard is restored from
//     <SnapshotDir>/shard-<id>.snap.zst on start and saved there on shutdown.
//
//   - ShardTypeRemoteIStore: A distributed store implementation using Raft consensus,
//     providing strong consistency across multiple nodes. When using this type,
//     RAFT configuration (RTTMillisecond, SnapshotEntries, CompactionOverhead,
//     DataDir, ReplicaID, and ClusterMembers) must be properly configured.
//
// Every shard rejects values larger than MaxValueSize with store.RetCValueTooLarge.
// Per shard and message type the server counts requests and errors and records
// request durations (darray_rpc_requests_total, darray_rpc_errors_total,
// darray_rpc_request_duration_seconds).
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently.
//	Start and Serve must be called only once.
package server
