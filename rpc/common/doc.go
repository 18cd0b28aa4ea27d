// Package common provides core data structures and utilities shared across
// the RPC system. It defines fundamental types, configuration structures, and
// protocol elements used by the other rpc packages.
//
// The package focuses on:
//   - Message protocol definition for client/server communication
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with Dragonboat
//   - Utilities for Dragonboat (RAFT) integration
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication between components,
//     with a flexible structure that adapts to different operation types.
//     Includes factory methods for creating the request and response messages.
//     Errors keep their store.RetCode on the wire, so a client can tell a value
//     that is too large from other failures (see Message.AsError).
//
//   - MessageType: Enumeration defining all supported operation types (set,
//     delete, get, has, keys, info) and the control messages (error, success).
//
//   - ServerConfig: Configuration for server nodes, including RAFT parameters,
//     storage settings, transport settings, value limit, metrics endpoint and
//     snapshot directory. Provides utilities for converting to Dragonboat-specific
//     configurations.
//
//   - ClientConfig: Configuration for client components, controlling connection
//     parameters, timeouts, and retry behavior.
//
//   - Logger: Custom logging implementation that integrates with Dragonboat's
//     logging system while providing consistent formatting across the application.
//     InitLoggers configures the level of every named logger.
package common
